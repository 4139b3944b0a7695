package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const leadsSheet = "Leads"

var leadHeaders = []string{
	"ID", "Session", "Created At", "Channel", "Contact", "Contact Kind",
	"ZIP", "Size (yd)", "Days", "Veteran", "Delivery Date", "Final Price",
}

func newLeadsWorkbook(leads []Lead) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), leadsSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	for col, header := range leadHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(leadsSheet, cell, header)
	}

	for row, lead := range leads {
		delivery := ""
		if lead.DeliveryDate != nil {
			delivery = lead.DeliveryDate.Format(time.DateOnly)
		}
		price, _ := lead.FinalPrice.Float64()

		data := []any{
			lead.ID,
			lead.SessionID,
			lead.CreatedAt.Format("2006-01-02 15:04"),
			lead.Channel,
			lead.Contact,
			lead.ContactKind,
			lead.ZipCode,
			lead.Size,
			lead.DurationDays,
			lead.IsVeteran,
			delivery,
			price,
		}
		for col, value := range data {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(leadsSheet, cell, value)
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(leadHeaders), 1)
		f.SetCellStyle(leadsSheet, "A1", last, style)
	}

	return f, nil
}

// WriteLeadsWorkbook streams an xlsx report of leads to w.
func WriteLeadsWorkbook(w io.Writer, leads []Lead) error {
	f, err := newLeadsWorkbook(leads)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ExportLeadsToFile saves the report under dir and returns its path.
func ExportLeadsToFile(dir, name string, leads []Lead) (string, error) {
	f, err := newLeadsWorkbook(leads)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	path := filepath.Join(dir, name+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}
	return path, nil
}

type LeadLister interface {
	ListLeads(ctx context.Context, since time.Time) ([]Lead, error)
}

// ExportLeadsSince writes every lead created after since to a timestamped
// report under dir. It returns the report path and the number of leads.
func ExportLeadsSince(ctx context.Context, src LeadLister, dir string, since, now time.Time) (string, int, error) {
	leads, err := src.ListLeads(ctx, since)
	if err != nil {
		return "", 0, err
	}

	path, err := ExportLeadsToFile(dir, "leads_"+now.Format("20060102_1504"), leads)
	if err != nil {
		return "", 0, err
	}
	return path, len(leads), nil
}
