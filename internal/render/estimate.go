package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"dumpster-quote/internal/pricing"

	"github.com/shopspring/decimal"
)

// Disclaimers carries the fixed fee copy appended to every estimate.
type Disclaimers struct {
	TonnageRatePerTon decimal.Decimal
	ItemSurcharge     decimal.Decimal
	BusinessPhone     string
}

type Line struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// Estimate is the display model of a PriceBreakdown.
type Estimate struct {
	Headline    string   `json:"headline"`
	Total       string   `json:"total"`
	Lines       []Line   `json:"lines,omitempty"`
	Disclaimers []string `json:"disclaimers"`
	Text        string   `json:"text"`
}

const estimateTemplate = `Estimated total: {{.Total}}
{{- if .Lines}}

{{range .Lines}}  {{printf "%-40s" .Label}} {{.Amount}}
{{end}}
{{- end}}
{{- range .Disclaimers}}
* {{.}}
{{- end}}
`

var tmpl = template.Must(template.New("estimate").Parse(estimateTemplate))

// RenderEstimate turns a breakdown into the estimate block shown under the form.
func RenderEstimate(b pricing.PriceBreakdown, d Disclaimers) (Estimate, error) {
	total := FormatDollars(b.FinalPrice)
	est := Estimate{
		Headline:    fmt.Sprintf("Your estimated price: %s", total),
		Total:       total,
		Lines:       lines(b),
		Disclaimers: disclaimers(b, d),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, est); err != nil {
		return Estimate{}, fmt.Errorf("render estimate: %w", err)
	}
	est.Text = strings.TrimSpace(buf.String())
	return est, nil
}

func lines(b pricing.PriceBreakdown) []Line {
	var out []Line

	if b.DurationDays >= 2 && b.DurationDays <= 30 {
		switch b.Tier {
		case pricing.TierMonthly:
			out = append(out, Line{
				Label:  fmt.Sprintf("%d-day special (%d yd)", b.DurationDays, b.BilledSize),
				Amount: FormatMoney(b.TotalBeforeDiscount),
			})
		case pricing.TierBundle:
			out = append(out, Line{
				Label:  fmt.Sprintf("7-day bundle (%d yd, %d days)", b.BilledSize, b.DurationDays),
				Amount: FormatMoney(b.BasePrice),
			})
		case pricing.TierExtended:
			out = append(out,
				Line{
					Label:  fmt.Sprintf("7-day bundle (%d yd)", b.BilledSize),
					Amount: FormatMoney(b.BasePrice),
				},
				Line{
					Label:  fmt.Sprintf("%d extra days x %s", b.ExtraDays, FormatMoney(b.ExtraDayRate)),
					Amount: FormatMoney(b.ExtraDaysCharge),
				},
			)
		}
	}

	if b.VeteranDiscount.IsPositive() {
		out = append(out, Line{
			Label:  "Veteran discount (10%)",
			Amount: "-" + FormatMoney(b.VeteranDiscount),
		})
	}

	if len(out) > 0 {
		out = append(out, Line{Label: "Estimated total", Amount: FormatMoney(b.FinalPrice)})
	}
	return out
}

func disclaimers(b pricing.PriceBreakdown, d Disclaimers) []string {
	var out []string
	if b.Specialized {
		out = append(out, fmt.Sprintf(
			"%d-yard dirt/concrete dumpsters are priced at the %d-yard rate because of the extra handling heavy material needs.",
			b.Size, b.BilledSize))
	}
	out = append(out,
		fmt.Sprintf("Disposal weight is billed separately at a flat %s per ton after the load is weighed.",
			FormatMoney(d.TonnageRatePerTon)),
		fmt.Sprintf("A flat %s fee applies per item for refrigerators, freezers, AC units, mattresses and tires.",
			FormatMoney(d.ItemSurcharge)),
	)
	if d.BusinessPhone != "" {
		out = append(out, fmt.Sprintf("This is an estimate. Call or text %s for exact pricing.", d.BusinessPhone))
	}
	return out
}

// FormatDollars rounds to whole dollars: $375.
func FormatDollars(v decimal.Decimal) string {
	return "$" + v.Round(0).StringFixed(0)
}

// FormatMoney keeps cents: $37.50.
func FormatMoney(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}
