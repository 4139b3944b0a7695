package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierSingleDay Tier = "single_day"
	TierBundle    Tier = "bundle"
	TierExtended  Tier = "extended"
	TierMonthly   Tier = "monthly"
)

// PriceBreakdown is the itemized result of one calculation. Amounts keep full
// precision; rounding is a display concern.
type PriceBreakdown struct {
	Size                Size            `json:"size"`
	BilledSize          Size            `json:"billed_size"`
	Specialized         bool            `json:"specialized"`
	DurationDays        int             `json:"duration_days"`
	Tier                Tier            `json:"tier"`
	IsVeteran           bool            `json:"is_veteran"`
	BasePrice           decimal.Decimal `json:"base_price"`
	ExtraDays           int             `json:"extra_days,omitempty"`
	ExtraDayRate        decimal.Decimal `json:"extra_day_rate"`
	ExtraDaysCharge     decimal.Decimal `json:"extra_days_charge"`
	TotalBeforeDiscount decimal.Decimal `json:"total_before_discount"`
	VeteranDiscount     decimal.Decimal `json:"veteran_discount"`
	FinalPrice          decimal.Decimal `json:"final_price"`
}

// HasExtraDays reports whether the extended tier billed any day past the bundle.
func (b PriceBreakdown) HasExtraDays() bool {
	return b.Tier == TierExtended && b.ExtraDays > 0
}

type Engine struct {
	tables Tables
}

func NewEngine(tables Tables) (*Engine, error) {
	if err := tables.Validate(); err != nil {
		return nil, err
	}
	return &Engine{tables: tables.clone()}, nil
}

// MustDefault returns an engine over DefaultTables. It panics only if the
// built-in table is broken.
func MustDefault() *Engine {
	e, err := NewEngine(DefaultTables())
	if err != nil {
		panic(fmt.Sprintf("pricing: default tables: %v", err))
	}
	return e
}

// Compute prices a rental. Inputs must already be validated with ValidateRequest.
func (e *Engine) Compute(size Size, durationDays int, isVeteran bool) PriceBreakdown {
	t := e.tables
	billed := t.billedSize(size)
	base := t.BasePrices[billed]

	b := PriceBreakdown{
		Size:            size,
		BilledSize:      billed,
		Specialized:     t.IsSpecialized(size),
		DurationDays:    durationDays,
		IsVeteran:       isVeteran,
		BasePrice:       base,
		ExtraDayRate:    decimal.Zero,
		ExtraDaysCharge: decimal.Zero,
		VeteranDiscount: decimal.Zero,
	}

	// Tier precedence matters: the monthly special is checked before the
	// extended formula would apply to it.
	switch {
	case durationDays == t.MonthlyDays:
		b.Tier = TierMonthly
		b.TotalBeforeDiscount = t.MonthlyPrices[billed]
	case durationDays <= 1:
		b.Tier = TierSingleDay
		b.TotalBeforeDiscount = base.Mul(decimal.NewFromInt(1).Sub(t.SingleDayDiscount))
	case durationDays <= t.BundleDays:
		b.Tier = TierBundle
		b.TotalBeforeDiscount = base
	default:
		b.Tier = TierExtended
		b.ExtraDays = durationDays - t.BundleDays
		b.ExtraDayRate = base.Div(decimal.NewFromInt(int64(t.BundleDays))).Ceil()
		b.ExtraDaysCharge = b.ExtraDayRate.Mul(decimal.NewFromInt(int64(b.ExtraDays)))
		b.TotalBeforeDiscount = base.Add(b.ExtraDaysCharge)
	}

	if isVeteran {
		b.VeteranDiscount = b.TotalBeforeDiscount.Mul(t.VeteranRate)
	}
	b.FinalPrice = b.TotalBeforeDiscount.Sub(b.VeteranDiscount)

	return b
}
