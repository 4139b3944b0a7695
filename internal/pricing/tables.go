package pricing

import (
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// Size is a dumpster size in cubic yards.
type Size int

const (
	Size10 Size = 10
	Size12 Size = 12
	Size15 Size = 15
	Size20 Size = 20
	Size30 Size = 30
)

// Sizes lists the sizes offered on the quote form, smallest first.
var Sizes = []Size{Size10, Size12, Size15, Size20, Size30}

// Durations lists the rental lengths offered on the quote form, in days.
var Durations = []int{1, 3, 7, 14, 30}

// Tables holds every constant the engine prices with. NewEngine keeps its own
// copy, so callers may reuse or change a Tables value afterwards.
type Tables struct {
	BasePrices    map[Size]decimal.Decimal
	MonthlyPrices map[Size]decimal.Decimal

	// Dirt and concrete containers are handled like the largest roll-off.
	SpecializedSizes  []Size
	SpecializedBillAs Size

	SingleDayDiscount decimal.Decimal // fraction taken off base for 1-day pickup
	BundleDays        int             // every duration in 2..BundleDays costs base
	MonthlyDays       int
	VeteranRate       decimal.Decimal
}

func DefaultTables() Tables {
	return Tables{
		BasePrices: map[Size]decimal.Decimal{
			Size15: decimal.NewFromInt(350),
			Size20: decimal.NewFromInt(375),
			Size30: decimal.NewFromInt(450),
		},
		MonthlyPrices: map[Size]decimal.Decimal{
			Size15: decimal.NewFromInt(475),
			Size20: decimal.NewFromInt(525),
			Size30: decimal.NewFromInt(600),
		},
		SpecializedSizes:  []Size{Size10, Size12},
		SpecializedBillAs: Size30,
		SingleDayDiscount: decimal.RequireFromString("0.30"),
		BundleDays:        7,
		MonthlyDays:       30,
		VeteranRate:       decimal.RequireFromString("0.10"),
	}
}

func (t Tables) clone() Tables {
	t.BasePrices = maps.Clone(t.BasePrices)
	t.MonthlyPrices = maps.Clone(t.MonthlyPrices)
	t.SpecializedSizes = slices.Clone(t.SpecializedSizes)
	return t
}

// Validate checks the table is internally consistent: every billable size has
// a base and a monthly price and all rates are sane.
func (t Tables) Validate() error {
	const operation = "pricing.Tables.Validate"

	if t.BundleDays < 2 {
		return fmt.Errorf("%s: bundle days must be at least 2, got %d", operation, t.BundleDays)
	}
	if t.MonthlyDays <= t.BundleDays {
		return fmt.Errorf("%s: monthly days %d must exceed bundle days %d", operation, t.MonthlyDays, t.BundleDays)
	}
	if t.SingleDayDiscount.IsNegative() || t.SingleDayDiscount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s: invalid single-day discount: %s", operation, t.SingleDayDiscount)
	}
	if t.VeteranRate.IsNegative() || t.VeteranRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s: invalid veteran rate: %s", operation, t.VeteranRate)
	}

	for _, size := range Sizes {
		billed := t.billedSize(size)
		base, ok := t.BasePrices[billed]
		if !ok || !base.IsPositive() {
			return fmt.Errorf("%s: missing or invalid base price for %d yd", operation, billed)
		}
		monthly, ok := t.MonthlyPrices[billed]
		if !ok || !monthly.IsPositive() {
			return fmt.Errorf("%s: missing or invalid 30-day price for %d yd", operation, billed)
		}
	}
	return nil
}

func (t Tables) billedSize(size Size) Size {
	if t.IsSpecialized(size) {
		return t.SpecializedBillAs
	}
	return size
}

// IsSpecialized reports whether size is a dirt/concrete container.
func (t Tables) IsSpecialized(size Size) bool {
	for _, s := range t.SpecializedSizes {
		if s == size {
			return true
		}
	}
	return false
}

func ValidSize(size Size) bool {
	for _, s := range Sizes {
		if s == size {
			return true
		}
	}
	return false
}

func ValidDuration(days int) bool {
	for _, d := range Durations {
		if d == days {
			return true
		}
	}
	return false
}
