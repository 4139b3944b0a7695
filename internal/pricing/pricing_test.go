package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestComputeTiers(t *testing.T) {
	e := MustDefault()

	tests := []struct {
		name      string
		size      Size
		days      int
		veteran   bool
		wantTotal decimal.Decimal
		wantFinal decimal.Decimal
		wantTier  Tier
	}{
		{"single day is 70% of base", Size15, 1, false, dec(245), dec(245), TierSingleDay},
		{"three day bundle", Size20, 3, false, dec(375), dec(375), TierBundle},
		{"seven day bundle", Size20, 7, false, dec(375), dec(375), TierBundle},
		{"fourteen days adds ceil(base/7) per extra day", Size20, 14, false, dec(753), dec(753), TierExtended},
		{"thirty day special", Size20, 30, false, dec(525), dec(525), TierMonthly},
		{"veteran on bundle", Size15, 7, true, dec(350), dec(315), TierBundle},
		{"veteran on monthly", Size30, 30, true, dec(600), dec(540), TierMonthly},
		{"specialized 10 billed as 30", Size10, 7, false, dec(450), dec(450), TierBundle},
		{"specialized 12 billed as 30", Size12, 3, false, dec(450), dec(450), TierBundle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Compute(tt.size, tt.days, tt.veteran)
			if got.Tier != tt.wantTier {
				t.Errorf("tier = %s, want %s", got.Tier, tt.wantTier)
			}
			if !got.TotalBeforeDiscount.Equal(tt.wantTotal) {
				t.Errorf("total before discount = %s, want %s", got.TotalBeforeDiscount, tt.wantTotal)
			}
			if !got.FinalPrice.Equal(tt.wantFinal) {
				t.Errorf("final price = %s, want %s", got.FinalPrice, tt.wantFinal)
			}
		})
	}
}

func TestComputeBundleInvariant(t *testing.T) {
	e := MustDefault()
	for _, size := range Sizes {
		base := e.Compute(size, 7, false).BasePrice
		for days := 2; days <= 7; days++ {
			got := e.Compute(size, days, false)
			if !got.TotalBeforeDiscount.Equal(base) {
				t.Errorf("size %d, %d days: total %s, want base %s", size, days, got.TotalBeforeDiscount, base)
			}
		}
	}
}

func TestComputeExtendedBreakdown(t *testing.T) {
	got := MustDefault().Compute(Size20, 14, false)

	if got.ExtraDays != 7 {
		t.Fatalf("extra days = %d, want 7", got.ExtraDays)
	}
	if !got.ExtraDayRate.Equal(dec(54)) {
		t.Errorf("extra day rate = %s, want 54", got.ExtraDayRate)
	}
	if !got.ExtraDaysCharge.Equal(dec(378)) {
		t.Errorf("extra days charge = %s, want 378", got.ExtraDaysCharge)
	}
	if !got.HasExtraDays() {
		t.Error("expected HasExtraDays for a 14-day rental")
	}
}

func TestComputeMonthlyIgnoresExtendedFormula(t *testing.T) {
	got := MustDefault().Compute(Size20, 30, false)
	formula := dec(375).Add(dec(54).Mul(dec(23)))

	if got.TotalBeforeDiscount.Equal(formula) {
		t.Fatalf("30-day price used the per-day formula (%s)", formula)
	}
	if !got.ExtraDaysCharge.IsZero() {
		t.Errorf("30-day rental should carry no extra-day charge, got %s", got.ExtraDaysCharge)
	}
}

func TestComputeVeteranDiscountIsTenPercentOnce(t *testing.T) {
	e := MustDefault()
	for _, size := range Sizes {
		for _, days := range Durations {
			got := e.Compute(size, days, true)
			want := got.TotalBeforeDiscount.Mul(decimal.RequireFromString("0.1"))
			if !got.VeteranDiscount.Equal(want) {
				t.Errorf("size %d, %d days: discount %s, want %s", size, days, got.VeteranDiscount, want)
			}
			if !got.FinalPrice.Equal(got.TotalBeforeDiscount.Sub(want)) {
				t.Errorf("size %d, %d days: final %s is not total minus one discount", size, days, got.FinalPrice)
			}
		}
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	e := MustDefault()
	for _, size := range Sizes {
		for _, days := range Durations {
			a := e.Compute(size, days, true)
			b := e.Compute(size, days, true)
			if !a.FinalPrice.Equal(b.FinalPrice) || !a.TotalBeforeDiscount.Equal(b.TotalBeforeDiscount) ||
				!a.VeteranDiscount.Equal(b.VeteranDiscount) || a.Tier != b.Tier {
				t.Errorf("size %d, %d days: results differ between calls", size, days)
			}
			if a.FinalPrice.IsNegative() || a.VeteranDiscount.IsNegative() {
				t.Errorf("size %d, %d days: negative money value", size, days)
			}
		}
	}
}

func TestNewEngineInvalidTables(t *testing.T) {
	tables := DefaultTables()
	tables.BasePrices = map[Size]decimal.Decimal{Size15: dec(350)}

	if _, err := NewEngine(tables); err == nil {
		t.Error("expected error for table missing base prices, got nil")
	}

	tables = DefaultTables()
	tables.VeteranRate = dec(2)
	if _, err := NewEngine(tables); err == nil {
		t.Error("expected error for veteran rate above 100%, got nil")
	}
}

func TestNewEngineCopiesTables(t *testing.T) {
	tables := DefaultTables()
	e, err := NewEngine(tables)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	tables.BasePrices[Size20] = dec(1)
	tables.MonthlyPrices[Size20] = dec(1)
	tables.SpecializedSizes[0] = Size20

	if got := e.Compute(Size20, 7, false).FinalPrice; !got.Equal(dec(375)) {
		t.Errorf("7-day 20yd after caller mutation: got %s, want 375", got)
	}
	if got := e.Compute(Size20, 30, false).FinalPrice; !got.Equal(dec(525)) {
		t.Errorf("30-day 20yd after caller mutation: got %s, want 525", got)
	}
	if got := e.Compute(Size10, 7, false).FinalPrice; !got.Equal(dec(450)) {
		t.Errorf("10yd after caller mutation: got %s, want 450", got)
	}
}

func TestValidateRequest(t *testing.T) {
	if err := ValidateRequest(QuoteRequest{ZipCode: "84101", Size: Size20, DurationDays: 7}); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	err := ValidateRequest(QuoteRequest{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, want := range []error{ErrMissingZip, ErrMissingSize, ErrMissingDuration} {
		if !errors.Is(err, want) {
			t.Errorf("expected %v in %v", want, err)
		}
	}

	for _, zip := range []string{"٠123", "٨٤١٠١", "8410１", "84l01"} {
		if err := ValidateRequest(QuoteRequest{ZipCode: zip, Size: Size20, DurationDays: 7}); !errors.Is(err, ErrInvalidZip) {
			t.Errorf("zip %q: expected ErrInvalidZip, got %v", zip, err)
		}
	}

	err = ValidateRequest(QuoteRequest{ZipCode: "8410", Size: 25, DurationDays: 5})
	for _, want := range []error{ErrInvalidZip, ErrUnsupportedSize, ErrUnsupportedDuration} {
		if !errors.Is(err, want) {
			t.Errorf("expected %v in %v", want, err)
		}
	}
}
