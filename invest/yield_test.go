package invest

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/selic/rate-engine/dates"
)

type fakeRanges struct {
	factors map[dates.Date]decimal.Decimal
	err     error
}

func (f *fakeRanges) EnsureRange(start, end dates.Date) (map[dates.Date]decimal.Decimal, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[dates.Date]decimal.Decimal)
	for _, d := range dates.Range(start, end) {
		if v, ok := f.factors[d]; ok {
			out[d] = v
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// weekOfFactors fills Monday 2025-06-02 through Sunday 2025-06-08: five
// yielding weekdays and a zero-factor weekend.
func weekOfFactors(factor decimal.Decimal) (map[dates.Date]decimal.Decimal, dates.Date, dates.Date) {
	start := dates.New(2025, time.June, 2)
	end := dates.New(2025, time.June, 8)
	m := make(map[dates.Date]decimal.Decimal)
	for _, d := range dates.Range(start, end) {
		if d.IsWeekend() {
			m[d] = decimal.Zero
		} else {
			m[d] = factor
		}
	}
	return m, start, end
}

func TestComputeYieldCompoundsOnlyPositiveFactors(t *testing.T) {
	factor := dec("1.0005")
	m, start, end := weekOfFactors(factor)
	calc := NewCalculator(&fakeRanges{factors: m})

	principal := dec("1000")
	res, err := calc.ComputeYield(principal, start, end, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := decimal.NewFromInt(1)
	for i := 0; i < 5; i++ {
		want = want.Mul(factor)
	}
	if !res.CompoundFactor.Equal(want) {
		t.Errorf("compound factor = %s, want %s", res.CompoundFactor, want)
	}
	if res.TotalDays != 7 || res.CompoundedDays != 5 || res.NonYieldDays != 2 {
		t.Errorf("day counts = total %d compounded %d nonYield %d, want 7/5/2",
			res.TotalDays, res.CompoundedDays, res.NonYieldDays)
	}
	if res.UnknownDays != 0 || res.Incomplete {
		t.Errorf("complete week must not be flagged incomplete: %+v", res)
	}
	if !res.GrossFinal.Equal(principal.Mul(want)) {
		t.Errorf("gross final = %s, want %s", res.GrossFinal, principal.Mul(want))
	}
}

func TestComputeYieldIncomeTaxBrackets(t *testing.T) {
	cases := []struct {
		days    int
		wantPct string
	}{
		{1, "22.5"},
		{180, "22.5"},
		{181, "20"},
		{360, "20"},
		{361, "17.5"},
		{720, "17.5"},
		{721, "15"},
	}
	for _, tc := range cases {
		start := dates.New(2023, time.January, 2)
		end := start.AddDays(tc.days - 1)
		m := make(map[dates.Date]decimal.Decimal)
		for _, d := range dates.Range(start, end) {
			m[d] = decimal.NewFromInt(1)
		}
		calc := NewCalculator(&fakeRanges{factors: m})

		res, err := calc.ComputeYield(dec("1000"), start, end, decimal.Zero, decimal.Zero)
		if err != nil {
			t.Fatalf("%d days: unexpected error: %v", tc.days, err)
		}
		if res.TotalDays != tc.days {
			t.Fatalf("%d days: TotalDays = %d", tc.days, res.TotalDays)
		}
		if !res.IncomeTaxRatePct.Equal(dec(tc.wantPct)) {
			t.Errorf("%d days: bracket = %s%%, want %s%%",
				tc.days, res.IncomeTaxRatePct, tc.wantPct)
		}
	}
}

func TestComputeYieldTransactionTax(t *testing.T) {
	// A single yielding day: gross yield is principal * 0.001.
	start := dates.New(2025, time.June, 2)
	m := map[dates.Date]decimal.Decimal{start: dec("1.001")}
	calc := NewCalculator(&fakeRanges{factors: m})

	res, err := calc.ComputeYield(dec("10000"), start, start, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Day 1 of the regressive table taxes 96% of the gross yield.
	wantIOF := res.GrossYield.Mul(dec("0.96"))
	if !res.TransactionTax.Equal(wantIOF) {
		t.Errorf("IOF = %s, want %s", res.TransactionTax, wantIOF)
	}

	// From day 30 on there is no transaction tax.
	end := start.AddDays(29)
	m30 := make(map[dates.Date]decimal.Decimal)
	for _, d := range dates.Range(start, end) {
		m30[d] = dec("1.001")
	}
	calc30 := NewCalculator(&fakeRanges{factors: m30})
	res30, err := calc30.ComputeYield(dec("10000"), start, end, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res30.TotalDays != 30 {
		t.Fatalf("TotalDays = %d, want 30", res30.TotalDays)
	}
	if !res30.TransactionTax.IsZero() {
		t.Errorf("IOF at 30 days = %s, want 0", res30.TransactionTax)
	}
}

func TestComputeYieldProRatedFees(t *testing.T) {
	// A full 365-day period makes the annual fee apply in full.
	start := dates.New(2024, time.March, 1)
	end := start.AddDays(364)
	m := make(map[dates.Date]decimal.Decimal)
	for _, d := range dates.Range(start, end) {
		m[d] = decimal.NewFromInt(1)
	}
	calc := NewCalculator(&fakeRanges{factors: m})

	res, err := calc.ComputeYield(dec("1000"), start, end, dec("0.5"), dec("0.2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.AdminFee.Equal(dec("5")) {
		t.Errorf("admin fee = %s, want 5", res.AdminFee)
	}
	if !res.CustodyFee.Equal(dec("2")) {
		t.Errorf("custody fee = %s, want 2", res.CustodyFee)
	}
	if !res.NetYield.Equal(res.GrossYield.Sub(res.IncomeTax).Sub(dec("7")).Sub(res.TransactionTax)) {
		t.Errorf("net yield does not subtract the fees: %+v", res)
	}
}

func TestComputeYieldFlagsUnknownDays(t *testing.T) {
	factor := dec("1.0005")
	m, start, end := weekOfFactors(factor)
	// Drop Wednesday from the completed range.
	delete(m, dates.New(2025, time.June, 4))
	calc := NewCalculator(&fakeRanges{factors: m})

	res, err := calc.ComputeYield(dec("1000"), start, end, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UnknownDays != 1 || !res.Incomplete {
		t.Errorf("expected 1 unknown day and Incomplete, got %+v", res)
	}
	// The gap is neutral: four factors compound instead of five.
	want := decimal.NewFromInt(1)
	for i := 0; i < 4; i++ {
		want = want.Mul(factor)
	}
	if !res.CompoundFactor.Equal(want) {
		t.Errorf("compound factor = %s, want %s", res.CompoundFactor, want)
	}
}

func TestComputeYieldPropagatesRangeError(t *testing.T) {
	boom := errors.New("end before start")
	calc := NewCalculator(&fakeRanges{err: boom})

	_, err := calc.ComputeYield(dec("1000"),
		dates.New(2025, time.June, 2), dates.New(2025, time.June, 1),
		decimal.Zero, decimal.Zero)
	if !errors.Is(err, boom) {
		t.Errorf("expected range error to propagate, got %v", err)
	}
}
