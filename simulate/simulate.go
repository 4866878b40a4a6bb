/*
Package simulate projects a long-horizon investment with periodic
contributions.

PURPOSE:
  Month-by-month projection over a fixed number of years: an expected annual
  return net of admin fee is converted to its monthly equivalent, dividends
  accrue at their own monthly rate, contributions land on a configurable
  cadence, and taxes are withheld from yield and dividends each month. The
  summary reports gross and net balances, an inflation-adjusted final value,
  and annualized returns (CAGR).

PRECISION:
  This is a projection over estimated annual rates, not an accounting
  calculation, so it runs on float64. Exact daily-factor arithmetic lives in
  the invest package.

SEE ALSO:
  - invest/yield.go: exact historical yield over cached daily factors
*/
package simulate

import (
	"fmt"
	"math"
)

// Frequency is a contribution cadence.
type Frequency string

const (
	Monthly      Frequency = "monthly"
	Bimonthly    Frequency = "bimonthly"
	Quarterly    Frequency = "quarterly"
	Semiannually Frequency = "semiannually"
	Annually     Frequency = "annually"
	None         Frequency = "none"
)

// everyMonths maps a cadence to its period in months; 0 means never.
var everyMonths = map[Frequency]int{
	Monthly:      1,
	Bimonthly:    2,
	Quarterly:    3,
	Semiannually: 6,
	Annually:     12,
	None:         0,
}

// Input holds the simulation parameters. Rates are decimals per year
// (0.10 means 10%).
type Input struct {
	InitialAmount   float64
	Contribution    float64
	Years           int
	AnnualReturn    float64
	AdminFeeRate    float64
	TaxRate         float64
	AnnualInflation float64
	Frequency       Frequency
	DividendYield   float64
	WithHistory     bool
}

// MonthDetail is one month of the projection.
type MonthDetail struct {
	Month          int     `json:"month"`
	TotalInvested  float64 `json:"totalInvested"`
	Yield          float64 `json:"yield"`
	Dividend       float64 `json:"dividend"`
	GrossBalance   float64 `json:"grossBalance"`
	NetBalance     float64 `json:"netBalance"`
	AccruedReturn  float64 `json:"accruedReturn"`
	AdminFee       float64 `json:"adminFee"`
	Tax            float64 `json:"tax"`
	NetYield       float64 `json:"netYield"`
	Contribution   float64 `json:"contribution"`
}

// Summary is the aggregate outcome of a projection.
type Summary struct {
	GrossFinal        float64 `json:"grossFinal"`
	TotalInvested     float64 `json:"totalInvested"`
	TotalGrossYield   float64 `json:"totalGrossYield"`
	TotalDividends    float64 `json:"totalDividends"`
	TotalAdminFees    float64 `json:"totalAdminFees"`
	TotalYieldTax     float64 `json:"totalYieldTax"`
	TotalDividendTax  float64 `json:"totalDividendTax"`
	TotalTax          float64 `json:"totalTax"`
	NetFinal          float64 `json:"netFinal"`
	InflationAdjusted float64 `json:"inflationAdjustedFinal"`
	NetCAGRPct        float64 `json:"netAnnualizedReturnPct"`
	RealCAGRPct       float64 `json:"realAnnualizedReturnPct"`
	Frequency         Frequency `json:"contributionFrequency"`
	DividendYieldPct  float64 `json:"annualDividendYieldPct"`
}

// Result bundles the summary with the optional monthly history.
type Result struct {
	Summary Summary       `json:"summary"`
	History []MonthDetail `json:"monthlyHistory,omitempty"`
}

// Run projects the investment month by month.
func Run(in Input) (Result, error) {
	period, ok := everyMonths[in.Frequency]
	if !ok {
		return Result{}, fmt.Errorf("invalid contribution frequency %q", in.Frequency)
	}
	if in.Years <= 0 {
		return Result{}, fmt.Errorf("years must be positive, got %d", in.Years)
	}

	totalMonths := in.Years * 12
	monthlyReturn := math.Pow(1+(in.AnnualReturn-in.AdminFeeRate), 1.0/12) - 1
	monthlyDividend := math.Pow(1+in.DividendYield, 1.0/12) - 1

	gross := in.InitialAmount
	net := in.InitialAmount
	invested := in.InitialAmount

	var s Summary
	var history []MonthDetail

	for month := 1; month <= totalMonths; month++ {
		yield := gross * monthlyReturn
		dividend := gross * monthlyDividend
		adminFee := gross * (in.AdminFeeRate / 12)

		yieldTax := yield * in.TaxRate
		dividendTax := dividend * in.TaxRate
		tax := yieldTax + dividendTax

		contribution := 0.0
		if period > 0 && month%period == 0 {
			contribution = in.Contribution
			invested += contribution
		}

		netYield := yield + dividend - tax - adminFee
		gross += yield + dividend + contribution
		net += netYield + contribution

		s.TotalAdminFees += adminFee
		s.TotalYieldTax += yieldTax
		s.TotalDividendTax += dividendTax
		s.TotalTax += tax
		s.TotalDividends += dividend

		if in.WithHistory {
			history = append(history, MonthDetail{
				Month:         month,
				TotalInvested: invested,
				Yield:         yield,
				Dividend:      dividend,
				GrossBalance:  gross,
				NetBalance:    net,
				AccruedReturn: net - invested,
				AdminFee:      adminFee,
				Tax:           tax,
				NetYield:      netYield,
				Contribution:  contribution,
			})
		}
	}

	inflationAdjusted := net / math.Pow(1+in.AnnualInflation, float64(in.Years))

	s.GrossFinal = gross
	s.TotalInvested = invested
	s.TotalGrossYield = gross - invested
	s.NetFinal = net
	s.InflationAdjusted = inflationAdjusted
	if invested > 0 {
		s.NetCAGRPct = (math.Pow(net/invested, 1/float64(in.Years)) - 1) * 100
		s.RealCAGRPct = (math.Pow(inflationAdjusted/invested, 1/float64(in.Years)) - 1) * 100
	}
	s.Frequency = in.Frequency
	s.DividendYieldPct = in.DividendYield * 100

	return Result{Summary: s, History: history}, nil
}
