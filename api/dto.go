/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/selic/rate-engine/invest"
	"github.com/selic/rate-engine/simulate"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// DailyRateDTO is the answer to a single-date rate lookup.
type DailyRateDTO struct {
	Date        string          `json:"date"`
	DailyFactor decimal.Decimal `json:"dailyFactor"`
	BusinessDay bool            `json:"businessDay"`
	Source      string          `json:"source"` // cache, computed, upstream
	NonBusiness *NonBusinessDTO `json:"nonBusiness,omitempty"`
}

// NonBusinessDTO explains why a date does not yield.
type NonBusinessDTO struct {
	Kind        string `json:"kind"` // weekend, holiday, possible_holiday
	HolidayName string `json:"holidayName,omitempty"`
}

// InvestmentDTO is a yield calculation response.
type InvestmentDTO struct {
	Start          string          `json:"start"`
	End            string          `json:"end"`
	Principal      decimal.Decimal `json:"principal"`
	CompoundFactor decimal.Decimal `json:"compoundFactor"`
	GrossFinal     decimal.Decimal `json:"grossFinal"`
	GrossYield     decimal.Decimal `json:"grossYield"`
	NetFinal       decimal.Decimal `json:"netFinal"`
	NetYield       decimal.Decimal `json:"netYield"`

	TotalDays      int  `json:"totalDays"`
	CompoundedDays int  `json:"compoundedDays"`
	NonYieldDays   int  `json:"nonYieldDays"`
	UnknownDays    int  `json:"unknownDays,omitempty"`
	Incomplete     bool `json:"incomplete,omitempty"`

	Taxes *TaxesDTO `json:"taxes,omitempty"`
}

// TaxesDTO breaks down the deductions of a yield calculation.
type TaxesDTO struct {
	IncomeTaxRatePct decimal.Decimal `json:"incomeTaxRatePct"`
	IncomeTax        decimal.Decimal `json:"incomeTax"`
	TransactionTax   decimal.Decimal `json:"transactionTax"`
	AdminFee         decimal.Decimal `json:"adminFee"`
	CustodyFee       decimal.Decimal `json:"custodyFee"`
}

// AnalysisDTO is a per-day investment breakdown response.
type AnalysisDTO struct {
	Start      string          `json:"start"`
	End        string          `json:"end"`
	Principal  decimal.Decimal `json:"principal"`
	FinalValue decimal.Decimal `json:"finalValue"`
	Yield      decimal.Decimal `json:"yield"`
	YieldPct   decimal.Decimal `json:"yieldPct"`

	TotalDays    int  `json:"totalDays"`
	BusinessDays int  `json:"businessDays"`
	WeekendDays  int  `json:"weekendDays"`
	HolidayDays  int  `json:"holidayDays"`
	UnknownDays  int  `json:"unknownDays,omitempty"`
	Incomplete   bool `json:"incomplete,omitempty"`

	AvgDailyYieldPct         decimal.Decimal `json:"avgDailyYieldPct"`
	AvgBusinessDailyYieldPct decimal.Decimal `json:"avgBusinessDailyYieldPct"`

	Days []invest.DayDetail `json:"days,omitempty"`
}

// BusinessDayDTO is the verdict on a single date.
type BusinessDayDTO struct {
	Date                 string           `json:"date"`
	Weekday              string           `json:"weekday"`
	CalendarBusinessDay  bool             `json:"calendarBusinessDay"`
	FinancialBusinessDay bool             `json:"financialBusinessDay"`
	Weekend              bool             `json:"weekend"`
	Holiday              bool             `json:"holiday"`
	HolidayInfo          *HolidayDTO      `json:"holidayInfo,omitempty"`
	DailyFactor          *decimal.Decimal `json:"dailyFactor,omitempty"`
}

// HolidayDTO is one resolved holiday.
type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// SimulationRequest is the body of a projection request. Rates are decimals
// per year (0.10 means 10%).
type SimulationRequest struct {
	InitialAmount   float64            `json:"initialAmount"`
	Contribution    float64            `json:"contribution"`
	Years           int                `json:"years"`
	AnnualReturn    float64            `json:"annualReturn"`
	AdminFeeRate    float64            `json:"adminFeeRate"`
	TaxRate         float64            `json:"taxRate"`
	AnnualInflation float64            `json:"annualInflation"`
	Frequency       simulate.Frequency `json:"contributionFrequency"`
	DividendYield   float64            `json:"dividendYield"`
	WithHistory     bool               `json:"withHistory"`
}

// HistoryRunDTO is one recorded calculation.
type HistoryRunDTO struct {
	ID               int64           `json:"id"`
	Kind             string          `json:"kind"`
	Start            string          `json:"start"`
	End              string          `json:"end"`
	Principal        decimal.Decimal `json:"principal"`
	GrossFinal       decimal.Decimal `json:"grossFinal"`
	NetFinal         decimal.Decimal `json:"netFinal"`
	IncomeTaxRatePct decimal.Decimal `json:"incomeTaxRatePct"`
	TotalDays        int             `json:"totalDays"`
	CompoundedDays   int             `json:"compoundedDays"`
	UnknownDays      int             `json:"unknownDays,omitempty"`
	Incomplete       bool            `json:"incomplete,omitempty"`
	CreatedAt        string          `json:"createdAt"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
