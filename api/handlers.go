/*
handlers.go - HTTP API handlers for the rate and yield engine

PURPOSE:
  Exposes the rate cache, business-day classification, and yield
  calculations via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Rates:
    GET  /api/rates/daily          Accrued daily factor for one date
    GET  /api/business-day         Calendar vs financial business-day verdict
    GET  /api/holidays             Resolved holiday list for a year

  Calculations:
    GET  /api/investment           Yield with taxes and fees over a period
    GET  /api/investment/analysis  Per-day breakdown of a period
    POST /api/simulation           Long-horizon contribution projection
    GET  /api/history              Recently served calculations

  Misc:
    GET  /api/quotes/{symbol}      Spot price passthrough
    GET  /api/ping                 Health check

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (reconciler, calculator, resolver)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: No rate for the requested date
  - 502: Upstream quote source failures
  - 503: Optional collaborator not configured
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/selic/rate-engine/dates"
	"github.com/selic/rate-engine/holidays"
	"github.com/selic/rate-engine/invest"
	"github.com/selic/rate-engine/quotes"
	"github.com/selic/rate-engine/ratestore"
	"github.com/selic/rate-engine/selic"
	"github.com/selic/rate-engine/simulate"
	"github.com/selic/rate-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. Quotes and History are
// optional; their endpoints answer 503 when unconfigured.
type Handler struct {
	Rates      *ratestore.Store
	Resolver   *holidays.Resolver
	Reconciler *selic.Reconciler
	Calculator *invest.Calculator
	Analyzer   *invest.Analyzer
	Quotes     *quotes.Client
	History    *sqlite.History

	// today is swapped in tests to pin date defaults.
	today func() dates.Date
}

// NewHandler wires the handler to its collaborators.
func NewHandler(rates *ratestore.Store, resolver *holidays.Resolver, reconciler *selic.Reconciler, qc *quotes.Client, history *sqlite.History) *Handler {
	return &Handler{
		Rates:      rates,
		Resolver:   resolver,
		Reconciler: reconciler,
		Calculator: invest.NewCalculator(reconciler),
		Analyzer:   invest.NewAnalyzer(reconciler, resolver),
		Quotes:     qc,
		History:    history,
		today:      dates.Today,
	}
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

// GetDailyRate returns the accrued daily factor for one date.
// GET /api/rates/daily?date=YYYY-MM-DD (default: yesterday)
func (h *Handler) GetDailyRate(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dateParam(w, r, "date", h.today().AddDays(-1))
	if !ok {
		return
	}

	weekend := d.IsWeekend()
	isHoliday, holidayName := false, ""
	if !weekend {
		isHoliday, holidayName = h.Resolver.IsHoliday(d)
	}
	calendarBusiness := !weekend && !isHoliday

	// Cache first: a hit answers without classification or upstream work.
	factors, _ := h.Rates.Load()
	factor, cached := factors[d]
	source := "cache"

	if !cached {
		completed, err := h.Reconciler.EnsureRange(d, d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date range", err)
			return
		}
		factor, cached = completed[d]
		if !cached {
			writeError(w, http.StatusNotFound, "No rate found for this date", nil)
			return
		}
		if calendarBusiness {
			source = "upstream"
		} else {
			source = "computed"
		}
	}

	businessDay := calendarBusiness && factor.IsPositive()
	dto := DailyRateDTO{
		Date:        d.ISO(),
		DailyFactor: factor,
		BusinessDay: businessDay,
		Source:      source,
	}
	if !businessDay {
		switch {
		case weekend:
			dto.NonBusiness = &NonBusinessDTO{Kind: "weekend"}
		case isHoliday:
			dto.NonBusiness = &NonBusinessDTO{Kind: "holiday", HolidayName: holidayName}
		default:
			// Calendar called it a business day but no positive factor came
			// back: an unregistered holiday or an upstream outage.
			dto.NonBusiness = &NonBusinessDTO{Kind: "possible_holiday"}
		}
	}

	writeJSON(w, http.StatusOK, dto)
}

// GetBusinessDay answers whether a date is a business day, both by the
// calendar and by the published rate.
// GET /api/business-day?date=YYYY-MM-DD (default: today)
func (h *Handler) GetBusinessDay(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dateParam(w, r, "date", h.today())
	if !ok {
		return
	}

	weekend := d.IsWeekend()
	var holidayInfo *HolidayDTO
	if !weekend {
		for _, hol := range h.Resolver.HolidaysForYear(d.Year()) {
			if hol.Date.Equal(d) {
				holidayInfo = &HolidayDTO{Date: hol.Date.ISO(), Name: hol.Name, Type: hol.Type}
				break
			}
		}
	}
	calendarBusiness := !weekend && holidayInfo == nil

	dto := BusinessDayDTO{
		Date:                d.ISO(),
		Weekday:             d.Weekday().String(),
		CalendarBusinessDay: calendarBusiness,
		Weekend:             weekend,
		Holiday:             holidayInfo != nil,
		HolidayInfo:         holidayInfo,
	}

	// The financial verdict comes from the completed cache, not the calendar.
	completed, err := h.Reconciler.EnsureRange(d, d)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
		return
	}
	if factor, found := completed[d]; found {
		dto.DailyFactor = &factor
		dto.FinancialBusinessDay = factor.IsPositive()
		if calendarBusiness && factor.IsZero() {
			log.Printf("api: %s should be a business day but has factor 0, possible unregistered holiday", d)
			dto.Holiday = true
			dto.CalendarBusinessDay = false
		}
	} else {
		dto.FinancialBusinessDay = calendarBusiness
	}

	writeJSON(w, http.StatusOK, dto)
}

// ListHolidays returns the resolved holidays for one year.
// GET /api/holidays?year=YYYY (default: current year)
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.today().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1900 || parsed > 2200 {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = parsed
	}

	hs := h.Resolver.HolidaysForYear(year)
	dtos := make([]HolidayDTO, len(hs))
	for i, hol := range hs {
		dtos[i] = HolidayDTO{Date: hol.Date.ISO(), Name: hol.Name, Type: hol.Type}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// GetInvestment computes the yield of a holding period with taxes and fees.
// GET /api/investment?start=&end=&principal=&adminFee=&custodyFee=&includeTaxes=
func (h *Handler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	start, ok := h.requiredDateParam(w, r, "start")
	if !ok {
		return
	}
	end, ok := h.dateParam(w, r, "end", h.today().AddDays(-1))
	if !ok {
		return
	}
	principal, ok := requiredDecimalParam(w, r, "principal")
	if !ok {
		return
	}
	adminFee, ok := decimalParam(w, r, "adminFee")
	if !ok {
		return
	}
	custodyFee, ok := decimalParam(w, r, "custodyFee")
	if !ok {
		return
	}
	if !principal.IsPositive() {
		writeError(w, http.StatusBadRequest, "Principal must be positive", nil)
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "Start date must not be after end date", nil)
		return
	}
	includeTaxes := boolParam(r, "includeTaxes", true)

	res, err := h.Calculator.ComputeYield(principal, start, end, adminFee, custodyFee)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to compute yield", err)
		return
	}

	if h.History != nil {
		if err := h.History.RecordYield(r.Context(), res); err != nil {
			log.Printf("api: failed to record yield run: %v", err)
		}
	}

	dto := InvestmentDTO{
		Start:          res.Start.ISO(),
		End:            res.End.ISO(),
		Principal:      res.Principal,
		CompoundFactor: res.CompoundFactor,
		GrossFinal:     res.GrossFinal,
		GrossYield:     res.GrossYield,
		NetFinal:       res.NetFinal,
		NetYield:       res.NetYield,
		TotalDays:      res.TotalDays,
		CompoundedDays: res.CompoundedDays,
		NonYieldDays:   res.NonYieldDays,
		UnknownDays:    res.UnknownDays,
		Incomplete:     res.Incomplete,
	}
	if includeTaxes {
		dto.Taxes = &TaxesDTO{
			IncomeTaxRatePct: res.IncomeTaxRatePct,
			IncomeTax:        res.IncomeTax,
			TransactionTax:   res.TransactionTax,
			AdminFee:         res.AdminFee,
			CustodyFee:       res.CustodyFee,
		}
	} else {
		// Without taxes the gross outcome is the whole answer.
		dto.NetFinal = res.GrossFinal
		dto.NetYield = res.GrossYield
	}

	writeJSON(w, http.StatusOK, dto)
}

// GetAnalysis returns the per-day breakdown of a holding period.
// GET /api/investment/analysis?start=&end=&principal=&detail=
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	start, ok := h.requiredDateParam(w, r, "start")
	if !ok {
		return
	}
	end, ok := h.dateParam(w, r, "end", h.today().AddDays(-1))
	if !ok {
		return
	}
	principal, ok := requiredDecimalParam(w, r, "principal")
	if !ok {
		return
	}
	if !principal.IsPositive() {
		writeError(w, http.StatusBadRequest, "Principal must be positive", nil)
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "Start date must not be after end date", nil)
		return
	}
	detail := boolParam(r, "detail", false)

	a, err := h.Analyzer.Analyze(principal, start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to analyze investment", err)
		return
	}

	if h.History != nil {
		if err := h.History.RecordAnalysis(r.Context(), a); err != nil {
			log.Printf("api: failed to record analysis run: %v", err)
		}
	}

	dto := AnalysisDTO{
		Start:                    a.Start.ISO(),
		End:                      a.End.ISO(),
		Principal:                a.Principal,
		FinalValue:               a.FinalValue,
		Yield:                    a.Yield,
		YieldPct:                 a.YieldPct,
		TotalDays:                a.TotalDays,
		BusinessDays:             a.BusinessDays,
		WeekendDays:              a.WeekendDays,
		HolidayDays:              a.HolidayDays,
		UnknownDays:              a.UnknownDays,
		Incomplete:               a.Incomplete,
		AvgDailyYieldPct:         a.AvgDailyYieldPct,
		AvgBusinessDailyYieldPct: a.AvgBusinessDailyYieldPct,
	}
	if detail {
		dto.Days = a.Days
	}

	writeJSON(w, http.StatusOK, dto)
}

// PostSimulation runs the long-horizon contribution projection.
// POST /api/simulation
func (h *Handler) PostSimulation(w http.ResponseWriter, r *http.Request) {
	var req SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Frequency == "" {
		req.Frequency = simulate.Monthly
	}
	if req.InitialAmount < 0 || req.Contribution < 0 {
		writeError(w, http.StatusBadRequest, "Amounts must not be negative", nil)
		return
	}

	res, err := simulate.Run(simulate.Input{
		InitialAmount:   req.InitialAmount,
		Contribution:    req.Contribution,
		Years:           req.Years,
		AnnualReturn:    req.AnnualReturn,
		AdminFeeRate:    req.AdminFeeRate,
		TaxRate:         req.TaxRate,
		AnnualInflation: req.AnnualInflation,
		Frequency:       req.Frequency,
		DividendYield:   req.DividendYield,
		WithHistory:     req.WithHistory,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid simulation parameters", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// GetHistory lists recently served calculations.
// GET /api/history?limit=
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeError(w, http.StatusServiceUnavailable, "Calculation history is not configured", nil)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = parsed
	}

	runs, err := h.History.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load history", err)
		return
	}

	dtos := make([]HistoryRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = HistoryRunDTO{
			ID:               run.ID,
			Kind:             run.Kind,
			Start:            run.Start.ISO(),
			End:              run.End.ISO(),
			Principal:        run.Principal,
			GrossFinal:       run.GrossFinal,
			NetFinal:         run.NetFinal,
			IncomeTaxRatePct: run.IncomeTaxRatePct,
			TotalDays:        run.TotalDays,
			CompoundedDays:   run.CompoundedDays,
			UnknownDays:      run.UnknownDays,
			Incomplete:       run.Incomplete,
			CreatedAt:        run.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// MISC HANDLERS
// =============================================================================

// GetQuote proxies a spot-price lookup.
// GET /api/quotes/{symbol}
func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	if h.Quotes == nil {
		writeError(w, http.StatusServiceUnavailable, "Quote source is not configured", nil)
		return
	}

	q, err := h.Quotes.Fetch(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch quote", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Ping is the health check.
// GET /api/ping
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Service is running",
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request, name string, fallback dates.Date) (dates.Date, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback, true
	}
	d, err := dates.ParseISO(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format for '"+name+"' (use YYYY-MM-DD)", err)
		return dates.Date{}, false
	}
	return d, true
}

func (h *Handler) requiredDateParam(w http.ResponseWriter, r *http.Request, name string) (dates.Date, bool) {
	if r.URL.Query().Get(name) == "" {
		writeError(w, http.StatusBadRequest, "Parameter '"+name+"' is required", nil)
		return dates.Date{}, false
	}
	return h.dateParam(w, r, name, dates.Date{})
}

func requiredDecimalParam(w http.ResponseWriter, r *http.Request, name string) (decimal.Decimal, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		writeError(w, http.StatusBadRequest, "Parameter '"+name+"' is required", nil)
		return decimal.Decimal{}, false
	}
	return parseDecimal(w, name, v)
}

func decimalParam(w http.ResponseWriter, r *http.Request, name string) (decimal.Decimal, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return decimal.Zero, true
	}
	return parseDecimal(w, name, v)
}

func parseDecimal(w http.ResponseWriter, name, v string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Parameter '"+name+"' must be numeric", err)
		return decimal.Decimal{}, false
	}
	return d, true
}

func boolParam(r *http.Request, name string, fallback bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "true", "t", "1", "yes", "y":
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
