package services

import (
	"time"

	"github.com/shopspring/decimal"

	"alquitones/internal/domain"
	"alquitones/internal/metrics"
	"alquitones/internal/repos"
)

// MaxRangeDays bounds per-day availability listings.
const MaxRangeDays = 366

type Reason string

const (
	ReasonPastDate          Reason = "past_date"
	ReasonInvalidQuantity   Reason = "invalid_quantity"
	ReasonNotRentable       Reason = "not_rentable"
	ReasonInsufficientStock Reason = "insufficient_stock"
	ReasonRangeTooLong      Reason = "range_too_long"
)

type AvailabilityRequest struct {
	InstrumentID int         `json:"instrumentId"`
	Start        domain.Date `json:"startDate"`
	End          domain.Date `json:"endDate"`
	Quantity     int         `json:"quantity"`
}

// AvailabilityResult is the outcome of one evaluation. Start and End are the
// normalised range; both are zero when an invalid reversed range was cleared.
type AvailabilityResult struct {
	Valid      bool            `json:"valid"`
	Reason     Reason          `json:"reason,omitempty"`
	FailedDay  domain.Date     `json:"failedDay"`
	Available  int             `json:"available"`
	Start      domain.Date     `json:"startDate"`
	End        domain.Date     `json:"endDate"`
	Swapped    bool            `json:"swapped"`
	Cleared    bool            `json:"cleared"`
	Days       []domain.Date   `json:"days"`
	TotalDays  int             `json:"totalDays"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type DayAvailability struct {
	Date           domain.Date `json:"date"`
	TotalStock     int         `json:"totalStock"`
	Reserved       int         `json:"reserved"`
	AvailableStock int         `json:"availableStock"`
}

type AvailabilityService struct {
	Inv   *repos.InventoryRepo
	Today func() domain.Date
}

func NewAvailabilityService(inv *repos.InventoryRepo, today func() domain.Date) *AvailabilityService {
	if today == nil {
		today = func() domain.Date { return domain.DateOf(time.Now()) }
	}
	return &AvailabilityService{Inv: inv, Today: today}
}

func (s *AvailabilityService) Evaluate(req AvailabilityRequest) (AvailabilityResult, error) {
	inv, err := s.Inv.Load(req.InstrumentID)
	if err != nil {
		return AvailabilityResult{}, err
	}
	res := Evaluate(inv, req, s.Today())
	recordCheck(res)
	return res, nil
}

// DailyAvailability lists stock per day of the inclusive range.
func (s *AvailabilityService) DailyAvailability(instrumentID int, start, end domain.Date) ([]DayAvailability, error) {
	if end.Before(start) {
		start, end = end, start
	}
	if domain.DaysBetween(start, end)+1 > MaxRangeDays {
		return nil, domain.Invalid("range is limited to %d days", MaxRangeDays)
	}
	inv, err := s.Inv.Load(instrumentID)
	if err != nil {
		return nil, err
	}
	out := []DayAvailability{}
	for _, day := range DaysIn(start, end) {
		reserved := inv.ReservedOn(day)
		out = append(out, DayAvailability{
			Date:           day,
			TotalStock:     inv.Product.Stock,
			Reserved:       reserved,
			AvailableStock: max(0, inv.Product.Stock-reserved),
		})
	}
	return out, nil
}

// TotalDays counts both boundary days.
func TotalDays(start, end domain.Date) int {
	return domain.DaysBetween(start, end) + 1
}

// DaysIn enumerates every day of [start, end].
func DaysIn(start, end domain.Date) []domain.Date {
	n := TotalDays(start, end)
	days := make([]domain.Date, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, start.AddDays(i))
	}
	return days
}

// Evaluate decides whether inv can serve req on every day of the range.
// A reversed range is swapped first; if the swapped range is still invalid
// the selection is cleared.
func Evaluate(inv repos.Inventory, req AvailabilityRequest, today domain.Date) AvailabilityResult {
	start, end := req.Start, req.End
	res := AvailabilityResult{}
	if end.Before(start) {
		start, end = end, start
		res.Swapped = true
	}
	res.Start, res.End = start, end
	res.TotalDays = TotalDays(start, end)
	res.TotalPrice = inv.Product.PricePerDay.Mul(decimal.NewFromInt(int64(res.TotalDays)))
	if res.TotalDays <= MaxRangeDays {
		res.Days = DaysIn(start, end)
	}

	switch {
	case res.TotalDays > MaxRangeDays:
		res.Reason = ReasonRangeTooLong
	case req.Quantity < 1:
		res.Reason = ReasonInvalidQuantity
	case start.Before(today):
		res.Reason, res.FailedDay = ReasonPastDate, start
	case inv.Product.Status == domain.StatusMaintenance:
		res.Reason = ReasonNotRentable
	default:
		for _, day := range res.Days {
			if avail := inv.AvailableOn(day); avail < req.Quantity {
				res.Reason, res.FailedDay, res.Available = ReasonInsufficientStock, day, max(0, avail)
				break
			}
		}
	}
	res.Valid = res.Reason == ""
	if res.Valid {
		res.Available = minAvailable(inv, res.Days)
	}
	if !res.Valid && res.Swapped {
		res.Cleared = true
		res.Start, res.End = domain.Date{}, domain.Date{}
		res.Days = nil
		res.TotalDays = 0
		res.TotalPrice = decimal.Zero
	}
	return res
}

func minAvailable(inv repos.Inventory, days []domain.Date) int {
	m := inv.Product.Stock
	for _, d := range days {
		m = min(m, inv.AvailableOn(d))
	}
	return m
}

func recordCheck(res AvailabilityResult) {
	result := "valid"
	if !res.Valid {
		result = string(res.Reason)
	}
	metrics.AvailabilityChecks.WithLabelValues(result).Inc()
}
