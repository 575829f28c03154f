package bond

import (
	"time"

	"github.com/meenmo/bondeval/calendar"
	"github.com/meenmo/bondeval/utils"
)

// Period is one coupon accrual period with business-day-adjusted boundaries.
// The coupon pays on End.
type Period struct {
	Start time.Time
	End   time.Time
}

// Schedule generates the bond's coupon periods.
//
// Unadjusted dates roll backward from maturity in coupon-period month steps
// (EDATE semantics) until reaching issue; a generated date that would land
// before issue is dropped in favor of issue itself, producing a short first
// stub. No end-of-month rule. Each boundary is then adjusted per the terms'
// business-day convention.
func Schedule(t Terms) ([]Period, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	months := t.Frequency.Months()
	unadjusted := []time.Time{}
	current := t.MaturityDate
	for current.After(t.IssueDate) {
		unadjusted = append([]time.Time{current}, unadjusted...)
		current = utils.AddMonth(current, -months)
	}
	unadjusted = append([]time.Time{t.IssueDate}, unadjusted...)

	periods := make([]Period, 0, len(unadjusted)-1)
	prev := calendar.Adjust(t.Calendar, unadjusted[0], t.Convention)
	for _, d := range unadjusted[1:] {
		end := calendar.Adjust(t.Calendar, d, t.Convention)
		if !end.After(prev) {
			continue
		}
		periods = append(periods, Period{Start: prev, End: end})
		prev = end
	}
	return periods, nil
}

// Cashflows expands a schedule into dated payments: a fixed coupon of
// face*rate/frequency per period, plus redemption of face on the final one.
func Cashflows(t Terms, periods []Period) []Cashflow {
	coupon := t.Face * t.Coupon / float64(t.Frequency.PerYear())
	flows := make([]Cashflow, 0, len(periods))
	for i, p := range periods {
		cf := Cashflow{Date: p.End, Coupon: coupon}
		if i == len(periods)-1 {
			cf.Principal = t.Face
		}
		flows = append(flows, cf)
	}
	return flows
}
