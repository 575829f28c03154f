package bond

import (
	"time"

	"github.com/meenmo/bondeval/calendar"
	"github.com/meenmo/bondeval/utils"
)

// Discounter provides discount factors at payment dates, measured from the
// valuation date. Satisfied by *curve.ZeroCurve.
type Discounter interface {
	DFAt(d time.Time) float64
}

// Result holds the valuation of one bond. Prices are quoted per 100 face
// value. YTM is nil when no yield reconciles the dirty price within the
// solver's bracket.
type Result struct {
	Clean   float64
	Dirty   float64
	Accrued float64
	YTM     *float64
}

// Price values a fixed-rate bond on the given valuation date.
//
// Cashflows strictly after the settlement date (valuation rolled to a
// business day, then advanced by the terms' settlement days) are discounted
// with disc and rebased to the settlement date. Accrued interest is the
// period coupon times the elapsed fraction of the current period under the
// bond's day count.
func Price(t Terms, periods []Period, disc Discounter, valuation time.Time) Result {
	valAdj := calendar.Adjust(t.Calendar, valuation, calendar.Following)
	settlement := calendar.AddBusinessDays(t.Calendar, valAdj, t.SettlementDays)

	future := make([]Cashflow, 0, len(periods))
	for _, cf := range Cashflows(t, periods) {
		if cf.Date.After(settlement) {
			future = append(future, cf)
		}
	}
	if len(future) == 0 {
		// Matured or fully settled: nothing left to price.
		return Result{}
	}

	pv := 0.0
	for _, cf := range future {
		pv += cf.Amount() * disc.DFAt(cf.Date)
	}
	dfSettle := disc.DFAt(settlement)
	if dfSettle > 0 {
		pv /= dfSettle
	}
	dirty := pv / t.Face * 100

	accrued := accruedInterest(t, periods, settlement)
	res := Result{
		Clean:   dirty - accrued,
		Dirty:   dirty,
		Accrued: accrued,
	}
	res.YTM = SolveYTM(t, future, settlement, dirty)
	return res
}

// accruedInterest returns accrued coupon per 100 face at the settlement date.
// The elapsed share of the current period is measured under the bond's day
// count relative to the full period, so a full period always accrues exactly
// one coupon.
func accruedInterest(t Terms, periods []Period, settlement time.Time) float64 {
	for _, p := range periods {
		if !p.Start.After(settlement) && p.End.After(settlement) {
			full := utils.YearFraction(p.Start, p.End, t.DayCount)
			if full <= 0 {
				return 0
			}
			elapsed := utils.YearFraction(p.Start, settlement, t.DayCount)
			return 100 * t.Coupon / float64(t.Frequency.PerYear()) * (elapsed / full)
		}
	}
	return 0
}
