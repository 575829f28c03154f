package utils

import (
	"fmt"
	"time"
)

// DayCount is a closed set of day-count conventions. Names follow the
// QuantLib-style identifiers the valuation API accepts.
type DayCount string

const (
	Act365Fixed  DayCount = "Actual365Fixed"
	Act360       DayCount = "Actual360"
	Thirty360    DayCount = "Thirty360"
	ActualActual DayCount = "ActualActual"
)

// ParseDayCount validates a day-count name. Unknown names are an error, never
// a silent fallback.
func ParseDayCount(name string) (DayCount, error) {
	switch dc := DayCount(name); dc {
	case Act365Fixed, Act360, Thirty360, ActualActual:
		return dc, nil
	}
	return "", fmt.Errorf("unknown day count %q", name)
}

// YearFraction computes the year fraction between two dates under dc.
//
// ActualActual here is the ACT/365 approximation; coupon accrual uses
// period-relative fractions instead (see bond.Price), which is where the
// ISMA reference-period treatment actually matters.
func YearFraction(start, end time.Time, dc DayCount) float64 {
	switch dc {
	case Act360:
		return Days(start, end) / 360.0
	case Thirty360:
		// 30/360 bond basis: D1 and D2 capped at 30.
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		return Days(start, end) / 365.0
	}
}
