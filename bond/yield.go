package bond

import (
	"math"
	"time"

	"github.com/meenmo/bondeval/utils"
)

const (
	yieldTolerance = 1e-10
	yieldMaxIter   = 100
	// Bisection bracket when Newton fails. Wide on purpose: deeply
	// distressed quotes can still resolve to a large positive yield.
	yieldBracketLo = -0.50
	yieldBracketHi = 1.00
	bisectMaxIter  = 200
)

// SolveYTM finds the yield y such that discounting the remaining cashflows at
// y, compounded at the bond's frequency under its day count, reproduces the
// dirty price (per 100 face).
//
// Newton-Raphson with analytic derivative runs first, seeded at the coupon
// rate; if it fails to converge within the iteration budget, bisection over
// [-50%, +100%] takes over. No sign change in the bracket means the yield is
// undefined, reported as nil rather than an error.
func SolveYTM(t Terms, flows []Cashflow, settlement time.Time, dirty float64) *float64 {
	if len(flows) == 0 {
		return nil
	}

	freq := float64(t.Frequency.PerYear())
	times := make([]float64, len(flows))
	amounts := make([]float64, len(flows))
	for i, cf := range flows {
		times[i] = utils.YearFraction(settlement, cf.Date, t.DayCount)
		amounts[i] = cf.Amount() / t.Face * 100
	}

	price := func(y float64) float64 {
		base := 1.0 + y/freq
		if base <= 0 {
			return math.NaN()
		}
		p := 0.0
		for i := range times {
			p += amounts[i] * math.Pow(base, -freq*times[i])
		}
		return p
	}

	// Newton-Raphson from the coupon rate.
	y := t.Coupon
	for iter := 0; iter < yieldMaxIter; iter++ {
		base := 1.0 + y/freq
		if base <= 0 {
			break
		}
		var p, dp float64
		for i := range times {
			disc := math.Pow(base, -freq*times[i])
			p += amounts[i] * disc
			dp += -times[i] * amounts[i] * disc / base
		}
		f := p - dirty
		if math.Abs(f) < yieldTolerance {
			return &y
		}
		if math.Abs(dp) < 1e-15 {
			break
		}
		next := y - f/dp
		if math.IsNaN(next) || math.IsInf(next, 0) {
			break
		}
		y = next
	}

	// Bisection fallback. price(y) is monotone decreasing in y.
	lo, hi := yieldBracketLo, yieldBracketHi
	flo := price(lo) - dirty
	fhi := price(hi) - dirty
	if math.IsNaN(flo) || math.IsNaN(fhi) || flo*fhi > 0 {
		return nil
	}
	for iter := 0; iter < bisectMaxIter && hi-lo > 1e-12; iter++ {
		mid := 0.5 * (lo + hi)
		fmid := price(mid) - dirty
		if math.Abs(fmid) < yieldTolerance {
			lo, hi = mid, mid
			break
		}
		if flo*fmid <= 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	y = 0.5 * (lo + hi)
	return &y
}
