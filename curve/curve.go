package curve

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/meenmo/bondeval/calendar"
	"github.com/meenmo/bondeval/utils"
)

// ErrNoPoints is returned when a curve is built from an empty point set.
var ErrNoPoints = errors.New("no curve points provided")

// Point is a zero-curve node: time in years and annualized zero rate, both
// decimal.
type Point struct {
	T    float64 `json:"t"`
	Rate float64 `json:"rate"`
}

// UnmarshalJSON accepts either {"t":..., "rate":...} or a [t, rate] pair.
func (p *Point) UnmarshalJSON(data []byte) error {
	type plain Point
	var obj plain
	objErr := json.Unmarshal(data, &obj)
	if objErr == nil {
		*p = Point(obj)
		return nil
	}
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("curve point pair must have 2 elements, got %d", len(pair))
		}
		p.T, p.Rate = pair[0], pair[1]
		return nil
	}
	return objErr
}

// curveTimeBasis is the day count for the curve time axis. ACT/365F is the
// standard convention for discount curve interpolation regardless of the
// instrument's own day count; the residual basis mismatch when the bond
// accrues on a different convention is accepted, not corrected.
const curveTimeBasis = utils.Act365Fixed

// ZeroCurve is a discount function built from sorted zero-rate nodes.
//
// Node times map to calendar dates via eval + round(t*365) days, rolled to a
// business day, and are then re-measured as ACT/365F year fractions from the
// adjusted evaluation date. Zero rates interpolate linearly in (t, rate)
// space, flat-extrapolated outside the node range, and compound continuously:
// DF(t) = exp(-z(t)*t).
type ZeroCurve struct {
	eval  time.Time
	cal   calendar.CalendarID
	times []float64
	rates []float64
	dates []time.Time
}

// NewZeroCurve builds a zero curve anchored at eval (rolled forward to a
// business day of cal).
func NewZeroCurve(eval time.Time, pts []Point, cal calendar.CalendarID) (*ZeroCurve, error) {
	if len(pts) == 0 {
		return nil, ErrNoPoints
	}

	sorted := make([]Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })

	for i, p := range sorted {
		if p.T < 0 {
			return nil, fmt.Errorf("curve point t must be >= 0, got %v", p.T)
		}
		if i > 0 && p.T == sorted[i-1].T {
			return nil, fmt.Errorf("duplicate curve point t=%v", p.T)
		}
	}

	evalAdj := calendar.Adjust(cal, eval, calendar.Following)

	c := &ZeroCurve{
		eval:  evalAdj,
		cal:   cal,
		times: make([]float64, len(sorted)),
		rates: make([]float64, len(sorted)),
		dates: make([]time.Time, len(sorted)),
	}
	for i, p := range sorted {
		d := calendar.Advance(cal, evalAdj, int(math.Round(p.T*365)))
		c.dates[i] = d
		c.times[i] = utils.YearFraction(evalAdj, d, curveTimeBasis)
		c.rates[i] = p.Rate
	}
	return c, nil
}

// Eval returns the adjusted evaluation date the curve is anchored at.
func (c *ZeroCurve) Eval() time.Time {
	return c.eval
}

// Zero returns the interpolated zero rate at time t (years).
func (c *ZeroCurve) Zero(t float64) float64 {
	n := len(c.times)
	if t <= c.times[0] {
		return c.rates[0]
	}
	if t >= c.times[n-1] {
		return c.rates[n-1]
	}
	// First node with times[i] >= t.
	i := sort.SearchFloat64s(c.times, t)
	t1, t2 := c.times[i-1], c.times[i]
	r1, r2 := c.rates[i-1], c.rates[i]
	if t2 == t1 {
		return r1
	}
	return r1 + (r2-r1)*(t-t1)/(t2-t1)
}

// DF returns the continuously compounded discount factor at time t (years).
func (c *ZeroCurve) DF(t float64) float64 {
	if t <= 0 {
		return 1.0
	}
	return math.Exp(-c.Zero(t) * t)
}

// DFAt returns the discount factor at a calendar date, measured on the curve
// time basis from the evaluation date.
func (c *ZeroCurve) DFAt(d time.Time) float64 {
	return c.DF(utils.YearFraction(c.eval, d, curveTimeBasis))
}
