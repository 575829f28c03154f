package curve_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/bondeval/calendar"
	"github.com/meenmo/bondeval/curve"
)

var eval = time.Date(2025, 8, 19, 0, 0, 0, 0, time.UTC) // Tuesday

func TestNewZeroCurveValidation(t *testing.T) {
	t.Parallel()

	if _, err := curve.NewZeroCurve(eval, nil, calendar.UnitedStates); !errors.Is(err, curve.ErrNoPoints) {
		t.Fatalf("empty points: got %v, want ErrNoPoints", err)
	}
	if _, err := curve.NewZeroCurve(eval, []curve.Point{{T: -0.5, Rate: 0.04}}, calendar.UnitedStates); err == nil {
		t.Fatal("expected error for negative t")
	}
	pts := []curve.Point{{T: 1, Rate: 0.04}, {T: 1, Rate: 0.05}}
	if _, err := curve.NewZeroCurve(eval, pts, calendar.UnitedStates); err == nil {
		t.Fatal("expected error for duplicate t")
	}
}

func TestZeroInterpolation(t *testing.T) {
	t.Parallel()

	pts := []curve.Point{{T: 1, Rate: 0.04}, {T: 2, Rate: 0.05}}
	c, err := curve.NewZeroCurve(eval, pts, calendar.UnitedStates)
	if err != nil {
		t.Fatalf("NewZeroCurve: %v", err)
	}

	// Node mapping jitters times by at most a couple of business days, so
	// compare against the interpolant at the exact node times.
	if got := c.Zero(0.25); math.Abs(got-0.04) > 1e-9 {
		t.Fatalf("short extrapolation: got %v, want 0.04", got)
	}
	if got := c.Zero(10); math.Abs(got-0.05) > 1e-9 {
		t.Fatalf("long extrapolation: got %v, want 0.05", got)
	}
	mid := c.Zero(1.5)
	if mid <= 0.04 || mid >= 0.05 {
		t.Fatalf("midpoint not between node rates: %v", mid)
	}
	if math.Abs(mid-0.045) > 0.002 {
		t.Fatalf("midpoint far from linear interpolant: %v", mid)
	}
}

func TestDFContinuousCompounding(t *testing.T) {
	t.Parallel()

	pts := []curve.Point{{T: 0.5, Rate: 0.03}, {T: 5, Rate: 0.03}}
	c, err := curve.NewZeroCurve(eval, pts, calendar.UnitedStates)
	if err != nil {
		t.Fatalf("NewZeroCurve: %v", err)
	}
	// Flat curve: DF(t) = exp(-0.03*t) everywhere.
	for _, ti := range []float64{0.25, 1, 2.5, 4} {
		want := math.Exp(-0.03 * ti)
		if got := c.DF(ti); math.Abs(got-want) > 1e-12 {
			t.Fatalf("DF(%v): got %v, want %v", ti, got, want)
		}
	}
	if got := c.DF(0); got != 1.0 {
		t.Fatalf("DF(0): got %v, want 1", got)
	}
}

func TestDFAtDate(t *testing.T) {
	t.Parallel()

	pts := []curve.Point{{T: 0.5, Rate: 0.04}, {T: 3, Rate: 0.04}}
	c, err := curve.NewZeroCurve(eval, pts, calendar.UnitedStates)
	if err != nil {
		t.Fatalf("NewZeroCurve: %v", err)
	}
	d := eval.AddDate(1, 0, 0)
	want := math.Exp(-0.04 * 365.0 / 365.0)
	if got := c.DFAt(d); math.Abs(got-want) > 1e-9 {
		t.Fatalf("DFAt one year: got %v, want %v", got, want)
	}
}

func TestPointUnmarshalForms(t *testing.T) {
	t.Parallel()

	var pts []curve.Point
	raw := `[{"t":0.5,"rate":0.043},[1.0,0.044]]`
	if err := json.Unmarshal([]byte(raw), &pts); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(pts) != 2 || pts[0].T != 0.5 || pts[1].Rate != 0.044 {
		t.Fatalf("unexpected points: %+v", pts)
	}
	if err := json.Unmarshal([]byte(`[[1.0]]`), &pts); err == nil {
		t.Fatal("expected error for short pair")
	}
}
