package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/bondeval/curve"
)

// PutMode selects curve upsert semantics.
type PutMode string

const (
	// ModeReplace deletes all existing points for the market before
	// inserting the new set.
	ModeReplace PutMode = "replace"
	// ModeAppend upserts each point, overwriting a point whose t already
	// exists for the market.
	ModeAppend PutMode = "append"
)

// ParsePutMode validates a mode literal, case-insensitively.
func ParsePutMode(s string) (PutMode, error) {
	switch m := PutMode(strings.ToLower(s)); m {
	case ModeReplace, ModeAppend:
		return m, nil
	}
	return "", fmt.Errorf("mode must be %q or %q, got %q", ModeReplace, ModeAppend, s)
}

// PriceRow is a cached valuation keyed by (asof, market, instrument key).
// Market is empty when the price was computed from an explicit curve; YTM is
// nil when the yield is undefined.
type PriceRow struct {
	AsOf          time.Time
	Market        string
	InstrumentKey string
	Clean         float64
	Dirty         float64
	Accrued       float64
	YTM           *float64
}

// Store persists zero curves and cached prices. Each call is atomic on its
// own; no cross-call coordination is provided (a concurrent PutCurve and a
// pricing read may interleave either way).
type Store interface {
	// Init creates the schema. Idempotent; call once at startup.
	Init(ctx context.Context) error

	// Curve returns a market's points ascending by t; empty for an unknown
	// market, not an error. Market matching is case-insensitive.
	Curve(ctx context.Context, market string) ([]curve.Point, error)
	// PutCurve applies points to a market in one transaction.
	PutCurve(ctx context.Context, market string, pts []curve.Point, mode PutMode) error

	// Price returns the cached row for the composite key, or nil when absent.
	Price(ctx context.Context, asof time.Time, market, instrumentKey string) (*PriceRow, error)
	// PutPrice upserts a row, overwriting any prior row for its key.
	PutPrice(ctx context.Context, row PriceRow) error

	// Markets lists distinct curve markets.
	Markets(ctx context.Context) ([]string, error)
	// PriceHistory returns cached rows for an instrument in [from, to],
	// ascending by asof.
	PriceHistory(ctx context.Context, instrumentKey string, from, to time.Time) ([]PriceRow, error)
	// LatestPrice returns the most recent cached row for an instrument, or
	// nil when none exists.
	LatestPrice(ctx context.Context, instrumentKey string) (*PriceRow, error)

	Close() error
}
