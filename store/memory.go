package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meenmo/bondeval/curve"
)

// Memory is a map-backed Store for tests and development, mirroring the
// Postgres semantics: case-insensitive market keys, unique (market, t),
// last-writer-wins price upserts.
type Memory struct {
	mu sync.Mutex
	// lowered market -> t -> rate
	curves map[string]map[float64]float64
	// lowered market -> name as first stored
	names  map[string]string
	prices map[string]PriceRow
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		curves: make(map[string]map[float64]float64),
		names:  make(map[string]string),
		prices: make(map[string]PriceRow),
	}
}

func (m *Memory) Init(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func priceKey(asof time.Time, market, instrumentKey string) string {
	return asof.Format("2006-01-02") + "|" + market + "|" + instrumentKey
}

func (m *Memory) Curve(ctx context.Context, market string) ([]curve.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byT := m.curves[strings.ToLower(market)]
	pts := make([]curve.Point, 0, len(byT))
	for t, r := range byT {
		pts = append(pts, curve.Point{T: t, Rate: r})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].T < pts[j].T })
	return pts, nil
}

func (m *Memory) PutCurve(ctx context.Context, market string, pts []curve.Point, mode PutMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(market)
	byT := m.curves[key]
	if mode == ModeReplace || byT == nil {
		byT = make(map[float64]float64, len(pts))
		m.curves[key] = byT
	}
	if _, ok := m.names[key]; !ok {
		m.names[key] = market
	}
	for _, pt := range pts {
		byT[pt.T] = pt.Rate
	}
	return nil
}

func (m *Memory) Price(ctx context.Context, asof time.Time, market, instrumentKey string) (*PriceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row, ok := m.prices[priceKey(asof, market, instrumentKey)]; ok {
		return &row, nil
	}
	return nil, nil
}

func (m *Memory) PutPrice(ctx context.Context, row PriceRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prices[priceKey(row.AsOf, row.Market, row.InstrumentKey)] = row
	return nil
}

func (m *Memory) Markets(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	markets := make([]string, 0, len(m.curves))
	for key := range m.curves {
		markets = append(markets, m.names[key])
	}
	sort.Strings(markets)
	return markets, nil
}

func (m *Memory) PriceHistory(ctx context.Context, instrumentKey string, from, to time.Time) ([]PriceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []PriceRow{}
	for _, row := range m.prices {
		if row.InstrumentKey != instrumentKey {
			continue
		}
		if row.AsOf.Before(from) || row.AsOf.After(to) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AsOf.Before(out[j].AsOf) })
	return out, nil
}

func (m *Memory) LatestPrice(ctx context.Context, instrumentKey string) (*PriceRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *PriceRow
	for _, row := range m.prices {
		if row.InstrumentKey != instrumentKey {
			continue
		}
		if latest == nil || row.AsOf.After(latest.AsOf) {
			r := row
			latest = &r
		}
	}
	return latest, nil
}
