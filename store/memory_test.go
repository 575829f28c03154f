package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/meenmo/bondeval/curve"
	"github.com/meenmo/bondeval/store"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParsePutMode(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"replace", "append", "REPLACE", "Append"} {
		if _, err := store.ParsePutMode(s); err != nil {
			t.Fatalf("ParsePutMode(%q): %v", s, err)
		}
	}
	if _, err := store.ParsePutMode("merge"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestCurveRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()

	pts := []curve.Point{
		{T: 2.0, Rate: 0.045},
		{T: 0.5, Rate: 0.043},
		{T: 1.0, Rate: 0.044},
	}
	if err := st.PutCurve(ctx, "usd_govt", pts, store.ModeReplace); err != nil {
		t.Fatalf("PutCurve: %v", err)
	}

	got, err := st.Curve(ctx, "usd_govt")
	if err != nil {
		t.Fatalf("Curve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].T <= got[i-1].T {
			t.Fatalf("points not ascending by t: %+v", got)
		}
	}
	if got[0].T != 0.5 || got[0].Rate != 0.043 {
		t.Fatalf("first point: %+v", got[0])
	}

	// Market lookup is case-insensitive.
	upper, err := st.Curve(ctx, "USD_GOVT")
	if err != nil {
		t.Fatalf("Curve: %v", err)
	}
	if len(upper) != 3 {
		t.Fatalf("case-insensitive lookup: got %d points", len(upper))
	}
}

func TestCurveUnknownMarketEmpty(t *testing.T) {
	t.Parallel()

	got, err := store.NewMemory().Curve(context.Background(), "nowhere")
	if err != nil {
		t.Fatalf("Curve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("unknown market should be empty, got %+v", got)
	}
}

func TestAppendIdempotence(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()

	pt := []curve.Point{{T: 1.0, Rate: 0.04}}
	for i := 0; i < 2; i++ {
		if err := st.PutCurve(ctx, "eur", pt, store.ModeAppend); err != nil {
			t.Fatalf("PutCurve: %v", err)
		}
	}
	got, err := st.Curve(ctx, "eur")
	if err != nil {
		t.Fatalf("Curve: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("appending the same point twice should keep one, got %d", len(got))
	}

	// Appending at an existing t overwrites the rate.
	if err := st.PutCurve(ctx, "eur", []curve.Point{{T: 1.0, Rate: 0.05}}, store.ModeAppend); err != nil {
		t.Fatalf("PutCurve: %v", err)
	}
	got, _ = st.Curve(ctx, "eur")
	if len(got) != 1 || got[0].Rate != 0.05 {
		t.Fatalf("append overwrite: %+v", got)
	}
}

func TestReplaceDropsOldPoints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()

	old := []curve.Point{{T: 0.5, Rate: 0.04}, {T: 1, Rate: 0.041}, {T: 2, Rate: 0.042}}
	if err := st.PutCurve(ctx, "jpy", old, store.ModeReplace); err != nil {
		t.Fatalf("PutCurve: %v", err)
	}
	if err := st.PutCurve(ctx, "jpy", []curve.Point{{T: 5, Rate: 0.01}}, store.ModeReplace); err != nil {
		t.Fatalf("PutCurve: %v", err)
	}
	got, _ := st.Curve(ctx, "jpy")
	if len(got) != 1 || got[0].T != 5 {
		t.Fatalf("replace kept stale points: %+v", got)
	}
}

func TestPriceUpsertOverwrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()
	asof := date(2025, 8, 19)

	ytm := 0.047
	row := store.PriceRow{
		AsOf: asof, Market: "usd_govt", InstrumentKey: "abc",
		Clean: 100.5, Dirty: 101.0, Accrued: 0.5, YTM: &ytm,
	}
	if err := st.PutPrice(ctx, row); err != nil {
		t.Fatalf("PutPrice: %v", err)
	}

	row.Clean = 99.5
	row.YTM = nil
	if err := st.PutPrice(ctx, row); err != nil {
		t.Fatalf("PutPrice: %v", err)
	}

	got, err := st.Price(ctx, asof, "usd_govt", "abc")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if got == nil || got.Clean != 99.5 {
		t.Fatalf("upsert did not overwrite: %+v", got)
	}
	if got.YTM != nil {
		t.Fatalf("expected undefined yield after overwrite, got %v", *got.YTM)
	}

	// A different composite key is a distinct row.
	miss, err := st.Price(ctx, asof, "", "abc")
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if miss != nil {
		t.Fatalf("market-less key should miss: %+v", miss)
	}
}

func TestMarketsAndHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := store.NewMemory()

	st.PutCurve(ctx, "usd_govt", []curve.Point{{T: 1, Rate: 0.04}}, store.ModeReplace)
	st.PutCurve(ctx, "eur_govt", []curve.Point{{T: 1, Rate: 0.03}}, store.ModeReplace)

	markets, err := st.Markets(ctx)
	if err != nil {
		t.Fatalf("Markets: %v", err)
	}
	if len(markets) != 2 || markets[0] != "eur_govt" || markets[1] != "usd_govt" {
		t.Fatalf("markets: %v", markets)
	}

	for d := 1; d <= 3; d++ {
		st.PutPrice(ctx, store.PriceRow{
			AsOf: date(2025, 8, d), Market: "usd_govt", InstrumentKey: "k1", Clean: float64(100 + d),
		})
	}
	st.PutPrice(ctx, store.PriceRow{AsOf: date(2025, 8, 2), Market: "usd_govt", InstrumentKey: "k2", Clean: 55})

	hist, err := st.PriceHistory(ctx, "k1", date(2025, 8, 1), date(2025, 8, 2))
	if err != nil {
		t.Fatalf("PriceHistory: %v", err)
	}
	if len(hist) != 2 || hist[0].Clean != 101 || hist[1].Clean != 102 {
		t.Fatalf("history: %+v", hist)
	}

	latest, err := st.LatestPrice(ctx, "k1")
	if err != nil {
		t.Fatalf("LatestPrice: %v", err)
	}
	if latest == nil || latest.Clean != 103 {
		t.Fatalf("latest: %+v", latest)
	}

	none, err := st.LatestPrice(ctx, "k9")
	if err != nil {
		t.Fatalf("LatestPrice: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for unknown instrument, got %+v", none)
	}
}
