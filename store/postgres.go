package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/meenmo/bondeval/curve"
)

// Postgres is the production Store.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens and pings a Postgres connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// Init creates the curves and prices tables if they do not exist.
//
// A price computed without a market stores market as the empty string so the
// composite primary key stays enforceable (Postgres primary keys reject
// NULLs).
func (p *Postgres) Init(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS curves (
			market TEXT NOT NULL,
			t DOUBLE PRECISION NOT NULL,
			rate DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (market, t)
		);
		CREATE TABLE IF NOT EXISTS prices (
			asof DATE NOT NULL,
			market TEXT NOT NULL DEFAULT '',
			instrument_key TEXT NOT NULL,
			clean_price DOUBLE PRECISION NOT NULL,
			dirty_price DOUBLE PRECISION NOT NULL,
			accrued DOUBLE PRECISION NOT NULL,
			ytm DOUBLE PRECISION,
			PRIMARY KEY (asof, market, instrument_key)
		);`
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (p *Postgres) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (p *Postgres) Curve(ctx context.Context, market string) ([]curve.Point, error) {
	const query = `
		SELECT t, rate FROM curves
		WHERE lower(market) = lower($1)
		ORDER BY t`
	rows, err := p.db.QueryContext(ctx, query, market)
	if err != nil {
		return nil, fmt.Errorf("query curve: %w", err)
	}
	defer rows.Close()

	pts := []curve.Point{}
	for rows.Next() {
		var pt curve.Point
		if err := rows.Scan(&pt.T, &pt.Rate); err != nil {
			return nil, fmt.Errorf("scan curve point: %w", err)
		}
		pts = append(pts, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curve points: %w", err)
	}
	return pts, nil
}

func (p *Postgres) PutCurve(ctx context.Context, market string, pts []curve.Point, mode PutMode) error {
	return p.withTx(ctx, func(tx *sql.Tx) error {
		if mode == ModeReplace {
			const del = `DELETE FROM curves WHERE lower(market) = lower($1)`
			if _, err := tx.ExecContext(ctx, del, market); err != nil {
				return fmt.Errorf("delete curve: %w", err)
			}
		}
		const upsert = `
			INSERT INTO curves (market, t, rate) VALUES ($1, $2, $3)
			ON CONFLICT (market, t) DO UPDATE SET rate = EXCLUDED.rate`
		for _, pt := range pts {
			if _, err := tx.ExecContext(ctx, upsert, market, pt.T, pt.Rate); err != nil {
				return fmt.Errorf("upsert curve point t=%v: %w", pt.T, err)
			}
		}
		return nil
	})
}

func (p *Postgres) Price(ctx context.Context, asof time.Time, market, instrumentKey string) (*PriceRow, error) {
	const query = `
		SELECT asof, market, instrument_key, clean_price, dirty_price, accrued, ytm
		FROM prices
		WHERE asof = $1 AND market = $2 AND instrument_key = $3`
	row := p.db.QueryRowContext(ctx, query, asof, market, instrumentKey)
	pr, err := scanPrice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query price: %w", err)
	}
	return pr, nil
}

func (p *Postgres) PutPrice(ctx context.Context, r PriceRow) error {
	const upsert = `
		INSERT INTO prices (asof, market, instrument_key, clean_price, dirty_price, accrued, ytm)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (asof, market, instrument_key) DO UPDATE SET
			clean_price = EXCLUDED.clean_price,
			dirty_price = EXCLUDED.dirty_price,
			accrued = EXCLUDED.accrued,
			ytm = EXCLUDED.ytm`
	var ytm sql.NullFloat64
	if r.YTM != nil {
		ytm = sql.NullFloat64{Float64: *r.YTM, Valid: true}
	}
	if _, err := p.db.ExecContext(ctx, upsert,
		r.AsOf, r.Market, r.InstrumentKey, r.Clean, r.Dirty, r.Accrued, ytm); err != nil {
		return fmt.Errorf("upsert price: %w", err)
	}
	return nil
}

func (p *Postgres) Markets(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT market FROM curves ORDER BY market`
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	defer rows.Close()

	markets := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate markets: %w", err)
	}
	return markets, nil
}

func (p *Postgres) PriceHistory(ctx context.Context, instrumentKey string, from, to time.Time) ([]PriceRow, error) {
	const query = `
		SELECT asof, market, instrument_key, clean_price, dirty_price, accrued, ytm
		FROM prices
		WHERE instrument_key = $1 AND asof >= $2 AND asof <= $3
		ORDER BY asof`
	rows, err := p.db.QueryContext(ctx, query, instrumentKey, from, to)
	if err != nil {
		return nil, fmt.Errorf("query price history: %w", err)
	}
	defer rows.Close()

	out := []PriceRow{}
	for rows.Next() {
		pr, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		out = append(out, *pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price rows: %w", err)
	}
	return out, nil
}

func (p *Postgres) LatestPrice(ctx context.Context, instrumentKey string) (*PriceRow, error) {
	const query = `
		SELECT asof, market, instrument_key, clean_price, dirty_price, accrued, ytm
		FROM prices
		WHERE instrument_key = $1
		ORDER BY asof DESC
		LIMIT 1`
	row := p.db.QueryRowContext(ctx, query, instrumentKey)
	pr, err := scanPrice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest price: %w", err)
	}
	return pr, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrice(row rowScanner) (*PriceRow, error) {
	var pr PriceRow
	var ytm sql.NullFloat64
	if err := row.Scan(&pr.AsOf, &pr.Market, &pr.InstrumentKey,
		&pr.Clean, &pr.Dirty, &pr.Accrued, &ytm); err != nil {
		return nil, err
	}
	if ytm.Valid {
		pr.YTM = &ytm.Float64
	}
	return &pr, nil
}
