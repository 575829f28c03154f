package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/meenmo/bondeval/bond"
	"github.com/meenmo/bondeval/calendar"
	"github.com/meenmo/bondeval/curve"
	"github.com/meenmo/bondeval/store"
	"github.com/meenmo/bondeval/utils"
)

// ErrValidation marks caller errors: empty or unknown inputs, malformed
// dates, unresolvable curve sources. Check with errors.Is.
var ErrValidation = errors.New("invalid request")

func invalid(err error) error {
	return fmt.Errorf("%v: %w", err, ErrValidation)
}

func invalidf(format string, args ...any) error {
	return invalid(fmt.Errorf(format, args...))
}

// Service prices bonds against stored or explicit zero curves, memoizing
// results by (asof, market, instrument key).
type Service struct {
	store store.Store
	log   *logrus.Logger
}

func NewService(st store.Store, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{store: st, log: log}
}

// CurveSummary reports a put_curve outcome.
type CurveSummary struct {
	Market string `json:"market"`
	Points int    `json:"points"`
	Mode   string `json:"mode"`
}

// GetCurve returns a market's zero curve ascending by t. An unknown market
// yields an empty curve, not an error.
func (s *Service) GetCurve(ctx context.Context, market string) ([]curve.Point, error) {
	if strings.TrimSpace(market) == "" {
		return nil, invalidf("market must be a non-empty string")
	}
	return s.store.Curve(ctx, market)
}

// PutCurve stores a market's curve, replacing or merging per mode. The whole
// write is one transaction; on failure the prior curve is retained.
func (s *Service) PutCurve(ctx context.Context, market string, pts []curve.Point, mode string) (*CurveSummary, error) {
	if strings.TrimSpace(market) == "" {
		return nil, invalidf("market must be a non-empty string")
	}
	if len(pts) == 0 {
		return nil, invalidf("curve must be a non-empty list")
	}
	for _, pt := range pts {
		if pt.T < 0 {
			return nil, invalidf("t must be >= 0, got %v", pt.T)
		}
	}
	m, err := store.ParsePutMode(mode)
	if err != nil {
		return nil, invalid(err)
	}

	if err := s.store.PutCurve(ctx, market, pts, m); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"market": market,
		"points": len(pts),
		"mode":   string(m),
	}).Info("curve stored")
	return &CurveSummary{Market: market, Points: len(pts), Mode: string(m)}, nil
}

// PriceRequest carries one price_bond call. An explicit Curve takes
// precedence over Market; Face defaults to 100.
type PriceRequest struct {
	Market                string        `json:"market,omitempty"`
	Curve                 []curve.Point `json:"curve,omitempty"`
	Face                  float64       `json:"face,omitempty"`
	Coupon                float64       `json:"coupon"`
	Frequency             string        `json:"frequency"`
	IssueDate             string        `json:"issue_date"`
	MaturityDate          string        `json:"maturity_date"`
	Calendar              string        `json:"calendar"`
	DayCount              string        `json:"day_count"`
	BusinessDayConvention string        `json:"business_day_convention"`
	SettlementDays        int           `json:"settlement_days"`
	ValuationDate         string        `json:"valuation_date,omitempty"`
	Persist               bool          `json:"persist,omitempty"`
}

// PriceResult is the outcome of one price_bond call. Prices are per 100
// face; YTM is null when undefined; Source is "db" for cache hits and
// "computed" otherwise.
type PriceResult struct {
	Clean         float64  `json:"clean_price"`
	Dirty         float64  `json:"dirty_price"`
	Accrued       float64  `json:"accrued"`
	YTM           *float64 `json:"ytm"`
	Source        string   `json:"source"`
	AsOf          string   `json:"asof"`
	Market        *string  `json:"market"`
	InstrumentKey string   `json:"instrument_key"`
}

// PriceBond values a fixed-rate bond with the DB cache protocol: look up
// (asof, market, instrument key) first; on a miss resolve the curve, compute,
// and optionally persist. A cache hit is a pure read and is not re-validated
// against later curve changes.
func (s *Service) PriceBond(ctx context.Context, req PriceRequest) (*PriceResult, error) {
	terms, err := parseTerms(req)
	if err != nil {
		return nil, err
	}

	asof, err := resolveAsOf(req.ValuationDate)
	if err != nil {
		return nil, err
	}

	key := bond.InstrumentKey(terms)
	var marketOut *string
	if req.Market != "" {
		marketOut = &req.Market
	}

	cached, err := s.store.Price(ctx, asof, req.Market, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		s.log.WithFields(logrus.Fields{
			"asof":           utils.FormatDate(asof),
			"market":         req.Market,
			"instrument_key": key,
			"source":         "db",
		}).Debug("price cache hit")
		return &PriceResult{
			Clean:         cached.Clean,
			Dirty:         cached.Dirty,
			Accrued:       cached.Accrued,
			YTM:           cached.YTM,
			Source:        "db",
			AsOf:          utils.FormatDate(asof),
			Market:        marketOut,
			InstrumentKey: key,
		}, nil
	}

	pts := req.Curve
	if len(pts) == 0 {
		if req.Market == "" {
			return nil, invalidf("provide either market or explicit curve points")
		}
		pts, err = s.store.Curve(ctx, req.Market)
		if err != nil {
			return nil, err
		}
		if len(pts) == 0 {
			return nil, invalidf("no curve found for market %q", req.Market)
		}
	}

	zc, err := curve.NewZeroCurve(asof, pts, terms.Calendar)
	if err != nil {
		return nil, invalid(err)
	}
	periods, err := bond.Schedule(terms)
	if err != nil {
		return nil, invalid(err)
	}
	priced := bond.Price(terms, periods, zc, asof)

	result := &PriceResult{
		Clean:         priced.Clean,
		Dirty:         priced.Dirty,
		Accrued:       priced.Accrued,
		YTM:           priced.YTM,
		Source:        "computed",
		AsOf:          utils.FormatDate(asof),
		Market:        marketOut,
		InstrumentKey: key,
	}

	if req.Persist {
		row := store.PriceRow{
			AsOf:          asof,
			Market:        req.Market,
			InstrumentKey: key,
			Clean:         priced.Clean,
			Dirty:         priced.Dirty,
			Accrued:       priced.Accrued,
			YTM:           priced.YTM,
		}
		if err := s.store.PutPrice(ctx, row); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"asof":           result.AsOf,
		"market":         req.Market,
		"instrument_key": key,
		"source":         "computed",
		"persisted":      req.Persist,
	}).Info("bond priced")
	return result, nil
}

// CachedPrice is a stored valuation in wire form. Market is null for rows
// computed from an explicit curve.
type CachedPrice struct {
	AsOf          string   `json:"asof"`
	Market        *string  `json:"market"`
	InstrumentKey string   `json:"instrument_key"`
	Clean         float64  `json:"clean_price"`
	Dirty         float64  `json:"dirty_price"`
	Accrued       float64  `json:"accrued"`
	YTM           *float64 `json:"ytm"`
}

func toCachedPrice(row store.PriceRow) CachedPrice {
	var market *string
	if row.Market != "" {
		m := row.Market
		market = &m
	}
	return CachedPrice{
		AsOf:          utils.FormatDate(row.AsOf),
		Market:        market,
		InstrumentKey: row.InstrumentKey,
		Clean:         row.Clean,
		Dirty:         row.Dirty,
		Accrued:       row.Accrued,
		YTM:           row.YTM,
	}
}

// Markets lists the markets with a stored curve.
func (s *Service) Markets(ctx context.Context) ([]string, error) {
	return s.store.Markets(ctx)
}

// PriceHistory returns an instrument's cached prices over [from, to],
// ascending by asof. Empty bounds default to an open range.
func (s *Service) PriceHistory(ctx context.Context, instrumentKey, from, to string) ([]CachedPrice, error) {
	if strings.TrimSpace(instrumentKey) == "" {
		return nil, invalidf("instrument_key must be a non-empty string")
	}

	lo := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	hi := time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	var err error
	if from != "" {
		if lo, err = utils.ParseDate(from); err != nil {
			return nil, invalid(err)
		}
	}
	if to != "" {
		if hi, err = utils.ParseDate(to); err != nil {
			return nil, invalid(err)
		}
	}

	rows, err := s.store.PriceHistory(ctx, instrumentKey, lo, hi)
	if err != nil {
		return nil, err
	}
	out := make([]CachedPrice, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCachedPrice(row))
	}
	return out, nil
}

// LatestPrice returns an instrument's most recent cached price, or nil when
// nothing is cached for it.
func (s *Service) LatestPrice(ctx context.Context, instrumentKey string) (*CachedPrice, error) {
	if strings.TrimSpace(instrumentKey) == "" {
		return nil, invalidf("instrument_key must be a non-empty string")
	}
	row, err := s.store.LatestPrice(ctx, instrumentKey)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	cp := toCachedPrice(*row)
	return &cp, nil
}

func parseTerms(req PriceRequest) (bond.Terms, error) {
	var terms bond.Terms

	face := req.Face
	if face == 0 {
		face = 100
	}

	freq, err := bond.ParseFrequency(req.Frequency)
	if err != nil {
		return terms, invalid(err)
	}
	cal, err := calendar.ParseCalendar(req.Calendar)
	if err != nil {
		return terms, invalid(err)
	}
	dc, err := utils.ParseDayCount(req.DayCount)
	if err != nil {
		return terms, invalid(err)
	}
	conv, err := calendar.ParseConvention(req.BusinessDayConvention)
	if err != nil {
		return terms, invalid(err)
	}
	issue, err := utils.ParseDate(req.IssueDate)
	if err != nil {
		return terms, invalid(err)
	}
	maturity, err := utils.ParseDate(req.MaturityDate)
	if err != nil {
		return terms, invalid(err)
	}

	terms = bond.Terms{
		Face:           face,
		Coupon:         req.Coupon,
		Frequency:      freq,
		IssueDate:      issue,
		MaturityDate:   maturity,
		Calendar:       cal,
		DayCount:       dc,
		Convention:     conv,
		SettlementDays: req.SettlementDays,
	}
	if err := terms.Validate(); err != nil {
		return terms, invalid(err)
	}
	return terms, nil
}

func resolveAsOf(valuationDate string) (time.Time, error) {
	if valuationDate == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	asof, err := utils.ParseDate(valuationDate)
	if err != nil {
		return time.Time{}, invalid(err)
	}
	return asof, nil
}
