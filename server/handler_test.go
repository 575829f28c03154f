package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/meenmo/bondeval/pricing"
	"github.com/meenmo/bondeval/server"
	"github.com/meenmo/bondeval/store"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := pricing.NewService(store.NewMemory(), log)
	return server.NewRouter(server.NewHandler(svc, log))
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCurveAndPriceEndpoints(t *testing.T) {
	router := newTestRouter()

	putBody := map[string]any{
		"curve": []map[string]float64{
			{"t": 0.5, "rate": 0.043},
			{"t": 1.0, "rate": 0.044},
			{"t": 2.0, "rate": 0.045},
			{"t": 3.0, "rate": 0.046},
		},
		"mode": "replace",
	}
	if w := doJSON(t, router, http.MethodPut, "/v1/curves/usd_govt", putBody); w.Code != http.StatusOK {
		t.Fatalf("PUT curve: %d %s", w.Code, w.Body.String())
	}

	w := doJSON(t, router, http.MethodGet, "/v1/curves/usd_govt", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET curve: %d %s", w.Code, w.Body.String())
	}
	var curveResp struct {
		Curve []struct {
			T    float64 `json:"t"`
			Rate float64 `json:"rate"`
		} `json:"curve"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &curveResp); err != nil {
		t.Fatalf("decode curve: %v", err)
	}
	if len(curveResp.Curve) != 4 || curveResp.Curve[0].T != 0.5 {
		t.Fatalf("curve response: %+v", curveResp)
	}

	priceBody := map[string]any{
		"market":                  "usd_govt",
		"coupon":                  0.05,
		"frequency":               "Semiannual",
		"issue_date":              "2024-01-15",
		"maturity_date":           "2027-01-15",
		"calendar":                "UnitedStates",
		"day_count":               "Actual365Fixed",
		"business_day_convention": "Following",
		"settlement_days":         2,
		"valuation_date":          "2025-08-19",
		"persist":                 true,
	}
	w = doJSON(t, router, http.MethodPost, "/v1/prices", priceBody)
	if w.Code != http.StatusOK {
		t.Fatalf("POST prices: %d %s", w.Code, w.Body.String())
	}
	var priceResp pricing.PriceResult
	if err := json.Unmarshal(w.Body.Bytes(), &priceResp); err != nil {
		t.Fatalf("decode price: %v", err)
	}
	if priceResp.Source != "computed" || priceResp.InstrumentKey == "" {
		t.Fatalf("price response: %+v", priceResp)
	}

	// Second identical request is served from the cache.
	w = doJSON(t, router, http.MethodPost, "/v1/prices", priceBody)
	var second pricing.PriceResult
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode price: %v", err)
	}
	if second.Source != "db" {
		t.Fatalf("expected cache hit, got source %q", second.Source)
	}

	w = doJSON(t, router, http.MethodGet, "/v1/prices/"+priceResp.InstrumentKey+"/latest", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET latest: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/v1/markets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET markets: %d %s", w.Code, w.Body.String())
	}
}

func TestValidationErrorsReturn400(t *testing.T) {
	router := newTestRouter()

	// Unknown put mode.
	body := map[string]any{
		"curve": []map[string]float64{{"t": 1, "rate": 0.04}},
		"mode":  "merge",
	}
	if w := doJSON(t, router, http.MethodPut, "/v1/curves/usd_govt", body); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown mode: %d", w.Code)
	}

	// Unknown calendar name.
	priceBody := map[string]any{
		"market":                  "usd_govt",
		"coupon":                  0.05,
		"frequency":               "Semiannual",
		"issue_date":              "2024-01-15",
		"maturity_date":           "2027-01-15",
		"calendar":                "Mars",
		"day_count":               "Actual365Fixed",
		"business_day_convention": "Following",
		"settlement_days":         2,
	}
	if w := doJSON(t, router, http.MethodPost, "/v1/prices", priceBody); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown calendar: %d", w.Code)
	}

	// No cached price for an unknown instrument.
	if w := doJSON(t, router, http.MethodGet, "/v1/prices/deadbeef/latest", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown instrument: %d", w.Code)
	}
}
