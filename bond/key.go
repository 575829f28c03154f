package bond

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/meenmo/bondeval/utils"
)

// canonicalDecimals is how many decimal digits of face and coupon survive
// canonicalization, so float noise below that never changes the key.
const canonicalDecimals = 10

// keyPayload is the canonical form of Terms. Field order is alphabetical by
// JSON name, matching a sorted-key serialization; any change to the encoding
// changes every stored instrument key.
type keyPayload struct {
	BDC            string          `json:"bdc"`
	Calendar       string          `json:"calendar"`
	Coupon         json.RawMessage `json:"coupon"`
	DayCount       string          `json:"day_count"`
	Face           json.RawMessage `json:"face"`
	Frequency      string          `json:"frequency"`
	IssueDate      string          `json:"issue_date"`
	MaturityDate   string          `json:"maturity_date"`
	SettlementDays int             `json:"settlement_days"`
}

// InstrumentKey derives a stable fingerprint from bond terms: semantically
// identical terms hash identically, any field change changes the hash.
func InstrumentKey(t Terms) string {
	payload := keyPayload{
		BDC:            string(t.Convention),
		Calendar:       string(t.Calendar),
		Coupon:         canonicalNumber(t.Coupon),
		DayCount:       string(t.DayCount),
		Face:           canonicalNumber(t.Face),
		Frequency:      string(t.Frequency),
		IssueDate:      utils.FormatDate(t.IssueDate),
		MaturityDate:   utils.FormatDate(t.MaturityDate),
		SettlementDays: t.SettlementDays,
	}
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// canonicalNumber renders v rounded to a fixed precision with no float
// formatting noise.
func canonicalNumber(v float64) json.RawMessage {
	return json.RawMessage(decimal.NewFromFloat(v).Round(canonicalDecimals).String())
}
