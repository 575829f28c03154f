package bond

import (
	"fmt"
	"time"

	"github.com/meenmo/bondeval/calendar"
	"github.com/meenmo/bondeval/utils"
)

// Frequency enumerates coupon payment frequencies.
type Frequency string

const (
	Annual     Frequency = "Annual"
	Semiannual Frequency = "Semiannual"
	Quarterly  Frequency = "Quarterly"
	Monthly    Frequency = "Monthly"
)

// ParseFrequency validates a frequency name. Unknown names are an error,
// never a silent fallback.
func ParseFrequency(name string) (Frequency, error) {
	switch f := Frequency(name); f {
	case Annual, Semiannual, Quarterly, Monthly:
		return f, nil
	}
	return "", fmt.Errorf("unknown frequency %q", name)
}

// PerYear returns coupons per year.
func (f Frequency) PerYear() int {
	switch f {
	case Annual:
		return 1
	case Semiannual:
		return 2
	case Quarterly:
		return 4
	case Monthly:
		return 12
	}
	return 0
}

// Months returns the coupon period length in months.
func (f Frequency) Months() int {
	return 12 / f.PerYear()
}

// Terms defines a fixed-rate bond. Immutable once constructed; independent of
// market and valuation date.
type Terms struct {
	Face           float64
	Coupon         float64 // annual rate, decimal
	Frequency      Frequency
	IssueDate      time.Time
	MaturityDate   time.Time
	Calendar       calendar.CalendarID
	DayCount       utils.DayCount
	Convention     calendar.Convention
	SettlementDays int
}

// Validate checks internal consistency of the terms.
func (t Terms) Validate() error {
	if t.Face <= 0 {
		return fmt.Errorf("face must be positive, got %v", t.Face)
	}
	if t.Coupon < 0 {
		return fmt.Errorf("coupon must be non-negative, got %v", t.Coupon)
	}
	if t.Frequency.PerYear() == 0 {
		return fmt.Errorf("unknown frequency %q", t.Frequency)
	}
	if !t.MaturityDate.After(t.IssueDate) {
		return fmt.Errorf("maturity %s must be after issue %s",
			utils.FormatDate(t.MaturityDate), utils.FormatDate(t.IssueDate))
	}
	if t.SettlementDays < 0 {
		return fmt.Errorf("settlement days must be non-negative, got %d", t.SettlementDays)
	}
	return nil
}

// Cashflow is a single dated cash payment for a bond.
//
// Amounts are in currency units, not price-per-100.
type Cashflow struct {
	Date      time.Time
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}
