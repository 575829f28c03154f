package calendar

import (
	"fmt"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET           CalendarID = "TARGET"
	UnitedStates     CalendarID = "UnitedStates"
	USSettlement     CalendarID = "UnitedStates/Settlement"
	USGovernmentBond CalendarID = "UnitedStates/GovernmentBond"
	USNYSE           CalendarID = "UnitedStates/NYSE"
)

// Convention is a business-day roll convention.
type Convention string

const (
	Following         Convention = "Following"
	ModifiedFollowing Convention = "ModifiedFollowing"
	Preceding         Convention = "Preceding"
	Unadjusted        Convention = "Unadjusted"
)

var calendars = map[CalendarID]struct{}{
	TARGET:           {},
	UnitedStates:     {},
	USSettlement:     {},
	USGovernmentBond: {},
	USNYSE:           {},
}

// Bundled calendars carry weekend rules only. Holiday tables are market data,
// injected via RegisterHolidays before use.
var holidays = map[CalendarID]map[string]struct{}{}

// ParseCalendar validates a calendar name. Unknown names are an error, never
// a silent fallback.
func ParseCalendar(name string) (CalendarID, error) {
	id := CalendarID(name)
	if _, ok := calendars[id]; !ok {
		return "", fmt.Errorf("unknown calendar %q", name)
	}
	return id, nil
}

// ParseConvention validates a business-day convention name.
func ParseConvention(name string) (Convention, error) {
	switch c := Convention(name); c {
	case Following, ModifiedFollowing, Preceding, Unadjusted:
		return c, nil
	}
	return "", fmt.Errorf("unknown business day convention %q", name)
}

// RegisterHolidays adds holiday dates to a calendar. Call once at startup;
// the table is not guarded for concurrent mutation.
func RegisterHolidays(cal CalendarID, dates []time.Time) {
	set := holidays[cal]
	if set == nil {
		set = make(map[string]struct{}, len(dates))
		holidays[cal] = set
	}
	for _, d := range dates {
		set[d.Format("2006-01-02")] = struct{}{}
	}
}

func isHoliday(cal CalendarID, t time.Time) bool {
	set, ok := holidays[cal]
	if !ok {
		return false
	}
	_, ok = set[t.Format("2006-01-02")]
	return ok
}

// IsBusinessDay checks weekends and any registered holiday set.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust rolls t to a business day per the given convention.
func Adjust(cal CalendarID, t time.Time, conv Convention) time.Time {
	switch conv {
	case Unadjusted:
		return t
	case Following:
		return adjustFollowing(cal, t)
	case Preceding:
		return adjustPreceding(cal, t)
	case ModifiedFollowing:
		adj := adjustFollowing(cal, t)
		if adj.Month() != t.Month() {
			return adjustPreceding(cal, t)
		}
		return adj
	}
	return t
}

func adjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func adjustPreceding(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// Advance adds n calendar days and rolls forward to a business day.
func Advance(cal CalendarID, t time.Time, days int) time.Time {
	return adjustFollowing(cal, t.AddDate(0, 0, days))
}
