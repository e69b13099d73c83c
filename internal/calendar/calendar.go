// Package calendar classifies dates as US equity trading days and exposes
// the regular session bounds in exchange time.
package calendar

import (
	"time"
)

// US market holidays for the supported backtest range.
var usHolidays = map[string]struct{}{
	// 2023
	"2023-01-02": {}, "2023-01-16": {}, "2023-02-20": {}, "2023-04-07": {},
	"2023-05-29": {}, "2023-07-04": {}, "2023-09-04": {}, "2023-11-23": {},
	"2023-12-25": {},
	// 2024
	"2024-01-01": {}, "2024-01-15": {}, "2024-02-19": {}, "2024-03-29": {},
	"2024-05-27": {}, "2024-07-04": {}, "2024-09-02": {}, "2024-11-28": {},
	"2024-12-25": {},
}

// SessionBounds delimits the regular trading session for one date.
type SessionBounds struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the session, inclusive of the
// open and exclusive of the close.
func (s SessionBounds) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// Calendar answers trading-day questions for US equities. The zero value is
// not usable; construct with New so the exchange timezone is resolved once.
type Calendar struct {
	exchangeTZ *time.Location
}

// New creates a trading calendar in the US equity exchange timezone.
func New() (*Calendar, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, err
	}
	return &Calendar{exchangeTZ: loc}, nil
}

// IsTradingDate reports whether the given date is a US equity trading day.
func (c *Calendar) IsTradingDate(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := usHolidays[date.Format("2006-01-02")]
	return !holiday
}

// PreviousTradingDate returns the closest trading day strictly before date.
func (c *Calendar) PreviousTradingDate(date time.Time) time.Time {
	prev := date.AddDate(0, 0, -1)
	for !c.IsTradingDate(prev) {
		prev = prev.AddDate(0, 0, -1)
	}
	return prev
}

// SessionBounds returns the regular session [09:30, 16:00) for the given
// date in exchange time.
func (c *Calendar) SessionBounds(date time.Time) SessionBounds {
	y, m, d := date.Date()
	return SessionBounds{
		Start: time.Date(y, m, d, 9, 30, 0, 0, c.exchangeTZ),
		End:   time.Date(y, m, d, 16, 0, 0, 0, c.exchangeTZ),
	}
}

// Location returns the exchange timezone.
func (c *Calendar) Location() *time.Location {
	return c.exchangeTZ
}
