// internal/models/date.go
package models

import (
	"fmt"
	"time"
)

// Date is a calendar day with no time component. Meals are keyed by the
// day they were eaten, not by a timestamp, so summaries never depend on
// time zones or clock values.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Today returns the current calendar day in local time.
func Today() Date {
	return DateOf(time.Now())
}

func (d Date) String() string {
	return d.time().Format(dateLayout)
}

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar day, handling month and year rollover.
func (d Date) Next() Date {
	return DateOf(d.time().AddDate(0, 0, 1))
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.time().AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool {
	return d.time().Before(other.time())
}

func (d Date) After(other Date) bool {
	return d.time().After(other.time())
}

// DaysUntil returns the number of days from d to other, inclusive of
// neither endpoint (so d.DaysUntil(d) == 0).
func (d Date) DaysUntil(other Date) int {
	return int(other.time().Sub(d.time()) / (24 * time.Hour))
}

// MarshalText renders the date as YYYY-MM-DD, which is also how it
// appears inside JSON documents.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
