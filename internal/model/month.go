package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// MonthLayout is the query-parameter format of a calendar month.
const MonthLayout = "2006-01"

// DateLayout is the ISO format dates are serialized with.
const DateLayout = "2006-01-02"

// Month is a calendar month: a year and a month, nothing finer.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a yyyy-MM string such as "2024-03".
// "2024-13" and "2024-3" are rejected.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: expected yyyy-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// FirstDay returns day 1 of the month at UTC midnight, the key the fact
// tables are partitioned by.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) String() string {
	return m.FirstDay().Format(MonthLayout)
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}

	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}

	d.Time = t
	return nil
}
