package money

import (
	"fmt"
	"time"
)

// Month is a calendar month in UTC.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth validates year and month. Month must be in 1..12 and year positive.
func NewMonth(year, month int) (Month, error) {
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("month %d out of range 1..12", month)
	}
	if year < 1 {
		return Month{}, fmt.Errorf("year %d must be positive", year)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

// MonthOf returns the UTC calendar month containing t.
func MonthOf(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

// First is midnight UTC on the first day of the month.
func (m Month) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Last is midnight UTC on the last day of the month.
func (m Month) Last() time.Time {
	return m.Next().First().AddDate(0, 0, -1)
}

// Next returns the following month, rolling December into January.
func (m Month) Next() Month {
	return m.Add(1)
}

// Add shifts the month by n (negative goes backwards).
func (m Month) Add(n int) Month {
	return MonthOf(m.First().AddDate(0, n, 0))
}

// Days is the number of days in the month.
func (m Month) Days() int {
	return m.Last().Day()
}

// Contains reports whether t falls on one of the month's days.
func (m Month) Contains(t time.Time) bool {
	t = t.UTC()
	return t.Year() == m.Year && t.Month() == m.Month
}

// DaysLeft counts the days from today through the end of the month, today
// included. It is zero for any month other than today's.
func (m Month) DaysLeft(today time.Time) int {
	if !m.Contains(today) {
		return 0
	}
	return m.Days() - today.UTC().Day() + 1
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Date truncates t to midnight UTC.
func Date(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from a to b (negative if b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}
