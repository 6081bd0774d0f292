package money

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMonth(t *testing.T) {
	_, err := NewMonth(2024, 0)
	assert.Error(t, err)
	_, err = NewMonth(2024, 13)
	assert.Error(t, err)
	_, err = NewMonth(0, 5)
	assert.Error(t, err)

	m, err := NewMonth(2024, 5)
	require.NoError(t, err)
	assert.Equal(t, "2024-05", m.String())
}

func TestMonthBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		year     int
		month    int
		wantLast string
		wantNext string
		wantDays int
	}{
		{"leap february", 2024, 2, "2024-02-29", "2024-03", 29},
		{"non-leap february", 2023, 2, "2023-02-28", "2023-03", 28},
		{"century non-leap february", 2100, 2, "2100-02-28", "2100-03", 28},
		{"december rolls into january", 2024, 12, "2024-12-31", "2025-01", 31},
		{"thirty day month", 2024, 4, "2024-04-30", "2024-05", 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMonth(tt.year, tt.month)
			require.NoError(t, err)
			assert.Equal(t, 1, m.First().Day())
			assert.Equal(t, tt.wantLast, m.Last().Format("2006-01-02"))
			assert.Equal(t, tt.wantNext, m.Next().String())
			assert.Equal(t, tt.wantDays, m.Days())
		})
	}
}

func TestMonthAdd(t *testing.T) {
	m := Month{Year: 2025, Month: time.March}
	assert.Equal(t, "2024-10", m.Add(-5).String())
	assert.Equal(t, "2026-01", m.Add(10).String())
}

func TestMonthDaysLeft(t *testing.T) {
	m := Month{Year: 2024, Month: time.February}

	assert.Equal(t, 29, m.DaysLeft(time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, m.DaysLeft(time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, m.DaysLeft(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2024, 12, 30, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 1, 2, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysBetween(a, b))
	assert.Equal(t, -3, DaysBetween(b, a))
}
