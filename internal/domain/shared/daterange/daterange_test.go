package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 30, DaysBetween(day("2025-01-01"), day("2025-01-31")))
	assert.Equal(t, 1, DaysBetween(day("2025-01-01"), day("2025-01-01")))
	assert.Equal(t, 1, DaysBetween(day("2025-01-10"), day("2025-01-01")))
}

func TestDaysBetween_BeyondDurationRange(t *testing.T) {
	assert.Equal(t, 136965, DaysBetween(day("2025-01-01"), day("2400-01-01")))
	assert.Equal(t, 365242, DaysBetween(day("1000-01-01"), day("2000-01-01")))
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2025, 1, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2025, 1, 3, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 2, DaysBetween(start, end))
}

func TestDate_UsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	late := time.Date(2025, 3, 1, 23, 0, 0, 0, loc)
	assert.Equal(t, day("2025-03-01"), Date(late))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, day("2025-06-15"), got)

	got, err = ParseDate("2025-06-15T18:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, day("2025-06-15"), got)

	_, err = ParseDate("15/06/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)

	opt, err := ParseOptionalDate("  ")
	require.NoError(t, err)
	assert.Nil(t, opt)
}

func TestNew_AllowsSameDayRejectsInverted(t *testing.T) {
	dr, err := New(day("2025-01-01"), day("2025-01-01"))
	require.NoError(t, err)
	assert.Equal(t, 1, dr.Days())

	_, err = New(day("2025-01-02"), day("2025-01-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestWithin(t *testing.T) {
	dr := DateRange{Start: day("2025-02-01"), End: day("2025-02-10")}
	from := day("2025-02-01")
	to := day("2025-02-09")

	assert.True(t, dr.Within(&from, nil))
	assert.False(t, dr.Within(nil, &to))
	assert.True(t, dr.Within(nil, nil))
	assert.True(t, dr.Within(&from, &dr.End))
}
