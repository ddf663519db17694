package daterange

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: end date must not precede start date")
	ErrInvalidDate  = errors.New("daterange: invalid date")
)

const (
	dayLayout    = "2006-01-02"
	secondsInDay = 24 * 60 * 60
)

// Date truncates t to midnight UTC of its own calendar date.
// The calendar date is taken in t's location so "2025-03-01T23:00:00-05:00" stays March 1st.
func Date(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts "2006-01-02" or an RFC3339 timestamp and returns the calendar date.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(dayLayout, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return Date(t), nil
}

// ParseOptionalDate returns nil for an empty string.
func ParseOptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Format renders a calendar date as "2006-01-02".
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return Date(t).Format(dayLayout)
}

// DateRange is the closed calendar interval [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: Date(start), End: Date(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if dr.End.Before(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Days is the number of charged days: the calendar difference, never less than one.
func (dr DateRange) Days() int {
	return DaysBetween(dr.Start, dr.End)
}

// DaysBetween counts whole calendar days from start to end with a floor of one.
// Inverted ranges also yield one. Unix seconds are used because time.Duration caps at ~292 years.
func DaysBetween(start, end time.Time) int {
	diff := int((Date(end).Unix() - Date(start).Unix()) / secondsInDay)
	if diff < 1 {
		return 1
	}
	return diff
}

// Within reports whether dr lies inside the optional bounds; nil bounds are open.
func (dr DateRange) Within(from, to *time.Time) bool {
	if from != nil && dr.Start.Before(Date(*from)) {
		return false
	}
	if to != nil && dr.End.After(Date(*to)) {
		return false
	}
	return true
}

func (dr DateRange) String() string {
	return Format(dr.Start) + ".." + Format(dr.End)
}
