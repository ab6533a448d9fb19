package dates

import "time"

const Layout = "2006-01-02"

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayPtr is Day for optional dates.
func DayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Day(*t)
	return &d
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	return time.Parse(Layout, s)
}

// ParseOptional returns nil for an empty string.
func ParseOptional(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
