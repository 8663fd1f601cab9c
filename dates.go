package quicktable

import (
	"fmt"
	"strings"
	"time"
)

// DateHook normalizes a raw cell value of field into a timestamp before
// a date/time format renders it. Nil values never reach the hook.
type DateHook func(raw any, field string, row Row) (time.Time, error)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
	"15:04:05",
}

// DefaultDate accepts time.Time values, common SQL and RFC 3339 strings and
// unix seconds. Strings without a zone are read as UTC.
func DefaultDate(raw any, field string, _ Row) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	case string:
		return parseDate(field, v)
	case []byte:
		return parseDate(field, string(v))
	case int64:
		return time.Unix(v, 0).UTC(), nil
	case int:
		return time.Unix(int64(v), 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %s: cannot use %T as a date", ErrInvalidValue, field, raw)
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s: cannot parse date %q", ErrInvalidValue, field, s)
}

// LocalDate returns a hook that moves zero-offset timestamps into loc, leaving
// values that already carry another offset untouched.
func LocalDate(loc *time.Location) DateHook {
	return func(raw any, field string, row Row) (time.Time, error) {
		t, err := DefaultDate(raw, field, row)
		if err != nil {
			return t, err
		}
		if _, off := t.Zone(); loc != nil && off == 0 {
			t = t.In(loc)
		}
		return t, nil
	}
}
