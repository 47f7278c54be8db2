package domain

import (
	"fmt"
	"strings"
	"time"

	// Embedded zone database so timezone validation does not depend on the host.
	_ "time/tzdata"
)

var timestampLayouts = []struct {
	layout string
	offset bool
}{
	{"2006-01-02T15:04:05Z07:00", true},
	{"2006-01-02T15:04:05-0700", true},
	{"2006-01-02T15:04:05-07", true},
	{"2006-01-02T15:04:05-07:00:00", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02T15:04-07", true},
	{"2006-01-02T15:04", false},
	{"2006-01-02T15Z07:00", true},
	{"2006-01-02T15-07", true},
	{"2006-01-02T15", false},
	{"2006-01-02", false},

	// Basic format.
	{"20060102T150405-0700", true},
	{"20060102T150405Z07:00", true},
	{"20060102T150405-07", true},
	{"20060102T150405", false},
	{"20060102T1504", false},
	{"20060102", false},
}

// ParseTimestamp reads the ISO-8601 forms found in stored series: date-only,
// extended or basic format, "T" or space separated, hour or minute or second
// precision with optional fractional seconds, and an optional ±hh, ±hhmm,
// ±hh:mm or ±hh:mm:ss offset.
// A trailing "Z" is dropped and "Z+hh:mm" is read as the offset that follows it.
// hasOffset reports whether the string carried an explicit offset; naive
// values are returned in UTC.
func ParseTimestamp(s string) (ts time.Time, hasOffset bool, err error) {
	v := strings.TrimSpace(s)
	v = strings.TrimSuffix(v, "Z")
	if i := strings.Index(v, "Z+"); i >= 0 {
		v = v[:i] + v[i+1:]
	} else if i := strings.Index(v, "Z-"); i >= 0 {
		v = v[:i] + v[i+1:]
	}
	if len(v) > 10 && v[10] == ' ' {
		v = v[:10] + "T" + v[11:]
	}

	for _, l := range timestampLayouts {
		t, perr := time.Parse(l.layout, v)
		if perr != nil {
			continue
		}
		return t, l.offset, nil
	}
	return time.Time{}, false, fmt.Errorf("parse timestamp %q: not ISO 8601", s)
}

// LoadLocation resolves an IANA zone name. "Local" and the empty string are
// rejected so results never depend on the host's zone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, invalid("timezone", "The 'timezone' field must contain a valid timezone.")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, invalid("timezone", "The 'timezone' field must contain a valid timezone.")
	}
	return loc, nil
}

// inZone keeps the wall clock of t and attaches loc, discarding t's offset.
func inZone(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// ParseInstant is ParseTimestamp for inputs where a bare trailing "Z" means UTC.
// Stored series keep the lenient reading; new inputs such as a synthesis start
// time use this one.
func ParseInstant(s string) (ts time.Time, hasOffset bool, err error) {
	ts, hasOffset, err = ParseTimestamp(s)
	if err != nil || hasOffset {
		return ts, hasOffset, err
	}
	return ts, strings.HasSuffix(strings.TrimSpace(s), "Z"), nil
}
