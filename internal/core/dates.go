package core

import (
	"strings"
	"time"
)

// dateLayouts are tried in order. Date-only strings are the common case.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006/01/02",
}

// ParseDate parses a calendar date string. Impossible dates such as
// 2024-02-30 are rejected.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Today returns the current date as YYYY-MM-DD in local time.
func Today() string {
	return time.Now().Format("2006-01-02")
}
