package history

import (
	"strings"
	"time"
)

const monthLayout = "2006-01"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"02-01-2006",
	"02/01/2006",
	"20060102",
	"02012006",
	"2006-01",
	"01/2006",
	"01-2006",
	"Jan-2006",
	"Jan-06",
	"Jan 2006",
}

// ParseDate accepts the date layouts bureaus emit. Sentinel dates (year before 1900,
// all-ones placeholders) are rejected.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isPlaceholder(s) {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() < 1900 {
				return time.Time{}, false
			}
			return t, true
		}
	}
	return time.Time{}, false
}

func isPlaceholder(s string) bool {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return false
	}
	return strings.Trim(digits, "1") == "" || strings.Trim(digits, "0") == ""
}

// MonthsBetween counts whole months from a to b; negative when b is before a.
func MonthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	return months
}
