package templates

import (
	"strings"
	"time"
)

// EmptyValue is rendered for missing or unparseable values.
const EmptyValue = "-"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseDate parses an ISO 8601 date or timestamp.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// FormatDate formats an ISO date as "Jan 2, 2006", or EmptyValue.
func FormatDate(raw string) string {
	parsed, ok := ParseDate(raw)
	if !ok {
		return EmptyValue
	}
	return parsed.Format("Jan 2, 2006")
}

// FormatTime formats t with a short date and clock time, or EmptyValue for
// the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return EmptyValue
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}
