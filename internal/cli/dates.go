package cli

import (
	"time"

	"github.com/seednet/tgctl/internal/domain"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate accepts ISO 8601 timestamps or bare YYYY-MM-DD dates,
// interpreted as UTC when no zone is given.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.Errf(domain.CodeInvalidInput, "Invalid date %q. Use YYYY-MM-DD or an ISO 8601 timestamp.", s)
}

// ParseDateEndOfDay parses like ParseDate, but a date-only input means
// the end of that day, so an --until bound includes the named day.
func ParseDateEndOfDay(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	if len(s) == len("2006-01-02") {
		t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return t, nil
}
