package clinic

import (
	"strings"
	"time"
)

// ParseBirthDate accepts a date-only string, an ISO-8601 timestamp, or an
// RFC3339 value and reduces all of them to the calendar date. The store only
// ever sees YYYY-MM-DD.
func ParseBirthDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, Validationf("invalid birth date %q: expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// appointment timestamps arrive with minute precision; seconds are tolerated
// and truncated.
var scheduleLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseScheduledAt parses an appointment timestamp and truncates it to the
// minute, which is the precision every conflict comparison uses.
func ParseScheduledAt(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range scheduleLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Truncate(time.Minute), nil
		}
	}
	return time.Time{}, Validationf("invalid timestamp %q", raw)
}
