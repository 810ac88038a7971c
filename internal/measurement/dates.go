package measurement

import (
	"strings"
	"time"

	"measurement-service/internal/apperror"
)

const dayLayout = "2006-01-02"

// scheduledLayouts are accepted for scheduled_at; zone-less ones are read in
// the service location
var scheduledLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// StartOfDay returns 00:00:00.000 of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}

// ParseDay parses a YYYY-MM-DD query value in loc
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dayLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, apperror.Validation(apperror.CodeInvalidDate, "dates must use the YYYY-MM-DD format")
	}
	return day, nil
}

// ParseScheduledAt parses RFC3339 or a zone-less local date time
func ParseScheduledAt(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperror.Validation(apperror.CodeMissingFields, "client, address and scheduled date are required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range scheduledLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.Validation(apperror.CodeInvalidDate, "scheduled date is not valid")
}
