package slot

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidTimestamp is returned when a start time matches none of the
// accepted ISO-8601 shapes.
var ErrInvalidTimestamp = errors.New("slot: invalid timestamp")

// timestampLayouts are tried in order. Layouts without a zone parse as UTC
// wall clock and are never converted, so a slot keeps the time the
// candidate picked. A fractional second is accepted after any seconds field.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
}

// ParseTimestamp parses the start time of a slot. A single space may be used
// in place of the "T" date/time separator.
func ParseTimestamp(raw string) (time.Time, error) {
	value := raw
	if len(value) > 10 && value[10] == ' ' {
		value = value[:10] + "T" + value[11:]
	}
	if value == "" || strings.ContainsAny(value, " \t\n") {
		return time.Time{}, ErrInvalidTimestamp
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}
