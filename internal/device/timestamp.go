package device

import (
	"fmt"
	"time"
)

// TimestampLayout is the on-disk form of LastUsed. The fixed fraction width
// keeps lexicographic order identical to chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Naive ISO-8601 forms written without an offset. They are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 with any fractional precision and naive
// ISO-8601 timestamps. The result is always in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: want ISO-8601", s)
}

// Truncate drops precision that FormatTimestamp cannot represent, so an
// in-memory value round-trips through the store unchanged.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
