package derive

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseDurationMillis converts an "HH:MM:SS[.ffffff]" timespan into
// milliseconds, e.g. "00:00:00.234980" -> 234.98. An empty string is 0.
// Components that are missing or not numeric make the result NaN; the
// value is not range-checked.
func ParseDurationMillis(duration string) float64 {
	if duration == "" {
		return 0
	}

	parts := strings.Split(duration, ":")
	hours := parseIntComponent(parts, 0)
	minutes := parseIntComponent(parts, 1)
	seconds := parseFloatComponent(parts, 2)

	return hours*3600000 + minutes*60000 + seconds*1000
}

func parseIntComponent(parts []string, i int) float64 {
	if i >= len(parts) {
		return math.NaN()
	}
	n, err := strconv.ParseInt(strings.TrimSpace(parts[i]), 10, 64)
	if err != nil {
		return math.NaN()
	}
	return float64(n)
}

func parseFloatComponent(parts []string, i int) float64 {
	if i >= len(parts) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// timestampLayouts are the ISO 8601 forms agents write. Fractional seconds
// are accepted after any seconds field. Layouts without an offset parse
// as UTC, and a bare date is UTC midnight.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestampMillis parses an ISO 8601 timestamp into epoch milliseconds.
// Unparsable input yields NaN.
func ParseTimestampMillis(ts string) float64 {
	ts = strings.TrimSpace(ts)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return float64(t.UnixMilli())
		}
	}
	return math.NaN()
}
