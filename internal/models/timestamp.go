package models

import (
	"fmt"
	"strings"
	"time"
)

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 capture timestamp. An empty string is "no timestamp".
func ParseTimestamp(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", s)
}

// FormatTimestamp renders a timestamp for the stores and the JSON
// interchange, or "" when absent. Zone-less (UTC) times keep the bare
// TimestampLayout form, other zones keep their offset. Subseconds survive.
func FormatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	if t.Location() == time.UTC {
		return t.Format(TimestampLayout + ".999999999")
	}
	return t.Format(time.RFC3339Nano)
}
