package adapters

import (
	"fmt"
	"strings"
	"time"
)

// generatedAtLayouts are accepted for a lock's generated_at. Locks are
// written in RFC 3339 but may have been touched by hand or by git tooling.
var generatedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
}

// parseGeneratedAt returns the zero time for an empty value.
func parseGeneratedAt(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	for _, layout := range generatedAtLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", trimmed)
}
