package utils

import "time"

// FormatRFC3339 renders t in UTC as RFC3339
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
