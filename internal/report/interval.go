package report

import (
	"fmt"
	"strings"
	"time"
)

// FormatInterval renders d as "1 day 2 hours 3 minutes 4 seconds", leaving
// out zero units. Durations below one second are "less than 1 second".
func FormatInterval(d time.Duration) string {
	total := int64(d / time.Second)

	units := []struct {
		name    string
		seconds int64
	}{
		{"day", 24 * 60 * 60},
		{"hour", 60 * 60},
		{"minute", 60},
		{"second", 1},
	}

	var parts []string
	for _, u := range units {
		n := total / u.seconds
		total %= u.seconds
		if n == 0 {
			continue
		}
		suffix := "s"
		if n == 1 {
			suffix = ""
		}
		parts = append(parts, fmt.Sprintf("%d %s%s", n, u.name, suffix))
	}

	if len(parts) == 0 {
		return "less than 1 second"
	}
	return strings.Join(parts, " ")
}
