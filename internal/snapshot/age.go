package snapshot

import (
	"fmt"
	"math"
	"strings"
)

const (
	hoursPerDay   = 24
	hoursPerMonth = 30 * hoursPerDay
	hoursPerYear  = 365 * hoursPerDay
)

// FormatAge renders an age in hours as "1y 2m 3d 4h", dropping zero parts.
// The hour part is kept when it is the only one.
func FormatAge(hours float64) string {
	if hours <= 0 || math.IsNaN(hours) {
		return "0h"
	}
	remaining := int64(math.Floor(hours))

	var parts []string
	for _, unit := range []struct {
		size   int64
		suffix string
	}{{hoursPerYear, "y"}, {hoursPerMonth, "m"}, {hoursPerDay, "d"}} {
		if n := remaining / unit.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, unit.suffix))
			remaining %= unit.size
		}
	}
	if remaining > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dh", remaining))
	}
	return strings.Join(parts, " ")
}
