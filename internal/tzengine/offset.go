package tzengine

import (
	"regexp"
	"strconv"
	"time"
)

// Offset is a resolved UTC offset. Fallback is set when the zone could not be
// resolved and the offset degraded to UTC; Reason says why.
type Offset struct {
	Minutes  int
	Fallback bool
	Reason   string
}

// ResolveOffsetMinutes returns the UTC offset of zone at the given instant,
// DST included. Unresolvable or empty zones degrade to offset 0 with the
// Fallback flag set; the function never panics.
func ResolveOffsetMinutes(at time.Time, zone string) Offset {
	if zone == "" {
		return Offset{Fallback: true, Reason: "empty zone"}
	}
	loc, ok := loadLocation(zone)
	if !ok {
		return Offset{Fallback: true, Reason: "unknown zone " + zone}
	}
	_, seconds := at.In(loc).Zone()
	return Offset{Minutes: seconds / 60}
}

// offsetPattern tolerates the textual offset shapes clients produce:
// "+2", "+02:00", "-5:30", "GMT+2", "UTC−04:30" (incl. U+2212 minus).
var offsetPattern = regexp.MustCompile(`([+\-\x{2212}])(\d{1,2})(?::?(\d{2}))?`)

// ParseOffsetMinutes extracts signed total minutes from a textual UTC offset.
// Returns false when no offset component is present.
func ParseOffsetMinutes(label string) (int, bool) {
	m := offsetPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	sign := 1
	if m[1] != "+" {
		sign = -1
	}
	hours, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	minutes := 0
	if m[3] != "" {
		minutes, err = strconv.Atoi(m[3])
		if err != nil {
			return 0, false
		}
	}
	total := sign * (hours*60 + minutes)
	// IANA offsets live in -12:00..+14:00.
	if total < -12*60 || total > 14*60 {
		return 0, false
	}
	return total, true
}
