// Package tzengine is the timezone-aware interval engine behind availability
// scheduling: wall-clock ⇄ UTC conversion, offset resolution, duration and
// offset labels, and IANA zone validation.
//
// The package is pure and stateless apart from a read-through location cache.
// It never panics on bad input; unresolvable zones degrade to UTC and report
// the degradation through a tagged result so callers can surface a warning
// instead of silently masking it.
package tzengine

import (
	"time"

	"github.com/maypok86/otter/v2"
)

// LocalParts is a wall-clock reading of an instant in some zone.
type LocalParts struct {
	Date   string // YYYY-MM-DD
	Hour   int
	Minute int
}

// Interval is a pair of UTC instants. The engine reports inverted intervals
// as-is; callers decide whether to reject them.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether End is not before Start.
func (iv Interval) Valid() bool {
	return !iv.End.Before(iv.Start)
}

// Duration returns End-Start, clamped to zero for inverted intervals.
func (iv Interval) Duration() time.Duration {
	if d := iv.End.Sub(iv.Start); d > 0 {
		return d
	}
	return 0
}

// time.LoadLocation reads tzdata from disk on every call; a small cache keeps
// repeated lookups for the same handful of zones cheap.
var locations = otter.Must(&otter.Options[string, *time.Location]{
	MaximumSize: 512,
})

func loadLocation(zone string) (*time.Location, bool) {
	if zone == "" {
		return nil, false
	}
	if loc, ok := locations.GetIfPresent(zone); ok {
		return loc, true
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, false
	}
	locations.Set(zone, loc)
	return loc, true
}

// IsValidZone reports whether candidate resolves against the host tzdata.
// Empty strings are invalid; "UTC" and "Local" resolve like any other name.
func IsValidZone(candidate string) bool {
	_, ok := loadLocation(candidate)
	return ok
}

// ResolveZone returns the first valid candidate, falling back to "UTC". It
// replaces the ambient "live timezone" global the web client kept: the caller
// threads its preference chain explicitly (profile zone, client hint, ...).
func ResolveZone(candidates ...string) string {
	for _, c := range candidates {
		if IsValidZone(c) {
			return c
		}
	}
	return "UTC"
}
