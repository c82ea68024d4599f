package tzengine

import (
	"fmt"
	"math"
	"time"
)

// HumanDuration renders the span between two instants the way the dashboard
// shows it: "2 hours", "1h 30m", "45m". Inverted intervals clamp to "0m";
// callers that treat inversion as a data bug check Interval.Valid first.
func HumanDuration(start, end time.Time) string {
	totalMin := int(math.Round(end.Sub(start).Minutes()))
	if totalMin < 0 {
		totalMin = 0
	}
	h := totalMin / 60
	m := totalMin % 60
	switch {
	case h > 0 && m == 0:
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// OffsetLabel renders a zone's offset at an instant as "UTC±HH:MM". Returns ""
// when the zone cannot be resolved, so UI badges degrade to nothing rather
// than a wrong label.
func OffsetLabel(zone string, at time.Time) string {
	off := ResolveOffsetMinutes(at, zone)
	if off.Fallback {
		return ""
	}
	sign := "+"
	mins := off.Minutes
	if mins < 0 {
		sign = "-"
		mins = -mins
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, mins/60, mins%60)
}
