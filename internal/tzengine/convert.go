package tzengine

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidWallTime is returned when a date/hour pair does not form a real
// calendar reading.
var ErrInvalidWallTime = errors.New("invalid wall-clock input")

// ToUTCInstant interprets (date, hour) as a wall-clock reading inside zone and
// returns the corresponding UTC instant. date is YYYY-MM-DD, hour is "0".."23".
//
// Out-of-range calendar fields ("2024-13-40", hour 24) are rejected rather
// than normalized. An unresolvable zone degrades to UTC, matching the
// resolver's policy; callers wanting strictness validate with IsValidZone
// first. During a DST gap the reading is shifted forward by the zone rules.
func ToUTCInstant(date, hour, zone string) (time.Time, error) {
	y, m, d, err := parseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, err := parseHour(hour)
	if err != nil {
		return time.Time{}, err
	}

	loc, ok := loadLocation(zone)
	if !ok {
		loc = time.UTC
	}
	t := time.Date(y, time.Month(m), d, h, 0, 0, 0, loc)
	// time.Date normalizes impossible days (Feb 30 -> Mar 1); reject those.
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, ErrInvalidWallTime
	}
	return t.UTC(), nil
}

// FormatUTCInstant renders an instant as ISO-8601 UTC with a literal trailing
// Z, seconds truncated to :00 and no fractional seconds.
func FormatUTCInstant(t time.Time) string {
	return t.UTC().Truncate(time.Minute).Format(time.RFC3339)
}

// ToLocalParts renders an instant as a wall-clock reading in zone. An
// unresolvable zone degrades to UTC.
func ToLocalParts(at time.Time, zone string) LocalParts {
	loc, ok := loadLocation(zone)
	if !ok {
		loc = time.UTC
	}
	local := at.In(loc)
	return LocalParts{
		Date:   local.Format("2006-01-02"),
		Hour:   local.Hour(),
		Minute: local.Minute(),
	}
}

// ParseUTCInstant parses an ISO-like timestamp, assuming UTC when no zone
// suffix is present. Accepts "2025-06-15T12:00:00Z", offset suffixes, and
// suffix-less "2025-06-15T12:00:00" / "2025-06-15T12:00".
func ParseUTCInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidWallTime
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidWallTime
}

// FromWallClock interprets an ISO-like local timestamp as a wall-clock
// reading inside zone and returns the UTC instant, minute precision included.
// The calendar-field strictness matches ToUTCInstant.
func FromWallClock(s, zone string) (time.Time, error) {
	date, hour, minute, ok := ParseWallClock(s)
	if !ok {
		return time.Time{}, ErrInvalidWallTime
	}
	y, m, d, err := parseDate(date)
	if err != nil {
		return time.Time{}, err
	}

	loc, lok := loadLocation(zone)
	if !lok {
		loc = time.UTC
	}
	t := time.Date(y, time.Month(m), d, hour, minute, 0, 0, loc)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, ErrInvalidWallTime
	}
	return t.UTC(), nil
}

// ParseWallClock splits an ISO-like local timestamp into calendar date and
// time-of-day fields, ignoring any zone suffix. Used for the redundant
// local-time hints clients attach to availability payloads.
func ParseWallClock(s string) (date string, hour, minute int, ok bool) {
	s = strings.TrimSpace(strings.TrimSuffix(s, "Z"))
	tIdx := strings.IndexByte(s, 'T')
	if tIdx <= 0 {
		return "", 0, 0, false
	}
	date = s[:tIdx]
	if _, _, _, err := parseDate(date); err != nil {
		return "", 0, 0, false
	}
	rest := s[tIdx+1:]
	if len(rest) < 5 || rest[2] != ':' {
		return "", 0, 0, false
	}
	h, err1 := strconv.Atoi(rest[:2])
	m, err2 := strconv.Atoi(rest[3:5])
	if err1 != nil || err2 != nil || h > 23 || m > 59 {
		return "", 0, 0, false
	}
	return date, h, m, true
}

var datePattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)

func parseDate(date string) (y, m, d int, err error) {
	parts := datePattern.FindStringSubmatch(date)
	if parts == nil {
		return 0, 0, 0, ErrInvalidWallTime
	}
	y, _ = strconv.Atoi(parts[1])
	m, _ = strconv.Atoi(parts[2])
	d, _ = strconv.Atoi(parts[3])
	if y < 1 || m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, 0, ErrInvalidWallTime
	}
	return y, m, d, nil
}

func parseHour(hour string) (int, error) {
	h, err := strconv.Atoi(strings.TrimSpace(hour))
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidWallTime
	}
	return h, nil
}
