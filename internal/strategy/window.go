package strategy

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is a daily [Start, End) time-of-day range in the readings' local zone.
// If Start == End the window is empty. If Start > End it wraps across midnight.
type Window struct {
	Start string `yaml:"start" json:"start"` // "HH:MM"
	End   string `yaml:"end" json:"end"`     // "HH:MM"

	// Minutes parsed from parsedFrom; stale once Start or End change.
	startMins  int
	endMins    int
	parsedFrom [2]string
	parsed     bool
}

// ParseWindow validates both bounds. An all-empty window is allowed and never matches.
func ParseWindow(start, end string) (Window, error) {
	w := Window{Start: start, End: end}
	if err := w.parse(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w *Window) parse() error {
	if strings.TrimSpace(w.Start) == "" && strings.TrimSpace(w.End) == "" {
		w.startMins, w.endMins = 0, 0
		w.parsedFrom, w.parsed = [2]string{w.Start, w.End}, true
		return nil
	}
	s, err := parseHHMM(w.Start)
	if err != nil {
		return err
	}
	e, err := parseHHMM(w.End)
	if err != nil {
		return err
	}
	w.startMins, w.endMins = s, e
	w.parsedFrom, w.parsed = [2]string{w.Start, w.End}, true
	return nil
}

// Validate reports whether both bounds parse.
func (w Window) Validate() error {
	return w.parse()
}

func (w Window) IsZero() bool {
	return strings.TrimSpace(w.Start) == "" && strings.TrimSpace(w.End) == ""
}

// Contains reports whether t's local time-of-day falls inside the window.
// A window built by ParseWindow is not re-parsed; a literal or decoded one is
// parsed on every call, so hot loops should go through ParseWindow first.
// An unparseable window never matches; callers validate config up front.
func (w Window) Contains(t time.Time) bool {
	if !w.parsed || w.parsedFrom != [2]string{w.Start, w.End} {
		if err := w.parse(); err != nil {
			return false
		}
	}
	mins := t.Hour()*60 + t.Minute()
	return inWindow(mins, w.startMins, w.endMins)
}

func (w Window) String() string {
	if w.IsZero() {
		return ""
	}
	return w.Start + "-" + w.End
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// inWindow checks whether tMins is in [start, end) on a 24h clock.
// If start == end, the window is empty (always false).
// If start < end, it's a normal same-day window.
// If start > end, it wraps across midnight.
func inWindow(tMins, start, end int) bool {
	if start == end {
		return false
	}
	if start < end {
		return tMins >= start && tMins < end
	}
	// wrap
	return tMins >= start || tMins < end
}
