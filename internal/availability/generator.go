// Package availability derives bookable time slots from a provider's daily
// working window minus already-booked intervals. It is pure computation: no
// store access, deterministic for fixed inputs.
package availability

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DailySchedule is one weekday's working window, both bounds in zero-padded
// 24-hour HH:MM.
type DailySchedule struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Span is a half-open-looking interval in minutes since midnight. Overlap is
// evaluated with inclusive boundaries (see Overlaps), so two back-to-back
// spans count as overlapping.
type Span struct {
	Start int
	End   int
}

// Overlaps reports whether two spans collide under the inclusive boundary
// rule: s.Start <= o.End && s.End >= o.Start. A slot ending exactly when a
// booking starts is still treated as a collision, matching the conflict rule
// enforced on the booking write path.
func (s Span) Overlaps(o Span) bool {
	return s.Start <= o.End && s.End >= o.Start
}

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ParseClock converts a zero-padded HH:MM string to minutes since midnight.
func ParseClock(v string) (int, error) {
	if !clockRe.MatchString(v) {
		return 0, fmt.Errorf("invalid time format %q: expected HH:MM (24-hour, zero-padded)", v)
	}
	parts := strings.SplitN(v, ":", 2)
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as zero-padded HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Generate returns the free slot start times for one calendar day, ascending.
//
// A nil schedule (provider does not work that weekday) yields no slots.
// Candidates step from the window start in duration-sized increments; a
// trailing partial slot that would run past the window end is dropped. A
// candidate is excluded when it overlaps any booked span.
func Generate(daily *DailySchedule, durationMinutes int, booked []Span) ([]string, error) {
	if daily == nil {
		return []string{}, nil
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("appointment duration must be positive, got %d", durationMinutes)
	}

	dayStart, err := ParseClock(daily.Start)
	if err != nil {
		return nil, err
	}
	dayEnd, err := ParseClock(daily.End)
	if err != nil {
		return nil, err
	}
	if dayStart >= dayEnd {
		return nil, fmt.Errorf("daily schedule end %s must be after start %s", daily.End, daily.Start)
	}

	sorted := make([]Span, len(booked))
	copy(sorted, booked)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	slots := []string{}
	for start := dayStart; start+durationMinutes <= dayEnd; start += durationMinutes {
		candidate := Span{Start: start, End: start + durationMinutes}
		if !anyOverlap(candidate, sorted) {
			slots = append(slots, FormatClock(start))
		}
	}

	return slots, nil
}

func anyOverlap(candidate Span, booked []Span) bool {
	for _, b := range booked {
		if b.Start > candidate.End {
			break
		}
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}
