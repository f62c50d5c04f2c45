package models

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange bounds events by local date, inclusive on both ends. Empty bounds are open.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Validate checks both bounds parse and are ordered.
func (r DateRange) Validate() error {
	var start, end time.Time
	var err error
	if r.Start != "" {
		if start, err = time.Parse(dateLayout, r.Start); err != nil {
			return fmt.Errorf("invalid start date %q: %w", r.Start, err)
		}
	}
	if r.End != "" {
		if end, err = time.Parse(dateLayout, r.End); err != nil {
			return fmt.Errorf("invalid end date %q: %w", r.End, err)
		}
	}
	if r.Start != "" && r.End != "" && end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", r.End, r.Start)
	}
	return nil
}

// Contains reports whether the YYYY-MM-DD date falls inside the range.
// Lexicographic comparison is exact for this layout.
func (r DateRange) Contains(date string) bool {
	if r.Start != "" && date < r.Start {
		return false
	}
	if r.End != "" && date > r.End {
		return false
	}
	return true
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// MatchRequest is the engine's complete input.
type MatchRequest struct {
	Picks           []Pick              `json:"picks"`
	RawEventsByPick map[Slot][]RawEvent `json:"raw_events_by_pick"`
	MaxDays         int                 `json:"max_days"`
	RadiusMiles     float64             `json:"radius_miles"`
	DateRange       *DateRange          `json:"date_range,omitempty"`
	// RawInputs holds the user's original text per slot so a blank input can be
	// told apart from one that failed to resolve.
	RawInputs map[Slot]string `json:"raw_inputs,omitempty"`
}

// PickBySlot returns the pick tagged with slot s.
func (r MatchRequest) PickBySlot(s Slot) (Pick, bool) {
	for _, p := range r.Picks {
		if p.Slot == s {
			return p, true
		}
	}
	return Pick{}, false
}

// MatchResult is the engine's output envelope.
type MatchResult struct {
	RunID       string       `json:"run_id,omitempty"`
	Mode        Mode         `json:"mode,omitempty"`
	Occurrences []Occurrence `json:"occurrences"`
	Fallback    *Fallback    `json:"fallback,omitempty"`
}
