package models

import "time"

// PickResolution records the canonical provider id found for a named entity pick.
type PickResolution struct {
	Kind        PickKind  `json:"kind"`
	NameKey     string    `json:"name_key"`
	CanonicalID string    `json:"canonical_id"`
	DisplayName string    `json:"display_name"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// MatchRun is the persisted summary of one engine run.
type MatchRun struct {
	ID          string    `json:"id"`
	Mode        Mode      `json:"mode"`
	Picks       []string  `json:"picks"`
	MaxDays     int       `json:"max_days"`
	RadiusMiles float64   `json:"radius_miles"`
	Occurrences int       `json:"occurrences"`
	Fallback    bool      `json:"fallback"`
	FetchErrors int       `json:"fetch_errors"`
	DurationMS  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
