package models

// Mode is the matching strategy selected for a request.
type Mode string

const (
	ModeEntityOnly Mode = "ENTITY_ONLY"
	ModeSinglePick Mode = "SINGLE_PICK"
	ModeOverlap    Mode = "OVERLAP"
)

// Occurrence is a cluster of events judged reachable together.
type Occurrence struct {
	Members   []Event `json:"members"`
	Anchor    *Event  `json:"anchor,omitempty"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Mode      Mode    `json:"mode"`
	Coverage  int     `json:"coverage"`
}

// MemberKeys returns member identity keys in member order.
func (o Occurrence) MemberKeys() []string {
	keys := make([]string, len(o.Members))
	for i, m := range o.Members {
		keys[i] = m.IdentityKey
	}
	return keys
}

// Schedule is an ordered, deduplicated, ticket-linked list of events for one pick.
type Schedule struct {
	Slot   Slot    `json:"slot"`
	Label  string  `json:"label"`
	Events []Event `json:"events"`
}

// ClosestPair is the nearest cross-pick event pair inside the day window.
type ClosestPair struct {
	First         Event   `json:"first"`
	Second        Event   `json:"second"`
	DistanceMiles float64 `json:"distance_miles"`
	DaysApart     int     `json:"days_apart"`
}

// Fallback is returned when overlap matching finds nothing.
type Fallback struct {
	Schedules []Schedule   `json:"schedules"`
	Closest   *ClosestPair `json:"closest,omitempty"`
}
