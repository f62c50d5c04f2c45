package models

import "strings"

// PickKind tags what a user interest refers to.
type PickKind string

const (
	PickKindTeam   PickKind = "team"
	PickKindArtist PickKind = "artist"
	PickKindGenre  PickKind = "genre"
	PickKindRaw    PickKind = "raw"
)

// Slot identifies which input position produced a pick.
type Slot string

const (
	SlotP1 Slot = "p1"
	SlotP2 Slot = "p2"
	SlotP3 Slot = "p3"
)

// Slots lists the input positions in order.
var Slots = []Slot{SlotP1, SlotP2, SlotP3}

// Valid reports whether s is one of p1, p2, p3.
func (s Slot) Valid() bool {
	switch s {
	case SlotP1, SlotP2, SlotP3:
		return true
	}
	return false
}

// Pick is one user-selected interest. Picks are values; resolution returns a
// new Pick rather than modifying an existing one.
type Pick struct {
	Kind        PickKind `json:"kind"`
	DisplayName string   `json:"display_name,omitempty"`
	CanonicalID string   `json:"canonical_id,omitempty"`
	GenreBucket string   `json:"genre_bucket,omitempty"` // genre picks only
	League      string   `json:"league,omitempty"`       // team picks only
	Slot        Slot     `json:"slot"`
}

// IsEntity reports whether the pick names a specific team or artist.
func (p Pick) IsEntity() bool {
	return p.Kind == PickKindTeam || p.Kind == PickKindArtist
}

// IsEmpty reports whether the pick carries nothing to search for.
func (p Pick) IsEmpty() bool {
	return p.Kind == "" ||
		(strings.TrimSpace(p.DisplayName) == "" && p.CanonicalID == "" && p.GenreBucket == "")
}

// Resolved reports whether a canonical identifier is attached.
func (p Pick) Resolved() bool {
	return p.CanonicalID != ""
}

// WithCanonicalID returns a copy of p carrying the given identifier.
func (p Pick) WithCanonicalID(id string) Pick {
	p.CanonicalID = id
	return p
}

// WithDisplayName returns a copy of p with the display name set when it was empty.
func (p Pick) WithDisplayName(name string) Pick {
	if p.DisplayName == "" {
		p.DisplayName = name
	}
	return p
}

// WithSlot returns a copy of p tagged with the given slot.
func (p Pick) WithSlot(s Slot) Pick {
	p.Slot = s
	return p
}

// Label returns the best human label for the pick.
func (p Pick) Label() string {
	switch {
	case p.DisplayName != "":
		return p.DisplayName
	case p.Kind == PickKindGenre && p.GenreBucket != "":
		return p.GenreBucket
	default:
		return p.CanonicalID
	}
}
