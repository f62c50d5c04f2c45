package models

import "encoding/json"

// RawEvent is a single provider event record exactly as the provider returned it.
type RawEvent = json.RawMessage

// Event is a normalized scheduled happening tied to a venue and a local date.
type Event struct {
	IdentityKey string       `json:"identity_key"`
	ProviderID  string       `json:"provider_id,omitempty"`
	Name        string       `json:"name"`
	LocalDate   string       `json:"local_date"`           // YYYY-MM-DD, provider-local
	LocalTime   string       `json:"local_time,omitempty"` // HH:MM:SS, optional
	Venue       Venue        `json:"venue"`
	TicketURL   string       `json:"ticket_url,omitempty"`
	Genres      []string     `json:"genres,omitempty"` // classification segment/genre/subgenre names
	Attractions []Attraction `json:"attractions,omitempty"`
	OriginPick  Pick         `json:"origin_pick"`
	// CoPicks lists further picks whose fetch returned this same listing when
	// duplicates were collapsed across picks.
	CoPicks []Pick `json:"co_picks,omitempty"`
}

// Venue describes where an event takes place. Lat/Lon are nil when the provider
// did not supply usable coordinates.
type Venue struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name,omitempty"`
	City        string   `json:"city,omitempty"`
	RegionCode  string   `json:"region_code,omitempty"`
	CountryCode string   `json:"country_code,omitempty"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

// Attraction is a performer or team listed on an event.
type Attraction struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (v Venue) HasCoordinates() bool {
	return v.Lat != nil && v.Lon != nil
}

// HasTicketURL reports whether the event can be linked to a ticket page.
func (e Event) HasTicketURL() bool {
	return e.TicketURL != ""
}

// Locatable reports whether the event can take part in distance/date clustering.
func (e Event) Locatable() bool {
	return e.LocalDate != "" && e.Venue.HasCoordinates()
}

// Picks returns the origin pick followed by any co-picks.
func (e Event) Picks() []Pick {
	out := make([]Pick, 0, 1+len(e.CoPicks))
	out = append(out, e.OriginPick)
	return append(out, e.CoPicks...)
}
