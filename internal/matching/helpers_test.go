package matching

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/tripsync/tripsync/internal/dedup"
	"github.com/tripsync/tripsync/internal/models"
)

type place struct {
	venueID string
	city    string
	region  string
	country string
	lat     float64
	lon     float64
}

var (
	toronto   = place{venueID: "KovZpZAEkn6A", city: "Toronto", region: "ON", country: "CA", lat: 43.6435, lon: -79.3791}
	toronto2  = place{venueID: "KovZpZAFnIEA", city: "Toronto", region: "ON", country: "CA", lat: 43.6414, lon: -79.3894}
	boston    = place{venueID: "KovZpZA7AAEA", city: "Boston", region: "MA", country: "US", lat: 42.3662, lon: -71.0621}
	chicago   = place{venueID: "KovZpZAFFE1A", city: "Chicago", region: "IL", country: "US", lat: 41.8807, lon: -87.6742}
	vancouver = place{venueID: "KovZpZAEkeEA", city: "Vancouver", region: "BC", country: "CA", lat: 49.2778, lon: -123.1089}
	miami     = place{venueID: "KovZpZAFaJeA", city: "Miami", region: "FL", country: "US", lat: 25.7814, lon: -80.1870}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rawEvent builds a provider record in the Discovery API shape.
func rawEvent(t *testing.T, id, date string, at place) models.RawEvent {
	t.Helper()
	return rawEventWith(t, map[string]any{
		"id":   id,
		"name": "Event " + id,
		"url":  "https://tickets.example.com/" + id,
		"dates": map[string]any{
			"start": map[string]any{"localDate": date, "localTime": "19:30:00"},
		},
		"_embedded": map[string]any{
			"venues": []any{venueJSON(at)},
		},
	})
}

func rawEventWith(t *testing.T, record map[string]any) models.RawEvent {
	t.Helper()
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal raw event: %v", err)
	}
	return data
}

func venueJSON(at place) map[string]any {
	return map[string]any{
		"id":       at.venueID,
		"name":     at.city + " Arena",
		"city":     map[string]any{"name": at.city},
		"state":    map[string]any{"stateCode": at.region},
		"country":  map[string]any{"countryCode": at.country},
		"location": map[string]any{"latitude": at.lat, "longitude": at.lon},
	}
}

// ev builds an already-normalized, keyed event.
func ev(id, date string, at place, origin models.Pick) models.Event {
	lat, lon := at.lat, at.lon
	e := models.Event{
		ProviderID: id,
		Name:       "Event " + id,
		LocalDate:  date,
		LocalTime:  "19:30:00",
		TicketURL:  "https://tickets.example.com/" + id,
		Venue: models.Venue{
			ID:          at.venueID,
			Name:        at.city + " Arena",
			City:        at.city,
			RegionCode:  at.region,
			CountryCode: at.country,
			Lat:         &lat,
			Lon:         &lon,
		},
		OriginPick: origin,
	}
	e.IdentityKey = dedup.IdentityKey(e, false)
	return e
}

func team(name, id string, slot models.Slot) models.Pick {
	return models.Pick{Kind: models.PickKindTeam, DisplayName: name, CanonicalID: id, Slot: slot}
}

func artist(name, id string, slot models.Slot) models.Pick {
	return models.Pick{Kind: models.PickKindArtist, DisplayName: name, CanonicalID: id, Slot: slot}
}

func memberIDs(o models.Occurrence) []string {
	ids := make([]string, len(o.Members))
	for i, m := range o.Members {
		ids[i] = m.ProviderID
	}
	return ids
}
