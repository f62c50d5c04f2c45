package matching

import (
	"math"
	"testing"

	"github.com/tripsync/tripsync/internal/models"
)

func TestBuildSchedule(t *testing.T) {
	pick := team("", "K8vZ9171o", models.SlotP1)
	first := ev("2", "2024-05-02", toronto, pick)
	first.Attractions = []models.Attraction{
		{ID: "K8vZ9171A", Name: "Toronto Maple Leafs"},
		{ID: "K8vZ9171o", Name: "Edmonton Oilers"},
	}
	noTicket := ev("3", "2024-05-03", toronto, pick)
	noTicket.TicketURL = ""

	s := BuildSchedule(models.SlotP1, pick, []models.Event{
		ev("4", "2024-05-09", boston, pick),
		first,
		noTicket,
		first,
	})

	if s.Slot != models.SlotP1 {
		t.Errorf("unexpected slot %q", s.Slot)
	}
	if len(s.Events) != 2 || s.Events[0].ProviderID != "2" || s.Events[1].ProviderID != "4" {
		t.Fatalf("expected deduplicated, ticket-linked, sorted events, got %v", s.Events)
	}
	if s.Label != "Edmonton Oilers" {
		t.Errorf("expected label from matching attraction, got %q", s.Label)
	}
}

func TestScheduleLabel(t *testing.T) {
	withAttraction := ev("1", "2024-05-01", toronto, models.Pick{})
	withAttraction.Attractions = []models.Attraction{{ID: "other", Name: "Opening Act"}}

	tests := []struct {
		name   string
		pick   models.Pick
		events []models.Event
		want   string
	}{
		{name: "display name wins", pick: artist("Drake", "D1", models.SlotP1), events: []models.Event{withAttraction}, want: "Drake"},
		{name: "first attraction when id unmatched", pick: artist("", "D1", models.SlotP1), events: []models.Event{withAttraction}, want: "Opening Act"},
		{name: "canonical id when nothing else", pick: artist("", "D1", models.SlotP1), events: nil, want: "D1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scheduleLabel(tt.pick, tt.events); got != tt.want {
				t.Errorf("scheduleLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClosestPairPrefersSmallerDistance(t *testing.T) {
	p1 := team("A", "A1", models.SlotP1)
	p2 := team("B", "B1", models.SlotP2)
	s1 := models.Schedule{Events: []models.Event{ev("a-bos", "2024-05-01", boston, p1), ev("a-mia", "2024-05-01", miami, p1)}}
	s2 := models.Schedule{Events: []models.Event{ev("b-tor", "2024-05-02", toronto, p2)}}

	got := ClosestPair(s1, s2, 3)
	if got == nil {
		t.Fatal("expected a pair")
	}
	if got.First.ProviderID != "a-bos" {
		t.Errorf("expected the Boston event, got %s at %.0f mi", got.First.ProviderID, got.DistanceMiles)
	}
	if got.DaysApart != 1 {
		t.Errorf("expected 1 day apart, got %d", got.DaysApart)
	}
}

func TestClosestPairTieBreaks(t *testing.T) {
	p1 := team("A", "A1", models.SlotP1)
	p2 := team("B", "B1", models.SlotP2)

	t.Run("smaller day gap", func(t *testing.T) {
		s1 := models.Schedule{Events: []models.Event{ev("a", "2024-06-01", toronto, p1)}}
		s2 := models.Schedule{Events: []models.Event{ev("b-far", "2024-06-03", toronto, p2), ev("b-near", "2024-06-01", toronto, p2)}}

		got := ClosestPair(s1, s2, 3)
		if got == nil || got.Second.ProviderID != "b-near" || got.DaysApart != 0 {
			t.Fatalf("expected same-day pair, got %+v", got)
		}
	})

	t.Run("earlier date", func(t *testing.T) {
		s1 := models.Schedule{Events: []models.Event{ev("a-late", "2024-06-03", toronto, p1), ev("a-early", "2024-06-01", toronto, p1)}}
		s2 := models.Schedule{Events: []models.Event{ev("b", "2024-06-02", toronto, p2)}}

		got := ClosestPair(s1, s2, 3)
		if got == nil || got.First.ProviderID != "a-early" {
			t.Fatalf("expected pair with the earlier date, got %+v", got)
		}
	})
}

func TestClosestPairNoneWithinWindow(t *testing.T) {
	p1 := team("A", "A1", models.SlotP1)
	p2 := team("B", "B1", models.SlotP2)
	s1 := models.Schedule{Events: []models.Event{ev("a", "2024-06-01", toronto, p1)}}
	s2 := models.Schedule{Events: []models.Event{ev("b", "2024-06-05", toronto, p2)}}

	if got := ClosestPair(s1, s2, 3); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	if got := ClosestPair(s1, s2, 5); got == nil || got.DaysApart != 4 {
		t.Errorf("expected pair 4 days apart with a 5-day window, got %+v", got)
	}
}

func TestClosestPairSkipsEventsWithoutCoordinates(t *testing.T) {
	p1 := team("A", "A1", models.SlotP1)
	p2 := team("B", "B1", models.SlotP2)
	noCoords := ev("a", "2024-06-01", toronto, p1)
	noCoords.Venue.Lat, noCoords.Venue.Lon = nil, nil

	s1 := models.Schedule{Events: []models.Event{noCoords}}
	s2 := models.Schedule{Events: []models.Event{ev("b", "2024-06-01", toronto, p2)}}
	if got := ClosestPair(s1, s2, 3); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestClosestPairNearAntipodalPoints(t *testing.T) {
	p1 := team("A", "A1", models.SlotP1)
	p2 := team("B", "B1", models.SlotP2)
	south := place{venueID: "south", city: "South", lat: -86.77999999999997, lon: -179}
	north := place{venueID: "north", city: "North", lat: 86.77999999999997, lon: 1}
	nearSouth := place{venueID: "near-south", city: "Near South", lat: -86.0, lon: -179}

	s1 := models.Schedule{Events: []models.Event{ev("a", "2024-06-01", south, p1)}}
	s2 := models.Schedule{Events: []models.Event{
		ev("far", "2024-06-01", north, p2),
		ev("near", "2024-06-03", nearSouth, p2),
	}}

	got := ClosestPair(s1, s2, 3)
	if got == nil {
		t.Fatal("expected a closest pair")
	}
	if math.IsNaN(got.DistanceMiles) {
		t.Fatal("distance must be finite")
	}
	if got.Second.ProviderID != "near" || got.DaysApart != 2 {
		t.Errorf("expected the nearby pair two days apart, got %s at %.1f mi, %d days", got.Second.ProviderID, got.DistanceMiles, got.DaysApart)
	}
}
