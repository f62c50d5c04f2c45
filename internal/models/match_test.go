package models

import "testing"

func TestDateRangeContains(t *testing.T) {
	r := DateRange{Start: "2024-05-01", End: "2024-05-31"}

	tests := []struct {
		date string
		want bool
	}{
		{"2024-04-30", false},
		{"2024-05-01", true},
		{"2024-05-15", true},
		{"2024-05-31", true},
		{"2024-06-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := r.Contains(tt.date); got != tt.want {
				t.Errorf("Contains(%s) = %t, want %t", tt.date, got, tt.want)
			}
		})
	}

	open := DateRange{Start: "2024-05-01"}
	if !open.Contains("2030-01-01") {
		t.Error("open-ended range should contain any later date")
	}
}

func TestDateRangeValidate(t *testing.T) {
	if err := (DateRange{Start: "2024-05-01", End: "2024-05-02"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (DateRange{Start: "2024-05-02", End: "2024-05-01"}).Validate(); err == nil {
		t.Error("expected error for reversed range")
	}
	if err := (DateRange{Start: "05/01/2024"}).Validate(); err == nil {
		t.Error("expected error for malformed date")
	}
	if err := (DateRange{}).Validate(); err != nil {
		t.Errorf("empty range should be valid, got %v", err)
	}
}

func TestVenueHasCoordinates(t *testing.T) {
	lat, lon := 43.6435, -79.3791
	if !(Venue{Lat: &lat, Lon: &lon}).HasCoordinates() {
		t.Error("expected coordinates")
	}
	if (Venue{Lat: &lat}).HasCoordinates() {
		t.Error("latitude alone is not a location")
	}
}

func TestMatchRequestPickBySlot(t *testing.T) {
	req := MatchRequest{Picks: []Pick{
		{Kind: PickKindTeam, DisplayName: "A", Slot: SlotP1},
		{Kind: PickKindArtist, DisplayName: "B", Slot: SlotP2},
	}}

	p, ok := req.PickBySlot(SlotP2)
	if !ok || p.DisplayName != "B" {
		t.Fatalf("expected pick B in p2, got %+v (ok=%t)", p, ok)
	}
	if _, ok := req.PickBySlot(SlotP3); ok {
		t.Error("expected no pick in p3")
	}
}
