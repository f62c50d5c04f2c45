package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tripsync/tripsync/internal/config"
	"github.com/tripsync/tripsync/internal/models"
	"github.com/tripsync/tripsync/internal/picks"
)

const maxRawEventsPerPick = 1000

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MatchRequestBody is the body of POST /api/match. Picks are tagged text keyed
// by slot, for example {"p1": "team:NHL:Edmonton Oilers", "p2": "artist:Drake"}.
type MatchRequestBody struct {
	Picks       map[models.Slot]string `json:"picks"`
	MaxDays     *int                   `json:"max_days,omitempty"`
	RadiusMiles *float64               `json:"radius_miles,omitempty"`
	DateRange   *models.DateRange      `json:"date_range,omitempty"`
}

// OfflineMatchRequestBody is the body of POST /api/match/offline: the same
// fields plus caller-supplied raw provider records per slot.
type OfflineMatchRequestBody struct {
	MatchRequestBody
	RawEvents map[models.Slot][]json.RawMessage `json:"raw_events"`
}

// matchParams is a validated request.
type matchParams struct {
	picks       []models.Pick
	rawInputs   map[models.Slot]string
	maxDays     int
	radiusMiles float64
	dateRange   models.DateRange
}

// validateMatchBody parses picks and applies defaults. Degenerate trip lengths
// and radii are clamped to 1.
func validateMatchBody(body MatchRequestBody, defaults config.MatchConfig) (matchParams, error) {
	for slot := range body.Picks {
		if !slot.Valid() {
			return matchParams{}, ValidationError{Field: "picks", Message: fmt.Sprintf("unknown slot %q, expected p1, p2 or p3", slot)}
		}
	}

	parsed, err := picks.ParseAll(body.Picks)
	if err != nil {
		if errors.Is(err, picks.ErrMalformedPick) {
			return matchParams{}, ValidationError{Field: "picks", Message: err.Error()}
		}
		return matchParams{}, err
	}

	p := matchParams{
		picks:       parsed,
		rawInputs:   body.Picks,
		maxDays:     defaults.DefaultMaxDays,
		radiusMiles: defaults.DefaultRadiusMiles,
	}
	if body.MaxDays != nil {
		p.maxDays = max(*body.MaxDays, 1)
	}
	if body.RadiusMiles != nil {
		r := *body.RadiusMiles
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return matchParams{}, ValidationError{Field: "radius_miles", Message: "must be a finite number"}
		}
		p.radiusMiles = math.Max(r, 1)
	}
	if body.DateRange != nil {
		if err := body.DateRange.Validate(); err != nil {
			return matchParams{}, ValidationError{Field: "date_range", Message: err.Error()}
		}
		p.dateRange = *body.DateRange
	}
	return p, nil
}

func validateRawEvents(raw map[models.Slot][]json.RawMessage) (map[models.Slot][]models.RawEvent, error) {
	out := make(map[models.Slot][]models.RawEvent, len(raw))
	for slot, events := range raw {
		if !slot.Valid() {
			return nil, ValidationError{Field: "raw_events", Message: fmt.Sprintf("unknown slot %q", slot)}
		}
		if len(events) > maxRawEventsPerPick {
			return nil, ValidationError{Field: "raw_events", Message: fmt.Sprintf("%s has %d events, at most %d allowed", slot, len(events), maxRawEventsPerPick)}
		}
		list := make([]models.RawEvent, len(events))
		for i, e := range events {
			list[i] = models.RawEvent(e)
		}
		out[slot] = list
	}
	return out, nil
}

func (p matchParams) request(raw map[models.Slot][]models.RawEvent) models.MatchRequest {
	req := models.MatchRequest{
		Picks:           p.picks,
		RawEventsByPick: raw,
		MaxDays:         p.maxDays,
		RadiusMiles:     p.radiusMiles,
		RawInputs:       p.rawInputs,
	}
	if !p.dateRange.IsZero() {
		dr := p.dateRange
		req.DateRange = &dr
	}
	return req
}
