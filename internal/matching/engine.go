// Package matching turns per-pick event pools into occurrences: clusters of
// events a traveller could attend together.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tripsync/tripsync/internal/dedup"
	"github.com/tripsync/tripsync/internal/genre"
	"github.com/tripsync/tripsync/internal/models"
	"github.com/tripsync/tripsync/internal/normalize"
	"github.com/tripsync/tripsync/internal/picks"
)

// ErrInvalidRequest marks requests the engine cannot interpret, such as more
// than three picks or two picks claiming the same slot.
var ErrInvalidRequest = errors.New("invalid match request")

// Recorder receives per-run engine measurements.
type Recorder interface {
	ObserveMatch(mode models.Mode, occurrences int, fallback bool, elapsed time.Duration)
}

// Config holds engine-wide defaults that are not part of a single request.
type Config struct {
	// MaxTripDays caps the trip length used for clustering. The closest-pair
	// fallback still uses the requested length.
	MaxTripDays int
	MinRunSize  int
	Membership  Membership
	// SlotInsensitiveIdentity collapses the same listing fetched for two picks
	// into one event. By default overlap mode keeps one copy per slot.
	SlotInsensitiveIdentity bool
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxTripDays: 14,
		MinRunSize:  1,
		Membership:  MembershipAnchor,
	}
}

// Engine runs the matching pipeline. It is safe for concurrent use; every call
// works on its own copies of the request data.
type Engine struct {
	cfg      Config
	genres   *genre.Matcher
	logger   *slog.Logger
	recorder Recorder
}

// NewEngine constructs an Engine. A nil matcher uses the default genre buckets;
// a nil recorder disables measurements.
func NewEngine(cfg Config, genres *genre.Matcher, recorder Recorder, logger *slog.Logger) *Engine {
	if genres == nil {
		genres = genre.NewMatcher(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:      cfg,
		genres:   genres,
		logger:   logger,
		recorder: recorder,
	}
}

// Match normalizes each pick's raw events, selects the matching mode, clusters,
// and attaches the fallback when overlap matching finds nothing.
func (e *Engine) Match(ctx context.Context, req models.MatchRequest) (models.MatchResult, error) {
	started := time.Now()

	if err := validateRequest(req); err != nil {
		return models.MatchResult{}, err
	}

	result := models.MatchResult{
		RunID:       uuid.New().String(),
		Occurrences: []models.Occurrence{},
	}

	p1, _ := req.PickBySlot(models.SlotP1)
	p2, _ := req.PickBySlot(models.SlotP2)
	raw1, raw2 := rawInput(req, p1, models.SlotP1), rawInput(req, p2, models.SlotP2)

	if p1.IsEmpty() && p2.IsEmpty() {
		e.logger.InfoContext(ctx, "match skipped, no usable picks", "run_id", result.RunID)
		return result, nil
	}

	// Select mode, then build per-pick pools
	mode := SelectMode(p1, p2, raw1, raw2)
	result.Mode = mode

	slotSensitive := mode == models.ModeOverlap && !e.cfg.SlotInsensitiveIdentity
	pools := e.buildPools(req, slotSensitive)

	switch mode {
	case models.ModeEntityOnly:
		all := dedup.Dedupe(dedup.Assign(concat(pools[models.SlotP1], pools[models.SlotP2]), false))
		result.Occurrences = []models.Occurrence{EntityOnly(all)}

	case models.ModeSinglePick:
		slot := models.SlotP1
		if p1.IsEmpty() || strings.TrimSpace(raw1) == "" {
			slot = models.SlotP2
		}
		result.Occurrences = nonNil(SinglePickRuns(pools[slot], e.cfg.MinRunSize))

	case models.ModeOverlap:
		opts := Options{
			MaxDays:       e.effectiveMaxDays(req.MaxDays),
			RadiusMiles:   req.RadiusMiles,
			Membership:    e.cfg.Membership,
			SlotSensitive: slotSensitive,
		}
		var all []models.Event
		for _, slot := range models.Slots {
			all = append(all, pools[slot]...)
		}
		all = dedup.Dedupe(all)
		result.Occurrences = nonNil(Overlap(all, opts))

		// Fallback only when two genuine entities found nothing
		if len(result.Occurrences) == 0 && p1.IsEntity() && p2.IsEntity() {
			result.Fallback = e.fallback(req, pools)
		}
	}

	elapsed := time.Since(started)
	if e.recorder != nil {
		e.recorder.ObserveMatch(mode, len(result.Occurrences), result.Fallback != nil, elapsed)
	}
	e.logger.InfoContext(ctx, "match completed",
		"run_id", result.RunID,
		"mode", mode,
		"occurrences", len(result.Occurrences),
		"fallback", result.Fallback != nil,
		"duration_ms", elapsed.Milliseconds(),
	)

	return result, nil
}

// buildPools normalizes each pick's raw events, applies genre and date range
// filters, and assigns identity keys. The request is not modified.
func (e *Engine) buildPools(req models.MatchRequest, slotSensitive bool) map[models.Slot][]models.Event {
	pools := make(map[models.Slot][]models.Event, len(req.Picks))
	for _, pick := range req.Picks {
		if pick.IsEmpty() {
			continue
		}
		events, dropped := normalize.NormalizeAll(req.RawEventsByPick[pick.Slot], pick)
		if dropped > 0 {
			e.logger.Debug("dropped raw events without a usable date",
				"slot", pick.Slot, "dropped", dropped)
		}

		if pick.Kind == models.PickKindGenre {
			events = e.genres.Filter(events, pick.GenreBucket)
		}
		if req.DateRange != nil && !req.DateRange.IsZero() {
			events = filterDateRange(events, *req.DateRange)
		}

		pools[pick.Slot] = dedup.Dedupe(dedup.Assign(events, slotSensitive))
	}
	return pools
}

func (e *Engine) fallback(req models.MatchRequest, pools map[models.Slot][]models.Event) *models.Fallback {
	fb := &models.Fallback{Schedules: []models.Schedule{}}
	for _, slot := range models.Slots {
		pick, ok := req.PickBySlot(slot)
		if !ok || !pick.IsEntity() {
			continue
		}
		fb.Schedules = append(fb.Schedules, BuildSchedule(slot, pick, pools[slot]))
	}
	if len(fb.Schedules) >= 2 {
		fb.Closest = ClosestPair(fb.Schedules[0], fb.Schedules[1], req.MaxDays)
	}
	return fb
}

func (e *Engine) effectiveMaxDays(requested int) int {
	if e.cfg.MaxTripDays > 0 && requested > e.cfg.MaxTripDays {
		return e.cfg.MaxTripDays
	}
	return requested
}

func validateRequest(req models.MatchRequest) error {
	if len(req.Picks) > len(models.Slots) {
		return fmt.Errorf("%w: %d picks, at most %d allowed", ErrInvalidRequest, len(req.Picks), len(models.Slots))
	}
	seen := make(map[models.Slot]bool, len(req.Picks))
	for _, p := range req.Picks {
		if !p.Slot.Valid() {
			return fmt.Errorf("%w: pick has invalid slot %q", ErrInvalidRequest, p.Slot)
		}
		if seen[p.Slot] {
			return fmt.Errorf("%w: slot %s used more than once", ErrInvalidRequest, p.Slot)
		}
		seen[p.Slot] = true
		if p.Kind == models.PickKindGenre && p.GenreBucket == "" {
			return fmt.Errorf("%w: genre pick in %s has no bucket", ErrInvalidRequest, p.Slot)
		}
	}
	for slot := range req.RawEventsByPick {
		if !slot.Valid() {
			return fmt.Errorf("%w: raw events keyed by invalid slot %q", ErrInvalidRequest, slot)
		}
	}
	return nil
}

// rawInput returns the user's text for slot, or the pick's tagged form when the
// caller did not pass raw inputs.
func rawInput(req models.MatchRequest, p models.Pick, slot models.Slot) string {
	if req.RawInputs != nil {
		if raw, ok := req.RawInputs[slot]; ok {
			return raw
		}
	}
	if p.IsEmpty() {
		return ""
	}
	return picks.Format(p)
}

func filterDateRange(events []models.Event, r models.DateRange) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if r.Contains(ev.LocalDate) {
			out = append(out, ev)
		}
	}
	return out
}

func concat(a, b []models.Event) []models.Event {
	out := make([]models.Event, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func nonNil(occ []models.Occurrence) []models.Occurrence {
	if occ == nil {
		return []models.Occurrence{}
	}
	return occ
}
