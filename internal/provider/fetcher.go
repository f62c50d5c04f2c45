package provider

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tripsync/tripsync/internal/models"
)

// Fetcher fans pick fetches out concurrently.
type Fetcher struct {
	source   Source
	recorder Recorder
	logger   *slog.Logger
	limit    int
}

// NewFetcher wraps a Source. A nil recorder disables measurements.
func NewFetcher(source Source, recorder Recorder, logger *slog.Logger) *Fetcher {
	return &Fetcher{source: source, recorder: recorder, logger: logger, limit: len(models.Slots)}
}

// FetchAll fetches every non-empty pick and returns one result per slot. One
// pick failing does not cancel the others.
func (f *Fetcher) FetchAll(ctx context.Context, picks []models.Pick, r models.DateRange) map[models.Slot]FetchResult {
	results := make([]FetchResult, len(picks))

	var g errgroup.Group
	g.SetLimit(f.limit)
	for i, pick := range picks {
		if pick.IsEmpty() {
			continue
		}
		g.Go(func() error {
			results[i] = f.source.Events(ctx, pick, r)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[models.Slot]FetchResult, len(picks))
	for i, pick := range picks {
		if pick.IsEmpty() {
			continue
		}
		res := results[i]
		if res.Err == nil && !r.IsZero() {
			kept := FilterDateRange(res.Events, r)
			if dropped := len(res.Events) - len(kept); dropped > 0 {
				f.logger.DebugContext(ctx, "dropped events outside date range", "slot", pick.Slot, "dropped", dropped)
			}
			res.Events = kept
		}
		if f.recorder != nil {
			f.recorder.ObserveFetch(res.Outcome())
		}
		out[pick.Slot] = res
	}
	return out
}

// RawEventsBySlot returns the successful results' events keyed by slot, the
// shape the engine consumes.
func RawEventsBySlot(results map[models.Slot]FetchResult) map[models.Slot][]models.RawEvent {
	out := make(map[models.Slot][]models.RawEvent, len(results))
	for slot, res := range results {
		if res.OK() {
			out[slot] = res.Events
		}
	}
	return out
}
