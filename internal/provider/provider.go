// Package provider fetches raw event records for picks from the event provider
// and reports each pick's outcome as a FetchResult.
package provider

import (
	"context"
	"errors"

	"github.com/tripsync/tripsync/internal/models"
)

// ErrProviderUnavailable marks fetch failures caused by the provider itself
// rather than by the request.
var ErrProviderUnavailable = errors.New("provider unavailable")

// Fetch outcomes reported to the Recorder.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// FetchResult is the outcome of fetching one pick. A failed fetch carries Err
// and no events, so callers can tell "no events" from "fetch failed".
type FetchResult struct {
	Events []models.RawEvent
	Err    error
}

// OK reports whether the fetch succeeded.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// Outcome classifies the result for metrics.
func (r FetchResult) Outcome() string {
	switch {
	case r.Err != nil:
		return OutcomeError
	case len(r.Events) == 0:
		return OutcomeEmpty
	default:
		return OutcomeOK
	}
}

// Source returns raw events for a pick within a date range.
type Source interface {
	Events(ctx context.Context, pick models.Pick, r models.DateRange) FetchResult
}

// Recorder receives provider measurements.
type Recorder interface {
	ObserveFetch(outcome string)
	ObserveCache(cache string, hit bool)
}
