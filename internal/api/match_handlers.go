package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tripsync/tripsync/internal/config"
	"github.com/tripsync/tripsync/internal/database"
	"github.com/tripsync/tripsync/internal/matching"
	"github.com/tripsync/tripsync/internal/models"
	"github.com/tripsync/tripsync/internal/picks"
	"github.com/tripsync/tripsync/internal/provider"
	"github.com/tripsync/tripsync/internal/resolver"
)

const maxBodyBytes = 4 << 20

// Matcher runs the matching engine.
type Matcher interface {
	Match(ctx context.Context, req models.MatchRequest) (models.MatchResult, error)
}

// Fetcher fetches raw events for picks.
type Fetcher interface {
	FetchAll(ctx context.Context, picks []models.Pick, r models.DateRange) map[models.Slot]provider.FetchResult
}

// RunStore persists match run summaries.
type RunStore interface {
	Record(ctx context.Context, run models.MatchRun) error
	Get(ctx context.Context, id string) (models.MatchRun, error)
	ListRecent(ctx context.Context, limit int) ([]models.MatchRun, error)
}

// Warning reports a per-pick problem that did not stop the run.
type Warning struct {
	Slot    models.Slot `json:"slot"`
	Message string      `json:"message"`
}

// MatchResponse is the body returned by the match endpoints.
type MatchResponse struct {
	models.MatchResult
	Warnings []Warning `json:"warnings,omitempty"`
}

// MatchHandler serves the match endpoints.
type MatchHandler struct {
	engine   Matcher
	resolver picks.Resolver
	fetcher  Fetcher
	runs     RunStore
	defaults config.MatchConfig
	logger   *slog.Logger
}

// NewMatchHandler creates a match handler. fetcher, resolver and runs may be nil;
// without a fetcher only the offline endpoint works.
func NewMatchHandler(engine Matcher, resolver picks.Resolver, fetcher Fetcher, runs RunStore, defaults config.MatchConfig, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{
		engine:   engine,
		resolver: resolver,
		fetcher:  fetcher,
		runs:     runs,
		defaults: defaults,
		logger:   logger,
	}
}

// Match handles POST /api/match
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.fetcher == nil {
		writeError(w, http.StatusServiceUnavailable, "event provider is not configured")
		return
	}

	var body MatchRequestBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params, err := validateMatchBody(body, h.defaults)
	if err != nil {
		h.writeValidation(w, err)
		return
	}

	started := time.Now()
	ctx := r.Context()
	var warnings []Warning

	resolved := params.picks
	if h.resolver != nil {
		var failures map[models.Slot]error
		resolved, failures = resolver.ResolveAll(ctx, h.resolver, params.picks)
		for slot, ferr := range failures {
			h.logger.WarnContext(ctx, "pick resolution failed", "slot", slot, "error", ferr)
			warnings = append(warnings, Warning{Slot: slot, Message: "could not resolve pick, searched by name instead"})
		}
	}
	params.picks = resolved

	results := h.fetcher.FetchAll(ctx, resolved, params.dateRange)
	fetchErrors := 0
	for slot, res := range results {
		if !res.OK() {
			fetchErrors++
			warnings = append(warnings, Warning{Slot: slot, Message: fetchWarning(res.Err)})
		}
	}

	h.run(w, r, params, provider.RawEventsBySlot(results), warnings, fetchErrors, started)
}

// MatchOffline handles POST /api/match/offline
func (h *MatchHandler) MatchOffline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body OfflineMatchRequestBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params, err := validateMatchBody(body.MatchRequestBody, h.defaults)
	if err != nil {
		h.writeValidation(w, err)
		return
	}
	raw, err := validateRawEvents(body.RawEvents)
	if err != nil {
		h.writeValidation(w, err)
		return
	}

	h.run(w, r, params, raw, nil, 0, time.Now())
}

func (h *MatchHandler) run(w http.ResponseWriter, r *http.Request, params matchParams, raw map[models.Slot][]models.RawEvent, warnings []Warning, fetchErrors int, started time.Time) {
	ctx := r.Context()

	result, err := h.engine.Match(ctx, params.request(raw))
	if err != nil {
		if errors.Is(err, matching.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(ctx, "match failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if h.runs != nil && result.Mode != "" {
		run := models.MatchRun{
			ID:          result.RunID,
			Mode:        result.Mode,
			Picks:       formatPicks(params.picks),
			MaxDays:     params.maxDays,
			RadiusMiles: params.radiusMiles,
			Occurrences: len(result.Occurrences),
			Fallback:    result.Fallback != nil,
			FetchErrors: fetchErrors,
			DurationMS:  time.Since(started).Milliseconds(),
		}
		if err := h.runs.Record(ctx, run); err != nil {
			h.logger.WarnContext(ctx, "failed to record match run", "run_id", result.RunID, "error", err)
		}
	}

	sort.SliceStable(warnings, func(i, j int) bool { return warnings[i].Slot < warnings[j].Slot })
	writeJSON(w, http.StatusOK, MatchResponse{MatchResult: result, Warnings: warnings}, h.logger)
}

// ListRuns handles GET /api/runs
func (h *MatchHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	runs, err := h.runs.ListRecent(r.Context(), 50)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list runs", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)}, h.logger)
}

// GetRun handles GET /api/runs/{id}
func (h *MatchHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not configured")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "run id required")
		return
	}
	run, err := h.runs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrMatchRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to get run", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, run, h.logger)
}

func (h *MatchHandler) writeValidation(w http.ResponseWriter, err error) {
	var verr ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message, "field": verr.Field}, h.logger)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func fetchWarning(err error) string {
	if errors.Is(err, provider.ErrProviderUnavailable) {
		return "event provider unavailable, results may be incomplete"
	}
	return "could not fetch events for this pick"
}

func formatPicks(in []models.Pick) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if !p.IsEmpty() {
			out = append(out, string(p.Slot)+"="+picks.Format(p))
		}
	}
	return out
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}
