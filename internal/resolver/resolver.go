// Package resolver attaches canonical provider ids to team and artist picks.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tripsync/tripsync/internal/models"
	"github.com/tripsync/tripsync/internal/picks"
)

// Searcher finds provider attractions by keyword.
type Searcher interface {
	SearchAttractions(ctx context.Context, keyword string) ([]models.Attraction, error)
}

// Store remembers earlier resolutions.
type Store interface {
	Lookup(ctx context.Context, kind models.PickKind, nameKey string) (models.PickResolution, bool, error)
	Save(ctx context.Context, res models.PickResolution) error
}

// AttractionResolver resolves entity picks through a Store, falling back to an
// attraction search. It never modifies the pick it is given.
type AttractionResolver struct {
	search Searcher
	store  Store
	logger *slog.Logger
}

var _ picks.Resolver = (*AttractionResolver)(nil)

// NewAttractionResolver builds a resolver. A nil store disables persistence.
func NewAttractionResolver(search Searcher, store Store, logger *slog.Logger) *AttractionResolver {
	return &AttractionResolver{search: search, store: store, logger: logger}
}

// Resolve returns a copy of p carrying a canonical id when one can be found.
// Genre and raw picks, and picks that already carry an id, pass through. An
// entity nobody matches comes back unresolved without error.
func (r *AttractionResolver) Resolve(ctx context.Context, p models.Pick) (models.Pick, error) {
	if !p.IsEntity() || p.Resolved() || p.DisplayName == "" {
		return p, nil
	}
	key := nameKey(p)

	if r.store != nil {
		res, found, err := r.store.Lookup(ctx, p.Kind, key)
		if err != nil {
			r.logger.WarnContext(ctx, "resolution lookup failed", "kind", p.Kind, "name", p.DisplayName, "error", err)
		} else if found {
			return p.WithCanonicalID(res.CanonicalID), nil
		}
	}

	found, err := r.search.SearchAttractions(ctx, p.DisplayName)
	if err != nil {
		return p, fmt.Errorf("resolve %s %q: %w", p.Kind, p.DisplayName, err)
	}
	best, ok := bestMatch(p.DisplayName, found)
	if !ok {
		r.logger.DebugContext(ctx, "no attraction matched pick", "kind", p.Kind, "name", p.DisplayName)
		return p, nil
	}

	if r.store != nil {
		res := models.PickResolution{
			Kind:        p.Kind,
			NameKey:     key,
			CanonicalID: best.ID,
			DisplayName: best.Name,
			ResolvedAt:  time.Now().UTC(),
		}
		if err := r.store.Save(ctx, res); err != nil {
			r.logger.WarnContext(ctx, "failed to persist resolution", "kind", p.Kind, "name", p.DisplayName, "error", err)
		}
	}
	return p.WithCanonicalID(best.ID), nil
}

// ResolveAll resolves every pick. A pick whose resolution fails is kept
// unresolved and its error reported by slot.
func ResolveAll(ctx context.Context, r picks.Resolver, in []models.Pick) ([]models.Pick, map[models.Slot]error) {
	out := make([]models.Pick, len(in))
	var failures map[models.Slot]error
	for i, p := range in {
		resolved, err := r.Resolve(ctx, p)
		if err != nil {
			if failures == nil {
				failures = make(map[models.Slot]error)
			}
			failures[p.Slot] = err
			resolved = p
		}
		out[i] = resolved
	}
	return out, failures
}

// bestMatch prefers an attraction whose normalized name equals the query, then
// the provider's first result.
func bestMatch(query string, found []models.Attraction) (models.Attraction, bool) {
	if len(found) == 0 {
		return models.Attraction{}, false
	}
	want := picks.NormalizeName(query)
	for _, a := range found {
		if picks.NormalizeName(a.Name) == want {
			return a, true
		}
	}
	return found[0], true
}

func nameKey(p models.Pick) string {
	key := picks.NormalizeName(p.DisplayName)
	if p.League != "" {
		key = picks.NormalizeName(p.League) + ":" + key
	}
	return key
}

// MemoryStore is an in-process Store used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.PickResolution
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.PickResolution)}
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(_ context.Context, kind models.PickKind, nameKey string) (models.PickResolution, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.entries[string(kind)+"|"+nameKey]
	return res, ok, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, res models.PickResolution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[string(res.Kind)+"|"+res.NameKey] = res
	return nil
}
