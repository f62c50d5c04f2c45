package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const cacheName = "catalog"

// CacheRecorder receives cache hit/miss counts.
type CacheRecorder interface {
	ObserveCache(cache string, hit bool)
}

// Service serves the catalog from a TTL cache. Concurrent reloads are coalesced,
// and a failed reload keeps serving the last good catalog.
type Service struct {
	loader   Loader
	ttl      time.Duration
	logger   *slog.Logger
	recorder CacheRecorder
	now      func() time.Time

	mu       sync.RWMutex
	current  Catalog
	loaded   bool
	loadedAt time.Time
	group    singleflight.Group
}

// NewService creates a catalog service. A nil recorder disables measurements.
func NewService(loader Loader, ttl time.Duration, recorder CacheRecorder, logger *slog.Logger) *Service {
	return &Service{
		loader:   loader,
		ttl:      ttl,
		logger:   logger,
		recorder: recorder,
		now:      time.Now,
	}
}

// Get returns the cached catalog, reloading it when stale.
func (s *Service) Get(ctx context.Context) (Catalog, error) {
	s.mu.RLock()
	c, loaded, fresh := s.current, s.loaded, s.now().Sub(s.loadedAt) < s.ttl
	s.mu.RUnlock()

	if loaded && fresh {
		s.observe(true)
		return c, nil
	}
	s.observe(false)

	c, err := s.Refresh(ctx)
	if err != nil && loaded {
		s.logger.WarnContext(ctx, "catalog reload failed, serving stale copy", "error", err)
		return s.snapshot(), nil
	}
	return c, err
}

// Refresh reloads the catalog unconditionally.
func (s *Service) Refresh(ctx context.Context) (Catalog, error) {
	v, err, _ := s.group.Do("catalog", func() (any, error) {
		c, err := s.loader.Load(ctx)
		if err != nil {
			return Catalog{}, err
		}
		s.mu.Lock()
		s.current, s.loaded, s.loadedAt = c, true, s.now()
		s.mu.Unlock()

		s.logger.InfoContext(ctx, "catalog loaded", "teams", len(c.Teams), "artists", len(c.Artists), "genre_overrides", len(c.Genres))
		return c, nil
	})
	if err != nil {
		return Catalog{}, err
	}
	return v.(Catalog), nil
}

func (s *Service) snapshot() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Service) observe(hit bool) {
	if s.recorder != nil {
		s.recorder.ObserveCache(cacheName, hit)
	}
}
