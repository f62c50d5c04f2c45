package resolver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/tripsync/tripsync/internal/models"
)

type fakeSearcher struct {
	results map[string][]models.Attraction
	err     error
	calls   int
}

func (f *fakeSearcher) SearchAttractions(_ context.Context, keyword string) ([]models.Attraction, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results[keyword], nil
}

type failingStore struct{}

func (failingStore) Lookup(context.Context, models.PickKind, string) (models.PickResolution, bool, error) {
	return models.PickResolution{}, false, errors.New("db down")
}

func (failingStore) Save(context.Context, models.PickResolution) error {
	return errors.New("db down")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolvePassesThroughNonEntities(t *testing.T) {
	search := &fakeSearcher{}
	r := NewAttractionResolver(search, nil, discardLogger())

	tests := []models.Pick{
		{Kind: models.PickKindGenre, GenreBucket: "jazz", Slot: models.SlotP1},
		{Kind: models.PickKindRaw, DisplayName: "monster trucks", Slot: models.SlotP1},
		{Kind: models.PickKindTeam, DisplayName: "Edmonton Oilers", CanonicalID: "K8vZ9171o", Slot: models.SlotP1},
	}
	for _, p := range tests {
		got, err := r.Resolve(context.Background(), p)
		if err != nil {
			t.Fatalf("Resolve(%+v) error = %v", p, err)
		}
		if got != p {
			t.Errorf("Resolve(%+v) = %+v, want unchanged", p, got)
		}
	}
	if search.calls != 0 {
		t.Errorf("expected no searches, got %d", search.calls)
	}
}

func TestResolvePrefersExactNameAndPersists(t *testing.T) {
	search := &fakeSearcher{results: map[string][]models.Attraction{
		"edmonton oilers": {
			{ID: "K8vZ917_Alumni", Name: "Oilers Alumni"},
			{ID: "K8vZ9171o", Name: "Edmonton  Oilers"},
		},
	}}
	store := NewMemoryStore()
	r := NewAttractionResolver(search, store, discardLogger())

	pick := models.Pick{Kind: models.PickKindTeam, DisplayName: "edmonton oilers", League: "NHL", Slot: models.SlotP1}
	got, err := r.Resolve(context.Background(), pick)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.CanonicalID != "K8vZ9171o" {
		t.Errorf("expected exact-name match, got %q", got.CanonicalID)
	}
	if pick.CanonicalID != "" {
		t.Error("input pick was modified")
	}

	again, err := r.Resolve(context.Background(), pick.WithSlot(models.SlotP2))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if again.CanonicalID != "K8vZ9171o" || again.Slot != models.SlotP2 {
		t.Errorf("unexpected cached resolution %+v", again)
	}
	if search.calls != 1 {
		t.Errorf("expected the second resolve to hit the store, got %d searches", search.calls)
	}
}

func TestResolveFallsBackToFirstResult(t *testing.T) {
	search := &fakeSearcher{results: map[string][]models.Attraction{
		"Drake": {{ID: "K8vZ917Gku7", Name: "Drake"}, {ID: "other", Name: "Drake Bell"}},
		"Drak":  {{ID: "K8vZ917Gku7", Name: "Drake"}},
	}}
	r := NewAttractionResolver(search, nil, discardLogger())

	got, err := r.Resolve(context.Background(), models.Pick{Kind: models.PickKindArtist, DisplayName: "Drak", Slot: models.SlotP1})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.CanonicalID != "K8vZ917Gku7" {
		t.Errorf("expected first result, got %q", got.CanonicalID)
	}
}

func TestResolveNoMatchLeavesPickUnresolved(t *testing.T) {
	r := NewAttractionResolver(&fakeSearcher{}, nil, discardLogger())
	pick := models.Pick{Kind: models.PickKindArtist, DisplayName: "Unknown Band", Slot: models.SlotP1}

	got, err := r.Resolve(context.Background(), pick)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Resolved() {
		t.Errorf("expected unresolved pick, got %+v", got)
	}
}

func TestResolveSurvivesStoreFailures(t *testing.T) {
	search := &fakeSearcher{results: map[string][]models.Attraction{"Drake": {{ID: "D1", Name: "Drake"}}}}
	r := NewAttractionResolver(search, failingStore{}, discardLogger())

	got, err := r.Resolve(context.Background(), models.Pick{Kind: models.PickKindArtist, DisplayName: "Drake", Slot: models.SlotP1})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.CanonicalID != "D1" {
		t.Errorf("expected search result despite store errors, got %q", got.CanonicalID)
	}
}

func TestResolveAll(t *testing.T) {
	search := &fakeSearcher{err: errors.New("provider down")}
	r := NewAttractionResolver(search, nil, discardLogger())

	in := []models.Pick{
		{Kind: models.PickKindArtist, DisplayName: "Drake", Slot: models.SlotP1},
		{Kind: models.PickKindGenre, GenreBucket: "jazz", Slot: models.SlotP2},
	}
	out, failures := ResolveAll(context.Background(), r, in)

	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Errorf("expected picks kept as-is on failure, got %+v", out)
	}
	if len(failures) != 1 || failures[models.SlotP1] == nil {
		t.Errorf("expected one failure for p1, got %v", failures)
	}
}
