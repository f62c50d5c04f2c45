// Package dedup assigns stable identity keys to events and collapses duplicates.
package dedup

import (
	"strings"

	"github.com/tripsync/tripsync/internal/models"
)

// IdentityKey derives the stable key for an event. A provider id wins; otherwise
// the key is composed from the normalized name, local date and time, and venue.
// With slotSensitive set, provider-id keys carry the originating slot so the same
// listing fetched for two picks stays two events.
func IdentityKey(e models.Event, slotSensitive bool) string {
	if e.ProviderID != "" {
		key := "id:" + e.ProviderID
		if slotSensitive && e.OriginPick.Slot != "" {
			key += "@" + string(e.OriginPick.Slot)
		}
		return key
	}

	parts := []string{
		normalize(e.Name),
		e.LocalDate,
		e.LocalTime,
	}
	if e.Venue.ID != "" {
		parts = append(parts, "venue="+e.Venue.ID)
	} else {
		parts = append(parts, normalize(e.Venue.Name), normalize(e.Venue.City))
	}
	return strings.Join(parts, "|")
}

// normalize lowercases and collapses whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Assign returns copies of events with IdentityKey populated.
func Assign(events []models.Event, slotSensitive bool) []models.Event {
	out := make([]models.Event, len(events))
	for i, e := range events {
		e.IdentityKey = IdentityKey(e, slotSensitive)
		out[i] = e
	}
	return out
}

// Dedupe drops events whose identity key was already seen, keeping the first.
// Events without a key are keyed on the fly (slot-insensitive).
func Dedupe(events []models.Event) []models.Event {
	f := NewFilter()
	return f.Filter(events)
}

// Stats tracks deduplication counters for one Filter.
type Stats struct {
	TotalProcessed int
	Duplicates     int
	Unique         int
	DuplicateRate  float64
}

// Filter removes duplicate events across successive calls and keeps statistics.
type Filter struct {
	seen  map[string]struct{}
	stats Stats
}

// NewFilter creates an empty filter.
func NewFilter() *Filter {
	return &Filter{seen: make(map[string]struct{})}
}

// Filter returns the events not seen before, in input order. When a duplicate
// within the same call came from a different pick, that pick is recorded on the
// surviving event's CoPicks so coverage can still count it.
func (f *Filter) Filter(events []models.Event) []models.Event {
	unique := make([]models.Event, 0, len(events))
	index := make(map[string]int, len(events))

	for _, e := range events {
		f.stats.TotalProcessed++

		key := e.IdentityKey
		if key == "" {
			key = IdentityKey(e, false)
			e.IdentityKey = key
		}

		if _, dup := f.seen[key]; dup {
			f.stats.Duplicates++
			if i, ok := index[key]; ok {
				unique[i] = mergePicks(unique[i], e)
			}
			continue
		}
		f.seen[key] = struct{}{}
		index[key] = len(unique)
		unique = append(unique, e)
		f.stats.Unique++
	}

	if f.stats.TotalProcessed > 0 {
		f.stats.DuplicateRate = float64(f.stats.Duplicates) / float64(f.stats.TotalProcessed)
	}

	return unique
}

// Seen reports whether key has passed through the filter.
func (f *Filter) Seen(key string) bool {
	_, ok := f.seen[key]
	return ok
}

// GetStats returns the current counters.
func (f *Filter) GetStats() Stats {
	return f.stats
}

// mergePicks returns keep with any of dup's picks it does not already carry.
func mergePicks(keep, dup models.Event) models.Event {
	have := keep.Picks()
	var extra []models.Pick
	for _, p := range dup.Picks() {
		if !containsPick(have, p) && !containsPick(extra, p) {
			extra = append(extra, p)
		}
	}
	if len(extra) == 0 {
		return keep
	}
	merged := make([]models.Pick, 0, len(keep.CoPicks)+len(extra))
	merged = append(merged, keep.CoPicks...)
	keep.CoPicks = append(merged, extra...)
	return keep
}

func containsPick(list []models.Pick, p models.Pick) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}
