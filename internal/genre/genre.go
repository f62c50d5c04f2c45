// Package genre filters events for broad genre picks using keyword buckets.
package genre

import (
	"sort"
	"strings"

	"github.com/tripsync/tripsync/internal/models"
)

// DefaultBuckets maps a bucket name to lowercase keyword substrings matched
// against an event's classification names.
var DefaultBuckets = map[string][]string{
	"rock":      {"rock", "alternative", "punk", "grunge"},
	"metal":     {"metal", "hard rock"},
	"pop":       {"pop"},
	"hiphop":    {"hip-hop", "hip hop", "rap", "trap"},
	"rnb":       {"r&b", "rnb", "soul", "funk"},
	"country":   {"country", "bluegrass", "americana"},
	"edm":       {"electronic", "dance", "edm", "house", "techno", "trance", "dubstep"},
	"jazz":      {"jazz", "blues", "swing"},
	"latin":     {"latin", "reggaeton", "salsa", "bachata", "regional mexicano"},
	"classical": {"classical", "symphony", "opera", "orchestra", "chamber"},
	"indie":     {"indie", "folk", "singer-songwriter"},
	"comedy":    {"comedy", "stand-up"},
}

// Matcher holds an immutable bucket table.
type Matcher struct {
	buckets map[string][]string
}

// NewMatcher builds a matcher from DefaultBuckets merged with overrides. An
// override replaces the default keyword list for that bucket.
func NewMatcher(overrides map[string][]string) *Matcher {
	buckets := make(map[string][]string, len(DefaultBuckets)+len(overrides))
	for name, kws := range DefaultBuckets {
		buckets[name] = lowerAll(kws)
	}
	for name, kws := range overrides {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || len(kws) == 0 {
			continue
		}
		buckets[name] = lowerAll(kws)
	}
	return &Matcher{buckets: buckets}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Buckets lists known bucket names, sorted.
func (m *Matcher) Buckets() []string {
	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keywords returns the keywords of bucket, or nil when it is unknown.
func (m *Matcher) Keywords(bucket string) []string {
	return m.buckets[strings.ToLower(bucket)]
}

// Matches reports whether any classification name of e contains any keyword of
// bucket. Unknown buckets match nothing.
func (m *Matcher) Matches(e models.Event, bucket string) bool {
	keywords := m.Keywords(bucket)
	if len(keywords) == 0 {
		return false
	}
	for _, g := range e.Genres {
		g = strings.ToLower(g)
		for _, kw := range keywords {
			if strings.Contains(g, kw) {
				return true
			}
		}
	}
	return false
}

// Filter keeps the events matching bucket, in order.
func (m *Matcher) Filter(events []models.Event, bucket string) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if m.Matches(e, bucket) {
			out = append(out, e)
		}
	}
	return out
}
