package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tripsync/tripsync/internal/geo"
	"github.com/tripsync/tripsync/internal/models"
	"github.com/tripsync/tripsync/internal/picks"
)

// Membership selects how overlap clusters admit events.
type Membership string

const (
	// MembershipAnchor checks each candidate only against the cluster's anchor.
	// Two non-anchor members may end up farther apart than the radius.
	MembershipAnchor Membership = "anchor"
	// MembershipPairwise additionally requires every member to be within the
	// radius and day window of every other member.
	MembershipPairwise Membership = "pairwise"
)

// ParseMembership maps a config value to a Membership.
func ParseMembership(raw string) (Membership, error) {
	switch Membership(strings.ToLower(strings.TrimSpace(raw))) {
	case "", MembershipAnchor:
		return MembershipAnchor, nil
	case MembershipPairwise:
		return MembershipPairwise, nil
	default:
		return "", fmt.Errorf("unknown membership %q: must be anchor or pairwise", raw)
	}
}

// Options tune the clustering engine.
type Options struct {
	// MaxDays is the inclusive trip length in days.
	MaxDays int
	// RadiusMiles bounds distance from the anchor.
	RadiusMiles float64
	// MinRunSize drops single-pick runs with fewer events. Values below 1 keep every run.
	MinRunSize int
	// Membership picks anchor-relative or pairwise overlap clusters.
	Membership Membership
	// SlotSensitive keeps identical picks in different slots apart, both for event
	// identity and for coverage.
	SlotSensitive bool
}

// EntityOnly emits exactly one occurrence holding every ticket-linked event,
// ignoring date window and radius.
func EntityOnly(events []models.Event) models.Occurrence {
	members := ticketLinked(events)
	sortChronological(members)

	start, end, _ := dateBounds(members)
	occ := models.Occurrence{
		Members:   members,
		Anchor:    firstWithCoordinates(members),
		StartDate: start,
		EndDate:   end,
		Mode:      models.ModeEntityOnly,
	}
	if len(members) > 0 {
		occ.Coverage = 1
	}
	return occ
}

// SinglePickRuns splits the pick's ticket-linked events, in chronological order,
// into maximal runs at the same location. Runs shorter than minRunSize are dropped.
func SinglePickRuns(events []models.Event, minRunSize int) []models.Occurrence {
	sorted := ticketLinked(events)
	sortChronological(sorted)

	var runs [][]models.Event
	prev := ""
	for i, e := range sorted {
		sig := locationSignature(e.Venue)
		if i == 0 || sig != prev {
			runs = append(runs, nil)
		}
		runs[len(runs)-1] = append(runs[len(runs)-1], e)
		prev = sig
	}

	occurrences := make([]models.Occurrence, 0, len(runs))
	for _, run := range runs {
		if len(run) < minRunSize {
			continue
		}
		start, end, _ := dateBounds(run)
		anchor := run[0]
		occurrences = append(occurrences, models.Occurrence{
			Members:   run,
			Anchor:    &anchor,
			StartDate: start,
			EndDate:   end,
			Mode:      models.ModeSinglePick,
			Coverage:  1,
		})
	}
	return occurrences
}

// Overlap builds clusters seeded at every locatable ticket-linked event and keeps
// those covering at least two picks within the trip length and radius. Results
// are deduplicated by member set and ranked.
func Overlap(events []models.Event, opts Options) []models.Occurrence {
	// Only ticket-linked events with coordinates can anchor or join
	candidates := make([]models.Event, 0, len(events))
	for _, e := range ticketLinked(events) {
		if e.Locatable() {
			candidates = append(candidates, e)
		}
	}
	sortChronological(candidates)

	maxDiff := geo.MaxDiffDays(opts.MaxDays)
	seen := make(map[string]struct{})
	var occurrences []models.Occurrence

	// Seed one cluster per candidate
	for i := range candidates {
		anchor := candidates[i]
		members := []models.Event{anchor}

		for j := range candidates {
			if j == i {
				continue
			}
			b := candidates[j]
			if !within(anchor, b, maxDiff, opts.RadiusMiles) {
				continue
			}
			if opts.Membership == MembershipPairwise && !withinAll(members, b, maxDiff, opts.RadiusMiles) {
				continue
			}
			members = append(members, b)
		}

		// A cluster must cover at least two picks
		if Coverage(members, opts.SlotSensitive) < 2 {
			continue
		}

		// Check the trip length
		sortChronological(members)
		start, end, distinct := dateBounds(members)
		if distinct > opts.MaxDays {
			continue
		}
		if span, err := geo.DaysBetween(start, end); err != nil || span > maxDiff {
			continue
		}

		// Skip member sets already emitted from another anchor
		key := memberSetKey(members)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		a := anchor
		occurrences = append(occurrences, models.Occurrence{
			Members:   members,
			Anchor:    &a,
			StartDate: start,
			EndDate:   end,
			Mode:      models.ModeOverlap,
			Coverage:  Coverage(members, opts.SlotSensitive),
		})
	}

	Rank(occurrences)
	return occurrences
}

// within applies the anchor-relative test: b is on or after the anchor's date by
// at most maxDiff days and within radius miles.
func within(anchor, b models.Event, maxDiff int, radius float64) bool {
	d, err := geo.DaysBetween(anchor.LocalDate, b.LocalDate)
	if err != nil || d < 0 || d > maxDiff {
		return false
	}
	return distanceMiles(anchor, b) <= radius
}

func withinAll(members []models.Event, b models.Event, maxDiff int, radius float64) bool {
	for _, m := range members {
		d, err := geo.AbsDaysBetween(m.LocalDate, b.LocalDate)
		if err != nil || d > maxDiff {
			return false
		}
		if distanceMiles(m, b) > radius {
			return false
		}
	}
	return true
}

func distanceMiles(a, b models.Event) float64 {
	return geo.HaversineMiles(*a.Venue.Lat, *a.Venue.Lon, *b.Venue.Lat, *b.Venue.Lon)
}

// Coverage counts the distinct picks represented among events, including picks
// recorded on collapsed duplicates.
func Coverage(events []models.Event, slotSensitive bool) int {
	keys := make(map[string]struct{})
	for _, e := range events {
		for _, p := range e.Picks() {
			if p.IsEmpty() {
				continue
			}
			keys[picks.Key(p, slotSensitive)] = struct{}{}
		}
	}
	return len(keys)
}

func memberSetKey(members []models.Event) string {
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.IdentityKey
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x1f")
}

// Rank orders occurrences by coverage, then member count, both descending, then
// by earliest date ascending. Ties keep their existing order.
func Rank(occurrences []models.Occurrence) {
	sort.SliceStable(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if a.Coverage != b.Coverage {
			return a.Coverage > b.Coverage
		}
		if len(a.Members) != len(b.Members) {
			return len(a.Members) > len(b.Members)
		}
		return a.StartDate < b.StartDate
	})
}
