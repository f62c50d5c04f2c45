package matching

import (
	"math"

	"github.com/tripsync/tripsync/internal/dedup"
	"github.com/tripsync/tripsync/internal/geo"
	"github.com/tripsync/tripsync/internal/models"
)

// distanceEpsilon is the tolerance under which two pair distances count as equal.
const distanceEpsilon = 1e-9

// BuildSchedule returns the pick's ticket-linked, deduplicated events in
// chronological order, labelled for display.
func BuildSchedule(slot models.Slot, pick models.Pick, events []models.Event) models.Schedule {
	list := dedup.Dedupe(ticketLinked(events))
	sortChronological(list)
	return models.Schedule{
		Slot:   slot,
		Label:  scheduleLabel(pick, list),
		Events: list,
	}
}

// scheduleLabel prefers the pick's own name, then the attraction on the first
// event whose id matches the pick, then that event's first attraction.
func scheduleLabel(pick models.Pick, events []models.Event) string {
	if pick.DisplayName != "" {
		return pick.DisplayName
	}
	if len(events) == 0 {
		return pick.Label()
	}
	attractions := events[0].Attractions
	if pick.CanonicalID != "" {
		for _, a := range attractions {
			if a.ID == pick.CanonicalID {
				return a.Name
			}
		}
	}
	if len(attractions) > 0 {
		return attractions[0].Name
	}
	return pick.Label()
}

// ClosestPair finds the cross-schedule pair with the smallest distance whose
// dates are at most maxDays-1 apart in either direction. Ties go to the smaller
// day gap, then to the pair whose earlier date comes first. It returns nil when
// no pair qualifies.
func ClosestPair(first, second models.Schedule, maxDays int) *models.ClosestPair {
	maxDiff := geo.MaxDiffDays(maxDays)

	var best *models.ClosestPair
	bestEarliest := ""

	for _, a := range first.Events {
		if !a.Locatable() {
			continue
		}
		for _, b := range second.Events {
			if !b.Locatable() {
				continue
			}
			days, err := geo.AbsDaysBetween(a.LocalDate, b.LocalDate)
			if err != nil || days > maxDiff {
				continue
			}
			dist := distanceMiles(a, b)
			earliest := a.LocalDate
			if b.LocalDate < earliest {
				earliest = b.LocalDate
			}

			if best == nil || closer(dist, days, earliest, best.DistanceMiles, best.DaysApart, bestEarliest) {
				best = &models.ClosestPair{First: a, Second: b, DistanceMiles: dist, DaysApart: days}
				bestEarliest = earliest
			}
		}
	}
	return best
}

func closer(dist float64, days int, earliest string, bestDist float64, bestDays int, bestEarliest string) bool {
	if math.Abs(dist-bestDist) > distanceEpsilon {
		return dist < bestDist
	}
	if days != bestDays {
		return days < bestDays
	}
	return earliest < bestEarliest
}
