package matching

import (
	"sort"
	"strings"

	"github.com/tripsync/tripsync/internal/models"
)

// sortChronological orders events by local date, then time of day with untimed
// events last. The sort is stable so equal events keep input order.
func sortChronological(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return chronoLess(events[i], events[j])
	})
}

func chronoLess(a, b models.Event) bool {
	if a.LocalDate != b.LocalDate {
		return a.LocalDate < b.LocalDate
	}
	switch {
	case a.LocalTime == b.LocalTime:
		return false
	case a.LocalTime == "":
		return false
	case b.LocalTime == "":
		return true
	default:
		return a.LocalTime < b.LocalTime
	}
}

// locationSignature identifies "the same place" for single-pick runs.
func locationSignature(v models.Venue) string {
	if v.ID != "" {
		return "venue:" + v.ID
	}
	return strings.ToLower(strings.TrimSpace(v.City)) + "|" +
		strings.ToLower(strings.TrimSpace(v.RegionCode)) + "|" +
		strings.ToLower(strings.TrimSpace(v.CountryCode))
}

func ticketLinked(events []models.Event) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.HasTicketURL() {
			out = append(out, e)
		}
	}
	return out
}

// dateBounds returns the earliest and latest member dates and the number of
// distinct dates.
func dateBounds(events []models.Event) (string, string, int) {
	if len(events) == 0 {
		return "", "", 0
	}
	distinct := make(map[string]struct{}, len(events))
	start, end := events[0].LocalDate, events[0].LocalDate
	for _, e := range events {
		distinct[e.LocalDate] = struct{}{}
		if e.LocalDate < start {
			start = e.LocalDate
		}
		if e.LocalDate > end {
			end = e.LocalDate
		}
	}
	return start, end, len(distinct)
}

func firstWithCoordinates(events []models.Event) *models.Event {
	for i := range events {
		if events[i].Venue.HasCoordinates() {
			anchor := events[i]
			return &anchor
		}
	}
	return nil
}
