// Package normalize converts raw provider event records into models.Event.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tripsync/tripsync/internal/models"
)

const (
	dateLayout = "2006-01-02"

	pathID          = "id"
	pathName        = "name"
	pathURL         = "url"
	pathLocalDate   = "dates.start.localDate"
	pathLocalTime   = "dates.start.localTime"
	pathVenue       = "_embedded.venues.0"
	pathAttractions = "_embedded.attractions"
	pathClasses     = "classifications"
)

// classificationFields are the per-classification names fed to genre matching.
var classificationFields = []string{"segment.name", "genre.name", "subGenre.name", "type.name", "subType.name"}

// Normalize converts one raw record. The boolean is false when the record is
// not valid JSON or lacks a parseable local date.
func Normalize(raw models.RawEvent, origin models.Pick) (models.Event, bool) {
	if !gjson.ValidBytes(raw) {
		return models.Event{}, false
	}
	doc := gjson.ParseBytes(raw)

	date := strings.TrimSpace(doc.Get(pathLocalDate).String())
	if _, err := time.Parse(dateLayout, date); err != nil {
		return models.Event{}, false
	}

	venue := doc.Get(pathVenue)
	event := models.Event{
		ProviderID: strings.TrimSpace(doc.Get(pathID).String()),
		Name:       strings.TrimSpace(doc.Get(pathName).String()),
		LocalDate:  date,
		LocalTime:  normalizeTime(doc.Get(pathLocalTime).String()),
		TicketURL:  strings.TrimSpace(doc.Get(pathURL).String()),
		Venue: models.Venue{
			ID:          strings.TrimSpace(venue.Get("id").String()),
			Name:        strings.TrimSpace(venue.Get("name").String()),
			City:        strings.TrimSpace(venue.Get("city.name").String()),
			RegionCode:  strings.TrimSpace(venue.Get("state.stateCode").String()),
			CountryCode: strings.TrimSpace(venue.Get("country.countryCode").String()),
		},
		Genres:      classificationNames(doc.Get(pathClasses)),
		Attractions: attractions(doc.Get(pathAttractions)),
		OriginPick:  origin,
	}

	lat := coordinate(venue.Get("location.latitude"), 90)
	lon := coordinate(venue.Get("location.longitude"), 180)
	if lat != nil && lon != nil {
		event.Venue.Lat, event.Venue.Lon = lat, lon
	}

	return event, true
}

// NormalizeAll converts every record, skipping those Normalize rejects, and
// reports how many were dropped.
func NormalizeAll(raws []models.RawEvent, origin models.Pick) ([]models.Event, int) {
	events := make([]models.Event, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		e, ok := Normalize(raw, origin)
		if !ok {
			dropped++
			continue
		}
		events = append(events, e)
	}
	return events, dropped
}

// coordinate accepts numbers or numeric strings within ±limit and returns nil
// for anything else, so a missing location never turns into 0,0.
func coordinate(r gjson.Result, limit float64) *float64 {
	var v float64
	switch r.Type {
	case gjson.Number:
		v = r.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return nil
		}
		v = parsed
	default:
		return nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > limit {
		return nil
	}
	return &v
}

func normalizeTime(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("15:04:05")
		}
	}
	return ""
}

func classificationNames(classes gjson.Result) []string {
	var names []string
	seen := make(map[string]bool)
	classes.ForEach(func(_, class gjson.Result) bool {
		for _, field := range classificationFields {
			name := strings.TrimSpace(class.Get(field).String())
			if name == "" || strings.EqualFold(name, "undefined") || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
		return true
	})
	return names
}

func attractions(list gjson.Result) []models.Attraction {
	var out []models.Attraction
	list.ForEach(func(_, a gjson.Result) bool {
		name := strings.TrimSpace(a.Get("name").String())
		if name == "" {
			return true
		}
		out = append(out, models.Attraction{
			ID:   strings.TrimSpace(a.Get("id").String()),
			Name: name,
		})
		return true
	})
	return out
}
