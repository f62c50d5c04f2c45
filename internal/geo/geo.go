// Package geo provides great-circle distance and calendar-day arithmetic used by
// occurrence matching.
package geo

import (
	"fmt"
	"math"
	"time"
)

// EarthRadiusMiles is the mean Earth radius in statute miles.
const EarthRadiusMiles = 3958.7613

// DateLayout is the provider-local calendar date format.
const DateLayout = "2006-01-02"

// HaversineMiles returns the great-circle distance between two points in miles.
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push a just outside [0, 1] near antipodal points.
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusMiles * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ParseDate parses a YYYY-MM-DD date as a UTC midnight.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	return t, nil
}

// DaysBetween returns b minus a in whole calendar days.
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDate(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDate(b)
	if err != nil {
		return 0, err
	}
	// Both are UTC midnights, so the difference is an exact multiple of 24h.
	return int(tb.Sub(ta).Hours() / 24), nil
}

// AbsDaysBetween is DaysBetween without sign.
func AbsDaysBetween(a, b string) (int, error) {
	d, err := DaysBetween(a, b)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		d = -d
	}
	return d, nil
}

// MaxDiffDays converts an inclusive trip length into the largest allowed day gap.
func MaxDiffDays(maxDays int) int {
	if maxDays-1 < 0 {
		return 0
	}
	return maxDays - 1
}
