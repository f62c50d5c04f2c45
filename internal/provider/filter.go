package provider

import (
	"github.com/tidwall/gjson"

	"github.com/tripsync/tripsync/internal/models"
)

// FilterDateRange keeps raw records whose local start date falls in r. Records
// without a date are kept and left for normalization to reject.
func FilterDateRange(raws []models.RawEvent, r models.DateRange) []models.RawEvent {
	if r.IsZero() {
		return raws
	}
	out := make([]models.RawEvent, 0, len(raws))
	for _, raw := range raws {
		date := gjson.GetBytes(raw, "dates.start.localDate").String()
		if date == "" || r.Contains(date) {
			out = append(out, raw)
		}
	}
	return out
}
