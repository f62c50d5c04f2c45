package matching

import (
	"strings"

	"github.com/tripsync/tripsync/internal/models"
	"github.com/tripsync/tripsync/internal/picks"
)

// SelectMode decides how a request is matched from the first two picks and the
// user's raw text for them. When exactly one input is filled in, the blank side
// mirrors the other before the checks run, so a lone team or artist falls into
// ENTITY_ONLY and a lone genre or keyword into SINGLE_PICK. A third pick never
// affects the decision.
func SelectMode(p1, p2 models.Pick, raw1, raw2 string) models.Mode {
	blank1 := strings.TrimSpace(raw1) == ""
	blank2 := strings.TrimSpace(raw2) == ""

	single := blank1 != blank2
	if single {
		if blank1 {
			p1 = p2.WithSlot(models.SlotP1)
		} else {
			p2 = p1.WithSlot(models.SlotP2)
		}
	}

	if picks.SameEntity(p1, p2) {
		return models.ModeEntityOnly
	}
	if single {
		return models.ModeSinglePick
	}
	return models.ModeOverlap
}
