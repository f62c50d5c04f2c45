// Package picks parses user interest input into typed picks and derives the
// identity keys used for coverage counting.
package picks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tripsync/tripsync/internal/models"
)

// ErrMalformedPick is returned when tagged input is missing a required field.
var ErrMalformedPick = errors.New("malformed pick")

// Resolver turns a pick into one carrying its provider identifier. It must
// return a new Pick and leave its argument untouched.
type Resolver interface {
	Resolve(ctx context.Context, p models.Pick) (models.Pick, error)
}

// Parse builds a Pick from tagged input text:
//
//	team:<league>:<name>   team:<name>
//	artist:<name>          artist:id:<provider id>
//	genre:<bucket>
//	raw:<text> or any untagged text
//
// Blank input yields an empty pick without error.
func Parse(raw string, slot models.Slot) (models.Pick, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return models.Pick{Slot: slot}, nil
	}

	tag, rest, tagged := strings.Cut(text, ":")
	if !tagged {
		return models.Pick{Kind: models.PickKindRaw, DisplayName: text, Slot: slot}, nil
	}
	rest = strings.TrimSpace(rest)

	switch models.PickKind(strings.ToLower(strings.TrimSpace(tag))) {
	case models.PickKindTeam:
		return parseTeam(rest, slot)
	case models.PickKindArtist:
		return parseArtist(rest, slot)
	case models.PickKindGenre:
		bucket := strings.ToLower(rest)
		if bucket == "" {
			return models.Pick{}, fmt.Errorf("%w: genre bucket is empty", ErrMalformedPick)
		}
		return models.Pick{Kind: models.PickKindGenre, GenreBucket: bucket, Slot: slot}, nil
	case models.PickKindRaw:
		if rest == "" {
			return models.Pick{}, fmt.Errorf("%w: raw keyword is empty", ErrMalformedPick)
		}
		return models.Pick{Kind: models.PickKindRaw, DisplayName: rest, Slot: slot}, nil
	default:
		// Text that merely contains a colon ("Re:Zero live") is a keyword.
		return models.Pick{Kind: models.PickKindRaw, DisplayName: text, Slot: slot}, nil
	}
}

func parseTeam(rest string, slot models.Slot) (models.Pick, error) {
	league, name, hasLeague := strings.Cut(rest, ":")
	if !hasLeague {
		name, league = rest, ""
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Pick{}, fmt.Errorf("%w: team name is empty", ErrMalformedPick)
	}
	return models.Pick{
		Kind:        models.PickKindTeam,
		DisplayName: name,
		League:      strings.ToUpper(strings.TrimSpace(league)),
		Slot:        slot,
	}, nil
}

func parseArtist(rest string, slot models.Slot) (models.Pick, error) {
	if marker, id, ok := strings.Cut(rest, ":"); ok && strings.EqualFold(strings.TrimSpace(marker), "id") {
		id = strings.TrimSpace(id)
		if id == "" {
			return models.Pick{}, fmt.Errorf("%w: artist id is empty", ErrMalformedPick)
		}
		return models.Pick{Kind: models.PickKindArtist, CanonicalID: id, Slot: slot}, nil
	}
	if rest == "" {
		return models.Pick{}, fmt.Errorf("%w: artist name is empty", ErrMalformedPick)
	}
	return models.Pick{Kind: models.PickKindArtist, DisplayName: rest, Slot: slot}, nil
}

// Format renders a pick back into its tagged text form.
func Format(p models.Pick) string {
	switch p.Kind {
	case models.PickKindTeam:
		if p.League != "" {
			return "team:" + p.League + ":" + p.DisplayName
		}
		return "team:" + p.DisplayName
	case models.PickKindArtist:
		if p.DisplayName == "" && p.CanonicalID != "" {
			return "artist:id:" + p.CanonicalID
		}
		return "artist:" + p.DisplayName
	case models.PickKindGenre:
		return "genre:" + p.GenreBucket
	case models.PickKindRaw:
		return p.DisplayName
	default:
		return ""
	}
}

// NormalizeName lowercases and collapses whitespace for name comparison.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Key derives the coverage identity of a pick. Picks of different kinds never
// share a key. When slotSensitive is set the slot is part of the key, so the
// same interest chosen twice counts as two picks.
func Key(p models.Pick, slotSensitive bool) string {
	var b strings.Builder
	b.WriteString(string(p.Kind))
	b.WriteByte(':')

	switch {
	case p.Kind == models.PickKindGenre:
		b.WriteString("bucket=")
		b.WriteString(strings.ToLower(p.GenreBucket))
	case p.CanonicalID != "":
		b.WriteString("id=")
		b.WriteString(p.CanonicalID)
	default:
		b.WriteString("name=")
		if p.League != "" {
			b.WriteString(strings.ToLower(p.League))
			b.WriteByte(':')
		}
		b.WriteString(NormalizeName(p.DisplayName))
	}

	if slotSensitive {
		b.WriteByte('@')
		b.WriteString(string(p.Slot))
	}
	return b.String()
}

// SameEntity reports whether two entity picks refer to the same team or artist:
// equal canonical ids, or equal kind and normalized name when either is
// unresolved. Two teams that both name a league must share it.
func SameEntity(a, b models.Pick) bool {
	if !a.IsEntity() || !b.IsEntity() {
		return false
	}
	if a.CanonicalID != "" && b.CanonicalID != "" {
		return a.CanonicalID == b.CanonicalID
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.League != "" && b.League != "" && !strings.EqualFold(a.League, b.League) {
		return false
	}
	na, nb := NormalizeName(a.DisplayName), NormalizeName(b.DisplayName)
	return na != "" && na == nb
}

// ParseAll parses the raw inputs for each slot that is present.
func ParseAll(inputs map[models.Slot]string) ([]models.Pick, error) {
	out := make([]models.Pick, 0, len(inputs))
	for _, slot := range models.Slots {
		raw, ok := inputs[slot]
		if !ok {
			continue
		}
		p, err := Parse(raw, slot)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", slot, err)
		}
		out = append(out, p)
	}
	return out, nil
}
