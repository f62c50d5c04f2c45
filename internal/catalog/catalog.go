// Package catalog loads the selectable teams, artists and genre buckets offered
// to users, and keeps them cached.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tripsync/tripsync/internal/genre"
	"github.com/tripsync/tripsync/internal/models"
	"github.com/tripsync/tripsync/internal/picks"
)

// Entry is one selectable team or artist.
type Entry struct {
	Name   string `yaml:"name" json:"name"`
	ID     string `yaml:"id,omitempty" json:"id,omitempty"`
	League string `yaml:"league,omitempty" json:"league,omitempty"`
}

// Catalog is the full option set.
type Catalog struct {
	Teams   []Entry             `yaml:"teams" json:"teams"`
	Artists []Entry             `yaml:"artists" json:"artists"`
	Genres  map[string][]string `yaml:"genres" json:"genres,omitempty"`
}

// Option is one entry as offered to clients: its tagged pick text and label.
type Option struct {
	Value string          `json:"value"`
	Label string          `json:"label"`
	Kind  models.PickKind `json:"kind"`
	Group string          `json:"group,omitempty"`
}

// Normalize trims names, drops nameless entries and sorts each list by name.
func (c *Catalog) Normalize() {
	c.Teams = normalizeEntries(c.Teams)
	c.Artists = normalizeEntries(c.Artists)
	if c.Genres == nil {
		c.Genres = map[string][]string{}
	}
}

func normalizeEntries(in []Entry) []Entry {
	out := make([]Entry, 0, len(in))
	for _, e := range in {
		e.Name = strings.TrimSpace(e.Name)
		e.League = strings.ToUpper(strings.TrimSpace(e.League))
		e.ID = strings.TrimSpace(e.ID)
		if e.Name != "" {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].League != out[j].League {
			return out[i].League < out[j].League
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// GenreMatcher returns a matcher with the catalog's bucket overrides applied.
func (c Catalog) GenreMatcher() *genre.Matcher {
	return genre.NewMatcher(c.Genres)
}

// Options lists every selectable pick: teams, then artists, then genre buckets.
func (c Catalog) Options() []Option {
	opts := make([]Option, 0, len(c.Teams)+len(c.Artists)+len(genre.DefaultBuckets))
	for _, e := range c.Teams {
		p := models.Pick{Kind: models.PickKindTeam, DisplayName: e.Name, League: e.League}
		opts = append(opts, Option{Value: picks.Format(p), Label: e.Name, Kind: p.Kind, Group: e.League})
	}
	for _, e := range c.Artists {
		p := models.Pick{Kind: models.PickKindArtist, DisplayName: e.Name}
		opts = append(opts, Option{Value: picks.Format(p), Label: e.Name, Kind: p.Kind})
	}
	for _, bucket := range c.GenreMatcher().Buckets() {
		p := models.Pick{Kind: models.PickKindGenre, GenreBucket: bucket}
		opts = append(opts, Option{Value: picks.Format(p), Label: bucket, Kind: p.Kind})
	}
	return opts
}

// Resolutions returns a resolution for every entry that carries an id, so a
// catalog pick never needs an attraction search.
func (c Catalog) Resolutions() []models.PickResolution {
	var out []models.PickResolution
	add := func(kind models.PickKind, entries []Entry) {
		for _, e := range entries {
			if e.ID == "" {
				continue
			}
			key := picks.NormalizeName(e.Name)
			if kind == models.PickKindTeam && e.League != "" {
				key = picks.NormalizeName(e.League) + ":" + key
			}
			out = append(out, models.PickResolution{Kind: kind, NameKey: key, CanonicalID: e.ID, DisplayName: e.Name})
		}
	}
	add(models.PickKindTeam, c.Teams)
	add(models.PickKindArtist, c.Artists)
	return out
}

// Loader produces a Catalog.
type Loader interface {
	Load(ctx context.Context) (Catalog, error)
}

// FileLoader reads a YAML catalog from disk. A missing file yields an empty
// catalog with the default genre buckets.
type FileLoader struct {
	Path string
}

// Load implements Loader.
func (l FileLoader) Load(_ context.Context) (Catalog, error) {
	if l.Path == "" {
		return Catalog{}, errors.New("catalog path is empty")
	}

	data, err := os.ReadFile(l.Path)
	if errors.Is(err, fs.ErrNotExist) {
		var empty Catalog
		empty.Normalize()
		return empty, nil
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", l.Path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and normalizes it. Unknown keys are rejected.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	c.Normalize()
	return c, nil
}
