// Command matchcli runs the matching engine over a fixture of raw provider
// records and prints the result as JSON. It never calls the provider.
//
//	matchcli -in fixture.json [-catalog catalog.yaml]
//
// The fixture holds picks keyed by slot plus raw records per slot:
//
//	{"picks": {"p1": "team:NHL:Toronto Maple Leafs", "p2": "artist:Drake"},
//	 "max_days": 3, "radius_miles": 50,
//	 "raw_events": {"p1": [...], "p2": [...]}}
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tripsync/tripsync/internal/catalog"
	"github.com/tripsync/tripsync/internal/config"
	"github.com/tripsync/tripsync/internal/logging"
	"github.com/tripsync/tripsync/internal/matching"
	"github.com/tripsync/tripsync/internal/models"
	"github.com/tripsync/tripsync/internal/picks"
)

type fixture struct {
	Picks       map[models.Slot]string            `json:"picks"`
	MaxDays     int                               `json:"max_days"`
	RadiusMiles float64                           `json:"radius_miles"`
	DateRange   *models.DateRange                 `json:"date_range,omitempty"`
	RawEvents   map[models.Slot][]models.RawEvent `json:"raw_events"`
}

func main() {
	in := flag.String("in", "-", "fixture file, or - for stdin")
	catalogPath := flag.String("catalog", "", "optional catalog file for genre buckets")
	pretty := flag.Bool("pretty", true, "indent JSON output")
	flag.Parse()

	if err := run(*in, *catalogPath, *pretty, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "matchcli:", err)
		os.Exit(1)
	}
}

func run(in, catalogPath string, pretty bool, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.NewWithWriter(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	ctx := context.Background()

	var c catalog.Catalog
	if catalogPath != "" {
		if c, err = (catalog.FileLoader{Path: catalogPath}).Load(ctx); err != nil {
			return err
		}
	}

	fx, err := readFixture(in, stdin)
	if err != nil {
		return err
	}
	req, err := buildRequest(fx, cfg.Match)
	if err != nil {
		return err
	}

	membership, err := matching.ParseMembership(cfg.Match.Membership)
	if err != nil {
		return err
	}
	engine := matching.NewEngine(matching.Config{
		MaxTripDays:             cfg.Match.MaxTripDays,
		MinRunSize:              cfg.Match.MinRunSize,
		Membership:              membership,
		SlotInsensitiveIdentity: cfg.Match.SlotInsensitiveIdentity,
	}, c.GenreMatcher(), nil, logger)

	result, err := engine.Match(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}

func readFixture(path string, stdin io.Reader) (fixture, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fixture{}, fmt.Errorf("open fixture: %w", err)
		}
		defer f.Close()
		r = f
	}

	var fx fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return fx, nil
}

func buildRequest(fx fixture, defaults config.MatchConfig) (models.MatchRequest, error) {
	parsed, err := picks.ParseAll(fx.Picks)
	if err != nil {
		return models.MatchRequest{}, err
	}
	req := models.MatchRequest{
		Picks:           parsed,
		RawEventsByPick: fx.RawEvents,
		MaxDays:         fx.MaxDays,
		RadiusMiles:     fx.RadiusMiles,
		DateRange:       fx.DateRange,
		RawInputs:       fx.Picks,
	}
	if req.MaxDays <= 0 {
		req.MaxDays = defaults.DefaultMaxDays
	}
	if req.RadiusMiles <= 0 {
		req.RadiusMiles = defaults.DefaultRadiusMiles
	}
	return req, nil
}
