// Command tradelane is the CLI front end: it parses the planning
// parameters, wires a provider.DataProvider backed by on-disk shards
// (syncing from the remote bulk dumps first when they're missing or
// stale), runs the facade, and prints the resulting plan. It is
// intentionally free of business logic — SPEC_FULL.md §4.6.1 places all of
// that in internal/facade and the packages it orchestrates.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tradelane/internal/config"
	"tradelane/internal/db"
	"tradelane/internal/facade"
	"tradelane/internal/logger"
	"tradelane/internal/planerr"
	"tradelane/internal/provider/local"
	"tradelane/internal/provider/remote"
)

var version = "dev"

func main() {
	cfg := config.Default()

	origin := flag.String("origin", "", "origin location, \"System\" or \"System/Station\" (required)")
	destination := flag.String("destination", "", "destination location, \"System\" or \"System/Station\" (required)")
	jumpCapacity := flag.Float64("jump-capacity", cfg.JumpCapacity, "maximum jump distance per hop, in light-years")
	minHop := flag.Int("min-hop", cfg.MinHop, "minimum number of trade sections along the route")
	deviation := flag.Float64("deviation", cfg.Deviation, "lateral deviation multiplier on jump capacity (0 disables)")
	cargoSpace := flag.Int64("cargo", cfg.CargoSpace, "cargo capacity, in units")
	minRange := flag.Float64("min-range", cfg.MinRange, "minimum distance per jump (0 means no minimum)")
	dataDir := flag.String("data-dir", cfg.DataDir, "directory holding (or to hold) the shard data")
	sync := flag.Bool("sync", false, "force a re-download of the bulk dumps before planning")
	flag.Parse()

	logger.Banner(version)

	cfg.Origin = *origin
	cfg.Destination = *destination
	cfg.JumpCapacity = *jumpCapacity
	cfg.MinHop = *minHop
	cfg.Deviation = *deviation
	cfg.CargoSpace = *cargoSpace
	cfg.MinRange = *minRange
	cfg.DataDir = *dataDir

	if cfg.Origin == "" || cfg.Destination == "" {
		logger.Error("CLI", "both -origin and -destination are required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("CLI", fmt.Sprintf("create data directory: %v", err))
		os.Exit(1)
	}

	logger.Section("Data Sync")
	if err := syncData(ctx, cfg.DataDir, *sync); err != nil {
		logger.Error("SYNC", fmt.Sprintf("%v", err))
		os.Exit(1)
	}

	p := local.New(cfg.DataDir)

	logger.Section("Planning")
	start := time.Now()
	result, err := facade.Plan(ctx, p, facade.Params{
		Origin:       cfg.Origin,
		Destination:  cfg.Destination,
		JumpCapacity: cfg.JumpCapacity,
		MinHop:       cfg.MinHop,
		Deviation:    cfg.Deviation,
		CargoSpace:   cfg.CargoSpace,
		MinRange:     cfg.MinRange,
	})
	if err != nil {
		logger.Error("PLAN", err.Error())
		os.Exit(exitCode(err))
	}
	logger.Stats("Plan duration", time.Since(start).Round(time.Millisecond))
	logger.Stats("Sections", len(result.Sections))

	logger.Section("Result")
	fmt.Print(facade.Render(result))
}

// syncData refreshes the on-disk shard collections from the remote bulk
// dumps when they're stale (or always, if force is true). A fresh data
// directory (no sync.db yet, no shard files) is treated the same as a
// stale one: remote.Syncer.Sync downloads whatever collections it hasn't
// recorded as recently synced.
func syncData(ctx context.Context, dataDir string, force bool) error {
	state, err := db.Open(dataDir)
	if err != nil {
		return fmt.Errorf("open sync state: %w", err)
	}
	defer state.Close()

	rawDir := filepath.Join(dataDir, "raw")
	syncer := remote.New(dataDir, rawDir, state)
	return syncer.Sync(ctx, force)
}

// exitCode maps a planning error's kind to a process exit status, per
// SPEC_FULL.md §6/§7: DataMissing/NoRoute/InputInvalid are fatal plan
// failures (2); anything else is an unexpected error (1).
func exitCode(err error) int {
	switch {
	case planerr.Is(err, planerr.DataMissing),
		planerr.Is(err, planerr.NoRoute),
		planerr.Is(err, planerr.InputInvalid):
		return 2
	default:
		return 1
	}
}
