// Command trisim runs a garden simulation on a triangular lattice.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/trigrid/internal/api"
	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/config"
	"github.com/talgya/trigrid/internal/engine"
	"github.com/talgya/trigrid/internal/grid"
	"github.com/talgya/trigrid/internal/persistence"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "trisim:", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	slog.SetDefault(newLogger(cfg.LogFormat, level))

	slog.Info("trisim starting",
		"seed", cfg.Seed,
		"radius", cfg.BoardRadius,
		"cell_height", cfg.CellHeight,
		"cycles", cfg.Cycles,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Board ─────────────────────────────────────────────────────────
	geom := grid.NewGeometry(cfg.CellHeight)
	gen := board.DefaultGenConfig()
	gen.Radius = cfg.BoardRadius
	gen.Seed = cfg.Seed
	b := board.Generate(geom, gen)
	defineKinds(b)

	counts := board.TerrainCounts(b)
	for _, t := range []board.Terrain{board.TerrainSoil, board.TerrainRock, board.TerrainWater} {
		slog.Info("terrain", "type", board.TerrainName(t), "count", counts[t])
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(b)
	seedFertility(sim, b)
	placed, err := plantGarden(sim, b, cfg.Seed)
	if err != nil {
		slog.Error("failed to plant garden", "error", err)
		os.Exit(1)
	}
	slog.Info("garden planted", "entities", placed, "effects", sim.Effects.Len())

	// ── Journal ───────────────────────────────────────────────────────
	var journal *persistence.Journal
	if cfg.JournalEnabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			slog.Error("failed to create data directory", "error", err)
			os.Exit(1)
		}
		journal, err = persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open journal", "error", err)
			os.Exit(1)
		}
		defer journal.Close()
		if _, err := journal.BeginRun(ctx, cfg.Seed); err != nil {
			slog.Error("failed to begin run", "error", err)
			os.Exit(1)
		}
		sim.Attach(journal)
		slog.Info("journal opened", "path", cfg.DBPath)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var server *api.Server
	publish := func() {
		if server == nil {
			return
		}
		if err := server.Publish(api.Capture(sim, b)); err != nil {
			slog.Error("snapshot publish failed", "error", err)
		}
	}
	if cfg.APIPort > 0 {
		server = api.NewServer(cfg.APIPort)
		server.Start(ctx)
		publish()
	}

	var mark uint64
	saveCycle := func(cycle uint64) {
		if journal == nil {
			return
		}
		var events []engine.Event
		events, mark = sim.EventsSince(mark)
		if err := journal.SaveCycle(ctx, sim, events); err != nil {
			slog.Error("cycle save failed", "cycle", cycle, "error", err)
			return
		}
		if err := journal.SnapshotField(ctx, cycle, fieldShade, sim.Fields.Snapshot(fieldShade)); err != nil {
			slog.Error("field snapshot failed", "cycle", cycle, "error", err)
		}
	}
	sim.OnCycle = func(cycle uint64) {
		slog.Info("cycle complete",
			"cycle", cycle,
			"entities", b.EntityCount(),
			"effects", sim.Effects.Len(),
			"shade", sim.Fields.Total(fieldShade),
			"killed", sim.Stats.Killed,
		)
		saveCycle(cycle)
		publish()
	}

	// ── Run ───────────────────────────────────────────────────────────
	runner := engine.NewRunner(sim)
	if cfg.Cycles > 0 {
		runner.Interval = 0
	} else {
		fmt.Println("Running until interrupted... (Ctrl+C to stop)")
	}
	if err := runner.Run(ctx, uint64(cfg.Cycles)); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "error", err)
	}

	// Final save for a run stopped mid-cycle.
	if journal != nil && !sim.Bus.IsPlayerTurn() {
		saveCycle(sim.CurrentCycle())
	}

	fmt.Printf("\n%s cells, %s entities after %s cycles: %s grown, %s died, %s resources allocated.\n",
		humanize.Comma(int64(b.CellCount())),
		humanize.Comma(int64(b.EntityCount())),
		humanize.Comma(int64(sim.CurrentCycle())),
		humanize.Comma(int64(sim.Stats.Grown)),
		humanize.Comma(int64(sim.Stats.Killed)),
		humanize.Comma(int64(sim.Stats.Allocations)),
	)
	if journal != nil {
		if info, err := os.Stat(cfg.DBPath); err == nil {
			fmt.Printf("Journal %s (%s), run %s\n", cfg.DBPath, humanize.Bytes(uint64(info.Size())), journal.RunID())
		}
	}
}

// newLogger picks a text handler for terminals and JSON otherwise, unless
// the format is forced.
func newLogger(format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	fd := os.Stdout.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	if format == "json" || (format == "auto" && !tty) {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
