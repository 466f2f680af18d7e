// Package engine provides the phase-driven simulation loop.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/trigrid/internal/trigger"
)

// Runner drives a simulation forward in real time, one phase per interval.
type Runner struct {
	Sim      *Simulation
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base phase interval (default 250ms)

	// OnPhase runs after every phase broadcast.
	OnPhase func(t trigger.Trigger)
}

// NewRunner creates a runner with default pacing.
func NewRunner(sim *Simulation) *Runner {
	return &Runner{
		Sim:      sim,
		Speed:    1.0,
		Interval: 250 * time.Millisecond,
	}
}

// Run advances phases until ctx is cancelled or maxCycles complete cycles
// have run. A maxCycles of zero runs until cancellation.
func (r *Runner) Run(ctx context.Context, maxCycles uint64) error {
	slog.Info("simulation runner started", "cycle", r.Sim.CurrentCycle(), "speed", r.Speed)
	defer func() {
		slog.Info("simulation runner stopped", "cycle", r.Sim.CurrentCycle())
	}()

	start := r.Sim.CurrentCycle()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Speed <= 0 {
			// Paused: check again shortly.
			if err := sleep(ctx, 100*time.Millisecond); err != nil {
				return err
			}
			continue
		}

		began := time.Now()
		t := r.Sim.AdvancePhase()
		if r.OnPhase != nil {
			r.OnPhase(t)
		}
		if maxCycles > 0 && t.Kind == trigger.PlayerTurn && t.Cycle-start >= maxCycles {
			return nil
		}

		// Sleep for the remainder of the interval, adjusted for speed.
		elapsed := time.Since(began)
		target := time.Duration(float64(r.Interval) / r.Speed)
		if elapsed < target {
			if err := sleep(ctx, target-elapsed); err != nil {
				return err
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PhaseTime returns a human-readable position in the cycle.
func PhaseTime(cycle uint64, phase trigger.Kind) string {
	return fmt.Sprintf("Cycle %d, %s", cycle, phase)
}
