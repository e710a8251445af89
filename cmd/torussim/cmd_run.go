package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/torus-coding/internal/engine"
	"github.com/talgya/torus-coding/internal/persistence"
	"github.com/talgya/torus-coding/internal/torus"
	"github.com/talgya/torus-coding/internal/words"
)

// maxPrintedSymbols truncates long sequences in text output.
const maxPrintedSymbols = 2000

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one trajectory headless and print its coding sequence",
		Long: `run ticks the simulation without a frame clock until the rational
cycle closes or --max-ticks is reached, then prints the sequence and its
n-words.

Examples:
  torussim run --ratio 2/5
  torussim run --preset golden --max-ticks 20000 --n 4
  torussim run --tangent 1.414 --speed 25 --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			sim := engine.NewSimulation(cfg.Simulation)
			if err := applyRunFlags(cmd, sim); err != nil {
				return err
			}

			maxTicks, _ := cmd.Flags().GetInt("max-ticks")
			ticks := drive(sim, maxTicks)
			snap := sim.Snapshot()

			profileLen, _ := cmd.Flags().GetInt("profile")
			var profile []int
			if profileLen > 0 {
				profile = words.Profile([]byte(snap.Sequence), profileLen)
			}

			if save, _ := cmd.Flags().GetBool("save"); save {
				if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0755); err != nil {
					return fmt.Errorf("create data dir: %w", err)
				}
				db, err := persistence.Open(cfg.Storage.Path)
				if err != nil {
					return fmt.Errorf("open database: %w", err)
				}
				defer db.Close()
				run, err := db.Archive(snap)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "saved run %s\n", run.ID)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]any{
					"ticks":           ticks,
					"config":          snap.Config,
					"t":               snap.T,
					"completed_cycle": snap.CompletedCycle,
					"sequence":        snap.Sequence,
					"word_length":     snap.WordLength,
					"word_count":      snap.WordCount,
					"words":           snap.Words,
					"profile":         profile,
				})
			}

			printRun(snap, ticks, profile)
			return nil
		},
	}

	cmd.Flags().Float64("tangent", 0, "Irrational-mode slope")
	cmd.Flags().String("ratio", "", "Rational slope p/q (switches to rational mode)")
	cmd.Flags().String("preset", "", "Named slope preset (golden, silver, sqrt2, ...)")
	cmd.Flags().Float64("speed", 0, "Step rate")
	cmd.Flags().Int("n", 0, "n-word length")
	cmd.Flags().Int("max-ticks", 100000, "Stop after this many ticks")
	cmd.Flags().Int("profile", 0, "Also print factor complexity p(1..N)")
	cmd.Flags().Bool("save", false, "Archive the run to the database")
	return cmd
}

// applyRunFlags pushes the slope, speed and n-word flags through the
// simulation's setters. A rejected value is an error for a batch run.
func applyRunFlags(cmd *cobra.Command, sim *engine.Simulation) error {
	if v, _ := cmd.Flags().GetString("ratio"); v != "" {
		p, q, err := parseRatio(v)
		if err != nil {
			return err
		}
		if !sim.SetRatio(p, q) {
			return fmt.Errorf("ratio %s rejected: p and q must be positive", v)
		}
		sim.SetMode(true)
	}
	if v, _ := cmd.Flags().GetString("preset"); v != "" {
		if !sim.SetPreset(v) {
			return fmt.Errorf("unknown preset %q", v)
		}
		sim.SetMode(false)
	}
	if cmd.Flags().Changed("tangent") {
		v, _ := cmd.Flags().GetFloat64("tangent")
		if !sim.SetTangent(v) {
			return fmt.Errorf("tangent %v rejected: must be positive", v)
		}
		sim.SetMode(false)
	}
	if cmd.Flags().Changed("speed") {
		v, _ := cmd.Flags().GetFloat64("speed")
		if !sim.SetSpeed(v) {
			return fmt.Errorf("speed %v rejected: must be positive", v)
		}
	}
	if cmd.Flags().Changed("n") {
		v, _ := cmd.Flags().GetInt("n")
		if !sim.SetNWordLength(v) {
			return fmt.Errorf("n-word length %d rejected: must be at least 1", v)
		}
	}
	return nil
}

// parseRatio parses "p/q".
func parseRatio(s string) (int, int, error) {
	ps, qs, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, fmt.Errorf("ratio %q: want p/q", s)
	}
	p, err := strconv.Atoi(strings.TrimSpace(ps))
	if err != nil {
		return 0, 0, fmt.Errorf("ratio %q: numerator: %w", s, err)
	}
	q, err := strconv.Atoi(strings.TrimSpace(qs))
	if err != nil {
		return 0, 0, fmt.Errorf("ratio %q: denominator: %w", s, err)
	}
	return p, q, nil
}

// drive starts the simulation and ticks it until it stops on its own or
// maxTicks is reached. It returns the number of ticks executed.
func drive(sim *engine.Simulation, maxTicks int) int {
	sim.Start()
	ticks := 0
	for ticks < maxTicks && sim.Running() {
		sim.Tick()
		ticks++
	}
	sim.Stop()
	return ticks
}

func printRun(snap engine.Snapshot, ticks int, profile []int) {
	cfg := snap.Config
	if cfg.UseRatio {
		fmt.Printf("slope:     %s (rational)\n", cfg.RatioString())
	} else {
		fmt.Printf("slope:     %.6f (irrational)\n", cfg.Tangent)
	}
	fmt.Printf("ticks:     %s\n", humanize.Comma(int64(ticks)))
	fmt.Printf("t:         %.6f (%.3f turns)\n", snap.T, snap.T/torus.TwoPi)
	if snap.Period > 0 {
		fmt.Printf("period:    %.6f, completed: %v\n", snap.Period, snap.CompletedCycle)
	}
	fmt.Printf("symbols:   %s\n", humanize.Comma(int64(len(snap.Sequence))))

	seq := snap.Sequence
	if len(seq) > maxPrintedSymbols {
		seq = seq[:maxPrintedSymbols] + "…"
	}
	fmt.Printf("sequence:  %s\n", seq)
	fmt.Printf("%d-words:   %d %v\n", snap.WordLength, snap.WordCount, snap.Words)

	if len(profile) > 0 {
		fmt.Printf("profile:   %v", profile)
		if words.IsSturmian(profile) {
			fmt.Print(" (n+1 at every length)")
		}
		fmt.Println()
	}
}
