package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/torus-coding/internal/engine"
	"github.com/talgya/torus-coding/internal/phi"
	"github.com/talgya/torus-coding/internal/torus"
	"github.com/talgya/torus-coding/internal/words"
)

// surveyRow is the complexity result for one slope.
type surveyRow struct {
	Name     string  `json:"name"`
	Slope    float64 `json:"slope"`
	Symbols  int     `json:"symbols"`
	Profile  []int   `json:"profile"`
	Sturmian bool    `json:"sturmian"`
	Excess   []int   `json:"mismatches,omitempty"`
}

func newSurveyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "survey",
		Short: "Compare factor complexity across the slope presets",
		Long: `survey runs every irrational preset (or the configured tangent with
--tangent) for the same number of ticks and reports p(n) for n = 1..N.
A Sturmian coding shows p(n) = n+1 at every length.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ticks, _ := cmd.Flags().GetInt("ticks")
			maxN, _ := cmd.Flags().GetInt("max-n")

			var targets []phi.Preset
			if cmd.Flags().Changed("tangent") {
				v, _ := cmd.Flags().GetFloat64("tangent")
				if !torus.ValidSlope(v) {
					return fmt.Errorf("tangent %v rejected: must be positive", v)
				}
				targets = []phi.Preset{{Name: "custom", Label: fmt.Sprint(v), Value: v}}
			} else {
				targets = phi.Presets()
			}

			rows := make([]surveyRow, 0, len(targets))
			for _, p := range targets {
				simCfg := cfg.Simulation
				simCfg.UseRatio = false
				simCfg.Tangent = p.Value
				rows = append(rows, surveySlope(p.Name, simCfg, ticks, maxN))
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(os.Stdout).Encode(rows)
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PRESET\tSLOPE\tSYMBOLS\tPROFILE\tSTURMIAN")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%.6f\t%s\t%v\t%v\n", r.Name, r.Slope, humanize.Comma(int64(r.Symbols)), r.Profile, r.Sturmian)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int("ticks", 20000, "Ticks per slope")
	cmd.Flags().Int("max-n", 6, "Longest factor length to count")
	cmd.Flags().Float64("tangent", 0, "Survey a single slope instead of the presets")
	return cmd
}

// surveySlope runs one configuration and profiles its coding sequence.
func surveySlope(name string, cfg torus.Config, ticks, maxN int) surveyRow {
	sim := engine.NewSimulation(cfg)
	drive(sim, ticks)
	seq := []byte(sim.Snapshot().Sequence)

	profile := words.Profile(seq, maxN)
	return surveyRow{
		Name:     name,
		Slope:    cfg.EffectiveSlope(),
		Symbols:  len(seq),
		Profile:  profile,
		Sturmian: words.IsSturmian(profile),
		Excess:   words.Mismatches(profile),
	}
}
