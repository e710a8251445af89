package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/torus-coding/internal/persistence"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")

			db, err := persistence.Open(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			runs, err := db.RecentRuns(limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return json.NewEncoder(os.Stdout).Encode(runs)
			}

			if len(runs) == 0 {
				fmt.Println("No runs archived yet.")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tENDED\tSLOPE\tSYMBOLS\tWORDS\tCOMPLETE")
			for _, r := range runs {
				slope := fmt.Sprintf("%.6f", r.Slope())
				if r.UseRatio {
					slope = fmt.Sprintf("%d/%d", r.RatioP, r.RatioQ)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d (n=%d)\t%v\n",
					r.ID, humanize.Time(r.EndedAt), slope,
					humanize.Comma(int64(len(r.Sequence))), r.WordCount, r.WordLength, r.CompletedCycle)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int("limit", 20, "Number of runs to show")
	return cmd
}
