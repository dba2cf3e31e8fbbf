package cmd

import (
	"fmt"
	"os"

	"github.com/Jiang-Li/ACS-Internet/internal/pipeline"
	"github.com/spf13/cobra"
)

var flagTopN int

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute survey-weighted access statistics per dimension",
	Long: `Rebuild the schema in memory, then aggregate every configured condition
column over every dimension with survey weights: per-group percentages,
population estimates, national rates and the cross-condition comparison.
Results land in the output directory as CSVs, a markdown report and the
SQLite results table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCommonFlags(cmd)
		if cmd.Flags().Changed("top") {
			cfg.TopN = flagTopN
		}

		s, err := pipeline.BuildSchema(cfg)
		if err != nil {
			return err
		}
		for _, w := range s.Warnings {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
		}

		a, err := pipeline.Analyze(cmd.Context(), cfg, s)
		if err != nil {
			return err
		}

		m, err := pipeline.LoadManifest(cfg.OutputDir)
		if err != nil {
			// No schema run preceded this one; start a fresh manifest.
			m = pipeline.NewManifest(cfg, s)
		}
		if err := pipeline.WriteAnalysis(cfg, s, a, m); err != nil {
			return err
		}

		for _, n := range a.National {
			fmt.Printf("✓ %s: %.1f%% nationally\n", n.Condition, n.Percentage)
		}
		fmt.Printf("✓ Computed %d aggregations across %d workers\n", len(a.Results), cfg.Workers)
		fmt.Printf("✓ Wrote results to %s (run %s)\n", cfg.OutputDir, m.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addCommonFlags(analyzeCmd)
	analyzeCmd.Flags().IntVar(&flagTopN, "top", 0, "groups to list in the report extremes")
}
