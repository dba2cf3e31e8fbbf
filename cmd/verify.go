package cmd

import (
	"fmt"
	"os"

	"github.com/Jiang-Li/ACS-Internet/internal/pipeline"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check persisted dimension tables against the source data",
	Long: `Rebuild the schema from the extract and codebook, then compare the
dimension CSVs in the output directory against it. Verification fails when
a table misses an observed code or labels one differently; codes declared
but never observed are reported without failing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCommonFlags(cmd)

		s, err := pipeline.BuildSchema(cfg)
		if err != nil {
			return err
		}

		v, err := pipeline.VerifySchema(cfg, s)
		if err != nil {
			return err
		}

		for _, p := range v.Problems {
			fmt.Fprintf(os.Stderr, "✗ %s\n", p)
		}
		for _, r := range v.Results {
			if r.OK() {
				fmt.Printf("✓ %s\n", r.Summary())
			} else {
				fmt.Fprintf(os.Stderr, "✗ %s\n", r.Summary())
				for _, c := range r.Missing {
					fmt.Fprintf(os.Stderr, "  missing code %s\n", c)
				}
				for _, mm := range r.Mismatches {
					fmt.Fprintf(os.Stderr, "  code %s labeled %q, want %q\n", mm.Code, mm.Got, mm.Want)
				}
			}
		}

		if !v.OK() {
			return fmt.Errorf("verification failed for %s", cfg.OutputDir)
		}
		fmt.Printf("✓ Verified %d dimension tables\n", len(v.Results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	addCommonFlags(verifyCmd)
}
