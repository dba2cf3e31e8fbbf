package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Jiang-Li/ACS-Internet/internal/loader"
	"github.com/Jiang-Li/ACS-Internet/internal/profile"
	"github.com/Jiang-Li/ACS-Internet/internal/utils"
	"github.com/spf13/cobra"
)

var (
	descTopK int
	descJSON bool
)

var describeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "Summarize the columns of an extract before building the schema",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyCommonFlags(cmd)
		path := cfg.FactFile
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no extract given (pass a file or set fact_file)")
		}

		tbl, err := loader.Load(path, loader.Options{MaxRows: cfg.MaxRows})
		if err != nil {
			return err
		}
		rep := profile.Describe(tbl, filepath.Base(path), descTopK)
		if descJSON {
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Print(rep.Summary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().IntVar(&flagMaxRows, "max-rows", 0, "maximum rows to load (0 = unlimited)")
	describeCmd.Flags().IntVar(&descTopK, "top", 5, "frequent values to list per coded column")
	describeCmd.Flags().BoolVar(&descJSON, "json", false, "emit the raw report as JSON")
}
