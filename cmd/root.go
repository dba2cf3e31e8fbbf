package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/Jiang-Li/ACS-Internet/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags (wired later to config/viper)
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "acsnet",
	Short: "acsnet builds and analyzes the ACS internet-access star schema",
	Long: `acsnet turns an IPUMS ACS person-level extract into a star schema of
dimension tables and a fact table, then computes survey-weighted internet
and device access statistics across states, demographics and income.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.acsnet/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = cfgpkg.Default()
		return
	}
	cfg = c
}

// applyCommonFlags copies the shared per-command overrides onto the loaded
// configuration, flag value winning only when the flag was set.
func applyCommonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("input") {
		cfg.FactFile = flagInput
	}
	if f.Changed("codebook") {
		cfg.CodebookFile = flagCodebook
	}
	if f.Changed("output") {
		cfg.OutputDir = flagOutput
	}
	if f.Changed("year") {
		cfg.Year = flagYear
	}
	if f.Changed("max-rows") {
		cfg.MaxRows = flagMaxRows
	}
	if f.Changed("workers") {
		cfg.Workers = flagWorkers
	}
}

var (
	flagInput    string
	flagCodebook string
	flagOutput   string
	flagYear     int
	flagMaxRows  int
	flagWorkers  int
)

// addCommonFlags registers the overrides shared by schema, analyze and
// verify.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagInput, "input", "i", "", "ACS extract file (.csv, .csv.gz or .zip)")
	cmd.Flags().StringVar(&flagCodebook, "codebook", "", "codebook file (.xml DDI, .json or .yaml)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output directory")
	cmd.Flags().IntVar(&flagYear, "year", 0, "survey year used in output names")
	cmd.Flags().IntVar(&flagMaxRows, "max-rows", 0, "maximum rows to load (0 = unlimited)")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel aggregation workers")
}
