package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/Jiang-Li/ACS-Internet/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set acsnet configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("fact_file: %s\n", cfg.FactFile)
		fmt.Printf("codebook_file: %s\n", cfg.CodebookFile)
		fmt.Printf("output_dir: %s\n", cfg.OutputDir)
		fmt.Printf("year: %d\n", cfg.Year)
		fmt.Printf("weight_column: %s\n", cfg.WeightColumn)
		fmt.Printf("required_columns: %s\n", strings.Join(cfg.RequiredColumns, ", "))
		fmt.Printf("exclude_columns: %s\n", strings.Join(cfg.ExcludeColumns, ", "))
		fmt.Printf("dimension_columns: %s\n", strings.Join(cfg.DimensionColumns, ", "))
		for _, c := range cfg.Conditions {
			line := fmt.Sprintf("condition: %s positive=%g", c.Column, c.Positive)
			if c.Sentinel != nil {
				line += fmt.Sprintf(" sentinel=%g", *c.Sentinel)
			}
			fmt.Println(line)
		}
		fmt.Printf("income_buckets: %d\n", cfg.IncomeBuckets)
		fmt.Printf("top_n: %d\n", cfg.TopN)
		fmt.Printf("workers: %d\n", cfg.Workers)
		fmt.Printf("max_rows: %d\n", cfg.MaxRows)
		fmt.Printf("zip_fact: %t\n", cfg.ZipFact)
		fmt.Printf("sqlite_file: %s\n", cfg.SQLiteFile)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "fact_file":
			cfg.FactFile = val
		case "codebook_file":
			cfg.CodebookFile = val
		case "output_dir":
			cfg.OutputDir = val
		case "year":
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid int for year: %w", err)
			}
			cfg.Year = i
		case "weight_column":
			cfg.WeightColumn = val
		case "income_buckets":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for income_buckets: %v", val)
			}
			cfg.IncomeBuckets = i
		case "top_n":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for top_n: %v", val)
			}
			cfg.TopN = i
		case "workers":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for workers: %v", val)
			}
			cfg.Workers = i
		case "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for max_rows: %v", val)
			}
			cfg.MaxRows = i
		case "zip_fact":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for zip_fact: %v", val)
			}
			cfg.ZipFact = b
		case "sqlite_file":
			cfg.SQLiteFile = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfgpkg.Default()
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("✓ Wrote default config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
}
