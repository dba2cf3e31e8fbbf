package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Condition describes one yes/no survey column to aggregate: rows matching
// Positive count toward the rate, rows matching Sentinel are excluded from
// both sides of it.
type Condition struct {
	Column   string   `mapstructure:"column" yaml:"column"`
	Positive float64  `mapstructure:"positive" yaml:"positive"`
	Sentinel *float64 `mapstructure:"sentinel" yaml:"sentinel,omitempty"`
}

// Global configuration structure.
type Global struct {
	FactFile     string `mapstructure:"fact_file" yaml:"fact_file"`
	CodebookFile string `mapstructure:"codebook_file" yaml:"codebook_file"`
	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir"`
	Year         int    `mapstructure:"year" yaml:"year"`

	WeightColumn     string   `mapstructure:"weight_column" yaml:"weight_column"`
	RequiredColumns  []string `mapstructure:"required_columns" yaml:"required_columns"`
	ExcludeColumns   []string `mapstructure:"exclude_columns" yaml:"exclude_columns"`
	DimensionColumns []string `mapstructure:"dimension_columns" yaml:"dimension_columns"`

	Conditions []Condition `mapstructure:"conditions" yaml:"conditions"`

	IncomeBuckets int  `mapstructure:"income_buckets" yaml:"income_buckets"`
	TopN          int  `mapstructure:"top_n" yaml:"top_n"`
	Workers       int  `mapstructure:"workers" yaml:"workers"`
	MaxRows       int  `mapstructure:"max_rows" yaml:"max_rows"`
	ZipFact       bool `mapstructure:"zip_fact" yaml:"zip_fact"`

	SQLiteFile string `mapstructure:"sqlite_file" yaml:"sqlite_file"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.acsnet/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".acsnet")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("ACSNET")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("output_dir", "output")
	v.SetDefault("year", 2023)
	v.SetDefault("weight_column", "PERWT")
	v.SetDefault("income_buckets", 7)
	v.SetDefault("top_n", 5)
	v.SetDefault("workers", 4)
	v.SetDefault("max_rows", 0)
	v.SetDefault("zip_fact", false)
	v.SetDefault("sqlite_file", "acs.db")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".acsnet")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&c)
	return &c, nil
}

// applyDefaults fills the slice-valued settings viper defaults handle
// poorly. An explicit empty list in the file is treated the same as absent.
func applyDefaults(c *Global) {
	if len(c.RequiredColumns) == 0 {
		c.RequiredColumns = []string{"PERWT", "AGE", "HHINCOME", "INCTOT"}
	}
	if len(c.ExcludeColumns) == 0 {
		c.ExcludeColumns = []string{"PERNUM", "YEAR"}
	}
	if len(c.DimensionColumns) == 0 {
		c.DimensionColumns = []string{
			"STATEFIP", "REGION", "EDUC", "RACE", "SEX", "EMPSTAT",
			"LANGUAGE", "DIFFEYE", "DIFFSENS", "DIFFCARE", "DIFFREM",
			"CINETHH", "CISMRTPHN",
		}
	}
	if len(c.Conditions) == 0 {
		nine := 9.0
		c.Conditions = []Condition{
			{Column: "CINETHH", Positive: 1, Sentinel: &nine},
			{Column: "CISMRTPHN", Positive: 1, Sentinel: &nine},
		}
	}
}

// Default returns the configuration that Load would produce with no file
// and no environment overrides.
func Default() *Global {
	c := &Global{
		OutputDir:     "output",
		Year:          2023,
		WeightColumn:  "PERWT",
		IncomeBuckets: 7,
		TopN:          5,
		Workers:       4,
		SQLiteFile:    "acs.db",
	}
	applyDefaults(c)
	return c
}
