// Package pipeline wires loading, reconciliation, bucketing and weighted
// aggregation into the schema and analysis runs the CLI exposes.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Jiang-Li/ACS-Internet/internal/bucket"
	"github.com/Jiang-Li/ACS-Internet/internal/codebook"
	"github.com/Jiang-Li/ACS-Internet/internal/config"
	"github.com/Jiang-Li/ACS-Internet/internal/dimension"
	"github.com/Jiang-Li/ACS-Internet/internal/fact"
	"github.com/Jiang-Li/ACS-Internet/internal/loader"
	"github.com/Jiang-Li/ACS-Internet/internal/report"
	"github.com/Jiang-Li/ACS-Internet/internal/store"
	"github.com/Jiang-Li/ACS-Internet/internal/utils"
	"github.com/Jiang-Li/ACS-Internet/internal/weighted"
)

// Derived column names for the bucketed measures.
const (
	AgeBucketColumn    = "AGE_BUCKET"
	IncomeBucketColumn = "INCTOT_BUCKET"
)

// Schema is the reconciled star schema: the projected fact table with its
// derived bucket columns, plus one dimension table per coded or derived
// variable.
type Schema struct {
	Table      *fact.Table
	Dimensions []dimension.Table
	Income     bucket.Outcome
	Warnings   []string
}

// Dimension returns the dimension table for a variable, if one was built.
func (s *Schema) Dimension(variable string) (dimension.Table, bool) {
	for _, d := range s.Dimensions {
		if d.Variable == variable {
			return d, true
		}
	}
	return dimension.Table{}, false
}

// BuildSchema loads the extract and codebook and produces the reconciled
// schema. Labeling gaps become warnings, never errors: every observed code
// survives into its dimension table.
func BuildSchema(cfg *config.Global) (*Schema, error) {
	if cfg.FactFile == "" {
		return nil, fmt.Errorf("no fact file configured (set fact_file or pass --input)")
	}

	raw, err := loader.Load(cfg.FactFile, loader.Options{MaxRows: cfg.MaxRows})
	if err != nil {
		return nil, fmt.Errorf("load extract: %w", err)
	}
	tbl, err := raw.Project(cfg.ExcludeColumns, cfg.RequiredColumns)
	if err != nil {
		return nil, fmt.Errorf("project extract: %w", err)
	}

	s := &Schema{Table: tbl}

	var idx *codebook.Index
	if cfg.CodebookFile != "" {
		idx, err = codebook.LoadFile(cfg.CodebookFile)
		if err != nil {
			return nil, fmt.Errorf("load codebook: %w", err)
		}
	} else {
		s.warnf("no codebook configured; dimension tables will carry codes only")
	}

	for _, col := range cfg.DimensionColumns {
		if !tbl.HasColumn(col) {
			s.warnf("dimension column %s not present in extract, skipped", col)
			continue
		}
		observed, err := tbl.DistinctCodes(col)
		if err != nil {
			return nil, fmt.Errorf("dimension %s: %w", col, err)
		}
		var def codebook.VariableDefinition
		ok := false
		if idx != nil {
			def, ok = idx.Definition(col)
		}
		if !ok {
			if idx != nil {
				s.warnf("no codebook entry for %s; dimension carries codes only", col)
			}
			s.Dimensions = append(s.Dimensions, dimension.BuildUnlabeled(col, observed))
			continue
		}
		s.Dimensions = append(s.Dimensions, dimension.Build(col, observed, def))
	}

	if err := s.deriveAge(); err != nil {
		return nil, err
	}
	if err := s.deriveIncome(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) warnf(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

func (s *Schema) deriveAge() error {
	ages, ok := s.Table.Numeric("AGE")
	if !ok {
		s.warnf("no AGE column; age buckets skipped")
		return nil
	}
	labels := bucket.AgeBands().Apply(ages)
	if err := s.Table.AppendLabels(AgeBucketColumn, labels); err != nil {
		return fmt.Errorf("derive %s: %w", AgeBucketColumn, err)
	}
	s.Dimensions = append(s.Dimensions, dimension.FromLabels(AgeBucketColumn, labels, "Age group"))
	return nil
}

func (s *Schema) deriveIncome(cfg *config.Global) error {
	incomes, ok := s.Table.Numeric("INCTOT")
	if !ok {
		s.warnf("no INCTOT column; income buckets skipped")
		return nil
	}
	cut := bucket.IncomeCut()
	if cfg.IncomeBuckets > 0 && cfg.IncomeBuckets <= len(cut.Labels) {
		cut.Buckets = cfg.IncomeBuckets
	} else if cfg.IncomeBuckets > len(cut.Labels) {
		s.warnf("income_buckets %d exceeds the %d available tiers; using %d",
			cfg.IncomeBuckets, len(cut.Labels), cut.Buckets)
	}
	labels, outcome := cut.Apply(incomes)
	s.Income = outcome
	if outcome == bucket.OutcomeFallback {
		s.warnf("income quantiles infeasible; fixed dollar bands used instead")
	}
	if err := s.Table.AppendLabels(IncomeBucketColumn, labels); err != nil {
		return fmt.Errorf("derive %s: %w", IncomeBucketColumn, err)
	}
	s.Dimensions = append(s.Dimensions, dimension.FromLabels(IncomeBucketColumn, labels, "Personal income tier"))
	return nil
}

// WriteSchema persists the schema under cfg.OutputDir: one CSV per
// dimension, the fact CSV (optionally zipped), the SQLite export, and the
// run manifest. It returns the manifest it wrote.
func WriteSchema(cfg *config.Global, s *Schema) (*Manifest, error) {
	if err := utils.EnsureDir(cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	m := NewManifest(cfg, s)
	for _, dim := range s.Dimensions {
		path, err := store.WriteDimensionCSV(cfg.OutputDir, dim)
		if err != nil {
			return nil, fmt.Errorf("write dimension %s: %w", dim.Variable, err)
		}
		m.AddOutput(filepath.Base(path))
	}

	factName := fmt.Sprintf("fact_acs_%d.csv", cfg.Year)
	if cfg.ZipFact {
		factName += ".zip"
	}
	if err := store.WriteFactCSV(filepath.Join(cfg.OutputDir, factName), s.Table, cfg.ZipFact); err != nil {
		return nil, fmt.Errorf("write fact: %w", err)
	}
	m.AddOutput(factName)

	if cfg.SQLiteFile != "" {
		db, err := store.OpenDB(filepath.Join(cfg.OutputDir, cfg.SQLiteFile))
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if err := db.ExportFact(s.Table); err != nil {
			return nil, err
		}
		for _, dim := range s.Dimensions {
			if err := db.ExportDimension(dim); err != nil {
				return nil, err
			}
		}
		m.AddOutput(cfg.SQLiteFile)
	}

	if err := m.Save(cfg.OutputDir); err != nil {
		return nil, err
	}
	return m, nil
}

// Analysis holds every per-dimension aggregation of one run plus the
// roll-ups derived from them.
type Analysis struct {
	National   []report.ConditionRate
	Results    []report.DimensionResult
	Comparison []weighted.Pair
	CompareA   string
	CompareB   string
}

// Analyze aggregates every condition over every groupable dimension.
// Condition columns themselves are not grouped by; their dimension tables
// exist for labeling only. Aggregations run on a small worker pool since
// each one scans the full table independently.
func Analyze(ctx context.Context, cfg *config.Global, s *Schema) (*Analysis, error) {
	conditionCols := make(map[string]bool, len(cfg.Conditions))
	for _, c := range cfg.Conditions {
		conditionCols[c.Column] = true
	}

	type job struct {
		idx  int
		dim  dimension.Table
		cond config.Condition
	}
	var jobs []job
	for _, cond := range cfg.Conditions {
		for _, dim := range s.Dimensions {
			if conditionCols[dim.Variable] {
				continue
			}
			jobs = append(jobs, job{idx: len(jobs), dim: dim, cond: cond})
		}
	}

	results := make([]report.DimensionResult, len(jobs))
	errs := make([]error, len(jobs))

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}

	jobCh := make(chan job)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobCh {
				if ctx.Err() != nil {
					errs[j.idx] = ctx.Err()
					continue
				}
				stats, err := weighted.Aggregate(s.Table, weighted.Options{
					GroupBy:   j.dim.Variable,
					Weight:    cfg.WeightColumn,
					Condition: j.cond.Column,
					Positive:  j.cond.Positive,
					Sentinel:  j.cond.Sentinel,
				})
				if err != nil {
					errs[j.idx] = fmt.Errorf("aggregate %s by %s: %w", j.cond.Column, j.dim.Variable, err)
					continue
				}
				stats = weighted.MergeLabels(stats, j.dim)
				results[j.idx] = report.DimensionResult{
					Variable:  j.dim.Variable,
					Condition: j.cond.Column,
					Stats:     stats,
					Summary:   weighted.Summarize(stats, cfg.TopN),
				}
			}
		}()
	}
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	a := &Analysis{Results: results}
	for _, cond := range cfg.Conditions {
		pct, pop, err := weighted.Rate(s.Table, weighted.Options{
			Weight:    cfg.WeightColumn,
			Condition: cond.Column,
			Positive:  cond.Positive,
			Sentinel:  cond.Sentinel,
		})
		if err != nil {
			return nil, fmt.Errorf("national rate for %s: %w", cond.Column, err)
		}
		a.National = append(a.National, report.ConditionRate{
			Condition:  cond.Column,
			Percentage: pct,
			Population: pop,
		})
	}

	a.compare(cfg)
	return a, nil
}

// compare lines the first two conditions up over the leading dimension
// column, the per-state smartphone vs internet gap in the default setup.
func (a *Analysis) compare(cfg *config.Global) {
	if len(cfg.Conditions) < 2 || len(cfg.DimensionColumns) == 0 {
		return
	}
	a.CompareA = cfg.Conditions[0].Column
	a.CompareB = cfg.Conditions[1].Column
	lead := cfg.DimensionColumns[0]

	var first, second []weighted.Statistic
	for _, r := range a.Results {
		if r.Variable != lead {
			continue
		}
		switch r.Condition {
		case a.CompareA:
			first = r.Stats
		case a.CompareB:
			second = r.Stats
		}
	}
	if first == nil || second == nil {
		return
	}
	a.Comparison = weighted.Join(first, second)
}

// Report assembles the renderable report for this analysis.
func (a *Analysis) Report(m *Manifest, s *Schema) *report.Report {
	return &report.Report{
		RunID:      m.ID,
		Year:       m.Year,
		Generated:  m.CreatedAt,
		Input:      m.Input,
		Rows:       s.Table.Len(),
		National:   a.National,
		Dimensions: a.Results,
		Comparison: a.Comparison,
		CompareA:   a.CompareA,
		CompareB:   a.CompareB,
		Warnings:   s.Warnings,
	}
}

// WriteAnalysis persists one CSV per aggregation, the markdown report, and
// the SQLite results table, then records the outputs on the manifest.
func WriteAnalysis(cfg *config.Global, s *Schema, a *Analysis, m *Manifest) error {
	if err := utils.EnsureDir(cfg.OutputDir); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}

	for _, r := range a.Results {
		name := fmt.Sprintf("%s_by_%s.csv", strings.ToLower(r.Condition), strings.ToLower(r.Variable))
		if err := store.WriteStatisticsCSV(filepath.Join(cfg.OutputDir, name), r.Variable, r.Stats); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		m.AddOutput(name)
	}

	rep := a.Report(m, s)
	if err := utils.SafeWriteFile(filepath.Join(cfg.OutputDir, "report.md"), []byte(rep.Markdown())); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	m.AddOutput("report.md")

	if cfg.SQLiteFile != "" {
		db, err := store.OpenDB(filepath.Join(cfg.OutputDir, cfg.SQLiteFile))
		if err != nil {
			return err
		}
		defer db.Close()
		for _, r := range a.Results {
			if err := db.ExportStatistics(m.ID, r.Variable, r.Condition, r.Stats); err != nil {
				return err
			}
		}
		m.AddOutput(cfg.SQLiteFile)
	}

	return m.Save(cfg.OutputDir)
}
