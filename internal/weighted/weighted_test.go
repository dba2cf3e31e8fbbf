package weighted

import (
	"errors"
	"math"
	"testing"

	"github.com/Jiang-Li/ACS-Internet/internal/codebook"
	"github.com/Jiang-Li/ACS-Internet/internal/dimension"
	"github.com/Jiang-Li/ACS-Internet/internal/fact"
)

func newTable(t *testing.T, cols []string, data map[string][]float64) *fact.Table {
	t.Helper()
	tbl, err := fact.New(cols, data)
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	return tbl
}

func sentinel(v float64) *float64 { return &v }

func TestAggregateSentinelFiltering(t *testing.T) {
	tbl := newTable(t,
		[]string{"STATEFIP", "PERWT", "CINETHH"},
		map[string][]float64{
			"STATEFIP": {1, 1, 1, 1},
			"PERWT":    {10, 10, 5, 5},
			"CINETHH":  {1, 0, 1, 9},
		},
	)
	opt := DefaultOptions()
	opt.GroupBy = "STATEFIP"
	opt.Weight = "PERWT"
	opt.Condition = "CINETHH"
	opt.Sentinel = sentinel(9)

	stats, err := Aggregate(tbl, opt)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("groups = %d, want 1", len(stats))
	}
	s := stats[0]
	if s.Group != codebook.Numeric(1) {
		t.Fatalf("group = %v, want 1", s.Group)
	}
	if s.Population != 25 {
		t.Fatalf("population = %v, want 25 (sentinel row excluded)", s.Population)
	}
	if !almostEqual(s.Percentage, 60.0, 1e-9) {
		t.Fatalf("percentage = %v, want 60.0", s.Percentage)
	}
}

func TestAggregateUnitWeightsMatchUnweightedFraction(t *testing.T) {
	tbl := newTable(t,
		[]string{"EDUC", "PERWT", "CINETHH"},
		map[string][]float64{
			"EDUC":    {1, 1, 1, 1, 2, 2},
			"PERWT":   {1, 1, 1, 1, 1, 1},
			"CINETHH": {1, 1, 1, 0, 1, 0},
		},
	)
	opt := DefaultOptions()
	opt.GroupBy = "EDUC"
	opt.Weight = "PERWT"
	opt.Condition = "CINETHH"

	stats, err := Aggregate(tbl, opt)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("groups = %d, want 2", len(stats))
	}
	byGroup := map[string]Statistic{}
	for _, s := range stats {
		byGroup[s.Group.String()] = s
	}
	if got := byGroup["1"].Percentage; !almostEqual(got, 75.0, 1e-12) {
		t.Fatalf("group 1 percentage = %v, want exactly 75", got)
	}
	if got := byGroup["2"].Percentage; !almostEqual(got, 50.0, 1e-12) {
		t.Fatalf("group 2 percentage = %v, want exactly 50", got)
	}
	if byGroup["1"].Population != 4 || byGroup["2"].Population != 2 {
		t.Fatalf("populations = %v, %v", byGroup["1"].Population, byGroup["2"].Population)
	}
}

func TestAggregateZeroWeightGroup(t *testing.T) {
	tbl := newTable(t,
		[]string{"SEX", "PERWT", "CINETHH"},
		map[string][]float64{
			"SEX":     {1, 1, 2, 2},
			"PERWT":   {10, 5, 0, 0},
			"CINETHH": {1, 0, 1, 1},
		},
	)
	opt := DefaultOptions()
	opt.GroupBy = "SEX"
	opt.Weight = "PERWT"
	opt.Condition = "CINETHH"

	stats, err := Aggregate(tbl, opt)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	byGroup := map[string]Statistic{}
	for _, s := range stats {
		byGroup[s.Group.String()] = s
	}
	zero := byGroup["2"]
	if zero.Percentage != 0 {
		t.Fatalf("zero-weight percentage = %v, want 0", zero.Percentage)
	}
	if zero.Population != 0 {
		t.Fatalf("zero-weight population = %v, want 0", zero.Population)
	}
}

func TestAggregateOrdering(t *testing.T) {
	tbl := newTable(t,
		[]string{"REGION", "PERWT", "CINETHH"},
		map[string][]float64{
			"REGION":  {3, 1, 2, 4},
			"PERWT":   {10, 10, 10, 10},
			"CINETHH": {0, 1, 1, 0},
		},
	)
	opt := DefaultOptions()
	opt.GroupBy = "REGION"
	opt.Weight = "PERWT"
	opt.Condition = "CINETHH"

	stats, err := Aggregate(tbl, opt)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// 1 and 2 tie at 100 (ascending code), then 3 and 4 tie at 0
	want := []string{"1", "2", "3", "4"}
	for i, w := range want {
		if stats[i].Group.String() != w {
			t.Fatalf("stats[%d] = %v, want %s", i, stats[i].Group, w)
		}
	}
	if stats[0].Percentage != 100 || stats[3].Percentage != 0 {
		t.Fatalf("percentages = %v, %v", stats[0].Percentage, stats[3].Percentage)
	}
}

func TestAggregateMissingColumn(t *testing.T) {
	tbl := newTable(t,
		[]string{"PERWT"},
		map[string][]float64{"PERWT": {1}},
	)
	opt := DefaultOptions()
	opt.GroupBy = "STATEFIP"
	opt.Weight = "PERWT"
	opt.Condition = "CINETHH"
	if _, err := Aggregate(tbl, opt); !errors.Is(err, fact.ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
}

func TestAggregateDerivedGroupColumn(t *testing.T) {
	tbl := newTable(t,
		[]string{"PERWT", "CINETHH", "AGE"},
		map[string][]float64{
			"PERWT":   {10, 20, 30},
			"CINETHH": {1, 0, 1},
			"AGE":     {20, 22, 70},
		},
	)
	if err := tbl.AppendLabels("AGE_BUCKET", []string{"19-25", "19-25", "65+"}); err != nil {
		t.Fatalf("AppendLabels: %v", err)
	}
	opt := DefaultOptions()
	opt.GroupBy = "AGE_BUCKET"
	opt.Weight = "PERWT"
	opt.Condition = "CINETHH"

	stats, err := Aggregate(tbl, opt)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("groups = %d, want 2", len(stats))
	}
	if stats[0].Group != codebook.Symbolic("65+") || stats[0].Percentage != 100 {
		t.Fatalf("stats[0] = %+v", stats[0])
	}
	if stats[1].Group != codebook.Symbolic("19-25") || !almostEqual(stats[1].Percentage, 100.0/3.0, 1e-9) {
		t.Fatalf("stats[1] = %+v", stats[1])
	}
}

func TestMergeLabelsLeftJoin(t *testing.T) {
	stats := []Statistic{
		{Group: codebook.Numeric(1), Percentage: 80, Population: 100},
		{Group: codebook.Numeric(3), Percentage: 60, Population: 50},
	}
	dim := dimension.Table{Variable: "SEX", Entries: []dimension.Entry{
		{Code: codebook.Numeric(1), Label: "Male"},
		{Code: codebook.Numeric(2), Label: "Female"},
	}}
	merged := MergeLabels(stats, dim)
	if len(merged) != 2 {
		t.Fatalf("merged = %d rows, want 2", len(merged))
	}
	if !merged[0].Labeled || merged[0].Label != "Male" {
		t.Fatalf("merged[0] = %+v", merged[0])
	}
	if merged[1].Labeled || merged[1].Label != "" {
		t.Fatalf("unmatched group should keep null label: %+v", merged[1])
	}
	// input is not mutated
	if stats[0].Label != "" {
		t.Fatalf("input mutated: %+v", stats[0])
	}
}

func TestRate(t *testing.T) {
	tbl := newTable(t,
		[]string{"PERWT", "CINETHH"},
		map[string][]float64{
			"PERWT":   {10, 10, 5, 5},
			"CINETHH": {1, 0, 1, 9},
		},
	)
	opt := DefaultOptions()
	opt.Weight = "PERWT"
	opt.Condition = "CINETHH"
	opt.Sentinel = sentinel(9)
	got, pop, err := Rate(tbl, opt)
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if !almostEqual(got, 60.0, 1e-9) {
		t.Fatalf("rate = %v, want 60", got)
	}
	if !almostEqual(pop, 25.0, 1e-9) {
		t.Fatalf("population = %v, want 25", pop)
	}

	empty := newTable(t,
		[]string{"PERWT", "CINETHH"},
		map[string][]float64{"PERWT": {0}, "CINETHH": {1}},
	)
	got, pop, err = Rate(empty, opt)
	if err != nil || got != 0 || pop != 0 {
		t.Fatalf("zero-weight rate = %v, %v, err = %v", got, pop, err)
	}
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}
