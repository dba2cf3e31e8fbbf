// Package weighted computes survey-weighted access statistics. For each
// group value of a dimension it reports the weight-adjusted percentage of
// respondents satisfying a condition and the weighted population estimate
// of the whole group.
package weighted

import (
	"fmt"
	"sort"

	"github.com/Jiang-Li/ACS-Internet/internal/codebook"
	"github.com/Jiang-Li/ACS-Internet/internal/dimension"
	"github.com/Jiang-Li/ACS-Internet/internal/fact"
)

// Options selects the columns and policy of one aggregation.
type Options struct {
	// GroupBy is the dimension column, coded or derived.
	GroupBy string
	// Weight is the survey weight column.
	Weight string
	// Condition is the coded column tested against Positive.
	Condition string
	// Positive is the condition code counted as satisfying.
	Positive float64
	// Sentinel is the reserved "not reported" code. Rows carrying it are
	// excluded from the aggregation entirely, never counted as negative.
	// Nil disables sentinel filtering.
	Sentinel *float64
}

// DefaultOptions treats code 1 as the positive condition value.
func DefaultOptions() Options {
	return Options{Positive: 1}
}

// Statistic is the aggregation result for one group value. Population is
// the summed weight of every row in the group, not only the satisfying
// ones. A zero-weight group reports percentage 0 rather than an error.
type Statistic struct {
	Group      codebook.Code
	Percentage float64
	Population float64
	Label      string
	Labeled    bool
}

// Aggregate computes per-group weighted statistics, ordered descending by
// percentage with ties broken ascending by group code.
func Aggregate(t *fact.Table, opt Options) ([]Statistic, error) {
	groups, err := t.Codes(opt.GroupBy)
	if err != nil {
		return nil, fmt.Errorf("group column: %w", err)
	}
	weights, ok := t.Numeric(opt.Weight)
	if !ok {
		return nil, fmt.Errorf("weight column %s: %w", opt.Weight, fact.ErrMissingColumn)
	}
	conds, ok := t.Numeric(opt.Condition)
	if !ok {
		return nil, fmt.Errorf("condition column %s: %w", opt.Condition, fact.ErrMissingColumn)
	}

	type acc struct {
		total float64
		cond  float64
	}
	byGroup := make(map[codebook.Code]*acc)
	for i, g := range groups {
		if opt.Sentinel != nil && conds[i] == *opt.Sentinel {
			continue
		}
		a := byGroup[g]
		if a == nil {
			a = &acc{}
			byGroup[g] = a
		}
		a.total += weights[i]
		if conds[i] == opt.Positive {
			a.cond += weights[i]
		}
	}

	out := make([]Statistic, 0, len(byGroup))
	for g, a := range byGroup {
		s := Statistic{Group: g, Population: a.total}
		if a.total != 0 {
			s.Percentage = 100 * a.cond / a.total
		}
		out = append(out, s)
	}
	SortStatistics(out)
	return out, nil
}

// SortStatistics orders statistics descending by percentage, ties ascending
// by group code.
func SortStatistics(stats []Statistic) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Percentage == stats[j].Percentage {
			return stats[i].Group.Less(stats[j].Group)
		}
		return stats[i].Percentage > stats[j].Percentage
	})
}

// MergeLabels left-joins statistics to a dimension table on the group code.
// Groups without a matching entry keep Labeled false; no group is ever
// dropped over a labeling gap.
func MergeLabels(stats []Statistic, dim dimension.Table) []Statistic {
	byCode := make(map[codebook.Code]string, dim.Len())
	for _, e := range dim.Entries {
		byCode[e.Code] = e.Label
	}
	out := make([]Statistic, len(stats))
	for i, s := range stats {
		if label, ok := byCode[s.Group]; ok {
			s.Label = label
			s.Labeled = true
		}
		out[i] = s
	}
	return out
}

// Rate computes the whole-table weighted percentage and the reporting
// population, with the same sentinel and zero-weight policy as Aggregate.
func Rate(t *fact.Table, opt Options) (pct, population float64, err error) {
	weights, ok := t.Numeric(opt.Weight)
	if !ok {
		return 0, 0, fmt.Errorf("weight column %s: %w", opt.Weight, fact.ErrMissingColumn)
	}
	conds, ok := t.Numeric(opt.Condition)
	if !ok {
		return 0, 0, fmt.Errorf("condition column %s: %w", opt.Condition, fact.ErrMissingColumn)
	}
	var total, cond float64
	for i := range conds {
		if opt.Sentinel != nil && conds[i] == *opt.Sentinel {
			continue
		}
		total += weights[i]
		if conds[i] == opt.Positive {
			cond += weights[i]
		}
	}
	if total == 0 {
		return 0, 0, nil
	}
	return 100 * cond / total, total, nil
}
