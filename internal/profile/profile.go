// Package profile computes quick per-column summaries of a loaded extract,
// the look-before-you-build step ahead of a schema run.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Jiang-Li/ACS-Internet/internal/fact"
)

// codedDistinctMax caps how many distinct integral values a column may
// carry and still read as a coded variable rather than a measure.
const codedDistinctMax = 64

// ColumnSummary captures inferred role and statistics per column.
type ColumnSummary struct {
	Name     string
	Kind     string // measure|coded|derived
	Distinct int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Most frequent values for coded and derived columns
	Top []ValueCount
}

// ValueCount is one value with its row count.
type ValueCount struct {
	Value string
	Count int
}

// Report summarizes one extract.
type Report struct {
	Name string
	Rows int
	Cols []ColumnSummary
}

// Describe profiles every column of the table. topK limits how many
// frequent values a coded column reports; 0 keeps the default of 5.
func Describe(t *fact.Table, name string, topK int) *Report {
	if topK <= 0 {
		topK = 5
	}
	rep := &Report{Name: name, Rows: t.Len()}

	for _, col := range t.Columns() {
		vals, _ := t.Numeric(col)
		rep.Cols = append(rep.Cols, describeNumeric(col, vals, topK))
	}
	for _, col := range t.Derived() {
		labels, _ := t.Labels(col)
		counts := make(map[string]int, 16)
		for _, l := range labels {
			counts[l]++
		}
		rep.Cols = append(rep.Cols, ColumnSummary{
			Name:     col,
			Kind:     "derived",
			Distinct: len(counts),
			Top:      topValues(counts, topK),
		})
	}
	return rep
}

func describeNumeric(name string, vals []float64, topK int) ColumnSummary {
	c := ColumnSummary{Name: name, Kind: "measure"}
	if len(vals) == 0 {
		return c
	}

	counts := make(map[float64]int, 64)
	integral := true
	var sum, sumsq float64
	c.Min, c.Max = vals[0], vals[0]
	for _, v := range vals {
		sum += v
		sumsq += v * v
		if v < c.Min {
			c.Min = v
		}
		if v > c.Max {
			c.Max = v
		}
		if v != math.Trunc(v) {
			integral = false
		}
		if len(counts) <= codedDistinctMax {
			counts[v]++
		}
	}
	c.Mean = sum / float64(len(vals))
	variance := sumsq/float64(len(vals)) - c.Mean*c.Mean
	if variance > 0 {
		c.Std = math.Sqrt(variance)
	}

	if integral && len(counts) <= codedDistinctMax {
		c.Kind = "coded"
		c.Distinct = len(counts)
		byValue := make(map[string]int, len(counts))
		for v, n := range counts {
			byValue[fmt.Sprintf("%g", v)] = n
		}
		c.Top = topValues(byValue, topK)
	}
	return c
}

// topValues orders by descending count, ties ascending by value.
func topValues(counts map[string]int, k int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Summary renders a compact plain-text profile.
func (r *Report) Summary() string {
	var b strings.Builder
	b.WriteString("[EXTRACT SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[COLUMNS]\n")
	for _, c := range r.Cols {
		switch c.Kind {
		case "measure":
			b.WriteString(fmt.Sprintf("- %s: measure — min %.4g, max %.4g, mean %.4g, std %.4g\n",
				c.Name, c.Min, c.Max, c.Mean, c.Std))
		default:
			b.WriteString(fmt.Sprintf("- %s: %s (%d distinct)", c.Name, c.Kind, c.Distinct))
			if len(c.Top) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.Top {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", kv.Value, kv.Count))
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
