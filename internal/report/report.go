// Package report renders analysis results as a markdown document.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Jiang-Li/ACS-Internet/internal/weighted"
)

// ConditionRate is a whole-population adoption rate for one condition
// column.
type ConditionRate struct {
	Condition  string
	Percentage float64
	Population float64
}

// DimensionResult holds the ranked statistics for one dimension under one
// condition, plus the derived top/bottom summary.
type DimensionResult struct {
	Variable  string
	Condition string
	Stats     []weighted.Statistic
	Summary   weighted.Summary
}

// Report is a markdown-friendly summary of one analysis run.
type Report struct {
	RunID      string
	Year       int
	Generated  time.Time
	Input      string
	Rows       int
	National   []ConditionRate
	Dimensions []DimensionResult
	Comparison []weighted.Pair
	CompareA   string
	CompareB   string
	Warnings   []string
}

// Markdown renders the full report document.
func (r *Report) Markdown() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# ACS Internet Access Analysis (%d)\n\n", r.Year))
	b.WriteString(fmt.Sprintf("Run `%s`, generated %s.\n\n", r.RunID, r.Generated.Format("2006-01-02 15:04 MST")))
	b.WriteString(fmt.Sprintf("Source: `%s`, %s person records.\n", r.Input, commas(float64(r.Rows))))

	if len(r.National) > 0 {
		b.WriteString("\n## National rates\n\n")
		for _, n := range r.National {
			b.WriteString(fmt.Sprintf("- %s: %.1f%% of a weighted population of %s\n",
				n.Condition, n.Percentage, commas(n.Population)))
		}
	}

	for _, d := range r.Dimensions {
		b.WriteString(fmt.Sprintf("\n## %s by %s\n\n", d.Condition, d.Variable))
		if len(d.Stats) == 0 {
			b.WriteString("No groups observed.\n")
			continue
		}
		writeRankTable(&b, "Highest", d.Summary.Top)
		if len(d.Summary.Bottom) > 0 {
			b.WriteString("\n")
			writeRankTable(&b, "Lowest", d.Summary.Bottom)
		}
		b.WriteString(fmt.Sprintf("\nSpread between highest and lowest group: %.1f points.\n", d.Summary.Spread))
	}

	if len(r.Comparison) > 0 {
		b.WriteString(fmt.Sprintf("\n## %s vs %s\n\n", r.CompareA, r.CompareB))
		b.WriteString(fmt.Sprintf("Largest gaps (%s minus %s):\n\n", r.CompareB, r.CompareA))
		b.WriteString(fmt.Sprintf("| Group | %s | %s | Gap |\n", r.CompareA, r.CompareB))
		b.WriteString("|---|---|---|---|\n")
		for _, p := range r.Comparison {
			b.WriteString(fmt.Sprintf("| %s | %.1f%% | %.1f%% | %.1f |\n",
				groupName(p.Group.String(), p.Label), p.A, p.B, p.Gap))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range r.Warnings {
			b.WriteString(fmt.Sprintf("- %s\n", w))
		}
	}
	return b.String()
}

func writeRankTable(b *strings.Builder, title string, stats []weighted.Statistic) {
	b.WriteString(fmt.Sprintf("%s:\n\n", title))
	b.WriteString("| Group | Rate | Population |\n")
	b.WriteString("|---|---|---|\n")
	for _, s := range stats {
		b.WriteString(fmt.Sprintf("| %s | %.1f%% | %s |\n",
			groupName(s.Group.String(), s.Label), s.Percentage, commas(s.Population)))
	}
}

func groupName(code, label string) string {
	if label == "" {
		return code
	}
	return label
}

// commas formats a count with thousands separators, dropping any
// fractional part.
func commas(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
