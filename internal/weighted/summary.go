package weighted

import (
	"sort"

	"github.com/Jiang-Li/ACS-Internet/internal/codebook"
)

// Summary condenses one dimension's statistics: the extremes and the
// spread between them.
type Summary struct {
	Top    []Statistic
	Bottom []Statistic
	Spread float64
}

// Summarize picks the n highest and n lowest groups by percentage and the
// max-to-min spread. The input must already be in aggregation order.
func Summarize(stats []Statistic, n int) Summary {
	var s Summary
	if len(stats) == 0 {
		return s
	}
	if n > len(stats) {
		n = len(stats)
	}
	s.Top = append(s.Top, stats[:n]...)
	for i := len(stats) - 1; i >= len(stats)-n; i-- {
		s.Bottom = append(s.Bottom, stats[i])
	}
	s.Spread = stats[0].Percentage - stats[len(stats)-1].Percentage
	return s
}

// Pair lines up two condition analyses of the same dimension, e.g.
// smartphone access next to internet access per state.
type Pair struct {
	Group codebook.Code
	Label string
	A     float64
	B     float64
	Gap   float64 // B - A
}

// Join matches two statistic sets by group code, ordered descending by gap
// with ties ascending by group code. Groups present in only one set are
// left out; a gap needs both sides.
func Join(a, b []Statistic) []Pair {
	byCode := make(map[codebook.Code]Statistic, len(b))
	for _, s := range b {
		byCode[s.Group] = s
	}
	var out []Pair
	for _, sa := range a {
		sb, ok := byCode[sa.Group]
		if !ok {
			continue
		}
		label := sa.Label
		if label == "" {
			label = sb.Label
		}
		out = append(out, Pair{
			Group: sa.Group,
			Label: label,
			A:     sa.Percentage,
			B:     sb.Percentage,
			Gap:   sb.Percentage - sa.Percentage,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Gap == out[j].Gap {
			return out[i].Group.Less(out[j].Group)
		}
		return out[i].Gap > out[j].Gap
	})
	return out
}
