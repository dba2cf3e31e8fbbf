// Package bucket derives categorical columns from continuous measures.
// Every input value resolves to exactly one label; out-of-domain and
// degenerate inputs get defined fallback labels instead of errors.
package bucket

import (
	"math"
	"sort"
)

// DefaultUnknown labels values outside every fixed band.
const DefaultUnknown = "Unknown"

// Band is one inclusive value range with its label.
type Band struct {
	Lo    float64
	Hi    float64
	Label string
}

// FixedBands assigns values to ordered bands. Negative values are clamped
// to zero before matching; the first band containing the value wins;
// values outside every band get the Unknown label.
type FixedBands struct {
	Bands   []Band
	Unknown string
}

// Label assigns one value to a band label.
func (f FixedBands) Label(v float64) string {
	if v < 0 {
		v = 0
	}
	for _, b := range f.Bands {
		if v >= b.Lo && v <= b.Hi {
			return b.Label
		}
	}
	if f.Unknown != "" {
		return f.Unknown
	}
	return DefaultUnknown
}

// Apply labels every value.
func (f FixedBands) Apply(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = f.Label(v)
	}
	return out
}

// Labels returns the band labels in band order, without the Unknown label.
func (f FixedBands) Labels() []string {
	out := make([]string, len(f.Bands))
	for i, b := range f.Bands {
		out[i] = b.Label
	}
	return out
}

// AgeBands returns the default age banding. 65 sits in both the 51-65 and
// 65+ ranges; first match keeps it in 51-65.
func AgeBands() FixedBands {
	return FixedBands{
		Bands: []Band{
			{0, 18, "0-18"},
			{19, 25, "19-25"},
			{26, 35, "26-35"},
			{36, 50, "36-50"},
			{51, 65, "51-65"},
			{65, 100, "65+"},
		},
		Unknown: DefaultUnknown,
	}
}

// Outcome reports which path a quantile cut took.
type Outcome int

const (
	// OutcomeQuantile means quantile boundaries were usable.
	OutcomeQuantile Outcome = iota
	// OutcomeFallback means the cut fell back to fixed bands.
	OutcomeFallback
)

// String renders the outcome for manifests and logs.
func (o Outcome) String() string {
	if o == OutcomeFallback {
		return "fallback"
	}
	return "quantile"
}

// QuantileCut partitions a measure into Buckets quantile ranges over its
// strictly positive values. Values are clamped to be non-negative first;
// zeros get ZeroLabel and stay out of the quantile computation. Duplicate
// quantile boundaries collapse, which can yield fewer buckets than asked;
// the surviving buckets take the leading labels. When the positive subset
// has fewer than Buckets distinct values the quantile cut is infeasible
// and Fallback assigns the labels instead.
type QuantileCut struct {
	Buckets   int
	Labels    []string
	ZeroLabel string
	Fallback  FixedBands
}

// Apply labels every value and reports which path produced the labels.
func (q QuantileCut) Apply(values []float64) ([]string, Outcome) {
	clamped := make([]float64, len(values))
	positives := make([]float64, 0, len(values))
	for i, v := range values {
		if v < 0 {
			v = 0
		}
		clamped[i] = v
		if v > 0 {
			positives = append(positives, v)
		}
	}
	out := make([]string, len(values))
	if len(positives) == 0 {
		for i := range out {
			out[i] = q.ZeroLabel
		}
		return out, OutcomeQuantile
	}

	sort.Float64s(positives)
	edges := q.boundaries(positives)
	if distinctCount(positives) < q.Buckets || len(edges) < 2 || len(q.Labels) < len(edges)-1 {
		for i, v := range clamped {
			if v == 0 {
				out[i] = q.ZeroLabel
			} else {
				out[i] = q.Fallback.Label(v)
			}
		}
		return out, OutcomeFallback
	}

	for i, v := range clamped {
		if v == 0 {
			out[i] = q.ZeroLabel
			continue
		}
		out[i] = q.Labels[bucketIndex(edges, v)]
	}
	return out, OutcomeQuantile
}

func distinctCount(sorted []float64) int {
	n := 0
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			n++
		}
	}
	return n
}

// boundaries computes the Buckets+1 quantile edges over sorted positives
// and collapses duplicates.
func (q QuantileCut) boundaries(sorted []float64) []float64 {
	n := q.Buckets
	if n < 1 {
		n = 1
	}
	edges := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		e := quantile(sorted, float64(i)/float64(n))
		if len(edges) > 0 && e == edges[len(edges)-1] {
			continue
		}
		edges = append(edges, e)
	}
	return edges
}

// bucketIndex places v into a right-closed quantile range; the minimum
// value belongs to the first range.
func bucketIndex(edges []float64, v float64) int {
	i := sort.SearchFloat64s(edges, v)
	if i == 0 {
		return 0
	}
	if i >= len(edges) {
		return len(edges) - 2
	}
	return i - 1
}

// quantile linearly interpolates the q-th quantile of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// IncomeCut returns the default income bucketing: seven quantile tiers over
// positive income, a held-out zero tier, and absolute-dollar fallback bands.
func IncomeCut() QuantileCut {
	return QuantileCut{
		Buckets: 7,
		Labels: []string{
			"Very Low Income", "Low Income", "Lower Middle", "Middle",
			"Upper Middle", "High", "Very High",
		},
		ZeroLabel: "No Income",
		Fallback: FixedBands{
			Bands: []Band{
				{0, 0, "No Income"},
				{0, 20000, "Very Low"},
				{20000, 40000, "Low"},
				{40000, 60000, "Middle"},
				{60000, 100000, "High"},
				{100000, math.Inf(1), "Very High"},
			},
			Unknown: DefaultUnknown,
		},
	}
}
