// Package fact holds the in-memory fact relation: one row per respondent,
// numeric columns for codes, measures and weights, plus derived label
// columns appended by bucketing. Tables are read-only to consumers; the
// only mutation is appending derived columns.
package fact

import (
	"errors"
	"fmt"

	"github.com/Jiang-Li/ACS-Internet/internal/codebook"
)

// ErrMissingColumn marks a required column absent from the fact relation.
// A missing required measure is fatal for the stage that declared it.
var ErrMissingColumn = errors.New("required column missing")

// Table is a columnar fact relation. Every column has exactly Len values.
type Table struct {
	cols    []string
	data    map[string][]float64
	derived []string
	labels  map[string][]string
	n       int
}

// New builds a Table from named numeric columns. The column list fixes
// ordering; every listed column must be present with the same length.
func New(columns []string, data map[string][]float64) (*Table, error) {
	t := &Table{
		cols:   append([]string(nil), columns...),
		data:   make(map[string][]float64, len(columns)),
		labels: make(map[string][]string),
	}
	for i, name := range columns {
		vals, ok := data[name]
		if !ok {
			return nil, fmt.Errorf("column %s listed but not supplied", name)
		}
		if i == 0 {
			t.n = len(vals)
		} else if len(vals) != t.n {
			return nil, fmt.Errorf("column %s has %d values, want %d", name, len(vals), t.n)
		}
		t.data[name] = vals
	}
	if len(data) != len(columns) {
		return nil, fmt.Errorf("supplied %d columns, listed %d", len(data), len(columns))
	}
	return t, nil
}

// Len returns the row count.
func (t *Table) Len() int { return t.n }

// Columns returns the numeric column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// Derived returns the derived label column names in append order.
func (t *Table) Derived() []string {
	return append([]string(nil), t.derived...)
}

// HasColumn reports whether name is a numeric or derived column.
func (t *Table) HasColumn(name string) bool {
	if _, ok := t.data[name]; ok {
		return true
	}
	_, ok := t.labels[name]
	return ok
}

// Numeric returns the values of a numeric column. The slice is shared,
// not copied; callers must not modify it.
func (t *Table) Numeric(name string) ([]float64, bool) {
	vals, ok := t.data[name]
	return vals, ok
}

// Labels returns the values of a derived label column.
func (t *Table) Labels(name string) ([]string, bool) {
	vals, ok := t.labels[name]
	return vals, ok
}

// Codes returns the per-row code of a column: numeric columns through
// codebook.CodeOf, derived label columns as symbolic codes.
func (t *Table) Codes(name string) ([]codebook.Code, error) {
	if vals, ok := t.data[name]; ok {
		codes := make([]codebook.Code, len(vals))
		for i, v := range vals {
			codes[i] = codebook.CodeOf(v)
		}
		return codes, nil
	}
	if vals, ok := t.labels[name]; ok {
		codes := make([]codebook.Code, len(vals))
		for i, v := range vals {
			codes[i] = codebook.Symbolic(v)
		}
		return codes, nil
	}
	return nil, fmt.Errorf("column %s: %w", name, ErrMissingColumn)
}

// DistinctCodes returns the distinct codes observed in a column, sorted by
// the code order.
func (t *Table) DistinctCodes(name string) ([]codebook.Code, error) {
	codes, err := t.Codes(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[codebook.Code]struct{}, len(codes))
	var out []codebook.Code
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	codebook.SortCodes(out)
	return out, nil
}

// AppendLabels adds a derived label column. The name must be new and the
// values must cover every row.
func (t *Table) AppendLabels(name string, vals []string) error {
	if t.HasColumn(name) {
		return fmt.Errorf("column %s already exists", name)
	}
	if len(vals) != t.n {
		return fmt.Errorf("column %s has %d values, want %d", name, len(vals), t.n)
	}
	t.derived = append(t.derived, name)
	t.labels[name] = vals
	return nil
}

// Project returns a table without the excluded columns. Excluded names that
// are absent are ignored; each required measure must survive the projection
// or the call fails. Column slices are shared with the receiver.
func (t *Table) Project(exclude []string, required []string) (*Table, error) {
	drop := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		drop[name] = struct{}{}
	}
	out := &Table{
		data:   make(map[string][]float64),
		labels: make(map[string][]string),
		n:      t.n,
	}
	for _, name := range t.cols {
		if _, ok := drop[name]; ok {
			continue
		}
		out.cols = append(out.cols, name)
		out.data[name] = t.data[name]
	}
	for _, name := range t.derived {
		if _, ok := drop[name]; ok {
			continue
		}
		out.derived = append(out.derived, name)
		out.labels[name] = t.labels[name]
	}
	for _, name := range required {
		if !out.HasColumn(name) {
			return nil, fmt.Errorf("required measure %s: %w", name, ErrMissingColumn)
		}
	}
	return out, nil
}

// Filter materializes the rows for which keep returns true, preserving
// column order and derived columns.
func (t *Table) Filter(keep func(i int) bool) *Table {
	idx := make([]int, 0, t.n)
	for i := 0; i < t.n; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	out := &Table{
		cols:    append([]string(nil), t.cols...),
		data:    make(map[string][]float64, len(t.cols)),
		derived: append([]string(nil), t.derived...),
		labels:  make(map[string][]string, len(t.derived)),
		n:       len(idx),
	}
	for name, vals := range t.data {
		sub := make([]float64, len(idx))
		for i, j := range idx {
			sub[i] = vals[j]
		}
		out.data[name] = sub
	}
	for name, vals := range t.labels {
		sub := make([]string, len(idx))
		for i, j := range idx {
			sub[i] = vals[j]
		}
		out.labels[name] = sub
	}
	return out
}
