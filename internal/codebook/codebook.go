package codebook

import "sort"

// VariableDefinition is one codebook entry: a human-readable description and
// the declared code-to-label mapping. Code keys stay strings because
// codebooks express codes as text regardless of how the data stores them.
// Definitions are immutable once loaded.
type VariableDefinition struct {
	Description string
	Codes       map[string]string
}

// Index is a read-only lookup of variable definitions by name.
type Index struct {
	vars map[string]VariableDefinition
}

// NewIndex builds an Index from loaded definitions. The map is copied so the
// index cannot be mutated through the argument afterwards.
func NewIndex(defs map[string]VariableDefinition) *Index {
	vars := make(map[string]VariableDefinition, len(defs))
	for name, def := range defs {
		vars[name] = def
	}
	return &Index{vars: vars}
}

// Definition looks up a variable. A missing variable is a recoverable
// condition for the caller, not an error.
func (x *Index) Definition(name string) (VariableDefinition, bool) {
	def, ok := x.vars[name]
	return def, ok
}

// Variables returns the declared variable names, sorted.
func (x *Index) Variables() []string {
	names := make([]string, 0, len(x.vars))
	for name := range x.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of declared variables.
func (x *Index) Len() int { return len(x.vars) }
