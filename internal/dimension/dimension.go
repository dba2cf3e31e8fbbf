// Package dimension builds the code-to-label lookup tables of the star
// schema. Building reconciles codebook-declared codes with the codes
// actually observed in the fact data: declared codes keep their labels,
// observed-but-undeclared codes get a synthesized label, and nothing is
// dropped or invented beyond that union.
package dimension

import (
	"fmt"
	"sort"

	"github.com/Jiang-Li/ACS-Internet/internal/codebook"
)

// Entry is one dimension table row.
type Entry struct {
	Code        codebook.Code
	Label       string
	Description string
}

// Table is the canonical dimension table for one variable: entries unique
// by code, sorted ascending by the code order.
type Table struct {
	Variable string
	Entries  []Entry
}

// UndefinedLabel synthesizes the label for a code observed in the data but
// absent from the codebook.
func UndefinedLabel(c codebook.Code) string {
	return fmt.Sprintf("Undefined code: %s", c)
}

// Build reconciles the observed codes of a fact column with a variable
// definition. The resulting code set is exactly the union of declared and
// observed codes.
func Build(variable string, observed []codebook.Code, def codebook.VariableDefinition) Table {
	byCode := make(map[codebook.Code]Entry, len(def.Codes)+len(observed))

	// declared tokens are walked in sorted order so that two tokens
	// parsing to the same code resolve deterministically
	tokens := make([]string, 0, len(def.Codes))
	for tok := range def.Codes {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	for _, tok := range tokens {
		c := codebook.ParseCode(tok)
		if _, ok := byCode[c]; ok {
			continue
		}
		byCode[c] = Entry{Code: c, Label: def.Codes[tok], Description: def.Description}
	}

	for _, c := range observed {
		if _, ok := byCode[c]; ok {
			continue
		}
		byCode[c] = Entry{Code: c, Label: UndefinedLabel(c), Description: def.Description}
	}

	return Table{Variable: variable, Entries: sortEntries(byCode)}
}

// BuildUnlabeled produces a codes-only table for a variable the codebook
// does not define. Callers decide whether to warn; the pipeline never
// fails over a labeling gap.
func BuildUnlabeled(variable string, observed []codebook.Code) Table {
	byCode := make(map[codebook.Code]Entry, len(observed))
	for _, c := range observed {
		if _, ok := byCode[c]; ok {
			continue
		}
		byCode[c] = Entry{Code: c}
	}
	return Table{Variable: variable, Entries: sortEntries(byCode)}
}

// FromLabels builds the dimension table of a derived bucket column, where
// the label doubles as the code.
func FromLabels(variable string, labels []string, description string) Table {
	byCode := make(map[codebook.Code]Entry, len(labels))
	for _, l := range labels {
		c := codebook.Symbolic(l)
		if _, ok := byCode[c]; ok {
			continue
		}
		byCode[c] = Entry{Code: c, Label: l, Description: description}
	}
	return Table{Variable: variable, Entries: sortEntries(byCode)}
}

func sortEntries(byCode map[codebook.Code]Entry) []Entry {
	entries := make([]Entry, 0, len(byCode))
	for _, e := range byCode {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Code.Less(entries[j].Code) })
	return entries
}

// Lookup finds the entry for a code.
func (t Table) Lookup(c codebook.Code) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Code == c {
			return e, true
		}
	}
	return Entry{}, false
}

// Codes returns the table's codes in order.
func (t Table) Codes() []codebook.Code {
	out := make([]codebook.Code, len(t.Entries))
	for i, e := range t.Entries {
		out[i] = e.Code
	}
	return out
}

// Len returns the entry count.
func (t Table) Len() int { return len(t.Entries) }
