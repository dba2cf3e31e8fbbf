package dimension

import (
	"fmt"

	"github.com/Jiang-Li/ACS-Internet/internal/codebook"
)

// LabelMismatch records a code whose persisted label differs from the
// freshly built one.
type LabelMismatch struct {
	Code codebook.Code
	Got  string
	Want string
}

// VerifyResult reports how a persisted dimension table compares against a
// rebuilt reference and the codes observed in the fact data.
type VerifyResult struct {
	Variable   string
	Missing    []codebook.Code // observed in the fact but absent from the table
	Extra      []codebook.Code // in the table but never observed (informational)
	Mismatches []LabelMismatch
}

// OK reports whether the table explains every observed code with the
// expected labels. Extra codes alone do not fail verification; a declared
// but unobserved code is legitimate.
func (r VerifyResult) OK() bool {
	return len(r.Missing) == 0 && len(r.Mismatches) == 0
}

// Summary renders a one-line outcome for operator output.
func (r VerifyResult) Summary() string {
	if r.OK() {
		if len(r.Extra) > 0 {
			return fmt.Sprintf("%s: ok (%d declared codes unobserved)", r.Variable, len(r.Extra))
		}
		return fmt.Sprintf("%s: ok", r.Variable)
	}
	return fmt.Sprintf("%s: %d missing codes, %d label mismatches", r.Variable, len(r.Missing), len(r.Mismatches))
}

// Verify checks a persisted table against the reference table rebuilt from
// the codebook and the observed fact codes.
func Verify(got Table, want Table, observed []codebook.Code) VerifyResult {
	res := VerifyResult{Variable: got.Variable}

	have := make(map[codebook.Code]string, len(got.Entries))
	for _, e := range got.Entries {
		have[e.Code] = e.Label
	}

	seen := make(map[codebook.Code]struct{}, len(observed))
	for _, c := range observed {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, ok := have[c]; !ok {
			res.Missing = append(res.Missing, c)
		}
	}
	codebook.SortCodes(res.Missing)

	for _, e := range got.Entries {
		if _, ok := seen[e.Code]; !ok {
			res.Extra = append(res.Extra, e.Code)
		}
	}

	for _, w := range want.Entries {
		if label, ok := have[w.Code]; ok && label != w.Label {
			res.Mismatches = append(res.Mismatches, LabelMismatch{Code: w.Code, Got: label, Want: w.Label})
		}
	}
	return res
}
