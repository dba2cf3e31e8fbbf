package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/Jiang-Li/ACS-Internet/internal/config"
	"github.com/Jiang-Li/ACS-Internet/internal/dimension"
	"github.com/Jiang-Li/ACS-Internet/internal/store"
)

// Verification is the outcome of checking persisted dimension tables
// against a freshly rebuilt schema.
type Verification struct {
	Results  []dimension.VerifyResult
	Problems []string // unreadable or missing dimension files
}

// OK reports whether every dimension file was readable and explained all
// observed codes with the expected labels.
func (v *Verification) OK() bool {
	if len(v.Problems) > 0 {
		return false
	}
	for _, r := range v.Results {
		if !r.OK() {
			return false
		}
	}
	return true
}

// VerifySchema compares the dimension CSVs under cfg.OutputDir against the
// given schema. Each table must cover every code observed in the fact data
// and agree on the labels; declared but unobserved codes are reported
// without failing.
func VerifySchema(cfg *config.Global, s *Schema) (*Verification, error) {
	v := &Verification{}
	for _, dim := range s.Dimensions {
		name := store.DimFileName(dim.Variable)
		got, err := store.ReadDimensionCSV(filepath.Join(cfg.OutputDir, name))
		if err != nil {
			v.Problems = append(v.Problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		observed, err := s.Table.DistinctCodes(dim.Variable)
		if err != nil {
			return nil, fmt.Errorf("observed codes for %s: %w", dim.Variable, err)
		}
		v.Results = append(v.Results, dimension.Verify(got, dim, observed))
	}
	return v, nil
}
