// Package store persists the star schema and analysis results: dimension
// and fact CSVs compatible with the published extract layout, and an
// optional SQLite database for downstream querying.
package store

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Jiang-Li/ACS-Internet/internal/codebook"
	"github.com/Jiang-Li/ACS-Internet/internal/dimension"
	"github.com/Jiang-Li/ACS-Internet/internal/fact"
	"github.com/Jiang-Li/ACS-Internet/internal/utils"
	"github.com/Jiang-Li/ACS-Internet/internal/weighted"
)

// DimFileName returns the canonical dimension file name for a variable,
// e.g. dim_statefip.csv for STATEFIP.
func DimFileName(variable string) string {
	return "dim_" + strings.ToLower(variable) + ".csv"
}

// WriteDimensionCSV writes one dimension table into dir and returns the
// file path. Columns follow the <var>_value, <var>_desc convention.
func WriteDimensionCSV(dir string, dim dimension.Table) (string, error) {
	lower := strings.ToLower(dim.Variable)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{lower + "_value", lower + "_desc"}); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, e := range dim.Entries {
		if err := w.Write([]string{e.Code.String(), e.Label}); err != nil {
			return "", fmt.Errorf("write entry: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	path := filepath.Join(dir, DimFileName(dim.Variable))
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// ReadDimensionCSV loads a persisted dimension table. The variable name is
// recovered from the file name; descriptions are not persisted in the CSV.
func ReadDimensionCSV(path string) (dimension.Table, error) {
	base := filepath.Base(path)
	variable := strings.ToUpper(strings.TrimSuffix(strings.TrimPrefix(base, "dim_"), ".csv"))
	tbl := dimension.Table{Variable: variable}

	f, err := os.Open(path)
	if err != nil {
		return tbl, fmt.Errorf("open dimension file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return tbl, fmt.Errorf("read dimension file %s: %w", base, err)
	}
	if len(records) == 0 {
		return tbl, fmt.Errorf("dimension file %s is empty", base)
	}
	for _, rec := range records[1:] {
		if len(rec) < 2 {
			return tbl, fmt.Errorf("dimension file %s has a short row", base)
		}
		tbl.Entries = append(tbl.Entries, dimension.Entry{
			Code:  codebook.ParseCode(rec[0]),
			Label: rec[1],
		})
	}
	return tbl, nil
}

// WriteFactCSV writes the fact relation, numeric columns first and derived
// label columns after. With compress set, the CSV is wrapped in a zip
// archive holding a single member named after the path without .zip.
func WriteFactCSV(path string, t *fact.Table, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fact file: %w", err)
	}
	defer f.Close()

	if compress {
		zw := zip.NewWriter(f)
		member := strings.TrimSuffix(filepath.Base(path), ".zip")
		w, err := zw.Create(member)
		if err != nil {
			return fmt.Errorf("create archive member: %w", err)
		}
		if err := writeFactRows(csv.NewWriter(w), t); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close archive: %w", err)
		}
		return nil
	}
	return writeFactRows(csv.NewWriter(f), t)
}

func writeFactRows(w *csv.Writer, t *fact.Table) error {
	numeric := t.Columns()
	derived := t.Derived()
	header := append(append([]string(nil), numeric...), derived...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	numCols := make([][]float64, len(numeric))
	for i, name := range numeric {
		numCols[i], _ = t.Numeric(name)
	}
	labCols := make([][]string, len(derived))
	for i, name := range derived {
		labCols[i], _ = t.Labels(name)
	}

	rec := make([]string, len(header))
	for row := 0; row < t.Len(); row++ {
		for i := range numCols {
			rec[i] = strconv.FormatFloat(numCols[i][row], 'f', -1, 64)
		}
		for i := range labCols {
			rec[len(numCols)+i] = labCols[i][row]
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", row+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteStatisticsCSV writes one analysis result. Unlabeled groups keep an
// empty label cell rather than being dropped.
func WriteStatisticsCSV(path string, variable string, stats []weighted.Statistic) error {
	lower := strings.ToLower(variable)
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{lower + "_value", lower + "_desc", "percentage", "population_estimate"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range stats {
		rec := []string{
			s.Group.String(),
			s.Label,
			strconv.FormatFloat(s.Percentage, 'f', -1, 64),
			strconv.FormatFloat(s.Population, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
