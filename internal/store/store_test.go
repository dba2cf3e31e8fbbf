package store

import (
	"archive/zip"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/Jiang-Li/ACS-Internet/internal/codebook"
	"github.com/Jiang-Li/ACS-Internet/internal/dimension"
	"github.com/Jiang-Li/ACS-Internet/internal/fact"
	"github.com/Jiang-Li/ACS-Internet/internal/weighted"
)

func sampleDim() dimension.Table {
	return dimension.Table{
		Variable: "SEX",
		Entries: []dimension.Entry{
			{Code: codebook.Numeric(1), Label: "Male"},
			{Code: codebook.Numeric(2), Label: "Female"},
			{Code: codebook.Numeric(9), Label: "Undefined code: 9"},
		},
	}
}

func sampleFact(t *testing.T) *fact.Table {
	t.Helper()
	tbl, err := fact.New(
		[]string{"PERWT", "AGE"},
		map[string][]float64{
			"PERWT": {10, 5.5},
			"AGE":   {30, 64},
		},
	)
	if err != nil {
		t.Fatalf("fact.New: %v", err)
	}
	if err := tbl.AppendLabels("AGE_BUCKET", []string{"26-35", "51-65"}); err != nil {
		t.Fatalf("AppendLabels: %v", err)
	}
	return tbl
}

func TestDimensionCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDimensionCSV(dir, sampleDim())
	if err != nil {
		t.Fatalf("WriteDimensionCSV: %v", err)
	}
	if filepath.Base(path) != "dim_sex.csv" {
		t.Fatalf("file name = %q, want dim_sex.csv", filepath.Base(path))
	}

	got, err := ReadDimensionCSV(path)
	if err != nil {
		t.Fatalf("ReadDimensionCSV: %v", err)
	}
	if got.Variable != "SEX" {
		t.Errorf("variable = %q, want SEX", got.Variable)
	}
	want := sampleDim()
	if len(got.Entries) != len(want.Entries) {
		t.Fatalf("entries = %d, want %d", len(got.Entries), len(want.Entries))
	}
	for i, e := range got.Entries {
		if e.Code != want.Entries[i].Code || e.Label != want.Entries[i].Label {
			t.Errorf("entry %d = %v %q, want %v %q", i, e.Code, e.Label, want.Entries[i].Code, want.Entries[i].Label)
		}
	}
}

func TestDimensionFileHeader(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteDimensionCSV(dir, sampleDim())
	if err != nil {
		t.Fatalf("WriteDimensionCSV: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if records[0][0] != "sex_value" || records[0][1] != "sex_desc" {
		t.Errorf("header = %v, want [sex_value sex_desc]", records[0])
	}
}

func TestWriteFactCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fact_acs_2023.csv")
	if err := WriteFactCSV(path, sampleFact(t), false); err != nil {
		t.Fatalf("WriteFactCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want 3", len(records))
	}
	wantHeader := []string{"PERWT", "AGE", "AGE_BUCKET"}
	for i, h := range wantHeader {
		if records[0][i] != h {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}
	if records[2][0] != "5.5" || records[2][2] != "51-65" {
		t.Errorf("row = %v, want [5.5 64 51-65]", records[2])
	}
}

func TestWriteFactCSVZip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fact_acs_2023.csv.zip")
	if err := WriteFactCSV(path, sampleFact(t), true); err != nil {
		t.Fatalf("WriteFactCSV: %v", err)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 1 {
		t.Fatalf("members = %d, want 1", len(zr.File))
	}
	if zr.File[0].Name != "fact_acs_2023.csv" {
		t.Errorf("member = %q, want fact_acs_2023.csv", zr.File[0].Name)
	}
	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatalf("open member: %v", err)
	}
	defer rc.Close()
	records, err := csv.NewReader(rc).ReadAll()
	if err != nil {
		t.Fatalf("read member: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("rows = %d, want 3", len(records))
	}
}

func TestWriteStatisticsCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "internet_by_statefip.csv")
	stats := []weighted.Statistic{
		{Group: codebook.Numeric(53), Percentage: 95.5, Population: 7700000, Label: "Washington", Labeled: true},
		{Group: codebook.Numeric(99), Percentage: 80, Population: 1000},
	}
	if err := WriteStatisticsCSV(path, "STATEFIP", stats); err != nil {
		t.Fatalf("WriteStatisticsCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if records[0][0] != "statefip_value" || records[0][1] != "statefip_desc" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "53" || records[1][1] != "Washington" || records[1][2] != "95.5" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[2][1] != "" {
		t.Errorf("unlabeled desc = %q, want empty", records[2][1])
	}
}

func TestSQLiteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acs.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer db.Close()

	if err := db.ExportDimension(sampleDim()); err != nil {
		t.Fatalf("ExportDimension: %v", err)
	}
	if err := db.ExportFact(sampleFact(t)); err != nil {
		t.Fatalf("ExportFact: %v", err)
	}
	stats := []weighted.Statistic{
		{Group: codebook.Numeric(1), Percentage: 60, Population: 25, Label: "Male", Labeled: true},
	}
	if err := db.ExportStatistics("run-1", "SEX", "CINETHH", stats); err != nil {
		t.Fatalf("ExportStatistics: %v", err)
	}

	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM dim_sex`).Scan(&n); err != nil {
		t.Fatalf("count dim_sex: %v", err)
	}
	if n != 3 {
		t.Errorf("dim_sex rows = %d, want 3", n)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM fact`).Scan(&n); err != nil {
		t.Fatalf("count fact: %v", err)
	}
	if n != 2 {
		t.Errorf("fact rows = %d, want 2", n)
	}

	var (
		value string
		pct   float64
	)
	row := db.conn.QueryRow(`SELECT value, percentage FROM results WHERE run_id = ? AND variable = ?`, "run-1", "SEX")
	if err := row.Scan(&value, &pct); err != nil {
		t.Fatalf("query results: %v", err)
	}
	if value != "1" || pct != 60 {
		t.Errorf("result = %q %v, want 1 60", value, pct)
	}

	// Re-export replaces rather than duplicates.
	if err := db.ExportDimension(sampleDim()); err != nil {
		t.Fatalf("ExportDimension again: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM dim_sex`).Scan(&n); err != nil {
		t.Fatalf("count dim_sex: %v", err)
	}
	if n != 3 {
		t.Errorf("dim_sex rows after re-export = %d, want 3", n)
	}
}
