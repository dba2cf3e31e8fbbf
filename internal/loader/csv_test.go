package loader

import (
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const factCSV = `PERNUM,PERWT,AGE,SEX,CINETHH
1,10,25,1,1
2,20,61,2,0
3,5,8,2,1
`

func writeFactFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	switch {
	case strings.HasSuffix(name, ".zip"):
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create zip: %v", err)
		}
		zw := zip.NewWriter(f)
		w, err := zw.Create(strings.TrimSuffix(name, ".zip"))
		if err != nil {
			t.Fatalf("create member: %v", err)
		}
		if _, err := w.Write([]byte(factCSV)); err != nil {
			t.Fatalf("write member: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("close zip: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close file: %v", err)
		}
	case strings.HasSuffix(name, ".gz"):
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create gz: %v", err)
		}
		gw := gzip.NewWriter(f)
		if _, err := gw.Write([]byte(factCSV)); err != nil {
			t.Fatalf("write gz: %v", err)
		}
		if err := gw.Close(); err != nil {
			t.Fatalf("close gz: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close file: %v", err)
		}
	default:
		if err := os.WriteFile(path, []byte(factCSV), 0o644); err != nil {
			t.Fatalf("write csv: %v", err)
		}
	}
	return path
}

func assertFactTable(t *testing.T, path string) {
	t.Helper()
	tbl, err := Load(path, DefaultOptions())
	if err != nil {
		t.Fatalf("Load(%s): %v", filepath.Base(path), err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("rows = %d, want 3", tbl.Len())
	}
	cols := tbl.Columns()
	want := []string{"PERNUM", "PERWT", "AGE", "SEX", "CINETHH"}
	if len(cols) != len(want) {
		t.Fatalf("columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("columns = %v, want %v", cols, want)
		}
	}
	age, ok := tbl.Numeric("AGE")
	if !ok || age[1] != 61 {
		t.Fatalf("AGE = %v, ok = %v", age, ok)
	}
}

func TestLoadPlainCSV(t *testing.T) {
	assertFactTable(t, writeFactFile(t, "fact_acs_2023.csv"))
}

func TestLoadZip(t *testing.T) {
	assertFactTable(t, writeFactFile(t, "fact_acs_2023.csv.zip"))
}

func TestLoadGzip(t *testing.T) {
	assertFactTable(t, writeFactFile(t, "fact_acs_2023.csv.gz"))
}

func TestLoadZipWithoutCSVMember(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fact.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("readme.txt")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if _, err := w.Write([]byte("not a fact file")); err != nil {
		t.Fatalf("write member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	if _, err := Load(path, DefaultOptions()); err == nil {
		t.Fatalf("zip without csv member accepted")
	}
}

func TestReadMaxRows(t *testing.T) {
	opt := DefaultOptions()
	opt.MaxRows = 2
	tbl, err := Read(strings.NewReader(factCSV), "fact.csv", opt)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
}

func TestReadRejectsMalformedCell(t *testing.T) {
	bad := "PERWT,AGE\n10,25\n10,abc\n"
	_, err := Read(strings.NewReader(bad), "fact.csv", DefaultOptions())
	if err == nil {
		t.Fatalf("malformed cell accepted")
	}
	if !strings.Contains(err.Error(), "AGE") || !strings.Contains(err.Error(), "abc") {
		t.Fatalf("diagnostic does not name the cell: %v", err)
	}
}

func TestReadRejectsRaggedRow(t *testing.T) {
	bad := "PERWT,AGE\n10,25\n10\n"
	if _, err := Read(strings.NewReader(bad), "fact.csv", DefaultOptions()); err == nil {
		t.Fatalf("ragged row accepted")
	}
}

func TestReadRejectsEmptyFile(t *testing.T) {
	if _, err := Read(strings.NewReader(""), "fact.csv", DefaultOptions()); err == nil {
		t.Fatalf("empty file accepted")
	}
}

func TestReadTabDelimiter(t *testing.T) {
	tsv := "PERWT\tAGE\n10\t25\n"
	tbl, err := Read(strings.NewReader(tsv), "fact.tsv", DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("rows = %d, want 1", tbl.Len())
	}
	wt, ok := tbl.Numeric("PERWT")
	if !ok || wt[0] != 10 {
		t.Fatalf("PERWT = %v, ok = %v", wt, ok)
	}
}
