// Package loader reads fact extracts from disk into fact tables. Plain
// CSV, zip archives holding one CSV member, and gzipped CSV are supported;
// the engine downstream never sees the encoding.
package loader

import (
	"archive/zip"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Jiang-Li/ACS-Internet/internal/fact"
)

// Options controls fact loading.
type Options struct {
	// Delimiter for CSV. If 0, auto-detects from the filename.
	Delimiter rune
	// MaxRows limits rows loaded; 0 means unlimited.
	MaxRows int
}

// DefaultOptions loads everything with a sniffed delimiter.
func DefaultOptions() Options {
	return Options{}
}

// Load reads a fact extract, dispatching on the file extension.
func Load(path string, opt Options) (*fact.Table, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return loadZip(path, opt)
	case strings.HasSuffix(lower, ".gz"):
		return loadGzip(path, opt)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open fact file: %w", err)
		}
		defer f.Close()
		return Read(f, filepath.Base(path), opt)
	}
}

func loadZip(path string, opt Options) (*fact.Table, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open fact archive: %w", err)
	}
	defer zr.Close()
	for _, member := range zr.File {
		if !strings.HasSuffix(strings.ToLower(member.Name), ".csv") {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("open archive member %s: %w", member.Name, err)
		}
		defer rc.Close()
		return Read(rc, member.Name, opt)
	}
	return nil, fmt.Errorf("archive %s holds no csv member", filepath.Base(path))
}

func loadGzip(path string, opt Options) (*fact.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fact file: %w", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer gz.Close()
	name := strings.TrimSuffix(filepath.Base(path), ".gz")
	return Read(gz, name, opt)
}

// Read parses CSV fact data. The first record names the columns; every
// following record must carry one numeric value per column. Ragged or
// non-numeric records abort the load, since a malformed fact relation can
// produce no valid output downstream.
func Read(r io.Reader, name string, opt Options) (*fact.Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true
	cr.Comma = delimiterFor(name, opt.Delimiter)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("fact file %s is empty", name)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.TrimSpace(h)
	}

	data := make(map[string][]float64, len(cols))
	for _, c := range cols {
		data[c] = nil
	}
	if len(data) != len(cols) {
		return nil, fmt.Errorf("fact file %s repeats a column name", name)
	}

	row := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", row+1, err)
		}
		row++
		if opt.MaxRows > 0 && row > opt.MaxRows {
			break
		}
		for i, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: invalid number %q", row, cols[i], cell)
			}
			data[cols[i]] = append(data[cols[i]], v)
		}
	}
	return fact.New(cols, data)
}

func delimiterFor(name string, configured rune) rune {
	if configured != 0 {
		return configured
	}
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}
