package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Jiang-Li/ACS-Internet/internal/dimension"
	"github.com/Jiang-Li/ACS-Internet/internal/fact"
	"github.com/Jiang-Li/ACS-Internet/internal/weighted"
)

// DB wraps the SQLite export database.
type DB struct {
	conn *sql.DB
}

// OpenDB opens (creating if needed) the SQLite database at path.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close releases the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// safeIdent restricts identifiers derived from variable names to
// alphanumerics and underscores.
func safeIdent(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// ExportDimension replaces the dim_<variable> table with the given entries.
func (d *DB) ExportDimension(dim dimension.Table) error {
	name := "dim_" + strings.ToLower(safeIdent(dim.Variable))
	if _, err := d.conn.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name)); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	create := fmt.Sprintf(`
	CREATE TABLE %s (
		value TEXT NOT NULL,
		label TEXT NOT NULL
	)`, name)
	if _, err := d.conn.Exec(create); err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s (value, label) VALUES (?, ?)`, name))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range dim.Entries {
		if _, err := stmt.Exec(e.Code.String(), e.Label); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert into %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// ExportFact replaces the fact table. Numeric columns become REAL columns,
// derived label columns become TEXT.
func (d *DB) ExportFact(t *fact.Table) error {
	if _, err := d.conn.Exec(`DROP TABLE IF EXISTS fact`); err != nil {
		return fmt.Errorf("drop fact: %w", err)
	}

	numeric := t.Columns()
	derived := t.Derived()
	var cols []string
	for _, name := range numeric {
		cols = append(cols, fmt.Sprintf("%s REAL", safeIdent(name)))
	}
	for _, name := range derived {
		cols = append(cols, fmt.Sprintf("%s TEXT", safeIdent(name)))
	}
	create := fmt.Sprintf("CREATE TABLE fact (\n\t\t%s\n\t)", strings.Join(cols, ",\n\t\t"))
	if _, err := d.conn.Exec(create); err != nil {
		return fmt.Errorf("create fact: %w", err)
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(numeric)+len(derived)), ", ")
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO fact VALUES (%s)`, marks))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	numCols := make([][]float64, len(numeric))
	for i, name := range numeric {
		numCols[i], _ = t.Numeric(name)
	}
	labCols := make([][]string, len(derived))
	for i, name := range derived {
		labCols[i], _ = t.Labels(name)
	}
	args := make([]any, len(numeric)+len(derived))
	for row := 0; row < t.Len(); row++ {
		for i := range numCols {
			args[i] = numCols[i][row]
		}
		for i := range labCols {
			args[len(numCols)+i] = labCols[i][row]
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert fact row %d: %w", row+1, err)
		}
	}
	return tx.Commit()
}

// ExportStatistics appends one analysis result to the results table, keyed
// by run, dimension variable and condition column.
func (d *DB) ExportStatistics(runID, variable, condition string, stats []weighted.Statistic) error {
	create := `
	CREATE TABLE IF NOT EXISTS results (
		run_id TEXT NOT NULL,
		variable TEXT NOT NULL,
		condition TEXT NOT NULL,
		value TEXT NOT NULL,
		label TEXT,
		percentage REAL NOT NULL,
		population_estimate REAL NOT NULL
	)`
	if _, err := d.conn.Exec(create); err != nil {
		return fmt.Errorf("create results: %w", err)
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`
	INSERT INTO results (run_id, variable, condition, value, label, percentage, population_estimate)
	VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stats {
		var label any
		if s.Labeled {
			label = s.Label
		}
		if _, err := stmt.Exec(runID, variable, condition, s.Group.String(), label, s.Percentage, s.Population); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert result: %w", err)
		}
	}
	return tx.Commit()
}
