package index

import (
	"database/sql"
	"fmt"

	"github.com/aidanlsb/arbor/internal/model"
)

// EntityRow is one row of the tree snapshot.
type EntityRow struct {
	Number string `json:"number"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Level  int    `json:"level"`
	Line   int    `json:"line"`
}

// SnapshotEntities replaces the stored tree snapshot.
func (d *Database) SnapshotEntities(entities []*model.Entity) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entities`); err != nil {
		return fmt.Errorf("clear entities: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO entities (number, name, kind, level, line) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entity insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		if _, err := stmt.Exec(string(e.Number), e.Name, e.Kind.String(), e.Level, e.Line); err != nil {
			return fmt.Errorf("snapshot entity %s: %w", e.Number, err)
		}
	}
	return tx.Commit()
}

// Entities returns the stored snapshot in line order.
func (d *Database) Entities() ([]EntityRow, error) {
	rows, err := d.db.Query(`SELECT number, name, kind, level, line FROM entities ORDER BY line`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	return scanRows(rows, func(rows *sql.Rows) (EntityRow, error) {
		var r EntityRow
		err := rows.Scan(&r.Number, &r.Name, &r.Kind, &r.Level, &r.Line)
		return r, err
	})
}

// Stats summarizes the index.
type Stats struct {
	Entities int `json:"entities"`
	Mappings int `json:"mappings"`
	Orphans  int `json:"orphans"`
}

// Stats counts rows in the index.
func (d *Database) Stats() (*Stats, error) {
	var s Stats
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM entities`).Scan(&s.Entities); err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}
	err := d.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) FROM mappings
	`, StatusOrphaned).Scan(&s.Mappings, &s.Orphans)
	if err != nil {
		return nil, fmt.Errorf("count mappings: %w", err)
	}
	return &s, nil
}
