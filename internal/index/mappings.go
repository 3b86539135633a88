package index

import (
	"database/sql"
	"fmt"

	"github.com/aidanlsb/arbor/internal/model"
	"github.com/aidanlsb/arbor/internal/paths"
)

// Mapping statuses.
const (
	StatusActive   = "active"
	StatusOrphaned = "orphaned"
)

// Mapping is one code entity placed in a layer directory.
type Mapping struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	FilePath   string `json:"file_path"`
	LineNumber int    `json:"line_number"`
	LayerPath  string `json:"layer_path"`
	Status     string `json:"status"`
	UpdatedAt  int64  `json:"updated_at"`
}

// Unmapped is a record that could not be placed in a layer.
type Unmapped struct {
	Entity model.CodeEntity `json:"entity"`
	Reason string           `json:"reason"`
}

// MapResult summarizes RecordMappings.
type MapResult struct {
	Mapped   []Mapping  `json:"mapped"`
	Unmapped []Unmapped `json:"unmapped"`
}

// RecordMappings maps each record's file path under root to a
// "Domain/Object/Layer" key and upserts it. Records outside root, or not
// nested three directories deep, are returned as unmapped.
func (d *Database) RecordMappings(records []model.CodeEntity, root string) (*MapResult, error) {
	res := &MapResult{Mapped: []Mapping{}, Unmapped: []Unmapped{}}
	now := d.now().Unix()

	tx, err := d.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO mappings (code_entity_id, name, kind, file_path, line_number, layer_path, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code_entity_id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			file_path = excluded.file_path,
			line_number = excluded.line_number,
			layer_path = excluded.layer_path,
			status = excluded.status,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare mapping insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.Name == "" || rec.FilePath == "" {
			res.Unmapped = append(res.Unmapped, Unmapped{Entity: rec, Reason: "name and filePath are required"})
			continue
		}
		layer, ok := paths.LayerPathFromFile(root, rec.FilePath)
		if !ok {
			res.Unmapped = append(res.Unmapped, Unmapped{Entity: rec, Reason: "file is not inside a layer directory"})
			continue
		}

		m := Mapping{
			ID:         rec.ID(),
			Name:       rec.Name,
			Kind:       rec.Kind,
			FilePath:   rec.FilePath,
			LineNumber: rec.LineNumber,
			LayerPath:  layer,
			Status:     StatusActive,
			UpdatedAt:  now,
		}
		if _, err := stmt.Exec(m.ID, m.Name, m.Kind, m.FilePath, m.LineNumber, m.LayerPath, m.Status, m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("record mapping %s: %w", m.ID, err)
		}
		res.Mapped = append(res.Mapped, m)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mappings: %w", err)
	}
	return res, nil
}

// MarkOrphans flags mappings whose layer path is not in valid as orphaned,
// and reactivates orphaned mappings whose layer path is back. It returns how
// many rows changed status.
func (d *Database) MarkOrphans(valid map[string]struct{}) (int, error) {
	mappings, err := d.Mappings()
	if err != nil {
		return 0, err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := d.now().Unix()
	changed := 0
	for _, m := range mappings {
		_, ok := valid[m.LayerPath]
		want := StatusActive
		if !ok {
			want = StatusOrphaned
		}
		if m.Status == want {
			continue
		}
		if _, err := tx.Exec(`UPDATE mappings SET status = ?, updated_at = ? WHERE code_entity_id = ?`, want, now, m.ID); err != nil {
			return 0, fmt.Errorf("update mapping %s: %w", m.ID, err)
		}
		changed++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit orphan status: %w", err)
	}
	return changed, nil
}

// Mappings returns every mapping ordered by id.
func (d *Database) Mappings() ([]Mapping, error) {
	rows, err := d.db.Query(mappingSelect + ` ORDER BY code_entity_id`)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	return scanRows(rows, scanMapping)
}

// Orphans returns mappings whose layer no longer exists in the tree.
func (d *Database) Orphans() ([]Mapping, error) {
	rows, err := d.db.Query(mappingSelect+` WHERE status = ? ORDER BY code_entity_id`, StatusOrphaned)
	if err != nil {
		return nil, fmt.Errorf("query orphans: %w", err)
	}
	return scanRows(rows, scanMapping)
}

// MappingsForLayer returns the active mappings placed in one layer.
func (d *Database) MappingsForLayer(layerPath string) ([]Mapping, error) {
	rows, err := d.db.Query(mappingSelect+` WHERE layer_path = ? ORDER BY code_entity_id`, layerPath)
	if err != nil {
		return nil, fmt.Errorf("query layer mappings: %w", err)
	}
	return scanRows(rows, scanMapping)
}

const mappingSelect = `SELECT code_entity_id, name, kind, file_path, line_number, layer_path, status, updated_at FROM mappings`

func scanMapping(rows *sql.Rows) (Mapping, error) {
	var m Mapping
	err := rows.Scan(&m.ID, &m.Name, &m.Kind, &m.FilePath, &m.LineNumber, &m.LayerPath, &m.Status, &m.UpdatedAt)
	return m, err
}

// scanRows scans all rows into a slice using the provided scanner.
func scanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
