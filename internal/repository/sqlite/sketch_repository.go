package sqlite

import (
	"database/sql"
	"fmt"

	"sketchserver/internal/dto"
	"sketchserver/internal/model"
)

const sketchColumns = `id, filename, source, original, width, height, timestamp, filepath, filesize`

// SketchRepository implements repository.SketchRepository for SQLite.
type SketchRepository struct {
	db *DB
}

// NewSketchRepository creates a new SQLite sketch repository.
func NewSketchRepository(db *DB) *SketchRepository {
	return &SketchRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSketch(row rowScanner) (*model.Sketch, error) {
	var s model.Sketch
	err := row.Scan(&s.ID, &s.Filename, &s.Source, &s.Original, &s.Width, &s.Height, &s.Timestamp, &s.FilePath, &s.FileSize)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Insert adds a new sketch record to the database.
func (r *SketchRepository) Insert(s *model.Sketch) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO sketches (filename, source, original, width, height, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.Filename, s.Source, s.Original, s.Width, s.Height, s.Timestamp, s.FilePath, s.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sketch: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a sketch by its ID. A missing row yields (nil, nil).
func (r *SketchRepository) GetByID(id int64) (*model.Sketch, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	s, err := scanSketch(r.db.Conn().QueryRow(`SELECT `+sketchColumns+` FROM sketches WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sketch: %w", err)
	}
	return s, nil
}

// GetByFilename retrieves a sketch by its filename. A missing row yields (nil, nil).
func (r *SketchRepository) GetByFilename(filename string) (*model.Sketch, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	s, err := scanSketch(r.db.Conn().QueryRow(`SELECT `+sketchColumns+` FROM sketches WHERE filename = ?`, filename))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sketch: %w", err)
	}
	return s, nil
}

// whereClause builds the shared filter part of list and count queries.
func whereClause(filter *dto.SketchFilters) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}

	if !filter.DateAfter.IsZero() {
		query += " AND DATE(timestamp) >= DATE(?)"
		args = append(args, filter.DateAfter.Format("2006-01-02"))
	}

	if !filter.DateBefore.IsZero() {
		query += " AND DATE(timestamp) <= DATE(?)"
		args = append(args, filter.DateBefore.Format("2006-01-02"))
	}

	return query, args
}

// GetAll retrieves sketches matching the filter, newest first.
func (r *SketchRepository) GetAll(filter *dto.SketchFilters) ([]model.Sketch, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `SELECT ` + sketchColumns + ` FROM sketches` + where + ` ORDER BY timestamp DESC, id DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sketches: %w", err)
	}
	defer rows.Close()

	var sketches []model.Sketch
	for rows.Next() {
		s, err := scanSketch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sketch: %w", err)
		}
		sketches = append(sketches, *s)
	}

	return sketches, rows.Err()
}

// GetTotalCount returns the number of sketches matching the filter, ignoring paging.
func (r *SketchRepository) GetTotalCount(filter *dto.SketchFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM sketches`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sketches: %w", err)
	}
	return count, nil
}

// GetTotalSize returns the summed file size of all stored sketches.
func (r *SketchRepository) GetTotalSize() (int64, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var size int64
	if err := r.db.Conn().QueryRow(`SELECT COALESCE(SUM(filesize), 0) FROM sketches`).Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to sum sketch sizes: %w", err)
	}
	return size, nil
}

// GetStats returns statistics about stored sketches.
func (r *SketchRepository) GetStats() (*model.SketchStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.SketchStats{PerSource: make(map[string]int)}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM sketches`).Scan(&stats.TotalSketches, &stats.TotalSizeBytes); err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}

	rows, err := r.db.Conn().Query(`SELECT source, COUNT(*) FROM sketches GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("failed to query per-source counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan per-source count: %w", err)
		}
		stats.PerSource[source] = count
	}

	return stats, rows.Err()
}

// DeleteByFilename removes a sketch by its filename. Missing rows are not an error.
func (r *SketchRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM sketches WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("failed to delete sketch: %w", err)
	}
	return nil
}

// DeleteAll removes every sketch record.
func (r *SketchRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM sketches`); err != nil {
		return fmt.Errorf("failed to delete sketches: %w", err)
	}
	return nil
}
