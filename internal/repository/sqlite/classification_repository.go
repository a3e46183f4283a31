package sqlite

import (
	"database/sql"
	"fmt"

	"binsorter/internal/dto"
	"binsorter/internal/model"
)

const classificationColumns = `c.id, c.filename, c.source, c.status, c.label, c.confidence, c.bin, c.timestamp, c.filepath, c.filesize`

// ClassificationRepository implements repository.ClassificationRepository for SQLite.
type ClassificationRepository struct {
	db *DB
}

// NewClassificationRepository creates a new SQLite classification repository.
func NewClassificationRepository(db *DB) *ClassificationRepository {
	return &ClassificationRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClassification(row rowScanner) (*model.Classification, error) {
	var c model.Classification
	err := row.Scan(&c.ID, &c.Filename, &c.Source, &c.Status, &c.Label, &c.Confidence, &c.Bin, &c.Timestamp, &c.FilePath, &c.FileSize)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert adds a new classification record to the database.
func (r *ClassificationRepository) Insert(c *model.Classification) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO classifications (filename, source, status, label, confidence, bin, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Filename, c.Source, c.Status, c.Label, c.Confidence, c.Bin, c.Timestamp, c.FilePath, c.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert classification: %w", err)
	}

	return result.LastInsertId()
}

// GetByFilename retrieves a classification by its filename. A missing row returns (nil, nil).
func (r *ClassificationRepository) GetByFilename(filename string) (*model.Classification, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	c, err := scanClassification(r.db.Conn().QueryRow(`SELECT `+classificationColumns+` FROM classifications c WHERE c.filename = ?`, filename))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get classification: %w", err)
	}
	return c, nil
}

// filterClause builds the WHERE conditions shared by GetAll and GetTotalCount.
func filterClause(filter *dto.HistoryFilters) (string, []interface{}) {
	query := ""
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Bin != "" {
		query += " AND c.bin = ?"
		args = append(args, filter.Bin)
	}

	if filter.Status != "" {
		query += " AND c.status = ?"
		args = append(args, filter.Status)
	}

	if filter.Label != "" {
		query += " AND EXISTS (SELECT 1 FROM detections d WHERE d.classification_id = c.id AND d.label = ?)"
		args = append(args, filter.Label)
	}

	if !filter.DateAfter.IsZero() {
		query += " AND DATE(c.timestamp) >= DATE(?)"
		args = append(args, filter.DateAfter.Format("2006-01-02"))
	}

	if !filter.DateBefore.IsZero() {
		query += " AND DATE(c.timestamp) <= DATE(?)"
		args = append(args, filter.DateBefore.Format("2006-01-02"))
	}

	return query, args
}

// GetAll retrieves classifications based on filter criteria, newest first.
func (r *ClassificationRepository) GetAll(filter *dto.HistoryFilters) ([]model.Classification, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)
	query := `SELECT ` + classificationColumns + ` FROM classifications c WHERE 1=1` + where
	query += " ORDER BY c.timestamp DESC, c.id DESC"

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
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer rows.Close()

	var result []model.Classification
	for rows.Next() {
		c, err := scanClassification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}
		result = append(result, *c)
	}

	return result, rows.Err()
}

// GetTotalCount returns the total count of classifications matching the filter.
func (r *ClassificationRepository) GetTotalCount(filter *dto.HistoryFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM classifications c WHERE 1=1`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count classifications: %w", err)
	}

	return count, nil
}

// GetTotalSize returns the summed size of every stored annotated image.
func (r *ClassificationRepository) GetTotalSize() (int64, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var size int64
	if err := r.db.Conn().QueryRow(`SELECT COALESCE(SUM(filesize), 0) FROM classifications`).Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to sum sizes: %w", err)
	}
	return size, nil
}

// GetStats returns statistics about stored classifications.
func (r *ClassificationRepository) GetStats() (*model.HistoryStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.HistoryStats{
		PerBin:      make(map[string]int),
		PerStatus:   make(map[string]int),
		LabelCounts: make(map[string]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM classifications`).
		Scan(&stats.TotalClassifications, &stats.TotalSizeBytes); err != nil {
		return nil, err
	}

	if err := r.countInto(`SELECT bin, COUNT(*) FROM classifications WHERE bin != '' GROUP BY bin`, stats.PerBin); err != nil {
		return nil, err
	}

	if err := r.countInto(`SELECT status, COUNT(*) FROM classifications GROUP BY status`, stats.PerStatus); err != nil {
		return nil, err
	}

	// Most detected labels
	if err := r.countInto(`
		SELECT label, COUNT(*) as cnt
		FROM detections
		GROUP BY label
		ORDER BY cnt DESC
		LIMIT 10
	`, stats.LabelCounts); err != nil {
		return nil, err
	}

	return stats, nil
}

// countInto runs a two-column (key, count) query into dst. Caller holds the lock.
func (r *ClassificationRepository) countInto(query string, dst map[string]int) error {
	rows, err := r.db.Conn().Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dst[key] = count
	}
	return rows.Err()
}

// Delete removes a classification by its ID.
func (r *ClassificationRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	// First delete related detections
	if _, err := r.db.Conn().Exec(`DELETE FROM detections WHERE classification_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM classifications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete classification: %w", err)
	}
	return nil
}

// DeleteAll removes all classifications and their detections.
func (r *ClassificationRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM detections`); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM classifications`); err != nil {
		return fmt.Errorf("failed to delete classifications: %w", err)
	}

	return nil
}
