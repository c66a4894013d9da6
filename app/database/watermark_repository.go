package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ WatermarkRepository = (*watermarkRepository)(nil)

type watermarkRepository struct {
	db *DB
}

func NewWatermarkRepository(db *DB) WatermarkRepository {
	return &watermarkRepository{db: db}
}

func (r *watermarkRepository) GetWatermark(id string) (*Watermark, error) {
	var mark Watermark
	var lastProcessedAt, updatedAt int64

	err := r.db.QueryRow(`
		SELECT id, last_processed_at, updated_at
		FROM watermarks
		WHERE id = ?
	`, id).Scan(&mark.ID, &lastProcessedAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get watermark: %w", err)
	}

	mark.LastProcessedAt = time.Unix(lastProcessedAt, 0).UTC()
	mark.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &mark, nil
}

// AdvanceWatermark upserts the watermark, moving it forward only.
// MAX in the conflict clause keeps the timestamp monotonically
// non-decreasing regardless of caller ordering.
func (r *watermarkRepository) AdvanceWatermark(id string, lastProcessedAt time.Time) error {
	now := time.Now().UTC().Unix()

	_, err := r.db.Exec(`
		INSERT INTO watermarks (id, last_processed_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			last_processed_at = MAX(last_processed_at, excluded.last_processed_at),
			updated_at = excluded.updated_at
	`, id, lastProcessedAt.UTC().Unix(), now)

	if err != nil {
		return fmt.Errorf("failed to advance watermark: %w", err)
	}

	return nil
}
