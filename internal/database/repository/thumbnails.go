package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jask/smmdbtui/internal/database"
)

// ThumbnailRepo caches course thumbnails by SMMDB id.
type ThumbnailRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewThumbnailRepo(db *sql.DB) *ThumbnailRepo {
	return &ThumbnailRepo{db: db, now: database.Now}
}

// Get returns the cached bytes and whether they were present.
func (r *ThumbnailRepo) Get(ctx context.Context, courseID string) ([]byte, bool, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM thumbnails WHERE course_id = ?`, courseID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *ThumbnailRepo) Put(ctx context.Context, courseID string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO thumbnails(course_id, data, fetched_at)
	VALUES (?, ?, ?)
	ON CONFLICT(course_id) DO UPDATE SET
	 data=excluded.data,
	 fetched_at=excluded.fetched_at;
	`, courseID, data, r.now())
	return err
}

func (r *ThumbnailRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM thumbnails`).Scan(&n)
	return n, err
}
