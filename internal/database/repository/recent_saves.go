package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jask/smmdbtui/internal/database"
)

// RecentSaveRepo remembers save folders the user opened.
type RecentSaveRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewRecentSaveRepo(db *sql.DB) *RecentSaveRepo {
	return &RecentSaveRepo{db: db, now: database.Now}
}

// RecentSaveID is stable per cleaned path, so reopening a save updates its row.
func RecentSaveID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("save:"+filepath.Clean(path))).String()
}

// Touch records that path was opened now.
func (r *RecentSaveRepo) Touch(ctx context.Context, path, label string) error {
	path = filepath.Clean(path)
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO recent_saves(id, path, label, opened_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 label=excluded.label,
	 opened_at=excluded.opened_at;
	`, RecentSaveID(path), path, label, r.now())
	return err
}

// List returns the most recently opened saves first.
func (r *RecentSaveRepo) List(ctx context.Context, limit int) ([]RecentSave, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, path, label, opened_at FROM recent_saves
	ORDER BY opened_at DESC, path LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RecentSave
	for rows.Next() {
		var s RecentSave
		if err := rows.Scan(&s.ID, &s.Path, &s.Label, &s.OpenedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *RecentSaveRepo) Delete(ctx context.Context, path string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recent_saves WHERE id = ?`, RecentSaveID(path))
	return err
}
