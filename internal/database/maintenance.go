package database

import (
	"context"
	"database/sql"
	"fmt"
)

// PruneResult reports how many rows PruneCache removed.
type PruneResult struct {
	Thumbnails  int64
	RecentSaves int64
}

// PruneCache keeps the newest maxThumbs thumbnails and maxRecent recent
// saves. It is idempotent and safe to run on every startup.
func PruneCache(ctx context.Context, db *sql.DB, maxThumbs, maxRecent int) (PruneResult, error) {
	var res PruneResult
	err := WithTx(db, func(tx *sql.Tx) error {
		r, err := tx.ExecContext(ctx, `
		DELETE FROM thumbnails WHERE course_id NOT IN (
		 SELECT course_id FROM thumbnails ORDER BY fetched_at DESC, course_id LIMIT ?
		)`, maxThumbs)
		if err != nil {
			return fmt.Errorf("prune thumbnails: %w", err)
		}
		res.Thumbnails, _ = r.RowsAffected()

		r, err = tx.ExecContext(ctx, `
		DELETE FROM recent_saves WHERE id NOT IN (
		 SELECT id FROM recent_saves ORDER BY opened_at DESC, id LIMIT ?
		)`, maxRecent)
		if err != nil {
			return fmt.Errorf("prune recent saves: %w", err)
		}
		res.RecentSaves, _ = r.RowsAffected()
		return nil
	})
	return res, err
}
