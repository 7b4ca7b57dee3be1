package repository

import "time"

// RecentSave represents a recent_saves row.
type RecentSave struct {
	ID       string
	Path     string
	Label    string
	OpenedAt time.Time
}

