package db

import (
	"database/sql"
	"fmt"
	"time"
)

// History actions.
const (
	ActionInstalled = "installed"
	ActionReplaced  = "replaced"
	ActionRemoved   = "removed"
)

// HistoryEntry is one recorded install, replacement, or removal.
type HistoryEntry struct {
	ID           int64
	ModID        string
	Name         string
	Version      string
	Action       string
	PriorVersion string // version replaced, for upgrade entries
	Source       string // archive the mod came from
	InstallPath  string
	CreatedAt    time.Time
}

// RecordHistory appends an entry to the install history.
func (d *DB) RecordHistory(e *HistoryEntry) error {
	res, err := d.Exec(`
		INSERT INTO install_history (mod_id, name, version, action, prior_version, source, install_path)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ModID, e.Name, e.Version, e.Action, e.PriorVersion, e.Source, e.InstallPath)
	if err != nil {
		return fmt.Errorf("recording history: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	return nil
}

// History returns the most recent entries, newest first. A limit <= 0
// returns everything.
func (d *DB) History(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.Query(`
		SELECT id, mod_id, name, version, action, prior_version, source, install_path, created_at
		FROM install_history
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

// HistoryFor returns the most recent entries for one mod, newest first.
func (d *DB) HistoryFor(modID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.Query(`
		SELECT id, mod_id, name, version, action, prior_version, source, install_path, created_at
		FROM install_history
		WHERE mod_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, modID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	return scanHistory(rows)
}

func scanHistory(rows *sql.Rows) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.ModID, &e.Name, &e.Version, &e.Action,
			&e.PriorVersion, &e.Source, &e.InstallPath, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
