package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Export outcomes
const (
	ExportSucceeded = "succeeded"
	ExportFailed    = "failed"
)

// ExportLog records one export or print request
type ExportLog struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	Filename   string    `json:"filename"`
	Rows       int       `json:"rows"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Username   string    `json:"username,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExportLogStore handles database operations for the export log
type ExportLogStore struct {
	db *sql.DB
}

// NewExportLogStore creates a new export log store
func NewExportLogStore(db *sql.DB) *ExportLogStore {
	return &ExportLogStore{db: db}
}

// Record appends an entry and fills in its ID and timestamp
func (e *ExportLogStore) Record(entry *ExportLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO export_log (kind, filename, rows, status, error, username, duration_ms, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := e.db.Exec(query, entry.Kind, entry.Filename, entry.Rows, entry.Status,
		entry.Error, entry.Username, entry.DurationMS, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record export: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = id
	return nil
}

// Recent returns up to limit entries, newest first
func (e *ExportLogStore) Recent(limit int) ([]ExportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := e.db.Query(`SELECT id, kind, filename, rows, status, error, username, duration_ms, created_at
		FROM export_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query export log: %w", err)
	}
	defer rows.Close()

	entries := []ExportLog{}
	for rows.Next() {
		var entry ExportLog
		if err := rows.Scan(&entry.ID, &entry.Kind, &entry.Filename, &entry.Rows, &entry.Status,
			&entry.Error, &entry.Username, &entry.DurationMS, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
