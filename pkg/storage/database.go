package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lirany1/test-metrics-charts/pkg/logger"
	"github.com/lirany1/test-metrics-charts/pkg/models"
	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02 15:04:05.000000000"

// ErrNotFound is returned when a snapshot id is unknown
var ErrNotFound = errors.New("snapshot not found")

// Database keeps a history of fetched timeseries tables
type Database struct {
	db   *sql.DB
	path string
}

// SnapshotRecord is one stored metrics API response
type SnapshotRecord struct {
	ID        string          `json:"id" yaml:"id"`
	FetchedAt time.Time       `json:"fetchedAt" yaml:"fetched_at"`
	Query     models.Query    `json:"query" yaml:"query"`
	Columns   models.RawTable `json:"columns,omitempty" yaml:"columns,omitempty"`
}

// NewDatabase creates or opens the history database under historyDir
func NewDatabase(historyDir string) (*Database, error) {
	dir := filepath.Join(historyDir, ".metrics-history")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	dbPath := filepath.Join(dir, "snapshots.db")
	logger.Infof("Opening database at: %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		db:   db,
		path: dbPath,
	}

	if err := database.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return database, nil
}

// Path returns the database file location
func (d *Database) Path() string {
	return d.path
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			fetched_at DATETIME NOT NULL,
			query_type TEXT NOT NULL,
			release_name TEXT,
			build_id TEXT,
			about_kind TEXT,
			columns_json TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshot_fetched_at
		 ON snapshots(fetched_at DESC)`,

		`CREATE INDEX IF NOT EXISTS idx_snapshot_query
		 ON snapshots(release_name, build_id, about_kind)`,
	}

	for i, migration := range migrations {
		if _, err := d.db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	logger.Debugf("Database migrations completed")
	return nil
}

// SaveSnapshot stores a fetched table and returns its new id
func (d *Database) SaveSnapshot(q models.Query, columns models.RawTable, fetchedAt time.Time) (string, error) {
	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return "", fmt.Errorf("failed to encode columns: %w", err)
	}

	id := uuid.New().String()
	query := `
		INSERT INTO snapshots (
			id, fetched_at, query_type, release_name, build_id, about_kind, columns_json
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = d.db.Exec(query,
		id,
		fetchedAt.UTC().Format(timeLayout),
		q.Type,
		q.Release,
		q.Build,
		q.About,
		string(columnsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	logger.Debugf("Saved snapshot %s for %s", id, q)
	return id, nil
}

// GetRecentSnapshots lists the newest snapshots without their columns
func (d *Database) GetRecentSnapshots(limit int) ([]SnapshotRecord, error) {
	query := `
		SELECT id, fetched_at, query_type, release_name, build_id, about_kind
		FROM snapshots
		ORDER BY fetched_at DESC
		LIMIT ?
	`

	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]SnapshotRecord, 0)
	for rows.Next() {
		var rec SnapshotRecord
		var fetchedAt string

		if err := rows.Scan(&rec.ID, &fetchedAt, &rec.Query.Type, &rec.Query.Release, &rec.Query.Build, &rec.Query.About); err != nil {
			return nil, err
		}
		rec.FetchedAt = parseTime(fetchedAt)
		snapshots = append(snapshots, rec)
	}

	return snapshots, rows.Err()
}

// GetSnapshot loads one snapshot including its columns
func (d *Database) GetSnapshot(id string) (*SnapshotRecord, error) {
	query := `
		SELECT id, fetched_at, query_type, release_name, build_id, about_kind, columns_json
		FROM snapshots
		WHERE id = ?
	`

	var rec SnapshotRecord
	var fetchedAt, columnsJSON string
	err := d.db.QueryRow(query, id).Scan(
		&rec.ID, &fetchedAt, &rec.Query.Type, &rec.Query.Release, &rec.Query.Build, &rec.Query.About, &columnsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.FetchedAt = parseTime(fetchedAt)
	if err := json.Unmarshal([]byte(columnsJSON), &rec.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns: %w", err)
	}
	return &rec, nil
}

// CleanupOldData removes snapshots older than retentionDays
func (d *Database) CleanupOldData(retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format(timeLayout)

	result, err := d.db.Exec(`DELETE FROM snapshots WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup snapshots: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		logger.Infof("Cleaned up %d old snapshots", rows)
	}
	return rows, nil
}

// parseTime accepts both our layout and the RFC3339 form the sqlite driver
// produces when it converts DATETIME columns
func parseTime(s string) time.Time {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t.UTC()
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
