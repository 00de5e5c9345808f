package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/conorfennell/nibras/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" is its own database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// LoadProgress retrieves a learner's progress document. It returns (nil, nil)
// when the learner has none.
func (db *DB) LoadProgress(learnerID int64) (*domain.Progress, error) {
	var document string
	row := db.conn.QueryRow(`SELECT document FROM learners WHERE id = ?`, learnerID)
	if err := row.Scan(&document); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Learner not found
		}
		return nil, fmt.Errorf("failed to load progress for learner %d: %w", learnerID, err)
	}

	var p domain.Progress
	if err := json.Unmarshal([]byte(document), &p); err != nil {
		return nil, fmt.Errorf("failed to decode progress for learner %d: %w", learnerID, err)
	}
	return &p, nil
}

// SaveProgress inserts or replaces a learner's progress document.
func (db *DB) SaveProgress(learnerID int64, p *domain.Progress) error {
	document, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode progress for learner %d: %w", learnerID, err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO learners (id, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`, learnerID, string(document), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save progress for learner %d: %w", learnerID, err)
	}
	return nil
}

// LearnerIDs returns every learner with a stored document, ascending.
func (db *DB) LearnerIDs() ([]int64, error) {
	rows, err := db.conn.Query(`SELECT id FROM learners ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list learners: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan learner row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteLearner removes a learner's progress document.
func (db *DB) DeleteLearner(learnerID int64) error {
	_, err := db.conn.Exec(`DELETE FROM learners WHERE id = ?`, learnerID)
	if err != nil {
		return fmt.Errorf("failed to delete learner %d: %w", learnerID, err)
	}
	return nil
}

// Source records one corpus location and what was last loaded from it.
type Source struct {
	ID          int64
	Path        string
	Fingerprint string
	RecordCount int
	LastSynced  sql.NullTime
}

// RecordSync stores the fingerprint and record count of a corpus load,
// creating the source row on first use, and returns the source ID.
func (db *DB) RecordSync(path, fingerprint string, recordCount int) (int64, error) {
	_, err := db.conn.Exec(`
		INSERT INTO sources (path, fingerprint, record_count, last_synced)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			record_count = excluded.record_count,
			last_synced = excluded.last_synced
	`, path, fingerprint, recordCount, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to record sync for source %s: %w", path, err)
	}

	s, err := db.FindSourceByPath(path)
	if err != nil {
		return 0, err
	}
	if s == nil {
		return 0, fmt.Errorf("source %s missing after sync", path)
	}
	return s.ID, nil
}

// FindSourceByPath retrieves a source from the database by its path.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, fingerprint, record_count, last_synced
		FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Fingerprint, &s.RecordCount, &s.LastSynced)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources from the database.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, fingerprint, record_count, last_synced
		FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Fingerprint, &s.RecordCount, &s.LastSynced); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, nil
}
