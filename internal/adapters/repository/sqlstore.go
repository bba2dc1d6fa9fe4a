package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/sift/internal/domain/model"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

const recordsSchema = `
CREATE TABLE IF NOT EXISTS assessment_records (
    subject_id  TEXT PRIMARY KEY,
    doc         TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
`

const historySchema = `
CREATE TABLE IF NOT EXISTS assessment_history (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    subject_id   TEXT NOT NULL,
    entry_id     TEXT NOT NULL,
    doc          TEXT NOT NULL,
    completed_at TEXT NOT NULL
);
`

const historyIndex = `
CREATE INDEX IF NOT EXISTS idx_assessment_history_subject
ON assessment_history(subject_id, id);
`

// SQLStore implements Store on SQLite via the cgo-free modernc driver.
// Records are stored as JSON documents keyed by subject; history rows are
// insert-only, ordered by rowid.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (creating if needed) the database at path and ensures
// the schema exists. A single connection serializes writers, matching the
// single-writer-per-subject discipline.
func NewSQLStore(ctx context.Context, path string, opts ...SQLOption) (*SQLStore, error) {
	cfg := sqlConfig{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, cfg.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorage, path, err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{recordsSchema, historySchema, historyIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: schema: %v", ErrStorage, err)
		}
	}

	return &SQLStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrStorage, err)
	}
	return nil
}

// Create inserts a fresh record.
func (s *SQLStore) Create(ctx context.Context, rec model.AssessmentRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal record: %v", ErrStorage, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO assessment_records (subject_id, doc, updated_at)
		 SELECT ?, ?, ? WHERE NOT EXISTS
		 (SELECT 1 FROM assessment_records WHERE subject_id = ?)`,
		rec.SubjectID, string(doc), rec.UpdatedAt.UTC().Format(time.RFC3339Nano), rec.SubjectID,
	)
	if err != nil {
		return fmt.Errorf("%w: insert record: %v", ErrStorage, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, rec.SubjectID)
	}
	return nil
}

// Get returns a copy of the subject's record.
func (s *SQLStore) Get(ctx context.Context, subjectID string) (model.AssessmentRecord, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM assessment_records WHERE subject_id = ?`, subjectID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AssessmentRecord{}, fmt.Errorf("%w: %s", ErrNotFound, subjectID)
	}
	if err != nil {
		return model.AssessmentRecord{}, fmt.Errorf("%w: query record: %v", ErrStorage, err)
	}
	var rec model.AssessmentRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return model.AssessmentRecord{}, fmt.Errorf("%w: unmarshal record: %v", ErrStorage, err)
	}
	return rec, nil
}

// Update atomically applies mutate to the stored record inside a
// transaction.
func (s *SQLStore) Update(ctx context.Context, subjectID string, mutate func(*model.AssessmentRecord) error) (model.AssessmentRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.AssessmentRecord{}, fmt.Errorf("%w: begin: %v", ErrStorage, err)
	}
	defer func() { _ = tx.Rollback() }()

	var doc string
	err = tx.QueryRowContext(ctx,
		`SELECT doc FROM assessment_records WHERE subject_id = ?`, subjectID,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.AssessmentRecord{}, fmt.Errorf("%w: %s", ErrNotFound, subjectID)
	}
	if err != nil {
		return model.AssessmentRecord{}, fmt.Errorf("%w: query record: %v", ErrStorage, err)
	}

	var rec model.AssessmentRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return model.AssessmentRecord{}, fmt.Errorf("%w: unmarshal record: %v", ErrStorage, err)
	}
	if err := mutate(&rec); err != nil {
		return model.AssessmentRecord{}, err
	}

	updated, err := json.Marshal(rec)
	if err != nil {
		return model.AssessmentRecord{}, fmt.Errorf("%w: marshal record: %v", ErrStorage, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE assessment_records SET doc = ?, updated_at = ? WHERE subject_id = ?`,
		string(updated), rec.UpdatedAt.UTC().Format(time.RFC3339Nano), subjectID,
	); err != nil {
		return model.AssessmentRecord{}, fmt.Errorf("%w: update record: %v", ErrStorage, err)
	}
	if err := tx.Commit(); err != nil {
		return model.AssessmentRecord{}, fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}
	return rec, nil
}

// AppendHistory appends an entry row to the subject's ledger.
func (s *SQLStore) AppendHistory(ctx context.Context, subjectID string, entry model.HistoryEntry) error {
	if _, err := s.Get(ctx, subjectID); err != nil {
		return err
	}
	doc, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: marshal history entry: %v", ErrStorage, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO assessment_history (subject_id, entry_id, doc, completed_at)
		 VALUES (?, ?, ?, ?)`,
		subjectID, entry.ID, string(doc), entry.CompletedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("%w: insert history entry: %v", ErrStorage, err)
	}
	return nil
}

// History returns the subject's entries ordered by insertion.
func (s *SQLStore) History(ctx context.Context, subjectID string) ([]model.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM assessment_history WHERE subject_id = ? ORDER BY id ASC`, subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query history: %v", ErrStorage, err)
	}
	defer rows.Close()

	var out []model.HistoryEntry
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("%w: scan history: %v", ErrStorage, err)
		}
		var entry model.HistoryEntry
		if err := json.Unmarshal([]byte(doc), &entry); err != nil {
			return nil, fmt.Errorf("%w: unmarshal history entry: %v", ErrStorage, err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate history: %v", ErrStorage, err)
	}
	return out, nil
}

// Count returns the number of records tracked.
func (s *SQLStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM assessment_records`,
	).Scan(&n); err != nil {
		return 0
	}
	return n
}
