package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rewired-gh/fixtureverify/internal/models"
)

// HistoryStore loads and saves the bounded run history.
//
// Load never fails a run: when the stored history cannot be read it returns
// an empty history together with the error, so the caller can log it and
// continue from a cold start.
type HistoryStore interface {
	Load(ctx context.Context) (models.History, error)
	Save(ctx context.Context, h models.History) error
	Close() error
}

// NewHistoryStore opens the history backend named by backend ("json" or "sqlite").
func NewHistoryStore(backend, path string, filePermissions, dirPermissions os.FileMode) (HistoryStore, error) {
	switch backend {
	case "", "json":
		return NewFileHistory(path, filePermissions, dirPermissions), nil
	case "sqlite":
		return OpenSQLiteHistory(path, dirPermissions)
	default:
		return nil, fmt.Errorf("unknown history backend: %s", backend)
	}
}

// FileHistory keeps the history in a single versioned JSON document.
type FileHistory struct {
	filePath        string
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// historyFile is the on-disk layout of FileHistory.
type historyFile struct {
	Version int                      `json:"version"`
	SavedAt time.Time                `json:"savedAt"`
	Runs    []models.VerificationRun `json:"runs"`
}

// NewFileHistory creates a JSON history at filePath. If filePath is empty,
// uses the OS tmp directory.
func NewFileHistory(filePath string, filePermissions, dirPermissions os.FileMode) *FileHistory {
	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), "fixtureverify", "verification-history.json")
	}
	if filePermissions == 0 {
		filePermissions = 0644
	}
	if dirPermissions == 0 {
		dirPermissions = 0755
	}
	return &FileHistory{
		filePath:        filePath,
		filePermissions: filePermissions,
		dirPermissions:  dirPermissions,
	}
}

// Load reads the history file. A missing file is an empty history.
func (f *FileHistory) Load(ctx context.Context) (models.History, error) {
	// Clean up any stale temp files from previous crashes
	removeStaleTemp(f.filePath)

	jsonData, err := os.ReadFile(f.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return models.NewHistory(), nil
	}
	if err != nil {
		return models.NewHistory(), fmt.Errorf("failed to read history: %w", err)
	}

	var data historyFile
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return models.NewHistory(), fmt.Errorf("failed to unmarshal history: %w", err)
	}

	// Version 0 predates versioning and shares the current run layout
	if data.Version > models.HistoryVersion {
		return models.NewHistory(), fmt.Errorf("unsupported history version %d", data.Version)
	}

	return boundHistory(data.Runs), nil
}

// Save writes the history atomically.
func (f *FileHistory) Save(ctx context.Context, h models.History) error {
	runs := h.Runs
	if runs == nil {
		runs = []models.VerificationRun{}
	}

	jsonData, err := json.MarshalIndent(historyFile{
		Version: models.HistoryVersion,
		SavedAt: time.Now().UTC(),
		Runs:    runs,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	return writeAtomic(f.filePath, jsonData, f.filePermissions, f.dirPermissions)
}

// Close is a no-op for file-backed history.
func (f *FileHistory) Close() error {
	return nil
}

// boundHistory wraps runs as a current-version history holding at most
// MaxHistoryRuns, dropping the oldest.
func boundHistory(runs []models.VerificationRun) models.History {
	h := models.NewHistory()
	if len(runs) > models.MaxHistoryRuns {
		runs = runs[len(runs)-models.MaxHistoryRuns:]
	}
	h.Runs = append(h.Runs, runs...)
	return h
}

// SQLiteHistory keeps one row per run in a SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

// OpenSQLiteHistory opens (creating if needed) the database at path.
func OpenSQLiteHistory(path string, dirPermissions os.FileMode) (*SQLiteHistory, error) {
	if dirPermissions == 0 {
		dirPermissions = 0755
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// Single writer; serialise access through one connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteHistory{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init sqlite history: %w", err)
	}
	return s, nil
}

func (s *SQLiteHistory) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS verification_runs (
		seq INTEGER PRIMARY KEY,
		run_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		version INTEGER NOT NULL,
		payload TEXT NOT NULL
	);`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Load returns all stored runs, oldest first.
func (s *SQLiteHistory) Load(ctx context.Context) (models.History, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, payload
		FROM verification_runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return models.NewHistory(), fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.VerificationRun
	for rows.Next() {
		var version int
		var payload string
		if err := rows.Scan(&version, &payload); err != nil {
			return models.NewHistory(), fmt.Errorf("failed to scan run: %w", err)
		}
		if version > models.HistoryVersion {
			return models.NewHistory(), fmt.Errorf("unsupported history version %d", version)
		}
		var run models.VerificationRun
		if err := json.Unmarshal([]byte(payload), &run); err != nil {
			return models.NewHistory(), fmt.Errorf("failed to unmarshal run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return models.NewHistory(), fmt.Errorf("failed to read history: %w", err)
	}

	return boundHistory(runs), nil
}

// Save replaces the stored runs with h in one transaction.
func (s *SQLiteHistory) Save(ctx context.Context, h models.History) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM verification_runs`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verification_runs (seq, run_id, timestamp, version, payload)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, run := range h.Runs {
		payload, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, i, run.ID, run.Timestamp.UTC(), models.HistoryVersion, string(payload)); err != nil {
			return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteHistory) Close() error {
	return s.db.Close()
}
