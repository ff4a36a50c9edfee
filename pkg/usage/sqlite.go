package usage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"motonomad-hq/gateway/pkg/gateway"
)

// SQLiteStore implements Store using SQLite for persistence.
// Timestamps are stored as Unix nanoseconds and latencies as nanoseconds.
type SQLiteStore struct {
	db        *sql.DB
	path      string
	closeOnce sync.Once

	insertStmt *sql.Stmt
	pruneStmt  *sql.Stmt
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path is the database file. ":memory:" keeps the ledger in memory.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (creating if needed) the ledger at cfg.Path.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db, path: cfg.Path}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_records (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		response_id TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL,
		mode TEXT NOT NULL DEFAULT '',
		prompt_tokens INTEGER NOT NULL DEFAULT 0,
		completion_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ns INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error_kind TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_usage_created_at ON usage_records(created_at);
	CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_records(model);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO usage_records (
			id, request_id, response_id, model, mode,
			prompt_tokens, completion_tokens, total_tokens,
			latency_ns, outcome, error_kind, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`DELETE FROM usage_records WHERE created_at < ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Record implements Store.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) error {
	if rec.Model == "" {
		return fmt.Errorf("record model cannot be empty")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.insertStmt.ExecContext(ctx,
		rec.ID, rec.RequestID, rec.ResponseID, rec.Model, rec.Mode,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		int64(rec.Latency), rec.Outcome, rec.ErrorKind, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}
	return nil
}

// Query implements Store.
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)

	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UnixNano())
	}
	if !filter.Until.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, filter.Until.UnixNano())
	}
	if filter.Model != "" {
		where = append(where, "model = ?")
		args = append(args, filter.Model)
	}
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, filter.Outcome)
	}

	query := `
		SELECT id, request_id, response_id, model, mode,
			prompt_tokens, completion_tokens, total_tokens,
			latency_ns, outcome, error_kind, created_at
		FROM usage_records`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r         Record
			latencyNs int64
			createdNs int64
		)
		if err := rows.Scan(
			&r.ID, &r.RequestID, &r.ResponseID, &r.Model, &r.Mode,
			&r.PromptTokens, &r.CompletionTokens, &r.TotalTokens,
			&latencyNs, &r.Outcome, &r.ErrorKind, &createdNs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan usage record: %w", err)
		}
		r.Latency = time.Duration(latencyNs)
		r.CreatedAt = time.Unix(0, createdNs)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usage records: %w", err)
	}
	return records, nil
}

// Summary implements Store.
func (s *SQLiteStore) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	sum := &Summary{Since: since}
	sinceNs := since.UnixNano()

	var avgLatency float64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(AVG(latency_ns), 0)
		FROM usage_records
		WHERE created_at >= ?
	`, gateway.OutcomeError, sinceNs).Scan(
		&sum.Calls, &sum.Errors,
		&sum.PromptTokens, &sum.CompletionTokens, &sum.TotalTokens,
		&avgLatency,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage: %w", err)
	}
	sum.Successes = sum.Calls - sum.Errors
	sum.AvgLatency = time.Duration(avgLatency)

	rows, err := s.db.QueryContext(ctx, `
		SELECT model,
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(total_tokens), 0)
		FROM usage_records
		WHERE created_at >= ?
		GROUP BY model
	`, gateway.OutcomeError, sinceNs)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize usage by model: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ms ModelSummary
		if err := rows.Scan(&ms.Model, &ms.Calls, &ms.Errors, &ms.TotalTokens); err != nil {
			return nil, fmt.Errorf("failed to scan model summary: %w", err)
		}
		sum.Models = append(sum.Models, ms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate model summaries: %w", err)
	}

	sortModels(sum.Models)
	return sum, nil
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.pruneStmt.ExecContext(ctx, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune usage records: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the prepared statements and the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.insertStmt != nil {
			s.insertStmt.Close()
		}
		if s.pruneStmt != nil {
			s.pruneStmt.Close()
		}
		err = s.db.Close()
	})
	return err
}
