package reset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence. It is suitable
// for single-instance deployments where tokens must survive a restart.
//
// The database is opened in WAL mode with a busy timeout; SQLite supports a
// single writer, so the pool is capped at one connection.
type SQLiteStore struct {
	db        *sql.DB
	closeOnce sync.Once

	putStmt     *sql.Stmt
	getStmt     *sql.Stmt
	markStmt    *sql.Stmt
	cleanupStmt *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a SQLite-backed token store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a SQLite-backed token store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reset_tokens (
		token TEXT NOT NULL PRIMARY KEY,
		email TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		used INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_reset_tokens_expires_at ON reset_tokens(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.putStmt, err = s.db.Prepare(`
		INSERT INTO reset_tokens (token, email, created_at, expires_at, used)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (token) DO UPDATE SET
			email = excluded.email,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			used = excluded.used
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare put statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`
		SELECT token, email, created_at, expires_at, used
		FROM reset_tokens
		WHERE token = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.markStmt, err = s.db.Prepare(`
		UPDATE reset_tokens SET used = 1 WHERE token = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare mark statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`
		DELETE FROM reset_tokens WHERE used = 1 OR expires_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}

	return nil
}

// Put inserts a token.
func (s *SQLiteStore) Put(ctx context.Context, t *Token) error {
	if t == nil || t.Token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	used := 0
	if t.Used {
		used = 1
	}
	_, err := s.putStmt.ExecContext(ctx,
		t.Token, t.Email, t.CreatedAt.UnixMilli(), t.ExpiresAt.UnixMilli(), used)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Get returns the token record, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, token string) (*Token, error) {
	var t Token
	var createdAt, expiresAt int64
	var used int

	err := s.getStmt.QueryRowContext(ctx, token).Scan(
		&t.Token, &t.Email, &createdAt, &expiresAt, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	t.CreatedAt = time.UnixMilli(createdAt)
	t.ExpiresAt = time.UnixMilli(expiresAt)
	t.Used = used != 0
	return &t, nil
}

// MarkUsed sets used=true for the token; unknown tokens are a no-op.
func (s *SQLiteStore) MarkUsed(ctx context.Context, token string) error {
	if _, err := s.markStmt.ExecContext(ctx, token); err != nil {
		return fmt.Errorf("failed to mark token used: %w", err)
	}
	return nil
}

// DeleteExpired removes expired and used tokens.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.cleanupStmt.ExecContext(ctx, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted tokens: %w", err)
	}
	return int(n), nil
}

// Close closes prepared statements and the database.
func (s *SQLiteStore) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.putStmt, s.getStmt, s.markStmt, s.cleanupStmt} {
			if stmt != nil {
				_ = stmt.Close()
			}
		}
		closeErr = s.db.Close()
	})
	return closeErr
}
