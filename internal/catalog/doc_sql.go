package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	defaultDocumentName = "products"
)

type sqlDialect struct {
	driver string
	create string
	read   string
	upsert string
}

var (
	postgresDialect = sqlDialect{
		driver: "pgx",
		create: `CREATE TABLE IF NOT EXISTS documents (
			name       TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		read: `SELECT body FROM documents WHERE name = $1`,
		upsert: `
			INSERT INTO documents (name, body, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
		`,
	}

	sqliteDialect = sqlDialect{
		driver: "sqlite3",
		create: `CREATE TABLE IF NOT EXISTS documents (
			name       TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		read: `SELECT body FROM documents WHERE name = ?`,
		upsert: `
			INSERT INTO documents (name, body, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
		`,
	}
)

// SQLDocument stores the whole products document in one row of a documents table.
type SQLDocument struct {
	db      *sql.DB
	dialect sqlDialect
	name    string
}

func OpenPostgresDocument(ctx context.Context, dsn, name string) (*SQLDocument, error) {
	return openSQLDocument(ctx, postgresDialect, dsn, name)
}

func OpenSQLiteDocument(ctx context.Context, path, name string) (*SQLDocument, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return openSQLDocument(ctx, sqliteDialect, path, name)
}

func openSQLDocument(ctx context.Context, d sqlDialect, dsn, name string) (*SQLDocument, error) {
	if name == "" {
		name = defaultDocumentName
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, d.create)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}

	return &SQLDocument{db: db, dialect: d, name: name}, nil
}

func (s *SQLDocument) Read(ctx context.Context) ([]byte, error) {
	var body string

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, s.dialect.read, s.name).Scan(&body)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentUnavailable, err)
	}
	return []byte(body), nil
}

func (s *SQLDocument) Write(ctx context.Context, data []byte) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, s.dialect.upsert, s.name, string(data))
		return err
	})
}

func (s *SQLDocument) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *SQLDocument) Close() error {
	return s.db.Close()
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
