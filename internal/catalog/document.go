package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrDocumentAbsent means nothing has been stored yet.
	ErrDocumentAbsent = errors.New("products document absent")
	// ErrDocumentUnavailable means the backend could not be reached.
	ErrDocumentUnavailable = errors.New("products document unavailable")
)

// Document is the single blob holding the JSON array of products.
type Document interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type DocumentConfig struct {
	Backend string
	// Path is the JSON file for "file" and the database file for "sqlite".
	Path string
	// Name keys the document in the SQL table or, with Prefix, in redis.
	Name        string
	DSN         string
	RedisAddr   string
	RedisPrefix string
}

func OpenDocument(ctx context.Context, cfg DocumentConfig) (Document, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileDocument(cfg.Path), nil
	case BackendMemory:
		return NewMemDocument(nil), nil
	case BackendSQLite:
		return OpenSQLiteDocument(ctx, cfg.Path, cfg.Name)
	case BackendPostgres:
		return OpenPostgresDocument(ctx, cfg.DSN, cfg.Name)
	case BackendRedis:
		return OpenRedisDocument(ctx, cfg.RedisAddr, cfg.RedisPrefix+cfg.Name)
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: file, memory, sqlite, postgres, redis)", cfg.Backend)
	}
}
