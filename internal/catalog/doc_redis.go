package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type RedisDocument struct {
	client *redis.Client
	key    string
}

func OpenRedisDocument(ctx context.Context, addr, key string) (*RedisDocument, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	if err := withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}

	return NewRedisDocument(client, key), nil
}

func NewRedisDocument(client *redis.Client, key string) *RedisDocument {
	if key == "" {
		key = defaultDocumentName
	}
	return &RedisDocument{client: client, key: key}
}

func (d *RedisDocument) Read(ctx context.Context) ([]byte, error) {
	var data []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		data, err = d.client.Get(ctx, d.key).Bytes()
		return err
	})

	if errors.Is(err, redis.Nil) {
		return nil, ErrDocumentAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDocumentUnavailable, err)
	}
	return data, nil
}

func (d *RedisDocument) Write(ctx context.Context, data []byte) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return d.client.Set(ctx, d.key, data, 0).Err()
	})
}

func (d *RedisDocument) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return d.client.Ping(ctx).Err()
	})
}

func (d *RedisDocument) Close() error {
	return d.client.Close()
}
