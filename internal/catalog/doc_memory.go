package catalog

import (
	"bytes"
	"context"
	"sync"
)

type MemDocument struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemDocument starts absent when data is nil.
func NewMemDocument(data []byte) *MemDocument {
	return &MemDocument{data: bytes.Clone(data)}
}

func (d *MemDocument) Read(_ context.Context) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.data == nil {
		return nil, ErrDocumentAbsent
	}
	return bytes.Clone(d.data), nil
}

func (d *MemDocument) Write(_ context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.data = bytes.Clone(data)
	if d.data == nil {
		d.data = []byte{}
	}
	return nil
}

func (d *MemDocument) Ping(_ context.Context) error { return nil }

func (d *MemDocument) Close() error { return nil }
