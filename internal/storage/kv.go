// Package storage persists JSON snapshots of the quote state under string
// keys. Reads are synchronous; writes go through Store, which coalesces them
// onto a single background goroutine.
package storage

import (
	"context"
	"errors"
)

// Keys of the persisted state.
const (
	KeyCatalog = "svc:list"
	KeyItems   = "orcamento:itens"
	KeyGeneral = "orcamento:geral"
)

// ErrNotFound is returned by KV.Get for a key that was never written.
var ErrNotFound = errors.New("key not found")

// KV is a durable byte store keyed by string.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}
