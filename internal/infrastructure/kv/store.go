// Package kv is the persistence boundary of the storefront: a string-keyed
// value store plus append-only log streams, with one implementation per
// storage driver and a typed, validating decode layer on top.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrCorrupt marks a persisted value that is not valid JSON or does not
	// have the expected shape.
	ErrCorrupt = errors.New("corrupt persisted value")
	ErrClosed  = errors.New("store is closed")
)

// Store is a key-value store. Set returns only once the backend has
// acknowledged the write.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Log is a set of append-only streams. Append is atomic with respect to
// other appends on the same stream; Range returns values in append order.
type Log interface {
	Append(ctx context.Context, stream string, value []byte) error
	Range(ctx context.Context, stream string) ([][]byte, error)
}

// Backend is a storage driver providing both a Store and a Log.
type Backend interface {
	Store
	Log
	Close() error
}

// Compile-time interface compliance checks
var (
	_ Backend = (*MemoryBackend)(nil)
	_ Backend = (*SQLBackend)(nil)
	_ Backend = (*RedisBackend)(nil)
	_ Backend = (*MongoBackend)(nil)
	_ Backend = (*DynamoBackend)(nil)
)
