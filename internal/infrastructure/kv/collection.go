package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/ec-storefront/internal/metrics"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts persist as JSON numbers, the form existing records use.
	decimal.MarshalJSONWithoutQuotes = true
}

type validator interface {
	Validate() error
}

// Decode parses a persisted collection. Anything other than a JSON array of
// T is reported as ErrCorrupt.
func Decode[T any](raw []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrCorrupt)
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return items, nil
}

// DecodeEntries parses the entries of a log stream, skipping entries that
// are not valid T.
func DecodeEntries[T any](stream string, entries [][]byte) []T {
	out := make([]T, 0, len(entries))
	for i, raw := range entries {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			log.Printf("[KV] Skipping corrupt entry %d in stream %q: %v", i, stream, err)
			metrics.StorageRecoveries.WithLabelValues(stream).Inc()
			continue
		}
		if err := validate(item); err != nil {
			log.Printf("[KV] Skipping invalid entry %d in stream %q: %v", i, stream, err)
			metrics.StorageRecoveries.WithLabelValues(stream).Inc()
			continue
		}
		out = append(out, item)
	}
	return out
}

func validate[T any](item T) error {
	if v, ok := any(item).(validator); ok {
		return v.Validate()
	}
	if v, ok := any(&item).(validator); ok {
		return v.Validate()
	}
	return nil
}

// Collection is a JSON array of T persisted under one key.
type Collection[T any] struct {
	store Store
	key   string
	seed  func() []T
}

// NewCollection binds a collection to key. seed supplies the default value
// used when the key is absent or its value is corrupt; nil means empty.
func NewCollection[T any](store Store, key string, seed func() []T) *Collection[T] {
	return &Collection[T]{store: store, key: key, seed: seed}
}

func (c *Collection[T]) Key() string { return c.key }

// Load returns the stored items. Corrupt values are logged and replaced by
// the default; only backend failures are returned as errors.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	raw, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.key, err)
	}
	if !ok {
		return c.defaults(), nil
	}

	items, err := Decode[T](raw)
	if err != nil {
		log.Printf("[KV] Key %q: %v; using default", c.key, err)
		metrics.StorageRecoveries.WithLabelValues(c.key).Inc()
		return c.defaults(), nil
	}

	valid := items[:0]
	for i, item := range items {
		if err := validate(item); err != nil {
			log.Printf("[KV] Key %q: dropping element %d: %v", c.key, i, err)
			metrics.StorageRecoveries.WithLabelValues(c.key).Inc()
			continue
		}
		valid = append(valid, item)
	}
	return valid, nil
}

func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.key, err)
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("save %s: %w", c.key, err)
	}
	return nil
}

func (c *Collection[T]) defaults() []T {
	if c.seed == nil {
		return []T{}
	}
	return c.seed()
}

// Value is a single nullable JSON value persisted under one key.
type Value[T any] struct {
	store Store
	key   string
}

func NewValue[T any](store Store, key string) *Value[T] {
	return &Value[T]{store: store, key: key}
}

// Load returns nil when the key is absent, holds null, or holds a value that
// does not decode as T.
func (v *Value[T]) Load(ctx context.Context) (*T, error) {
	raw, ok, err := v.store.Get(ctx, v.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", v.key, err)
	}
	trimmed := bytes.TrimSpace(raw)
	if !ok || len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(trimmed, &out); err != nil {
		log.Printf("[KV] Key %q: %v: %v; using null", v.key, ErrCorrupt, err)
		metrics.StorageRecoveries.WithLabelValues(v.key).Inc()
		return nil, nil
	}
	if err := validate(out); err != nil {
		log.Printf("[KV] Key %q: invalid value: %v; using null", v.key, err)
		metrics.StorageRecoveries.WithLabelValues(v.key).Inc()
		return nil, nil
	}
	return &out, nil
}

// Save stores val, or JSON null when val is nil.
func (v *Value[T]) Save(ctx context.Context, val *T) error {
	data := []byte("null")
	if val != nil {
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("encode %s: %w", v.key, err)
		}
		data = encoded
	}
	if err := v.store.Set(ctx, v.key, data); err != nil {
		return fmt.Errorf("save %s: %w", v.key, err)
	}
	return nil
}
