// Package persist implements the Provider/Consumer contract over an
// in-memory indexed key-value table, standing in for the kind of
// persistency library a vehicle application would attach a named data
// element to. It is a reference implementation meant to exercise the
// contract end-to-end, not a durable store: go-memdb keeps everything in
// memory and nothing here survives a process restart.
package persist

import (
	"errors"
	"fmt"

	"github.com/chassisrt/chassis"
	"github.com/hashicorp/go-memdb"
)

const tableName = "kv"

type entry struct {
	Key   string
	Value interface{}
}

// Store is one in-memory key-value table, shared by any number of typed
// Channel views onto it.
type Store struct {
	db *memdb.MemDB
}

// NewStore creates an empty Store.
func NewStore() (*Store, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableName: {
				Name: tableName,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
				},
			},
		},
	}
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Put writes value under key, replacing whatever was there before.
func (s *Store) Put(key string, value interface{}) error {
	txn := s.db.Txn(true)
	if err := txn.Insert(tableName, &entry{Key: key, Value: value}); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

// Delete removes key, if present.
func (s *Store) Delete(key string) error {
	txn := s.db.Txn(true)
	if _, err := txn.DeleteAll(tableName, "id", key); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

// Channel is a Provider[T]/Consumer[T] view onto a single key of a Store.
// Several Channels, of different T, may share one Store under different
// keys.
type Channel[T any] struct {
	store *Store
	key   string
}

// NewChannel builds a Channel bound to key within store.
func NewChannel[T any](store *Store, key string) *Channel[T] {
	return &Channel[T]{store: store, key: key}
}

var _ chassis.Provider[int] = (*Channel[int])(nil)
var _ chassis.Consumer[int] = (*Channel[int])(nil)

// Allocate returns a fresh, unpublished handle.
func (c *Channel[T]) Allocate() chassis.Owned[T] {
	var zero T
	return chassis.NewOwned(zero)
}

// SetAllocated persists h's value under this channel's key.
func (c *Channel[T]) SetAllocated(h chassis.Owned[T]) error {
	shared := h.Share()
	return c.store.Put(c.key, shared.Value())
}

// Set persists v directly.
func (c *Channel[T]) Set(v T) error {
	return c.store.Put(c.key, v)
}

// GetAllocated returns the currently stored value without copying it.
func (c *Channel[T]) GetAllocated() (chassis.Shared[T], error) {
	txn := c.store.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableName, "id", c.key)
	if err != nil {
		return chassis.Shared[T]{}, err
	}
	if raw == nil {
		return chassis.Shared[T]{}, chassis.ErrNoDataAvailable
	}
	typed, ok := raw.(*entry).Value.(T)
	if !ok {
		return chassis.Shared[T]{}, fmt.Errorf("persist: stored value under key %q has the wrong type", c.key)
	}
	return chassis.NewShared(typed), nil
}

// Get copies out the currently stored value, or the zero value if nothing
// has been stored under this key yet. Unlike GetAllocated, Get never
// reports "no data" as an error.
func (c *Channel[T]) Get() (T, error) {
	s, err := c.GetAllocated()
	if err != nil {
		var zero T
		if errors.Is(err, chassis.ErrNoDataAvailable) {
			return zero, nil
		}
		return zero, err
	}
	return s.Value(), nil
}

// RegisterDataElementHandler calls handler immediately with the current
// value, if any, and again every time the key is written, using
// go-memdb's watch channels rather than polling. owner is accepted to
// satisfy chassis.Consumer's signature but is not used for gating here —
// unlike the in-process Channel module, a persistence-backed consumer has
// no owning scheduler tick to gate against.
func (c *Channel[T]) RegisterDataElementHandler(owner string, handler chassis.DataElementHandler[T]) (func(), error) {
	stop := make(chan struct{})
	go func() {
		for {
			txn := c.store.db.Txn(false)
			watchCh, raw, err := txn.FirstWatch(tableName, "id", c.key)
			txn.Abort()
			if err == nil && raw != nil {
				if typed, ok := raw.(*entry).Value.(T); ok {
					handler(chassis.NewShared(typed))
				}
			}
			select {
			case <-watchCh:
				continue
			case <-stop:
				return
			}
		}
	}()
	return func() { close(stop) }, nil
}
