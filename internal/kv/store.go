// Package kv wraps an embedded ordered key-value engine (bbolt) behind the
// small facade the rest of the repository core depends on: open_rw/open_ro,
// get/put/delete, and a lexicographic iterator. Every database the core
// opens — the staged DB, the conflict DB, the refs DB — goes through this
// package so that directory creation, empty-database bootstrapping, and the
// read-only/read-write handle discipline live in exactly one place.
package kv

import (
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// bucketName is the single bucket every Store uses. The facade exposes a
// flat key space; callers that need namespacing (e.g. the commit/node DB's
// "c/" and "n/" records) prefix keys themselves.
var bucketName = []byte("kv")

// Store is a handle to one embedded KV database. Bolt itself provides the
// interior locking spec.md §5 requires ("the embedded engine must support
// safe concurrent writes through a single handle"): concurrent Put/Delete
// calls through the same *Store are safe to call from multiple goroutines.
type Store struct {
	db       *bolt.DB
	path     string
	readOnly bool
}

// OpenRW opens a database at path for reading and writing, creating both
// the parent directory and the database file if they don't exist yet. Only
// one read-write handle to a given path may be held at a time; bbolt
// enforces this with an exclusive file lock, surfacing contention as an
// open error (mapped to ErrLocked) rather than silent corruption.
func OpenRW(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, translateOpenErr(err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

// OpenRO opens a database at path read-only. Multiple read-only handles to
// the same path may coexist (bbolt's read-only mode takes a shared file
// lock), but not alongside an open read-write handle to that path, even one
// held by the same process: the open waits for the exclusive lock and
// fails with ErrLocked after the timeout. Opening a database
// that does not exist yet creates an empty one first, matching spec.md
// 4.C's "an empty database is created by opening-then-closing."
func OpenRO(path string) (*Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		rw, err := OpenRW(path)
		if err != nil {
			return nil, err
		}
		if err := rw.Close(); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(path, 0o644, &bolt.Options{
		ReadOnly: true,
		Timeout:  2 * time.Second,
	})
	if err != nil {
		return nil, translateOpenErr(err)
	}
	return &Store{db: db, path: path, readOnly: true}, nil
}

// Close releases the underlying database handle. Callers are expected to
// open one handle per operation and close it on every exit path, per
// spec.md §5's locking discipline.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored at key, or ok=false if the key is absent.
func (s *Store) Get(key []byte) (value []byte, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		v := b.Get(key)
		if v != nil {
			ok = true
			value = append([]byte(nil), v...)
		}
		return nil
	})
	return value, ok, err
}

// Put writes key -> value, overwriting any existing value.
func (s *Store) Put(key, value []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(key, value)
	})
}

// Delete removes key. Deleting an absent key is a no-op, matching the
// facade's "delete" contract.
func (s *Store) Delete(key []byte) error {
	if s.readOnly {
		return ErrReadOnly
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete(key)
	})
}

// Iterate walks every key/value pair in lexicographic key order, calling fn
// for each. Returning an error from fn stops the walk and is propagated.
func (s *Store) Iterate(fn func(key, value []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// IteratePrefix walks every key/value pair whose key starts with prefix, in
// lexicographic order. Returning an error from fn stops the walk and is
// propagated.
func (s *Store) IteratePrefix(prefix []byte, fn func(key, value []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			if err := fn(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}

func translateOpenErr(err error) error {
	if err == bolt.ErrTimeout {
		return ErrLocked
	}
	return err
}
