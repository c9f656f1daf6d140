package kv

import "errors"

// ErrReadOnly is returned by Put/Delete on a handle opened with OpenRO.
var ErrReadOnly = errors.New("kv: database opened read-only")

// ErrLocked is returned when a database is already held open for writing
// by another read-write handle and the open call times out waiting for it.
var ErrLocked = errors.New("kv: database is locked by another read-write handle")
