package hashing

import "errors"

// ErrInvalidHashLength is returned when a hex string does not decode to
// exactly Size bytes.
var ErrInvalidHashLength = errors.New("hashing: decoded hash has wrong length")
