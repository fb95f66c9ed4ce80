package storage

import (
	"errors"

	"aleph.im/sdk/itemhash"
)

var (
	ErrNotFound     = errors.New("storage: not found")
	ErrInvalidHash  = errors.New("storage: invalid item hash")
	ErrHashMismatch = errors.New("storage: item hash mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Verify checks that b hashes to h.
func Verify(h itemhash.ItemHash, b []byte) error {
	if h.IsZero() {
		return ErrInvalidHash
	}
	if !h.Matches(b) {
		return ErrHashMismatch
	}
	return nil
}
