// Package storage defines read-only blob sources keyed by item hash.
//
// Sources never write through to the network. Every blob they return hashes
// to the item hash it was requested under.
package storage

import (
	"context"

	"aleph.im/sdk/itemhash"
)

// Source is a content-addressed, read-only blob source.
//
// Contract:
// - Get MUST return ErrNotFound when the hash is absent.
// - Get MUST return ErrInvalidHash for the zero hash.
// - Bytes returned by Get MUST hash to the requested item hash.
type Source interface {
	Get(ctx context.Context, h itemhash.ItemHash) ([]byte, error)
	Has(ctx context.Context, h itemhash.ItemHash) bool
}
