package storage

import (
	"context"
	"errors"
	"fmt"

	"aleph.im/sdk/itemhash"
)

// NamedSource associates a Source with a stable backend name.
type NamedSource struct {
	Name   string
	Source Source
}

// MultiSource provides deterministic, ordered fallback across sources.
//
// Lookup order is the slice order in Backends; callers MUST supply a fixed
// order. A backend that answers ErrNotFound or ErrHashMismatch is skipped.
// Any other error stops the lookup.
type MultiSource struct {
	Backends []NamedSource
}

var _ Source = MultiSource{}

func (m MultiSource) Get(ctx context.Context, h itemhash.ItemHash) ([]byte, error) {
	_, b, err := m.Locate(ctx, h)
	return b, err
}

// Locate is Get that also reports which backend served the bytes.
func (m MultiSource) Locate(ctx context.Context, h itemhash.ItemHash) (string, []byte, error) {
	if h.IsZero() {
		return "", nil, ErrInvalidHash
	}
	if len(m.Backends) == 0 {
		return "", nil, errors.New("storage: MultiSource has no backends")
	}
	var mismatch bool
	for _, nb := range m.Backends {
		if nb.Source == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		b, err := nb.Source.Get(ctx, h)
		if err == nil {
			err = Verify(h, b)
		}
		switch {
		case err == nil:
			return nb.Name, b, nil
		case IsNotFound(err):
			continue
		case errors.Is(err, ErrHashMismatch):
			mismatch = true
			continue
		default:
			return "", nil, fmt.Errorf("storage: backend %q: %w", nb.Name, err)
		}
	}
	if mismatch {
		return "", nil, ErrHashMismatch
	}
	return "", nil, ErrNotFound
}

func (m MultiSource) Has(ctx context.Context, h itemhash.ItemHash) bool {
	if h.IsZero() {
		return false
	}
	for _, nb := range m.Backends {
		if nb.Source != nil && nb.Source.Has(ctx, h) {
			return true
		}
	}
	return false
}
