// Package testkit holds conformance checks shared by storage.Source
// implementations.
package testkit

import (
	"bytes"
	"context"
	"testing"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/storage"
)

// NewSource constructs a fresh Source holding exactly blobs, each stored
// under its native item hash. The returned Source MUST be isolated from
// other tests.
type NewSource func(t *testing.T, blobs [][]byte) storage.Source

func RunSourceConformance(t *testing.T, newSource NewSource) {
	t.Helper()

	t.Run("GetReturnsVerifiedBytes", func(t *testing.T) {
		want := []byte("hello, aleph storage")
		src := newSource(t, [][]byte{want, []byte("other")})
		h := itemhash.FromBytes(want)

		got, err := src.Get(context.Background(), h)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
		if !h.Matches(got) {
			t.Fatalf("Get returned bytes not matching requested hash")
		}
		if !src.Has(context.Background(), h) {
			t.Fatalf("Has returned false for stored hash")
		}
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		src := newSource(t, [][]byte{[]byte("present")})
		h := itemhash.FromBytes([]byte("missing"))

		if src.Has(context.Background(), h) {
			t.Fatalf("Has returned true for missing hash")
		}
		_, err := src.Get(context.Background(), h)
		if !storage.IsNotFound(err) {
			t.Fatalf("Get missing: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("RejectZeroHash", func(t *testing.T) {
		src := newSource(t, nil)
		var zero itemhash.ItemHash
		if src.Has(context.Background(), zero) {
			t.Fatalf("Has should be false for the zero hash")
		}
		if _, err := src.Get(context.Background(), zero); err == nil {
			t.Fatalf("Get should fail for the zero hash")
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		b := []byte("cancelled")
		src := newSource(t, [][]byte{b})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := src.Get(ctx, itemhash.FromBytes(b)); err == nil {
			t.Fatalf("Get should fail with a cancelled context")
		}
	})
}
