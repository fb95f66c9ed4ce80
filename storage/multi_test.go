package storage

import (
	"context"
	"errors"
	"testing"

	"aleph.im/sdk/itemhash"
)

type mapSource map[itemhash.ItemHash][]byte

func (m mapSource) Get(_ context.Context, h itemhash.ItemHash) ([]byte, error) {
	b, ok := m[h]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m mapSource) Has(_ context.Context, h itemhash.ItemHash) bool {
	_, ok := m[h]
	return ok
}

type failingSource struct{ err error }

func (f failingSource) Get(context.Context, itemhash.ItemHash) ([]byte, error) { return nil, f.err }
func (f failingSource) Has(context.Context, itemhash.ItemHash) bool           { return false }

func TestMultiSource_OrderedFallback(t *testing.T) {
	b := []byte("hello")
	h := itemhash.FromBytes(b)
	m := MultiSource{Backends: []NamedSource{
		{Name: "empty", Source: mapSource{}},
		{Name: "liar", Source: mapSource{h: []byte("bogus")}},
		{Name: "good", Source: mapSource{h: b}},
	}}

	name, got, err := m.Locate(context.Background(), h)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if name != "good" || string(got) != "hello" {
		t.Fatalf("got %q from %q", got, name)
	}
	if !m.Has(context.Background(), h) {
		t.Fatalf("Has: expected true")
	}
}

func TestMultiSource_NotFoundAndMismatch(t *testing.T) {
	h := itemhash.FromBytes([]byte("hello"))

	m := MultiSource{Backends: []NamedSource{{Name: "a", Source: mapSource{}}}}
	if _, err := m.Get(context.Background(), h); !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	m = MultiSource{Backends: []NamedSource{{Name: "liar", Source: mapSource{h: []byte("bogus")}}}}
	if _, err := m.Get(context.Background(), h); !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("expected ErrHashMismatch, got %v", err)
	}
}

func TestMultiSource_StopsOnHardError(t *testing.T) {
	b := []byte("hello")
	h := itemhash.FromBytes(b)
	boom := errors.New("boom")
	m := MultiSource{Backends: []NamedSource{
		{Name: "broken", Source: failingSource{err: boom}},
		{Name: "good", Source: mapSource{h: b}},
	}}
	if _, err := m.Get(context.Background(), h); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestMultiSource_RejectsZeroAndEmpty(t *testing.T) {
	var zero itemhash.ItemHash
	m := MultiSource{Backends: []NamedSource{{Name: "a", Source: mapSource{}}}}
	if _, err := m.Get(context.Background(), zero); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
	if _, err := (MultiSource{}).Get(context.Background(), itemhash.FromBytes([]byte("x"))); err == nil {
		t.Fatalf("expected error for no backends")
	}
}

func TestVerify(t *testing.T) {
	b := []byte("hello")
	if err := Verify(itemhash.FromBytes(b), b); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := Verify(itemhash.FromBytes(b), []byte("x")); !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("expected ErrHashMismatch, got %v", err)
	}
}
