package localfs

import (
	"context"
	"errors"
	"os"
	"testing"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/storage"
	"aleph.im/sdk/storage/registry"
	"aleph.im/sdk/storage/testkit"
)

func newMirror(t *testing.T, blobs [][]byte) *Mirror {
	t.Helper()
	m, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, b := range blobs {
		if err := m.Put(itemhash.FromBytes(b), b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	return m
}

func TestMirror_Conformance(t *testing.T) {
	testkit.RunSourceConformance(t, func(t *testing.T, blobs [][]byte) storage.Source {
		return newMirror(t, blobs)
	})
}

func TestMirror_Layout(t *testing.T) {
	b := []byte("hello")
	m := newMirror(t, [][]byte{b})
	path := m.Root() + "/2c/2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}

func TestMirror_CIDKeys(t *testing.T) {
	b := []byte("hello")
	h, err := itemhash.ParseRef("QmRN6wdp1S2A5EtjW9A3M1vKSBuQQGcgvuhoMUoEz4iiT5")
	if err != nil {
		t.Fatalf("ParseRef failed: %v", err)
	}
	m := newMirror(t, nil)
	if err := m.Put(h, b); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := m.Get(context.Background(), h)
	if err != nil || string(got) != "hello" {
		t.Fatalf("Get: got %q err=%v", got, err)
	}
}

func TestMirror_PutRejectsWrongBytes(t *testing.T) {
	m := newMirror(t, nil)
	err := m.Put(itemhash.FromBytes([]byte("a")), []byte("b"))
	if !errors.Is(err, storage.ErrHashMismatch) {
		t.Fatalf("expected ErrHashMismatch, got %v", err)
	}
}

func TestMirror_PutIdempotent(t *testing.T) {
	b := []byte("same bytes")
	m := newMirror(t, [][]byte{b})
	if err := m.Put(itemhash.FromBytes(b), b); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}
}

func TestMirror_DetectsTampering(t *testing.T) {
	b := []byte("original")
	h := itemhash.FromBytes(b)
	m := newMirror(t, [][]byte{b})

	path := m.pathFor(h)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("tampered"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := m.Get(context.Background(), h); !errors.Is(err, storage.ErrHashMismatch) {
		t.Fatalf("expected ErrHashMismatch, got %v", err)
	}
}

func TestMirror_Registered(t *testing.T) {
	dir := t.TempDir()
	src, closeFn, err := registry.OpenWithConfig(context.Background(), "localfs", registry.UsageCLI, map[string]string{"localfs-dir": dir})
	if err != nil {
		t.Fatalf("OpenWithConfig failed: %v", err)
	}
	if closeFn != nil {
		t.Fatalf("localfs should not return a close function")
	}
	if m, ok := src.(*Mirror); !ok || m.Root() != dir {
		t.Fatalf("unexpected source %T", src)
	}

	if _, _, err := registry.OpenWithConfig(context.Background(), "localfs", registry.UsageCLI, nil); err == nil {
		t.Fatalf("expected error without a directory")
	}
}
