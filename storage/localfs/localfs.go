package localfs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/storage"
)

// Mirror is a local directory holding copies of network files, keyed by
// item hash as root/<h[:2]>/<h>.
//
// It never uses the network. Get re-verifies bytes against the requested
// hash, so a corrupted or tampered file reads as ErrHashMismatch.
type Mirror struct {
	root string
}

var _ storage.Source = (*Mirror)(nil)

// New opens a mirror rooted at root. The directory will be created if needed.
func New(root string) (*Mirror, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Mirror{root: root}, nil
}

func (m *Mirror) Root() string { return m.root }

// Put stores a verified copy of b under h. Storing the same bytes twice is
// a no-op; a different file already present under h is an error.
func (m *Mirror) Put(h itemhash.ItemHash, b []byte) error {
	if err := storage.Verify(h, b); err != nil {
		return err
	}

	path := m.pathFor(h)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := os.ReadFile(path)
			if rerr != nil || !bytes.Equal(existing, b) {
				return storage.ErrHashMismatch
			}
			return nil
		}
		return err
	}

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

func (m *Mirror) Get(ctx context.Context, h itemhash.ItemHash) ([]byte, error) {
	if h.IsZero() {
		return nil, storage.ErrInvalidHash
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(m.pathFor(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if err := storage.Verify(h, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *Mirror) Has(_ context.Context, h itemhash.ItemHash) bool {
	if h.IsZero() {
		return false
	}
	_, err := os.Stat(m.pathFor(h))
	return err == nil
}

func (m *Mirror) pathFor(h itemhash.ItemHash) string {
	s := h.String()
	return filepath.Join(m.root, s[:2], s)
}
