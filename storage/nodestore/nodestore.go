// Package nodestore reads files from an Aleph node's raw storage endpoint.
package nodestore

import (
	"context"
	"errors"

	"aleph.im/sdk/client"
	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/storage"
	"aleph.im/sdk/types"
)

// Source is a storage.Source backed by a node.
type Source struct {
	Client *client.Client
}

var _ storage.Source = (*Source)(nil)

func New(c *client.Client) *Source { return &Source{Client: c} }

func (s *Source) Get(ctx context.Context, h itemhash.ItemHash) ([]byte, error) {
	if h.IsZero() {
		return nil, storage.ErrInvalidHash
	}
	b, err := s.Client.DownloadFile(ctx, h)
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (s *Source) Has(ctx context.Context, h itemhash.ItemHash) bool {
	if h.IsZero() {
		return false
	}
	_, err := s.Client.GetFileSize(ctx, h)
	return err == nil
}

// Size reports the stored size without downloading the file.
func (s *Source) Size(ctx context.Context, h itemhash.ItemHash) (types.StorageSize, error) {
	if h.IsZero() {
		return 0, storage.ErrInvalidHash
	}
	n, err := s.Client.GetFileSize(ctx, h)
	if err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case client.IsKind(err, client.KindNotFound):
		return storage.ErrNotFound
	case client.IsKind(err, client.KindDecode):
		return storage.ErrHashMismatch
	case client.IsKind(err, client.KindConfig):
		return storage.ErrInvalidHash
	default:
		return err
	}
}
