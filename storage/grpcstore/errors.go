package grpcstore

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"aleph.im/sdk/storage"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return storage.ErrNotFound
	case codes.InvalidArgument:
		return storage.ErrInvalidHash
	case codes.DataLoss:
		return storage.ErrHashMismatch
	default:
		switch st.Message() {
		case storage.ErrNotFound.Error():
			return storage.ErrNotFound
		case storage.ErrInvalidHash.Error():
			return storage.ErrInvalidHash
		case storage.ErrHashMismatch.Error():
			return storage.ErrHashMismatch
		default:
			return err
		}
	}
}
