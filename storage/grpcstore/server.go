package grpcstore

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/storage"
)

// Server exposes a storage.Source over the Store gRPC service.
type Server struct {
	UnimplementedStoreServer
	Source storage.Source
	Log    *zap.Logger
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Source == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing source")
	}
	h, err := itemhash.ParseRef(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidHash.Error())
	}
	b, err := s.Source.Get(ctx, h)
	if err == nil {
		err = storage.Verify(h, b)
	}
	if err != nil {
		s.logger().Debug("get failed", zap.Stringer("item_hash", h), zap.Error(err))
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.Source == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing source")
	}
	h, err := itemhash.ParseRef(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidHash.Error())
	}
	return wrapperspb.Bool(s.Source.Has(ctx, h)), nil
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, storage.ErrNotFound.Error())
	case errors.Is(err, storage.ErrInvalidHash):
		return status.Error(codes.InvalidArgument, storage.ErrInvalidHash.Error())
	case errors.Is(err, storage.ErrHashMismatch):
		return status.Error(codes.DataLoss, storage.ErrHashMismatch.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
