package grpcstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"aleph.im/sdk/storage"
	"aleph.im/sdk/storage/registry"
)

const (
	flagTarget      = "grpc-target"
	flagTimeout     = "grpc-timeout"
	flagMaxMsgBytes = "grpc-max-msg-bytes"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "grpc",
		Description: "gRPC store client (talks to aleph-storaged)",
		Usage:       registry.UsageCLI,
		RegisterFlags: func(fs *pflag.FlagSet) {
			fs.String(flagTarget, "", "gRPC target host:port (for --backend=grpc)")
			fs.Duration(flagTimeout, 0, "Per-RPC timeout (for --backend=grpc)")
			fs.Int(flagMaxMsgBytes, 0, "Max gRPC message size in bytes; 0 uses grpc defaults")
		},
		Open: func(_ context.Context, fs *pflag.FlagSet) (storage.Source, func() error, error) {
			target, _ := fs.GetString(flagTarget)
			target = strings.TrimSpace(target)
			if target == "" {
				return nil, nil, fmt.Errorf("missing --%s", flagTarget)
			}
			timeout, _ := fs.GetDuration(flagTimeout)
			maxMsg, _ := fs.GetInt(flagMaxMsgBytes)
			client, err := Dial(target, DialOptions{Timeout: timeout, MaxMsgBytes: maxMsg})
			if err != nil {
				return nil, nil, err
			}
			return client, client.Close, nil
		},
	})
}
