package nodestore

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"aleph.im/sdk/client"
	"aleph.im/sdk/storage"
	"aleph.im/sdk/storage/registry"
)

const (
	flagURL     = "node-url"
	flagTimeout = "node-timeout"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "node",
		Description: "Aleph node raw storage endpoint",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		RegisterFlags: func(fs *pflag.FlagSet) {
			fs.String(flagURL, "", "Node base URL (for --backend=node)")
			fs.Duration(flagTimeout, 0, "Per-request timeout (for --backend=node)")
		},
		Open: func(_ context.Context, fs *pflag.FlagSet) (storage.Source, func() error, error) {
			url, _ := fs.GetString(flagURL)
			if url == "" {
				return nil, nil, fmt.Errorf("missing --%s", flagURL)
			}
			timeout, _ := fs.GetDuration(flagTimeout)
			c, err := client.New(url, client.WithTimeout(timeout))
			if err != nil {
				return nil, nil, err
			}
			return New(c), nil, nil
		},
	})
}
