package localfs

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"aleph.im/sdk/storage"
	"aleph.im/sdk/storage/registry"
)

const flagDir = "localfs-dir"

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localfs",
		Description: "Local mirror directory",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		RegisterFlags: func(fs *pflag.FlagSet) {
			fs.String(flagDir, "", "Mirror directory (for --backend=localfs)")
		},
		Open: func(_ context.Context, fs *pflag.FlagSet) (storage.Source, func() error, error) {
			dir, _ := fs.GetString(flagDir)
			if dir == "" {
				return nil, nil, fmt.Errorf("missing --%s", flagDir)
			}
			m, err := New(dir)
			return m, nil, err
		},
	})
}
