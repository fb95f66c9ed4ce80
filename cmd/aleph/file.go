package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/storage"
	"aleph.im/sdk/storage/localfs"
	"aleph.im/sdk/storage/nodestore"
	"aleph.im/sdk/storage/registry"
	"aleph.im/sdk/storage/storeconfig"

	_ "aleph.im/sdk/storage/grpcstore"
)

func newFileCmd(e *env) *cobra.Command {
	c := &cobra.Command{
		Use:   "file",
		Short: "Inspect and download stored files",
	}
	c.AddCommand(newFileSizeCmd(e), newFileGetCmd(e), newFileBackendsCmd(e))
	return c
}

func newFileSizeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "size <item-hash>",
		Short: "Print a stored file's size without downloading it",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := itemhash.ParseRef(args[0])
			if err != nil {
				return usageError{err}
			}
			n, err := e.client.GetFileSize(cmd.Context(), h)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(e.out, "%d\t%s\n", uint64(n), n.IEC())
			return err
		},
	}
}

func newFileGetCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <item-hash>",
		Short: "Download a file and verify it against its item hash",
		Args:  exactArgs(1),
	}
	output := cmd.Flags().StringP("output", "o", "", "Write to this path instead of stdout")
	mirror := cmd.Flags().String("mirror", "", "Local mirror directory, read first and filled on download")
	storeConfig := cmd.Flags().String("store-config", "", "Storage backends config file; defaults to the node")
	prefer := cmd.Flags().String("prefer", "", "Backend name or id to try first (with --store-config)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		h, err := itemhash.ParseRef(args[0])
		if err != nil {
			return usageError{err}
		}
		ctx := cmd.Context()

		var backends []storage.NamedSource
		var m *localfs.Mirror
		if *mirror != "" {
			if m, err = localfs.New(*mirror); err != nil {
				return err
			}
			backends = append(backends, storage.NamedSource{Name: "mirror", Source: m})
		}
		if *storeConfig != "" {
			cfg, err := storeconfig.LoadFile(*storeConfig)
			if err != nil {
				return usageError{err}
			}
			src, closeAll, err := cfg.Open(ctx, registry.UsageCLI, *prefer)
			if err != nil {
				return err
			}
			defer closeAll()
			backends = append(backends, src.Backends...)
		} else {
			backends = append(backends, storage.NamedSource{Name: "node", Source: nodestore.New(e.client)})
		}

		name, b, err := storage.MultiSource{Backends: backends}.Locate(ctx, h)
		if err != nil {
			return fmt.Errorf("%s: %w", h, err)
		}
		e.log.Info("file fetched", zap.Stringer("item_hash", h), zap.String("backend", name), zap.Int("bytes", len(b)))

		if m != nil && name != "mirror" {
			if err := m.Put(h, b); err != nil {
				e.log.Warn("mirror write failed", zap.Stringer("item_hash", h), zap.Error(err))
			}
		}
		if *output == "" {
			_, err = e.out.Write(b)
			return err
		}
		return os.WriteFile(*output, b, 0o644)
	}
	return cmd
}

func newFileBackendsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List storage backends usable in --store-config",
		Args:  exactArgs(0),
		RunE: func(*cobra.Command, []string) error {
			for _, b := range registry.List(registry.UsageCLI) {
				if b.Description == "" {
					fmt.Fprintf(e.out, "%s\n", b.Name)
					continue
				}
				fmt.Fprintf(e.out, "%s\t%s\n", b.Name, b.Description)
			}
			return nil
		},
	}
}
