// Command aleph-storaged serves a storage source over gRPC.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"aleph.im/sdk/internal/logging"
	"aleph.im/sdk/storage"
	"aleph.im/sdk/storage/grpcstore"
	"aleph.im/sdk/storage/registry"
	"aleph.im/sdk/storage/storeconfig"

	_ "aleph.im/sdk/storage/localfs"
	_ "aleph.im/sdk/storage/nodestore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet("aleph-storaged", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	backend := fs.String("backend", "localfs", "storage backend name")
	storeConfig := fs.String("store-config", "", "backends config file; overrides --backend")
	listBackends := fs.Bool("list-backends", false, "list supported backends and exit")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", logging.FormatJSON, "log format (console, json)")

	registry.RegisterFlags(fs, registry.UsageDaemon)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	log, err := logging.New(errOut, *logLevel, *logFormat)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	src, closeFn, err := open(ctx, fs, *backend, *storeConfig)
	if err != nil {
		log.Error("open storage", zap.Error(err))
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Error("listen", zap.Error(err))
		return 1
	}
	log.Info("serving", zap.String("addr", lis.Addr().String()), zap.String("backend", *backend))
	if err := serve(ctx, lis, src, log); err != nil {
		log.Error("serve", zap.Error(err))
		return 1
	}
	return 0
}

func open(ctx context.Context, fs *pflag.FlagSet, backend, configPath string) (storage.Source, func() error, error) {
	if configPath == "" {
		return registry.Open(ctx, backend, registry.UsageDaemon, fs)
	}
	cfg, err := storeconfig.LoadFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Open(ctx, registry.UsageDaemon, "")
}

// serve runs the gRPC server on lis until ctx is done, then stops it
// gracefully.
func serve(ctx context.Context, lis net.Listener, src storage.Source, log *zap.Logger) error {
	s := grpc.NewServer()
	grpcstore.RegisterStoreServer(s, &grpcstore.Server{Source: src, Log: log.Named("grpcstore")})

	errc := make(chan error, 1)
	go func() { errc <- s.Serve(lis) }()

	select {
	case <-ctx.Done():
		s.GracefulStop()
		<-errc
		return nil
	case err := <-errc:
		return err
	}
}
