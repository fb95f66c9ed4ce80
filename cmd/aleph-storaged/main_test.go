package main

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/storage/grpcstore"
	"aleph.im/sdk/storage/localfs"
)

func TestListBackends(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"--list-backends"}, &out, &errOut); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	for _, name := range []string{"localfs", "node"} {
		if !strings.Contains(out.String(), name+"\t") {
			t.Fatalf("missing backend %q in %q", name, out.String())
		}
	}
	if strings.Contains(out.String(), "grpc\t") {
		t.Fatalf("grpc backend should not be offered by the daemon")
	}
}

func TestOpenErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"--backend", "localfs"}, &out, &errOut); code != 2 {
		t.Fatalf("expected exit 2 without --localfs-dir, got %d", code)
	}
	if code := run(context.Background(), []string{"--backend", "nope"}, &out, &errOut); code != 2 {
		t.Fatalf("expected exit 2 for unknown backend, got %d", code)
	}
	if code := run(context.Background(), []string{"--no-such-flag"}, &out, &errOut); code != 2 {
		t.Fatalf("expected exit 2 for bad flag, got %d", code)
	}
}

func TestServe(t *testing.T) {
	m, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	b := []byte("hello")
	h := itemhash.FromBytes(b)
	if err := m.Put(h, b); err != nil {
		t.Fatalf("Put: %v", err)
	}

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, lis, m, zap.NewNop()) }()

	dialer := func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }
	client, err := grpcstore.Dial("passthrough:///bufnet", grpcstore.DialOptions{
		Timeout:     2 * time.Second,
		DialOptions: []grpc.DialOption{grpc.WithContextDialer(dialer)},
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	got, err := client.Get(context.Background(), h)
	if err != nil || string(got) != "hello" {
		t.Fatalf("Get: %q, %v", got, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop")
	}
}
