package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func copyFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "..", "..", "message", "testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRun_Fixtures(t *testing.T) {
	for _, name := range []string{"post_inline.json", "store_storage.json", "store_ipfs.json"} {
		var out, errOut bytes.Buffer
		path := copyFixture(t, name)
		if code := run([]string{path}, &out, &errOut); code != 0 {
			t.Fatalf("%s: exit %d, stderr=%s", name, code, errOut.String())
		}
		if !strings.HasSuffix(strings.TrimSpace(out.String()), "ok") {
			t.Fatalf("%s: unexpected output %q", name, out.String())
		}
	}
}

func TestRun_MismatchAndRewrite(t *testing.T) {
	path := copyFixture(t, "post_inline.json")
	b, _ := os.ReadFile(path)
	bad := strings.Replace(string(b), "0750b55df7b6cc3d70aade3d0432fe23f9df25213d4f186b1bd8215eb58748bf", strings.Repeat("0", 64), 1)
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out, errOut bytes.Buffer
	if code := run([]string{path}, &out, &errOut); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out.String(), "MISMATCH") {
		t.Fatalf("expected MISMATCH, got %q", out.String())
	}

	out.Reset()
	if code := run([]string{"-w", path}, &out, &errOut); code != 0 {
		t.Fatalf("expected exit 0 with -w, got %d (%s)", code, errOut.String())
	}
	out.Reset()
	if code := run([]string{path}, &out, &errOut); code != 0 {
		t.Fatalf("rewritten record still mismatches: %s", out.String())
	}
}

func TestRun_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(nil, &out, &errOut); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}
