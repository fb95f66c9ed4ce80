package cidutil

import (
	"encoding/hex"
	"testing"
)

func TestV0SHA256_KnownVector(t *testing.T) {
	id, err := V0SHA256([]byte("hello"))
	if err != nil {
		t.Fatalf("V0SHA256: %v", err)
	}
	if got, want := id.String(), "QmRN6wdp1S2A5EtjW9A3M1vKSBuQQGcgvuhoMUoEz4iiT5"; got != want {
		t.Fatalf("CIDv0 mismatch: got %s want %s", got, want)
	}
	if id.Version() != 0 {
		t.Fatalf("expected version 0, got %d", id.Version())
	}
}

func TestV1RawSHA256_KnownVector(t *testing.T) {
	id, err := V1RawSHA256([]byte("hello"))
	if err != nil {
		t.Fatalf("V1RawSHA256: %v", err)
	}
	if got, want := id.String(), "bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq"; got != want {
		t.Fatalf("CIDv1 mismatch: got %s want %s", got, want)
	}
}

func TestMatches(t *testing.T) {
	v0, err := V0SHA256([]byte("aleph"))
	if err != nil {
		t.Fatalf("V0SHA256: %v", err)
	}
	v1, err := V1RawSHA256([]byte("aleph"))
	if err != nil {
		t.Fatalf("V1RawSHA256: %v", err)
	}
	if !Matches(v0, []byte("aleph")) || !Matches(v1, []byte("aleph")) {
		t.Fatalf("expected both CIDs to match their own bytes")
	}
	if Matches(v0, []byte("alephx")) || Matches(v1, []byte("alephx")) {
		t.Fatalf("expected mismatch for different bytes")
	}
}

func TestSHA256Digest(t *testing.T) {
	id, err := V0SHA256([]byte("hello"))
	if err != nil {
		t.Fatalf("V0SHA256: %v", err)
	}
	d, ok := SHA256Digest(id)
	if !ok {
		t.Fatalf("expected sha2-256 digest")
	}
	if got, want := hex.EncodeToString(d), "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"; got != want {
		t.Fatalf("digest mismatch: got %s want %s", got, want)
	}
}
