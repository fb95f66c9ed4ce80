package itemhash

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const helloHex = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestFromBytes_KnownVector(t *testing.T) {
	h := FromBytes([]byte("hello"))
	if h.String() != helloHex {
		t.Fatalf("got %s want %s", h, helloHex)
	}
	if h.Kind() != KindNative {
		t.Fatalf("expected native kind, got %s", h.Kind())
	}
}

func TestParse_RoundTripsFromBytes(t *testing.T) {
	payloads := [][]byte{nil, []byte(""), []byte("hello"), []byte(`{"a":1}`), {0x00, 0xff, 0x10}}
	for _, p := range payloads {
		h := FromBytes(p)
		parsed, err := Parse(h.String())
		if err != nil {
			t.Fatalf("Parse(%s): %v", h, err)
		}
		if parsed != h {
			t.Fatalf("round trip mismatch: %s vs %s", parsed, h)
		}
	}
}

func TestParse_CaseInsensitive(t *testing.T) {
	lower, err := Parse(helloHex)
	if err != nil {
		t.Fatalf("Parse lower: %v", err)
	}
	upper, err := Parse(strings.ToUpper(helloHex))
	if err != nil {
		t.Fatalf("Parse upper: %v", err)
	}
	if lower != upper || !lower.Equal(upper) || lower.Compare(upper) != 0 {
		t.Fatalf("expected equal identities")
	}
	if upper.String() != helloHex {
		t.Fatalf("expected lowercase canonical form, got %s", upper)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"short":     helloHex[:63],
		"long":      helloHex + "0",
		"non-hex":   "z" + helloHex[1:],
		"prefixed":  "0x" + helloHex[2:],
		"spaces":    " " + helloHex[1:],
		"cid":       "QmRN6wdp1S2A5EtjW9A3M1vKSBuQQGcgvuhoMUoEz4iiT5",
		"truncated": helloHex[:32],
	}
	for name, in := range cases {
		_, err := Parse(in)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("%s: expected ErrInvalidHash, got %v", name, err)
		}
		var ie *InvalidHashError
		if !errors.As(err, &ie) || ie.Input != in {
			t.Fatalf("%s: expected *InvalidHashError carrying input", name)
		}
	}
}

func TestParseRef_CIDForms(t *testing.T) {
	v0, err := ParseRef("QmRN6wdp1S2A5EtjW9A3M1vKSBuQQGcgvuhoMUoEz4iiT5")
	if err != nil {
		t.Fatalf("ParseRef v0: %v", err)
	}
	if !v0.IsCID() || v0.CID().Version() != 0 {
		t.Fatalf("expected CIDv0")
	}
	if !v0.Matches([]byte("hello")) {
		t.Fatalf("expected CIDv0 to match its bytes")
	}
	computed, err := CIDv0FromBytes([]byte("hello"))
	if err != nil {
		t.Fatalf("CIDv0FromBytes: %v", err)
	}
	if computed != v0 {
		t.Fatalf("computed CIDv0 %s != parsed %s", computed, v0)
	}

	v1, err := ParseRef("bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq")
	if err != nil {
		t.Fatalf("ParseRef v1: %v", err)
	}
	if v1.CID().Version() != 1 || !v1.Matches([]byte("hello")) {
		t.Fatalf("expected CIDv1 matching its bytes")
	}
	// Both CIDs and the native hash carry the same sha2-256 digest but are distinct identities.
	if string(v0.Digest()) != string(v1.Digest()) || string(v1.Digest()) != string(FromBytes([]byte("hello")).Digest()) {
		t.Fatalf("expected identical digests")
	}
	if v0 == v1 || v0.Equal(FromBytes([]byte("hello"))) {
		t.Fatalf("expected distinct identities across kinds")
	}

	native, err := ParseRef(strings.ToUpper(helloHex))
	if err != nil || native.Kind() != KindNative {
		t.Fatalf("ParseRef native: %v", err)
	}
}

func TestParseRef_Rejects(t *testing.T) {
	for _, in := range []string{"", "Qm", "Qmshort", "bnot-a-cid!", "hello"} {
		if _, err := ParseRef(in); !errors.Is(err, ErrInvalidHash) {
			t.Fatalf("ParseRef(%q): expected ErrInvalidHash, got %v", in, err)
		}
	}
}

func TestMatches(t *testing.T) {
	h := FromBytes([]byte("hello"))
	if !h.Matches([]byte("hello")) {
		t.Fatalf("expected match")
	}
	if h.Matches([]byte("hello!")) {
		t.Fatalf("expected mismatch")
	}
	var zero ItemHash
	if zero.Matches(nil) || !zero.IsZero() || zero.String() != "" {
		t.Fatalf("zero value must match nothing and render empty")
	}
}

func TestCompare_Ordering(t *testing.T) {
	a := MustParse(strings.Repeat("0", 64))
	b := MustParse(strings.Repeat("f", 64))
	if a.Compare(b) >= 0 || b.Compare(a) <= 0 || a.Compare(a) != 0 {
		t.Fatalf("unexpected ordering")
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	_ = MustParse("not-a-hash")
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		H  ItemHash   `json:"h"`
		Hs []ItemHash `json:"hs"`
	}
	in := `{"h":"` + strings.ToUpper(helloHex) + `","hs":["QmRN6wdp1S2A5EtjW9A3M1vKSBuQQGcgvuhoMUoEz4iiT5"]}`
	var w wrapper
	if err := json.Unmarshal([]byte(in), &w); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if w.H.String() != helloHex || len(w.Hs) != 1 || !w.Hs[0].IsCID() {
		t.Fatalf("unexpected decode: %+v", w)
	}
	out, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"h":"` + helloHex + `","hs":["QmRN6wdp1S2A5EtjW9A3M1vKSBuQQGcgvuhoMUoEz4iiT5"]}`
	if string(out) != want {
		t.Fatalf("got %s want %s", out, want)
	}

	if err := json.Unmarshal([]byte(`{"h":"nope"}`), &w); !errors.Is(err, ErrInvalidHash) {
		t.Fatalf("expected ErrInvalidHash from JSON, got %v", err)
	}

	var empty wrapper
	if err := json.Unmarshal([]byte(`{"h":""}`), &empty); err != nil || !empty.H.IsZero() {
		t.Fatalf("empty string should decode to the zero hash: %+v %v", empty, err)
	}
}
