// Package itemhash implements the content identity of Aleph messages and
// stored files.
//
// An ItemHash is either a native SHA-256 digest (64 hex characters) or, for
// content pinned on IPFS, a CID. Values are immutable and comparable with ==;
// equality is defined over the decoded bytes, never over the input spelling.
package itemhash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/ipfs/go-cid"

	"aleph.im/sdk/cidutil"
)

// HexLen is the length of the textual form of a native item hash.
const HexLen = sha256.Size * 2

// Kind distinguishes the two identity forms. The zero Kind marks an unset ItemHash.
type Kind uint8

const (
	KindNative Kind = iota + 1
	KindCID
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native"
	case KindCID:
		return "cid"
	default:
		return "undefined"
	}
}

// ItemHash is a content identifier.
type ItemHash struct {
	kind   Kind
	digest [sha256.Size]byte
	cid    cid.Cid
}

// FromBytes returns the native item hash of payload.
func FromBytes(payload []byte) ItemHash {
	return ItemHash{kind: KindNative, digest: sha256.Sum256(payload)}
}

// FromDigest wraps an existing SHA-256 digest.
func FromDigest(d [sha256.Size]byte) ItemHash {
	return ItemHash{kind: KindNative, digest: d}
}

// FromCID wraps a defined CID.
func FromCID(id cid.Cid) (ItemHash, error) {
	if !id.Defined() {
		return ItemHash{}, invalid("", "undefined cid")
	}
	return ItemHash{kind: KindCID, cid: id}, nil
}

// CIDv0FromBytes returns the IPFS (CIDv0, sha2-256) item hash of payload.
func CIDv0FromBytes(payload []byte) (ItemHash, error) {
	id, err := cidutil.V0SHA256(payload)
	if err != nil {
		return ItemHash{}, err
	}
	return FromCID(id)
}

// Parse parses the native textual form: exactly 64 hexadecimal characters,
// in any case. Anything else fails with *InvalidHashError.
func Parse(s string) (ItemHash, error) {
	if len(s) != HexLen {
		return ItemHash{}, invalid(s, "expected 64 hex characters")
	}
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return ItemHash{}, invalid(s, "non-hex character")
		}
	}
	var h ItemHash
	if _, err := hex.Decode(h.digest[:], []byte(s)); err != nil {
		return ItemHash{}, invalid(s, err.Error())
	}
	h.kind = KindNative
	return h, nil
}

// ParseRef parses either form: a native hex digest or an IPFS CID
// (v0 "Qm..." or v1 with a multibase prefix).
func ParseRef(s string) (ItemHash, error) {
	if len(s) == HexLen && isAllHex(s) {
		return Parse(s)
	}
	if !looksLikeCID(s) {
		return ItemHash{}, invalid(s, "neither a 64 hex digest nor a CID")
	}
	id, err := cid.Decode(s)
	if err != nil {
		return ItemHash{}, &InvalidHashError{Input: s, Reason: "invalid cid", Cause: err}
	}
	return FromCID(id)
}

// MustParse is Parse for literals known at compile time. It panics on invalid input.
func MustParse(s string) ItemHash {
	h, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return h
}

func (h ItemHash) Kind() Kind   { return h.kind }
func (h ItemHash) IsZero() bool { return h.kind == 0 }
func (h ItemHash) IsCID() bool  { return h.kind == KindCID }

// CID returns the CID form, or cid.Undef for native hashes.
func (h ItemHash) CID() cid.Cid {
	if h.kind != KindCID {
		return cid.Undef
	}
	return h.cid
}

// Digest returns the SHA-256 digest bytes. For CIDs that do not carry a
// sha2-256 multihash it returns nil.
func (h ItemHash) Digest() []byte {
	switch h.kind {
	case KindNative:
		out := make([]byte, len(h.digest))
		copy(out, h.digest[:])
		return out
	case KindCID:
		d, ok := cidutil.SHA256Digest(h.cid)
		if !ok {
			return nil
		}
		return d
	default:
		return nil
	}
}

// String returns the canonical textual form: lowercase hex for native hashes,
// the CID's default string encoding otherwise, "" for the zero value.
func (h ItemHash) String() string {
	switch h.kind {
	case KindNative:
		return hex.EncodeToString(h.digest[:])
	case KindCID:
		return h.cid.String()
	default:
		return ""
	}
}

func (h ItemHash) Equal(o ItemHash) bool { return h == o }

// Compare orders by kind, then by decoded bytes.
func (h ItemHash) Compare(o ItemHash) int {
	if h.kind != o.kind {
		if h.kind < o.kind {
			return -1
		}
		return 1
	}
	if h.kind == KindCID {
		return bytes.Compare(h.cid.Bytes(), o.cid.Bytes())
	}
	return bytes.Compare(h.digest[:], o.digest[:])
}

// Matches reports whether data hashes to h.
func (h ItemHash) Matches(data []byte) bool {
	switch h.kind {
	case KindNative:
		return sha256.Sum256(data) == h.digest
	case KindCID:
		return cidutil.Matches(h.cid, data)
	default:
		return false
	}
}

func (h ItemHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText accepts both forms, since CIDs appear on the wire for
// IPFS-backed content. An empty string decodes to the zero hash, which is
// also what MarshalText emits for it.
func (h *ItemHash) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*h = ItemHash{}
		return nil
	}
	parsed, err := ParseRef(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isAllHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return false
		}
	}
	return true
}

func looksLikeCID(s string) bool {
	if strings.HasPrefix(s, "Qm") {
		return len(s) == 46
	}
	if len(s) < 2 {
		return false
	}
	switch s[0] {
	case 'b', 'B', 'z', 'f', 'F', 'm', 'M', 'u', 'U':
		return true
	}
	return false
}
