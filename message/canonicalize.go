package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"aleph.im/sdk/itemhash"
)

// CanonicalizationVersion names the hashing rule implemented by ComputeItemHash.
// It changes whenever the hashed byte layout changes. Storage and ipfs content
// is hashed with sorted keys, so a producer that hashes its own serializer's
// field order can declare a different hash for the same content.
const CanonicalizationVersion = "aleph-canonical-json/v1"

// CanonicalJSON re-encodes a JSON document in its canonical form: object keys
// sorted bytewise, no insignificant whitespace, numbers kept as written and
// no HTML escaping. Exactly one JSON value is accepted.
func CanonicalJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ComputeItemHash derives a message's identity.
//
// Inline messages hash the item_content bytes exactly as sent. Storage and
// ipfs messages hash the canonical JSON of content; ipfs identities are the
// CIDv0 of those bytes.
func ComputeItemHash(itemType ItemType, itemContent string, content json.RawMessage) (itemhash.ItemHash, error) {
	switch itemType {
	case ItemTypeInline:
		return itemhash.FromBytes([]byte(itemContent)), nil
	case ItemTypeStorage, ItemTypeIPFS:
		if len(content) == 0 {
			return itemhash.ItemHash{}, errors.New("no content to hash")
		}
		canon, err := CanonicalJSON(content)
		if err != nil {
			return itemhash.ItemHash{}, err
		}
		if itemType == ItemTypeIPFS {
			return itemhash.CIDv0FromBytes(canon)
		}
		return itemhash.FromBytes(canon), nil
	default:
		return itemhash.ItemHash{}, fmt.Errorf("unknown item type %q", itemType)
	}
}
