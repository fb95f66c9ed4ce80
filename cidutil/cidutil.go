package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// V0SHA256 returns the CIDv0 (dag-pb codec implied, sha2-256 multihash,
// base58btc "Qm..." form) of data.
//
// Aleph "ipfs" item hashes are compared in this form.
func V0SHA256(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV0(sum), nil
}

// V1RawSHA256 returns a CIDv1 using the "raw" multicodec and a sha2-256 multihash.
func V1RawSHA256(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Matches reports whether data hashes to id under id's own prefix
// (version, codec, and multihash type).
func Matches(id cid.Cid, data []byte) bool {
	if !id.Defined() {
		return false
	}
	got, err := id.Prefix().Sum(data)
	if err != nil {
		return false
	}
	return got.Equals(id)
}

// SHA256Digest extracts the raw sha2-256 digest from id.
// ok is false when id does not carry a sha2-256 multihash.
func SHA256Digest(id cid.Cid) (digest []byte, ok bool) {
	if !id.Defined() {
		return nil, false
	}
	dec, err := multihash.Decode(id.Hash())
	if err != nil || dec.Code != multihash.SHA2_256 {
		return nil, false
	}
	return dec.Digest, true
}
