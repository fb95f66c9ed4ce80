package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Address is a sender or owner address. It is kept as received; EVM
// addresses compare case-insensitively.
type Address string

// Signature is the sender's signature over the message. The read path never
// verifies it.
type Signature string

func (a Address) String() string { return string(a) }

// IsHex reports whether a has the 0x-prefixed 20-byte hex form.
func (a Address) IsHex() bool {
	s := string(a)
	if len(s) != 42 || !(strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

func (a Address) Equal(o Address) bool {
	if a.IsHex() && o.IsHex() {
		return strings.EqualFold(string(a[2:]), string(o[2:]))
	}
	return a == o
}

// IsChecksummed reports whether a is a hex address in its EIP-55 mixed-case form.
func (a Address) IsChecksummed() bool {
	c, err := ChecksumAddress(string(a))
	return err == nil && c == a
}

// ChecksumAddress returns the EIP-55 mixed-case rendering of a 0x hex address.
func ChecksumAddress(s string) (Address, error) {
	if !Address(s).IsHex() {
		return "", fmt.Errorf("types: %q is not a 0x hex address", s)
	}
	lower := strings.ToLower(s[2:])
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(lower))
	sum := h.Sum(nil)

	out := make([]byte, 0, 42)
	out = append(out, '0', 'x')
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if c >= 'a' && c <= 'f' && nibble&0x0f >= 8 {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return Address(out), nil
}

// MustChecksumAddress is the literal form of ChecksumAddress; it panics on
// malformed input.
func MustChecksumAddress(s string) Address {
	a, err := ChecksumAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}
