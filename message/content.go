package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/types"
)

// Post carries arbitrary application content. A post with a Ref amends the
// post it references.
type Post struct {
	PostType string          `json:"type" validate:"required_without=Ref"`
	Ref      string          `json:"ref,omitempty"`
	Content  json.RawMessage `json:"content,omitempty"`
}

func (*Post) MessageType() Type { return TypePost }
func (*Post) isPayload()        {}

// IsAmend reports whether the post amends an earlier one.
func (p *Post) IsAmend() bool { return p.Ref != "" || p.PostType == "amend" }

// Kind is the effective post type: "amend" for amendments.
func (p *Post) Kind() string {
	if p.IsAmend() {
		return "amend"
	}
	return p.PostType
}

// RefHash returns Ref as an item hash when it is one.
func (p *Post) RefHash() (itemhash.ItemHash, bool) {
	h, err := itemhash.ParseRef(p.Ref)
	return h, err == nil
}

// DecodeContent unmarshals the post body into v.
func (p *Post) DecodeContent(v any) error {
	if len(p.Content) == 0 {
		return errors.New("message: post has no content")
	}
	return json.Unmarshal(p.Content, v)
}

// AggregateKey is the aggregate key. The wire form is either a string or an
// object {"name": "..."}.
type AggregateKey string

func (k *AggregateKey) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*k = AggregateKey(obj.Name)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("aggregate key must be a string or {\"name\": ...}: %w", err)
	}
	*k = AggregateKey(s)
	return nil
}

// Aggregate is a key-value patch scoped to (owner, key).
type Aggregate struct {
	Key     AggregateKey               `json:"key" validate:"required"`
	Content map[string]json.RawMessage `json:"content" validate:"required"`
}

func (*Aggregate) MessageType() Type { return TypeAggregate }
func (*Aggregate) isPayload()        {}

// DecodeContent unmarshals the patch into v.
func (a *Aggregate) DecodeContent(v any) error {
	b, err := json.Marshal(a.Content)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Store references a file stored on Aleph storage or IPFS.
type Store struct {
	ItemType    ItemType                   `json:"item_type" validate:"oneof=storage ipfs"`
	ItemHash    itemhash.ItemHash          `json:"item_hash" validate:"required"`
	Size        *types.StorageSize         `json:"size,omitempty"`
	ContentType string                     `json:"content_type,omitempty"`
	Ref         string                     `json:"ref,omitempty"`
	Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
}

func (*Store) MessageType() Type { return TypeStore }
func (*Store) isPayload()        {}

func (s *Store) check() error {
	switch {
	case s.ItemType == ItemTypeIPFS && !s.ItemHash.IsCID():
		return errors.New("ipfs file hash must be a CID")
	case s.ItemType == ItemTypeStorage && s.ItemHash.IsCID():
		return errors.New("storage file hash must be a native hash")
	}
	return nil
}

// Forget asks for earlier messages and aggregates to be treated as deleted.
type Forget struct {
	Hashes     []itemhash.ItemHash `json:"hashes" validate:"required"`
	Aggregates []itemhash.ItemHash `json:"aggregates"`
	Reason     string              `json:"reason,omitempty"`
}

func (*Forget) MessageType() Type { return TypeForget }
func (*Forget) isPayload()        {}

func (f *Forget) check() error {
	if f.Aggregates == nil {
		f.Aggregates = []itemhash.ItemHash{}
	}
	if len(f.Hashes)+len(f.Aggregates) == 0 {
		return errors.New("forget targets nothing")
	}
	if err := hashList("hashes", f.Hashes); err != nil {
		return err
	}
	return hashList("aggregates", f.Aggregates)
}
