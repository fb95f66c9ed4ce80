// Package message holds the Aleph message model: the common envelope, one
// typed payload per message kind, and the decoder that turns network records
// into verified Messages.
//
// Decoding checks shape before identity: a record whose payload does not
// match its kind fails with KindMalformedPayload before any hashing, and a
// record whose recomputed item hash differs from the declared one fails with
// KindHashMismatch. A Message value is only ever produced for records that
// pass both.
package message

import (
	"encoding/json"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/types"
)

// Message is an immutable, verified protocol message.
type Message struct {
	Chain         types.Chain
	Sender        types.Address
	Signature     types.Signature
	ItemType      ItemType
	ItemContent   string // inline messages only
	ItemHash      itemhash.ItemHash
	Confirmations []Confirmation
	Time          types.Timestamp
	Channel       types.Channel // "" when the message has no channel
	Type          Type
	Content       Content

	raw json.RawMessage
}

// Content is the signed content of a message: owner address, creation time,
// and the kind-specific payload.
type Content struct {
	Address types.Address
	Time    types.Timestamp
	Payload Payload
}

// Confirmation records a message's anchoring on a chain.
type Confirmation struct {
	Chain     types.Chain      `json:"chain"`
	Height    uint64           `json:"height"`
	Hash      string           `json:"hash"`
	Time      *types.Timestamp `json:"time,omitempty"`
	Publisher types.Address    `json:"publisher,omitempty"`
}

// Payload is implemented by exactly one struct per message kind:
// *Post, *Aggregate, *Store, *Program, *Instance and *Forget.
type Payload interface {
	MessageType() Type
	isPayload()
}

// RawContent returns the content bytes the message was decoded from
// (item_content for inline messages).
func (m *Message) RawContent() json.RawMessage {
	out := make(json.RawMessage, len(m.raw))
	copy(out, m.raw)
	return out
}

// Owner is the address owning the message's resources. It can differ from
// Sender when authority was delegated.
func (m *Message) Owner() types.Address { return m.Content.Address }

// SentAt is the signed creation time; prefer it over Time, which is not
// covered by the signature.
func (m *Message) SentAt() types.Timestamp { return m.Content.Time }

func (m *Message) Confirmed() bool { return len(m.Confirmations) > 0 }

// ConfirmedAt returns the earliest confirmation time, if any.
func (m *Message) ConfirmedAt() (types.Timestamp, bool) {
	if len(m.Confirmations) == 0 || m.Confirmations[0].Time == nil {
		return 0, false
	}
	return *m.Confirmations[0].Time, true
}

func (m *Message) Post() (*Post, bool) {
	p, ok := m.Content.Payload.(*Post)
	return p, ok
}

func (m *Message) Aggregate() (*Aggregate, bool) {
	p, ok := m.Content.Payload.(*Aggregate)
	return p, ok
}

func (m *Message) Store() (*Store, bool) {
	p, ok := m.Content.Payload.(*Store)
	return p, ok
}

func (m *Message) Program() (*Program, bool) {
	p, ok := m.Content.Payload.(*Program)
	return p, ok
}

func (m *Message) Instance() (*Instance, bool) {
	p, ok := m.Content.Payload.(*Instance)
	return p, ok
}

func (m *Message) Forget() (*Forget, bool) {
	p, ok := m.Content.Payload.(*Forget)
	return p, ok
}

// VerifyItemHash recomputes the item hash over the message's content and
// compares it with the declared one.
func (m *Message) VerifyItemHash() error {
	got, err := ComputeItemHash(m.ItemType, m.ItemContent, m.raw)
	if err != nil {
		return wrapError(KindHashMismatch, RuleHashCanonical, m.ItemHash.String(), "cannot canonicalize content", err)
	}
	if got != m.ItemHash {
		return newError(KindHashMismatch, RuleHashMismatch, m.ItemHash.String(), "item hash mismatch: computed "+got.String())
	}
	return nil
}

type wireMessage struct {
	Sender        types.Address     `json:"sender"`
	Chain         types.Chain       `json:"chain"`
	Signature     types.Signature   `json:"signature"`
	Type          Type              `json:"type"`
	ItemContent   *string           `json:"item_content"`
	ItemHash      itemhash.ItemHash `json:"item_hash"`
	ItemType      ItemType          `json:"item_type"`
	Time          types.Timestamp   `json:"time"`
	Channel       *types.Channel    `json:"channel"`
	Content       json.RawMessage   `json:"content"`
	Confirmed     bool              `json:"confirmed"`
	Confirmations []Confirmation    `json:"confirmations"`
}

// MarshalJSON renders the message in its network record form.
func (m *Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		Sender:        m.Sender,
		Chain:         m.Chain,
		Signature:     m.Signature,
		Type:          m.Type,
		ItemHash:      m.ItemHash,
		ItemType:      m.ItemType,
		Time:          m.Time,
		Content:       m.raw,
		Confirmed:     m.Confirmed(),
		Confirmations: m.Confirmations,
	}
	if m.ItemType == ItemTypeInline {
		s := m.ItemContent
		w.ItemContent = &s
	}
	if m.Channel != "" {
		c := m.Channel
		w.Channel = &c
	}
	if w.Confirmations == nil {
		w.Confirmations = []Confirmation{}
	}
	if len(w.Content) == 0 {
		w.Content = json.RawMessage("null")
	}
	return json.Marshal(w)
}
