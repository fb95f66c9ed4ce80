package message

import (
	"bytes"
	"encoding/json"
	"strings"

	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/types"
)

// Record is a message as it appears on the wire, before any checks. Fields
// whose presence matters are pointers or raw JSON.
type Record struct {
	Chain         string          `json:"chain"`
	Sender        string          `json:"sender"`
	Signature     string          `json:"signature"`
	ItemType      string          `json:"item_type"`
	ItemContent   *string         `json:"item_content"`
	ItemHash      string          `json:"item_hash"`
	Confirmations json.RawMessage `json:"confirmations"`
	Time          json.RawMessage `json:"time"`
	Channel       *string         `json:"channel"`
	Type          string          `json:"type"`
	Content       json.RawMessage `json:"content"`
}

// ParseRecord reads the loose envelope of a single wire record.
func ParseRecord(raw []byte) (Record, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{}, newError(KindMalformedPayload, RuleEnvelopeJSON, "", "record is not a JSON object")
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Record{}, wrapError(KindMalformedPayload, RuleEnvelopeJSON, peekItemHash(raw), "record is not a JSON object", err)
	}
	return r, nil
}

// peekItemHash extracts item_hash from a record that may not otherwise parse,
// so errors can still name it.
func peekItemHash(raw []byte) string {
	var probe struct {
		ItemHash json.RawMessage `json:"item_hash"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return ""
	}
	var s string
	if json.Unmarshal(probe.ItemHash, &s) != nil {
		return ""
	}
	return s
}

// Decode parses and verifies one wire record.
func Decode(raw []byte) (*Message, error) {
	r, err := ParseRecord(raw)
	if err != nil {
		return nil, err
	}
	return DecodeRecord(r)
}

// DecodeRecord turns a wire record into a verified Message.
//
// Checks run in a fixed order: the type tag, then the envelope and payload
// shape, then the item hash. The first failure is returned as a
// *DecodeError.
func DecodeRecord(r Record) (*Message, error) {
	id := r.ItemHash

	if strings.TrimSpace(r.Type) == "" {
		return nil, newError(KindMalformedPayload, RuleEnvelopeField, id, "type is required")
	}
	typ, ok := ParseType(r.Type)
	if !ok {
		return nil, newError(KindUnknownType, RuleUnknownType, id, "unknown message type "+quote(r.Type))
	}

	m, err := decodeEnvelope(r, typ)
	if err != nil {
		return nil, err
	}
	if err := decodeContent(m, id); err != nil {
		return nil, err
	}

	if err := m.VerifyItemHash(); err != nil {
		return nil, err
	}
	if m.ItemType == ItemTypeInline && hasValue(r.Content) {
		if err := checkInlineDrift(m, r.Content); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func decodeEnvelope(r Record, typ Type) (*Message, error) {
	id := r.ItemHash
	m := &Message{Type: typ}

	h, err := itemhash.ParseRef(r.ItemHash)
	if err != nil {
		return nil, wrapError(KindMalformedPayload, RuleEnvelopeItemHash, id, "invalid item_hash", err)
	}
	m.ItemHash = h

	itemType := r.ItemType
	if itemType == "" && r.ItemContent != nil {
		itemType = string(ItemTypeInline)
	}
	it, ok := ParseItemType(itemType)
	if !ok {
		return nil, newError(KindMalformedPayload, RuleEnvelopeItemType, id, "invalid item_type "+quote(r.ItemType))
	}
	m.ItemType = it
	if (it == ItemTypeIPFS) != h.IsCID() {
		return nil, newError(KindMalformedPayload, RuleEnvelopeItemHash, id, "item_hash form does not match item_type "+string(it))
	}

	chain, err := types.ParseChain(r.Chain)
	if err != nil {
		return nil, wrapError(KindMalformedPayload, RuleEnvelopeChain, id, "invalid chain", err)
	}
	m.Chain = chain

	if strings.TrimSpace(r.Sender) == "" {
		return nil, newError(KindMalformedPayload, RuleEnvelopeField, id, "sender is required")
	}
	m.Sender = types.Address(r.Sender)
	m.Signature = types.Signature(r.Signature)

	if !hasValue(r.Time) {
		return nil, newError(KindMalformedPayload, RuleEnvelopeField, id, "time is required")
	}
	if err := json.Unmarshal(r.Time, &m.Time); err != nil {
		return nil, wrapError(KindMalformedPayload, RuleEnvelopeField, id, "invalid time", err)
	}

	if hasValue(r.Confirmations) {
		if err := json.Unmarshal(r.Confirmations, &m.Confirmations); err != nil {
			return nil, wrapError(KindMalformedPayload, RuleEnvelopeField, id, "invalid confirmations", err)
		}
	}
	if r.Channel != nil {
		m.Channel = types.Channel(*r.Channel)
	}

	switch it {
	case ItemTypeInline:
		if r.ItemContent == nil {
			return nil, newError(KindMalformedPayload, RuleEnvelopeField, id, "inline message without item_content")
		}
		m.ItemContent = *r.ItemContent
		m.raw = json.RawMessage(*r.ItemContent)
	default:
		if !hasValue(r.Content) {
			return nil, newError(KindMalformedPayload, RuleEnvelopeField, id, string(it)+" message without content")
		}
		m.raw = append(json.RawMessage(nil), r.Content...)
	}
	return m, nil
}

// contentHeader holds the fields shared by every payload.
type contentHeader struct {
	Address *string          `json:"address"`
	Time    *types.Timestamp `json:"time"`
}

func decodeContent(m *Message, id string) error {
	raw := bytes.TrimSpace(m.raw)
	if len(raw) == 0 || raw[0] != '{' {
		return newError(KindMalformedPayload, RuleContentObject, id, "content must be a JSON object")
	}

	var hdr contentHeader
	if err := json.Unmarshal(raw, &hdr); err != nil {
		return wrapError(KindMalformedPayload, RuleContentObject, id, "content is not valid JSON", err)
	}
	if hdr.Address == nil || *hdr.Address == "" {
		return newError(KindMalformedPayload, RuleContentShape, id, "content.address is required")
	}
	if hdr.Time == nil {
		return newError(KindMalformedPayload, RuleContentShape, id, "content.time is required")
	}

	p := newPayload(m.Type)
	if err := json.Unmarshal(raw, p); err != nil {
		return wrapError(KindMalformedPayload, RuleContentShape, id, "content does not match "+string(m.Type)+" shape", err)
	}
	if rule, err := validatePayload(p); err != nil {
		return wrapError(KindMalformedPayload, rule, id, "invalid "+string(m.Type)+" content", err)
	}

	m.Content = Content{
		Address: types.Address(*hdr.Address),
		Time:    *hdr.Time,
		Payload: p,
	}
	return nil
}

func newPayload(t Type) Payload {
	switch t {
	case TypePost:
		return new(Post)
	case TypeAggregate:
		return new(Aggregate)
	case TypeStore:
		return new(Store)
	case TypeProgram:
		return new(Program)
	case TypeInstance:
		return new(Instance)
	case TypeForget:
		return new(Forget)
	}
	panic("message: no payload for type " + string(t))
}

// checkInlineDrift rejects inline records whose expanded content disagrees
// with the hashed item_content.
func checkInlineDrift(m *Message, content json.RawMessage) error {
	id := m.ItemHash.String()
	want, err := CanonicalJSON(m.raw)
	if err != nil {
		return wrapError(KindHashMismatch, RuleHashCanonical, id, "cannot canonicalize item_content", err)
	}
	got, err := CanonicalJSON(content)
	if err != nil {
		return wrapError(KindHashMismatch, RuleHashCanonical, id, "cannot canonicalize content", err)
	}
	if !bytes.Equal(want, got) {
		return newError(KindHashMismatch, RuleHashInlineDrift, id, "content differs from hashed item_content")
	}
	return nil
}

func hasValue(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
