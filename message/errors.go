package message

import (
	"errors"
	"fmt"
)

// Kind is a stable category for decode failures.
//
// Callers should branch on Kind (and RuleID for finer detail) rather than on
// error strings. Error() text is meant for humans and may change.
type Kind string

const (
	// KindUnknownType: the type tag names no known message kind. Newer nodes
	// may emit kinds this package does not know yet, so batch callers treat
	// it as skippable.
	KindUnknownType Kind = "UnknownType"
	// KindMalformedPayload: the envelope or payload does not have the shape
	// its type tag requires.
	KindMalformedPayload Kind = "MalformedPayload"
	// KindHashMismatch: the declared item_hash differs from the hash
	// recomputed over the content.
	KindHashMismatch Kind = "HashMismatch"
)

// Stable rule identifiers carried by DecodeError.
const (
	RuleUnknownType      = "MSG-TYPE-001"
	RuleEnvelopeJSON     = "MSG-ENV-001"
	RuleEnvelopeItemHash = "MSG-ENV-002"
	RuleEnvelopeItemType = "MSG-ENV-003"
	RuleEnvelopeChain    = "MSG-ENV-004"
	RuleEnvelopeField    = "MSG-ENV-005"
	RuleContentObject    = "MSG-CONTENT-001"
	RuleContentShape     = "MSG-CONTENT-002"
	RuleContentRules     = "MSG-CONTENT-003"
	RuleContentSemantics = "MSG-CONTENT-004"
	RuleHashMismatch     = "MSG-HASH-001"
	RuleHashCanonical    = "MSG-HASH-002"
	RuleHashInlineDrift  = "MSG-HASH-003"
)

// DecodeError is the structured error returned by Decode and DecodeRecord.
//
// ItemHash is the declared identifier exactly as it appeared on the wire
// (possibly empty or malformed); it lets batch callers report which record
// failed.
type DecodeError struct {
	Kind     Kind
	RuleID   string
	ItemHash string
	Message  string
	Cause    error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.ItemHash != "" {
		return fmt.Sprintf("message %s: %s", e.ItemHash, msg)
	}
	return "message: " + msg
}

func (e *DecodeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind Kind, ruleID, itemHash, msg string) *DecodeError {
	return &DecodeError{Kind: kind, RuleID: ruleID, ItemHash: itemHash, Message: msg}
}

func wrapError(kind Kind, ruleID, itemHash, msg string, cause error) *DecodeError {
	return &DecodeError{Kind: kind, RuleID: ruleID, ItemHash: itemHash, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *DecodeError with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *DecodeError
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *DecodeError
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
