package client

import (
	"errors"
	"fmt"

	"aleph.im/sdk/message"
)

// Kind is a stable category for call-level failures.
type Kind string

const (
	// KindNotFound: the node has no (visible) message or file for the hash.
	KindNotFound Kind = "NotFound"
	// KindNetwork: the request did not complete: transport failure, timeout,
	// cancellation or an unexpected HTTP status.
	KindNetwork Kind = "Network"
	// KindDecode: the node answered but the answer could not be turned into
	// verified data. Cause is a *message.DecodeError when a record failed.
	KindDecode Kind = "Decode"
	// KindConfig: the client or the call arguments are unusable.
	KindConfig Kind = "Config"
)

// Error is returned by every Client call.
type Error struct {
	Kind       Kind
	Op         string
	ItemHash   string
	StatusCode int            // HTTP status, when one was received
	Status     message.Status // message status, for NotFound on non-visible messages
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := "aleph: " + e.Op
	if e.ItemHash != "" {
		prefix += " " + e.ItemHash
	}
	msg := e.Message
	if e.Cause != nil {
		if msg == "" {
			msg = e.Cause.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, e.Cause)
		}
	}
	return prefix + ": " + msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ConfigKind names why a client could not be configured.
type ConfigKind string

const ConfigInvalidEndpoint ConfigKind = "InvalidEndpoint"

// ConfigError is returned by New.
type ConfigError struct {
	Kind     ConfigKind
	Endpoint string
	Reason   string
	Cause    error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("aleph: %s %q: %s", e.Kind, e.Endpoint, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// IsKind reports whether err is a client error of the given kind. A
// *ConfigError counts as KindConfig.
func IsKind(err error, kind Kind) bool {
	var ce *ConfigError
	if kind == KindConfig && errors.As(err, &ce) {
		return true
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// DecodeError returns the per-record decode failure wrapped by err, if any.
func DecodeError(err error) (*message.DecodeError, bool) {
	var de *message.DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
