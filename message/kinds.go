package message

import (
	"fmt"
	"strings"
)

// Type is the message kind tag carried in the envelope's "type" field.
type Type string

const (
	TypeAggregate Type = "AGGREGATE"
	TypeForget    Type = "FORGET"
	TypeInstance  Type = "INSTANCE"
	TypePost      Type = "POST"
	TypeProgram   Type = "PROGRAM"
	TypeStore     Type = "STORE"
)

// Types lists every known kind.
var Types = []Type{TypeAggregate, TypeForget, TypeInstance, TypePost, TypeProgram, TypeStore}

// ParseType resolves a type tag case-insensitively.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, true
		}
	}
	return "", false
}

func (t Type) String() string { return string(t) }

func (t *Type) UnmarshalText(b []byte) error {
	parsed, ok := ParseType(string(b))
	if !ok {
		return fmt.Errorf("message: unknown type %q", b)
	}
	*t = parsed
	return nil
}

// ItemType tells where the hashed content lives.
type ItemType string

const (
	ItemTypeInline  ItemType = "inline"
	ItemTypeStorage ItemType = "storage"
	ItemTypeIPFS    ItemType = "ipfs"
)

func ParseItemType(s string) (ItemType, bool) {
	switch it := ItemType(strings.ToLower(s)); it {
	case ItemTypeInline, ItemTypeStorage, ItemTypeIPFS:
		return it, true
	default:
		return "", false
	}
}

// Status is the processing state a node reports for a message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusProcessed Status = "processed"
	StatusRemoving  Status = "removing"
	StatusRemoved   Status = "removed"
	StatusForgotten Status = "forgotten"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToLower(s)); st {
	case StatusPending, StatusProcessed, StatusRemoving, StatusRemoved, StatusForgotten:
		return st, true
	default:
		return "", false
	}
}

func (s Status) String() string { return string(s) }
