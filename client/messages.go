package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"aleph.im/sdk/filter"
	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/message"
	"aleph.im/sdk/types"
)

// MessageWithStatus is a node's view of one item hash. Message is set for
// processed, removing and removed messages.
type MessageWithStatus struct {
	Status      message.Status
	Message     *message.Message
	Reason      string              // removing and removed
	Pending     []PendingMessage    // pending
	Forgotten   *ForgottenMessage   // forgotten
	ForgottenBy []itemhash.ItemHash // forgotten
}

// PendingMessage is the unverified envelope of a message the node has not
// processed yet.
type PendingMessage struct {
	Sender   types.Address     `json:"sender"`
	Chain    types.Chain       `json:"chain"`
	Type     message.Type      `json:"type"`
	ItemType message.ItemType  `json:"item_type"`
	ItemHash itemhash.ItemHash `json:"item_hash"`
	Time     types.Timestamp   `json:"time"`
	Channel  *types.Channel    `json:"channel"`
}

// ForgottenMessage is what remains of a message after a FORGET.
type ForgottenMessage struct {
	Sender   types.Address     `json:"sender"`
	Chain    types.Chain       `json:"chain"`
	Type     message.Type      `json:"type"`
	ItemHash itemhash.ItemHash `json:"item_hash"`
	Time     time.Time         `json:"time"`
	Channel  *types.Channel    `json:"channel"`
}

type messageResponse struct {
	Status      string              `json:"status"`
	Message     json.RawMessage     `json:"message"`
	Messages    []PendingMessage    `json:"messages"`
	Reason      string              `json:"reason"`
	ForgottenBy []itemhash.ItemHash `json:"forgotten_by"`
}

// GetMessageWithStatus fetches the node's record for h whatever its status.
func (c *Client) GetMessageWithStatus(ctx context.Context, h itemhash.ItemHash) (*MessageWithStatus, error) {
	const op = "get message"
	id := h.String()
	if h.IsZero() {
		return nil, &Error{Kind: KindConfig, Op: op, Message: "zero item hash"}
	}

	body, err := c.get(ctx, op, id, c.endpoint("/api/v0/messages/"+id, nil))
	if err != nil {
		return nil, err
	}

	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: KindDecode, Op: op, ItemHash: id, Message: "invalid response", Cause: err}
	}
	status, ok := message.ParseStatus(resp.Status)
	if !ok {
		return nil, &Error{Kind: KindDecode, Op: op, ItemHash: id, Message: fmt.Sprintf("unknown status %q", resp.Status)}
	}

	out := &MessageWithStatus{Status: status, Reason: resp.Reason}
	switch status {
	case message.StatusPending:
		out.Pending = resp.Messages
	case message.StatusForgotten:
		out.ForgottenBy = resp.ForgottenBy
		if len(resp.Message) > 0 {
			var fm ForgottenMessage
			if err := json.Unmarshal(resp.Message, &fm); err != nil {
				return nil, &Error{Kind: KindDecode, Op: op, ItemHash: id, Message: "invalid forgotten message", Cause: err}
			}
			out.Forgotten = &fm
		}
	default:
		m, err := message.Decode(resp.Message)
		if err != nil {
			return nil, &Error{Kind: KindDecode, Op: op, ItemHash: id, Cause: err}
		}
		if m.ItemHash != h {
			return nil, &Error{Kind: KindDecode, Op: op, ItemHash: id, Message: "node returned message " + m.ItemHash.String()}
		}
		out.Message = m
	}
	return out, nil
}

// GetMessage fetches and verifies the message identified by h. Messages the
// node knows but does not serve (pending, forgotten) are reported as
// KindNotFound with Error.Status set.
func (c *Client) GetMessage(ctx context.Context, h itemhash.ItemHash) (*message.Message, error) {
	ms, err := c.GetMessageWithStatus(ctx, h)
	if err != nil {
		return nil, err
	}
	if ms.Message == nil {
		return nil, &Error{
			Kind:     KindNotFound,
			Op:       "get message",
			ItemHash: h.String(),
			Status:   ms.Status,
			Message:  "message is " + string(ms.Status),
		}
	}
	return ms.Message, nil
}

// ItemError is one record of a listing that could not be decoded.
type ItemError struct {
	Index int    // position in the node's response
	RawID string // declared item_hash, possibly empty or malformed
	Err   *message.DecodeError
}

func (e ItemError) Error() string { return e.Err.Error() }

// MessagesPage is one page of a listing. Records that failed to decode are
// reported in Errors rather than failing the call.
type MessagesPage struct {
	Messages []*message.Message
	Errors   []ItemError
	PerPage  int
	Page     int
	Total    int
}

type messagesResponse struct {
	Messages []json.RawMessage `json:"messages"`
	PerPage  int               `json:"pagination_per_page"`
	Page     int               `json:"pagination_page"`
	Total    int               `json:"pagination_total"`
}

// GetMessages lists one page of messages matching f (nil means no filter).
//
// Each record is decoded and verified independently: unknown types,
// malformed payloads and hash mismatches land in MessagesPage.Errors. Only a
// failure of the request itself, or a response that is not a listing,
// fails the call.
func (c *Client) GetMessages(ctx context.Context, f *filter.MessageFilter) (*MessagesPage, error) {
	const op = "get messages"
	if f == nil {
		f = &filter.MessageFilter{}
	}
	if err := f.Validate(); err != nil {
		return nil, &Error{Kind: KindConfig, Op: op, Message: "invalid filter", Cause: err}
	}
	if f.MatchesNothing() {
		return &MessagesPage{
			Messages: []*message.Message{},
			PerPage:  f.Pagination.PerPage,
			Page:     f.Pagination.Page,
		}, nil
	}

	body, err := c.get(ctx, op, "", c.endpoint("/api/v0/messages.json", f.ToQueryParameters()))
	if err != nil {
		// A listing has no not-found outcome; a 404 means the node is misrouted.
		var e *Error
		if errors.As(err, &e) && e.Kind == KindNotFound {
			e.Kind = KindNetwork
			e.Message = "listing endpoint not found"
		}
		return nil, err
	}

	var resp messagesResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&resp); err != nil {
		return nil, &Error{Kind: KindDecode, Op: op, Message: "invalid listing", Cause: err}
	}
	if resp.Messages == nil {
		return nil, &Error{Kind: KindDecode, Op: op, Message: "listing has no messages field"}
	}

	page := c.decodeBatch(resp.Messages)
	page.PerPage = resp.PerPage
	page.Page = resp.Page
	page.Total = resp.Total
	return page, nil
}

// decodeBatch decodes records in parallel and reports them in input order.
func (c *Client) decodeBatch(raws []json.RawMessage) *MessagesPage {
	msgs := make([]*message.Message, len(raws))
	errs := make([]error, len(raws))

	var g errgroup.Group
	g.SetLimit(c.decodeConcurrency)
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			msgs[i], errs[i] = message.Decode(raw)
			return nil
		})
	}
	// Decode failures are collected in errs; no goroutine returns an error.
	g.Wait()

	page := &MessagesPage{Messages: make([]*message.Message, 0, len(raws))}
	for i := range raws {
		if errs[i] == nil {
			page.Messages = append(page.Messages, msgs[i])
			continue
		}
		var de *message.DecodeError
		if !errors.As(errs[i], &de) {
			de = &message.DecodeError{Kind: message.KindMalformedPayload, Message: "undecodable record", Cause: errs[i]}
		}
		page.Errors = append(page.Errors, ItemError{Index: i, RawID: de.ItemHash, Err: de})
		c.log.Debug("skipping record",
			zap.Int("index", i),
			zap.String("item_hash", de.ItemHash),
			zap.String("kind", string(de.Kind)),
			zap.String("rule", de.RuleID),
			zap.Error(de))
	}
	if len(page.Errors) > 0 {
		c.log.Info("listing had undecodable records",
			zap.Int("decoded", len(page.Messages)),
			zap.Int("failed", len(page.Errors)))
	}
	return page
}
