package client

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"aleph.im/sdk/filter"
	"aleph.im/sdk/message"
)

// SubscriptionBuffer is the capacity of the channel returned by Subscribe.
const SubscriptionBuffer = 100

// SubscriptionEvent carries either a verified message or an error. Errors
// are informational: the subscription keeps running and reconnects.
type SubscriptionEvent struct {
	Message *message.Message
	Err     error
}

// Subscribe streams messages matching f as the node receives them.
//
// The first connection is made before Subscribe returns, so an unreachable
// node fails fast. A filter that matches nothing never connects; its channel
// stays empty until ctx is done. Afterwards the connection is re-established with
// exponential backoff (100ms doubling up to 30s, reset whenever a message
// arrives). The channel is closed once ctx is done.
func (c *Client) Subscribe(ctx context.Context, f *filter.MessageFilter) (<-chan SubscriptionEvent, error) {
	const op = "subscribe"
	if f == nil {
		f = &filter.MessageFilter{}
	}
	if err := f.Validate(); err != nil {
		return nil, &Error{Kind: KindConfig, Op: op, Message: "invalid filter", Cause: err}
	}
	if f.MatchesNothing() {
		out := make(chan SubscriptionEvent)
		context.AfterFunc(ctx, func() { close(out) })
		return out, nil
	}

	u := c.endpoint("/api/ws0/messages", f.ToQueryParameters())
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	target := u.String()

	conn, err := c.dial(ctx, target)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Message: "initial connection failed", Cause: err}
	}

	out := make(chan SubscriptionEvent, SubscriptionBuffer)
	go c.runSubscription(ctx, target, conn, out)
	return out, nil
}

func (c *Client) dial(ctx context.Context, target string) (*websocket.Conn, error) {
	h := http.Header{}
	h.Set(RequestIDHeader, uuid.NewString())
	if c.userAgent != "" {
		h.Set("User-Agent", c.userAgent)
	}
	conn, resp, err := c.dialer.DialContext(ctx, target, h)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	c.log.Debug("websocket connected", zap.String("url", target), zap.String("request_id", h.Get(RequestIDHeader)))
	return conn, nil
}

func (c *Client) runSubscription(ctx context.Context, target string, conn *websocket.Conn, out chan<- SubscriptionEvent) {
	defer close(out)
	backoff := c.backoffMin

	emit := func(ev SubscriptionEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		readErr := c.readFrames(ctx, conn, emit, func() { backoff = c.backoffMin })
		if ctx.Err() != nil {
			return
		}
		if readErr != nil {
			c.log.Debug("websocket disconnected", zap.String("url", target), zap.Error(readErr))
			if !emit(SubscriptionEvent{Err: &Error{Kind: KindNetwork, Op: "subscribe", Message: "connection lost", Cause: readErr}}) {
				return
			}
		}

		for {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			backoff *= 2
			if backoff > c.backoffMax {
				backoff = c.backoffMax
			}

			var err error
			conn, err = c.dial(ctx, target)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			if !emit(SubscriptionEvent{Err: &Error{Kind: KindNetwork, Op: "subscribe", Message: "reconnection failed", Cause: err}}) {
				return
			}
		}
	}
}

// readFrames consumes one connection until it fails or ctx ends. Text frames
// are decoded; other frame types are ignored.
func (c *Client) readFrames(ctx context.Context, conn *websocket.Conn, emit func(SubscriptionEvent) bool, gotMessage func()) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if kind != websocket.TextMessage {
			continue
		}
		gotMessage()

		m, err := message.Decode(data)
		ev := SubscriptionEvent{Message: m}
		if err != nil {
			e := &Error{Kind: KindDecode, Op: "subscribe", Cause: err}
			if de, ok := DecodeError(err); ok {
				e.ItemHash = de.ItemHash
			}
			ev = SubscriptionEvent{Err: e}
		}
		if !emit(ev) {
			return nil
		}
	}
}
