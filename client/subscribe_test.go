package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aleph.im/sdk/filter"
	"aleph.im/sdk/message"
	"aleph.im/sdk/types"
)

func nextEvent(t *testing.T, events <-chan SubscriptionEvent) SubscriptionEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "subscription closed early")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for subscription event")
	}
	return SubscriptionEvent{}
}

func TestSubscribe_DecodesAndReconnects(t *testing.T) {
	node := newFakeNode(t)
	unknown := mutateFixture(t, "post_inline", func(rec map[string]any) { rec["type"] = "unknown_future_type" })
	node.wsFrames = [][][]byte{
		{fixture(t, "post_inline"), unknown},
		{fixture(t, "aggregate_inline")},
	}

	c := node.client(t)
	c.backoffMin = 5 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := c.Subscribe(ctx, &filter.MessageFilter{Channels: []types.Channel{"TEST"}})
	require.NoError(t, err)

	ev := nextEvent(t, events)
	require.NoError(t, ev.Err)
	assert.Equal(t, message.TypePost, ev.Message.Type)

	ev = nextEvent(t, events)
	e := requireKind(t, ev.Err, KindDecode)
	de, ok := DecodeError(e)
	require.True(t, ok)
	assert.Equal(t, message.KindUnknownType, de.Kind)

	// The server closed the first connection; the next message arrives on a
	// new one.
	ev = nextEvent(t, events)
	require.NoError(t, ev.Err)
	assert.Equal(t, message.TypeAggregate, ev.Message.Type)

	node.mu.Lock()
	assert.Equal(t, 2, node.wsConns)
	assert.Equal(t, []string{"TEST"}, node.lastQuery["channels"])
	node.mu.Unlock()

	cancel()
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("subscription did not close after cancel")
	}
}

func TestSubscribe_InitialDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Subscribe(context.Background(), nil)
	requireKind(t, err, KindNetwork)

	srv.Close()
	_, err = c.Subscribe(context.Background(), nil)
	requireKind(t, err, KindNetwork)
}

func TestSubscribe_InvalidFilter(t *testing.T) {
	c, err := New("http://127.0.0.1:1")
	require.NoError(t, err)
	_, err = c.Subscribe(context.Background(), &filter.MessageFilter{SortOrder: "sideways"})
	requireKind(t, err, KindConfig)
}

func TestSubscribe_MatchesNothingSkipsIO(t *testing.T) {
	node := newFakeNode(t)
	node.wsFrames = [][][]byte{{fixture(t, "post_inline")}}
	c := node.client(t)

	ctx, cancel := context.WithCancel(context.Background())
	events, err := c.Subscribe(ctx, &filter.MessageFilter{Addresses: []types.Address{}})
	require.NoError(t, err)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatalf("subscription did not close after cancel")
	}
	assert.Zero(t, node.requests.Load())
}
