package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// fakeNode serves the read API of a node from in-memory tables.
type fakeNode struct {
	t      *testing.T
	server *httptest.Server

	mu         sync.Mutex
	byHash     map[string]any // status envelopes
	listing    []json.RawMessage
	files      map[string][]byte
	aggregates map[string]map[string]any
	wsFrames   [][][]byte // frames to send, one slice per connection
	wsConns    int
	lastQuery  map[string][]string
	requestIDs []string
	failWith   int

	requests atomic.Int64
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()
	n := &fakeNode{
		t:          t,
		byHash:     map[string]any{},
		files:      map[string][]byte{},
		aggregates: map[string]map[string]any{},
	}

	r := mux.NewRouter()
	r.Use(n.record)
	r.HandleFunc("/api/v0/messages.json", n.handleListing).Methods(http.MethodGet)
	r.HandleFunc("/api/v0/messages/{hash}", n.handleMessage).Methods(http.MethodGet)
	r.HandleFunc("/api/v0/storage/raw/{hash}", n.handleRaw).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/api/v0/aggregates/{address}.json", n.handleAggregate).Methods(http.MethodGet)
	r.HandleFunc("/api/ws0/messages", n.handleWS)

	n.server = httptest.NewServer(r)
	t.Cleanup(n.server.Close)
	return n
}

func (n *fakeNode) client(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(n.server.URL, opts...)
	require.NoError(t, err)
	return c
}

func (n *fakeNode) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.requests.Add(1)
		n.mu.Lock()
		n.requestIDs = append(n.requestIDs, r.Header.Get(RequestIDHeader))
		n.lastQuery = r.URL.Query()
		fail := n.failWith
		n.mu.Unlock()
		if fail != 0 {
			http.Error(w, "node unavailable", fail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (n *fakeNode) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		n.t.Errorf("encode response: %v", err)
	}
}

func (n *fakeNode) handleMessage(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	env, ok := n.byHash[mux.Vars(r)["hash"]]
	n.mu.Unlock()
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	n.writeJSON(w, env)
}

func (n *fakeNode) handleListing(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	msgs := n.listing
	n.mu.Unlock()
	if msgs == nil {
		msgs = []json.RawMessage{}
	}
	n.writeJSON(w, map[string]any{
		"messages":            msgs,
		"pagination_per_page": 20,
		"pagination_page":     1,
		"pagination_total":    len(msgs),
	})
}

func (n *fakeNode) handleRaw(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	b, ok := n.files[mux.Vars(r)["hash"]]
	n.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	if r.Method == http.MethodHead {
		return
	}
	w.Write(b)
}

func (n *fakeNode) handleAggregate(w http.ResponseWriter, r *http.Request) {
	addr := mux.Vars(r)["address"]
	n.mu.Lock()
	data, ok := n.aggregates[addr]
	n.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	out := map[string]any{}
	for _, k := range strings.Split(r.URL.Query().Get("keys"), ",") {
		if v, ok := data[k]; ok {
			out[k] = v
		}
	}
	n.writeJSON(w, map[string]any{"address": addr, "data": out})
}

var upgrader = websocket.Upgrader{}

func (n *fakeNode) handleWS(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	idx := n.wsConns
	n.wsConns++
	var frames [][]byte
	if idx < len(n.wsFrames) {
		frames = n.wsFrames[idx]
	}
	n.mu.Unlock()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, f); err != nil {
			return
		}
	}
	if idx+1 < len(n.wsFrames) {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		return
	}
	// Last scripted connection stays open until the client leaves.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func fixture(t *testing.T, name string) json.RawMessage {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("..", "message", "testdata", name+".json"))
	require.NoError(t, err)
	return compact(t, b)
}

func compact(t *testing.T, b []byte) json.RawMessage {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.Compact(&buf, b))
	return buf.Bytes()
}

// mutateFixture loads a fixture, applies fn to its top-level fields and
// re-encodes it.
func mutateFixture(t *testing.T, name string, fn func(rec map[string]any)) json.RawMessage {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(fixture(t, name)))
	dec.UseNumber()
	var rec map[string]any
	require.NoError(t, dec.Decode(&rec))
	fn(rec)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(rec))
	return bytes.TrimSpace(buf.Bytes())
}

func hashOf(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var probe struct {
		ItemHash string `json:"item_hash"`
	}
	require.NoError(t, json.Unmarshal(raw, &probe))
	return probe.ItemHash
}
