package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	sharederrors "github.com/reshetovitsme/nostr-feed-reader/internal/shared/errors"
	"github.com/stretchr/testify/require"
)

// testRelay is a minimal in-process relay speaking just enough of the wire
// protocol for the client tests: REQ answered from a fixed event store,
// EVENT stored with replaceable-kind semantics and acknowledged with OK.
type testRelay struct {
	mu     sync.Mutex
	events []*Event
	server *httptest.Server
}

func newTestRelay(t *testing.T, seed ...*Event) *testRelay {
	t.Helper()
	r := &testRelay{events: seed}

	upgrader := websocket.Upgrader{}
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer func() { _ = ws.Close() }()

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			r.handle(ws, data)
		}
	}))
	t.Cleanup(r.server.Close)
	return r
}

func (r *testRelay) url() string {
	return "ws" + strings.TrimPrefix(r.server.URL, "http")
}

func (r *testRelay) handle(ws *websocket.Conn, data []byte) {
	var arr []json.RawMessage
	if json.Unmarshal(data, &arr) != nil || len(arr) < 2 {
		return
	}
	var label string
	_ = json.Unmarshal(arr[0], &label)

	switch label {
	case "REQ":
		var subID string
		_ = json.Unmarshal(arr[1], &subID)
		var filter Filter
		if len(arr) > 2 {
			_ = decodeTestFilter(arr[2], &filter)
		}

		r.mu.Lock()
		for _, ev := range r.events {
			if filter.Matches(ev) {
				frame, _ := json.Marshal([]any{"EVENT", subID, ev})
				_ = ws.WriteMessage(websocket.TextMessage, frame)
			}
		}
		r.mu.Unlock()
		frame, _ := json.Marshal([]any{"EOSE", subID})
		_ = ws.WriteMessage(websocket.TextMessage, frame)
	case "EVENT":
		ev := &Event{}
		if json.Unmarshal(arr[1], ev) != nil {
			return
		}
		r.store(ev)
		frame, _ := json.Marshal([]any{"OK", ev.ID, true, ""})
		_ = ws.WriteMessage(websocket.TextMessage, frame)
	}
}

// store applies replaceable semantics for parameterized-replaceable kinds:
// only the newest event per (pubkey, kind, d) survives.
func (r *testRelay) store(ev *Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.Kind >= 30000 && ev.Kind < 40000 {
		for i, existing := range r.events {
			if existing.PubKey == ev.PubKey && existing.Kind == ev.Kind &&
				existing.TagValue("d") == ev.TagValue("d") {
				if ev.CreatedAt >= existing.CreatedAt {
					r.events[i] = ev
				}
				return
			}
		}
	}
	r.events = append(r.events, ev)
}

// decodeTestFilter reverses Filter.MarshalJSON including "#x" tag keys.
func decodeTestFilter(raw []byte, f *Filter) error {
	if err := json.Unmarshal(raw, f); err != nil {
		return err
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return err
	}
	for key, val := range obj {
		if strings.HasPrefix(key, "#") {
			var values []string
			if json.Unmarshal(val, &values) == nil {
				if f.Tags == nil {
					f.Tags = TagFilters{}
				}
				f.Tags[key[1:]] = values
			}
		}
	}
	return nil
}

func TestQuery_AggregatesAcrossRelays(t *testing.T) {
	shared := &Event{ID: "shared", Kind: KindLongForm, CreatedAt: 10}
	relay1 := newTestRelay(t, shared, &Event{ID: "only1", Kind: KindLongForm, CreatedAt: 20})
	relay2 := newTestRelay(t, shared, &Event{ID: "only2", Kind: KindLongForm, CreatedAt: 30})

	pool := NewPool(WithQueryWindow(2 * time.Second))
	defer pool.Close()

	events, err := pool.Query(context.Background(), []string{relay1.url(), relay2.url()}, Filter{Kinds: []int{KindLongForm}})
	require.NoError(t, err)
	require.Len(t, events, 3, "duplicates must collapse by event id")
}

func TestQuery_DeadEndpointIsExcludedNotFatal(t *testing.T) {
	live := newTestRelay(t, &Event{ID: "a", Kind: KindLongForm, CreatedAt: 1})

	pool := NewPool(WithQueryWindow(2 * time.Second))
	defer pool.Close()

	endpoints := []string{live.url(), "ws://127.0.0.1:1/dead"}
	events, err := pool.Query(context.Background(), endpoints, Filter{Kinds: []int{KindLongForm}})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestQuery_AllEndpointsDead(t *testing.T) {
	pool := NewPool(WithQueryWindow(500 * time.Millisecond))
	defer pool.Close()

	_, err := pool.Query(context.Background(), []string{"ws://127.0.0.1:1/dead"}, Filter{})
	require.Error(t, err)
}

func TestGetOne(t *testing.T) {
	relay1 := newTestRelay(t, &Event{ID: "x", Kind: KindAppData, PubKey: "pk", CreatedAt: 5})

	pool := NewPool(WithQueryWindow(2 * time.Second))
	defer pool.Close()

	ev, err := pool.GetOne(context.Background(), []string{relay1.url()}, Filter{Authors: []string{"pk"}})
	require.NoError(t, err)
	require.NotNil(t, ev)
	require.Equal(t, "x", ev.ID)

	// A miss is nil, nil
	ev, err = pool.GetOne(context.Background(), []string{relay1.url()}, Filter{Authors: []string{"nobody"}})
	require.NoError(t, err)
	require.Nil(t, ev)
}

func TestGetOne_AllEndpointsDead(t *testing.T) {
	pool := NewPool(WithQueryWindow(500 * time.Millisecond))
	defer pool.Close()

	endpoints := []string{"ws://127.0.0.1:1/dead", "ws://127.0.0.1:2/dead"}
	ev, err := pool.GetOne(context.Background(), endpoints, Filter{Kinds: []int{KindAppData}})
	require.ErrorIs(t, err, sharederrors.ErrAllRelaysFailed, "total outage must not look like a miss")
	require.Nil(t, ev)
}

func TestGetOne_DeadEndpointDoesNotMaskMiss(t *testing.T) {
	live := newTestRelay(t)

	pool := NewPool(WithQueryWindow(2 * time.Second))
	defer pool.Close()

	endpoints := []string{live.url(), "ws://127.0.0.1:1/dead"}
	ev, err := pool.GetOne(context.Background(), endpoints, Filter{Authors: []string{"nobody"}})
	require.NoError(t, err)
	require.Nil(t, ev)
}

func TestPublish_FirstAcceptanceWins(t *testing.T) {
	relay1 := newTestRelay(t)

	pool := NewPool(WithQueryWindow(2 * time.Second))
	defer pool.Close()

	ev := &Event{ID: "pub1", Kind: KindAppData, PubKey: "pk", CreatedAt: Now()}
	endpoints := []string{relay1.url(), "ws://127.0.0.1:1/dead"}
	require.NoError(t, pool.Publish(context.Background(), endpoints, ev))

	// The live relay now serves it back
	got, err := pool.GetOne(context.Background(), []string{relay1.url()}, Filter{IDs: []string{"pub1"}})
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestPublish_AllEndpointsFail(t *testing.T) {
	pool := NewPool(WithQueryWindow(500 * time.Millisecond))
	defer pool.Close()

	ev := &Event{ID: "pub2", Kind: KindAppData}
	err := pool.Publish(context.Background(), []string{"ws://127.0.0.1:1/dead"}, ev)
	require.Error(t, err)
}

func TestClose_IdempotentAndReusable(t *testing.T) {
	live := newTestRelay(t, &Event{ID: "a", Kind: KindLongForm})

	pool := NewPool(WithQueryWindow(2 * time.Second))

	// Close before any connection ever opened
	pool.Close()

	_, err := pool.Query(context.Background(), []string{live.url()}, Filter{})
	require.NoError(t, err)

	pool.Close()
	pool.Close()

	// Pool re-dials after Close
	events, err := pool.Query(context.Background(), []string{live.url()}, Filter{Kinds: []int{KindLongForm}})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestComputeID_Deterministic(t *testing.T) {
	ev := &Event{PubKey: "pk", CreatedAt: 123, Kind: KindLongForm, Tags: []Tag{{"d", "slug"}}, Content: "hello <world>"}

	first := ev.ComputeID()
	require.Len(t, first, 64)
	require.Equal(t, first, ev.ComputeID())

	ev.Content = "changed"
	require.NotEqual(t, first, ev.ComputeID())
}

func TestDecodeMessage(t *testing.T) {
	msg, err := decodeMessage([]byte(`["EVENT","sub1",{"id":"e1","kind":1,"content":"hi"}]`))
	require.NoError(t, err)
	require.Equal(t, "sub1", msg.SubID)
	require.Equal(t, "e1", msg.Event.ID)

	msg, err = decodeMessage([]byte(`["OK","e1",false,"blocked: spam"]`))
	require.NoError(t, err)
	require.False(t, msg.OK)
	require.Equal(t, "blocked: spam", msg.Message)

	msg, err = decodeMessage([]byte(`["EOSE","sub1"]`))
	require.NoError(t, err)
	require.Equal(t, "sub1", msg.SubID)

	_, err = decodeMessage([]byte(`not json`))
	require.Error(t, err)

	// Unknown labels are ignorable, not fatal
	msg, err = decodeMessage([]byte(`["AUTH","challenge"]`))
	require.NoError(t, err)
	require.Equal(t, "AUTH", msg.Label)
}

func TestFilterMarshalTagKeys(t *testing.T) {
	f := Filter{Kinds: []int{KindAppData}, Tags: TagFilters{"d": {"slug"}}, Limit: 1}
	raw, err := json.Marshal(f)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"#d":["slug"]`)
	require.NotContains(t, string(raw), `"Tags"`)
}
