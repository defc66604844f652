package relay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/oops"
)

// subscription is one call-scoped REQ on a single connection.
type subscription struct {
	id     string
	events chan *Event
	eose   chan struct{}
}

// conn is a single relay connection. The read loop owns the websocket read
// side; writes are serialized by writeMu. Subscriptions and pending
// publishes are call-scoped and removed by their owners.
type conn struct {
	url string
	ws  *websocket.Conn

	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]*subscription
	oks  map[string]chan bool

	done      chan struct{}
	closeOnce sync.Once
}

func dialConn(ctx context.Context, url string) (*conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, oops.With("relay", url).Wrap(err)
	}

	c := &conn{
		url:  url,
		ws:   ws,
		subs: make(map[string]*subscription),
		oks:  make(map[string]chan bool),
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *conn) readLoop() {
	defer c.close()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		msg, err := decodeMessage(data)
		if err != nil {
			slog.Debug("Dropping malformed relay frame", "relay", c.url, "error", err)
			continue
		}

		switch msg.Label {
		case labelEvent:
			c.mu.Lock()
			sub := c.subs[msg.SubID]
			c.mu.Unlock()
			if sub != nil {
				// Drop instead of blocking the read loop when the
				// consumer has already moved on
				select {
				case sub.events <- msg.Event:
				default:
				}
			}
		case labelEOSE, labelClosed:
			c.mu.Lock()
			sub := c.subs[msg.SubID]
			delete(c.subs, msg.SubID)
			c.mu.Unlock()
			if sub != nil {
				close(sub.eose)
			}
		case labelOK:
			c.mu.Lock()
			ch := c.oks[msg.EventID]
			delete(c.oks, msg.EventID)
			c.mu.Unlock()
			if ch != nil {
				ch <- msg.OK
			}
		case labelNotice:
			slog.Debug("Relay notice", "relay", c.url, "message", msg.Message)
		}
	}
}

func (c *conn) subscribe(filter Filter) (*subscription, error) {
	sub := &subscription{
		id:     uuid.NewString(),
		events: make(chan *Event, 128),
		eose:   make(chan struct{}),
	}

	c.mu.Lock()
	c.subs[sub.id] = sub
	c.mu.Unlock()

	frame, err := encodeReq(sub.id, filter)
	if err != nil {
		c.forget(sub.id)
		return nil, err
	}
	if err := c.write(frame); err != nil {
		c.forget(sub.id)
		return nil, err
	}
	return sub, nil
}

// unsubscribe tears down a call-scoped subscription. The CLOSE write is
// best-effort; a dead connection cleans itself up.
func (c *conn) unsubscribe(subID string) {
	c.forget(subID)
	if frame, err := encodeClose(subID); err == nil {
		_ = c.write(frame)
	}
}

func (c *conn) forget(subID string) {
	c.mu.Lock()
	delete(c.subs, subID)
	c.mu.Unlock()
}

// publish sends one signed event and waits for the relay's acknowledgement.
func (c *conn) publish(ctx context.Context, ev *Event) error {
	ch := make(chan bool, 1)
	c.mu.Lock()
	c.oks[ev.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.oks, ev.ID)
		c.mu.Unlock()
	}()

	frame, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	if err := c.write(frame); err != nil {
		return err
	}

	select {
	case accepted := <-ch:
		if !accepted {
			return oops.With("relay", c.url).Errorf("relay rejected event %s", ev.ID)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return oops.With("relay", c.url).Errorf("connection closed while awaiting ack")
	}
}

func (c *conn) write(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// close is idempotent and releases every subscription waiting on this
// connection.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()

		c.mu.Lock()
		for id, sub := range c.subs {
			delete(c.subs, id)
			close(sub.eose)
		}
		c.mu.Unlock()
	})
}

// dead reports whether the read loop has exited.
func (c *conn) dead() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
