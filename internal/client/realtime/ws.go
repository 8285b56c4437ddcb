package realtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/centinela-app/centinela/internal/common"
	"github.com/centinela-app/centinela/internal/logging"
)

// Frame protocol, client → gateway:
//
//	{"action":"subscribe","sub":1,"query":{...}}
//	{"action":"unsubscribe","sub":1}
//	{"action":"push","req":2,"path":"...","fields":{...}}
//
// gateway → client:
//
//	{"type":"snapshot","sub":1,"records":[{"id":"..","fields":{..}}]}
//	{"type":"ack","req":2,"key":".."}
//	{"type":"error","req":2,"error":".."}
type outboundFrame struct {
	Action string         `json:"action"`
	Sub    int64          `json:"sub,omitempty"`
	Req    int64          `json:"req,omitempty"`
	Query  *Query         `json:"query,omitempty"`
	Path   string         `json:"path,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

type inboundFrame struct {
	Type    string   `json:"type"`
	Sub     int64    `json:"sub,omitempty"`
	Req     int64    `json:"req,omitempty"`
	Records Snapshot `json:"records,omitempty"`
	Key     string   `json:"key,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type pushResult struct {
	key string
	err error
}

type subscription struct {
	ch   chan Snapshot
	done chan struct{}
	once sync.Once
}

// stop is idempotent and safe to call from both cancel and connection
// teardown.
func (s *subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

// WSConn is a Conn over a single gateway websocket. One read pump dispatches
// inbound frames to subscriptions and pending pushes; writes are serialized
// by a mutex as required by gorilla/websocket. Snapshot channels are closed
// only by the read pump, which is their sole sender.
type WSConn struct {
	ws     *websocket.Conn
	logger logging.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	subs    map[int64]*subscription
	pending map[int64]chan pushResult
	closed  bool

	nextID atomic.Int64
}

// Dial connects to the gateway at url (ws:// or wss://) and starts the
// read pump.
func Dial(ctx context.Context, url string, logger logging.Logger) (*WSConn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway dial: %w", err)
	}

	c := &WSConn{
		ws:      ws,
		logger:  logger.With("module", "realtime"),
		subs:    make(map[int64]*subscription),
		pending: make(map[int64]chan pushResult),
	}
	go c.readLoop()
	return c, nil
}

func (c *WSConn) writeFrame(f outboundFrame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(f)
}

func (c *WSConn) Subscribe(ctx context.Context, q Query) (<-chan Snapshot, CancelFunc, error) {
	id := c.nextID.Add(1)
	sub := &subscription{
		ch:   make(chan Snapshot, 16),
		done: make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, nil, common.ErrSubscriptionClosed
	}
	c.subs[id] = sub
	c.mu.Unlock()

	if err := c.writeFrame(outboundFrame{Action: "subscribe", Sub: id, Query: &q}); err != nil {
		c.dropSub(id)
		sub.stop()
		return nil, nil, fmt.Errorf("subscribe %s: %w", q.Collection, err)
	}

	cancel := func() {
		c.dropSub(id)
		sub.stop()
		// best effort; the gateway also reaps on disconnect
		if err := c.writeFrame(outboundFrame{Action: "unsubscribe", Sub: id}); err != nil {
			c.logger.Debug(context.Background(), "unsubscribe write failed", "error", err)
		}
	}
	return sub.ch, cancel, nil
}

func (c *WSConn) dropSub(id int64) {
	c.mu.Lock()
	delete(c.subs, id)
	c.mu.Unlock()
}

func (c *WSConn) Push(ctx context.Context, path string, fields map[string]any) (string, error) {
	id := c.nextID.Add(1)
	result := make(chan pushResult, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", common.ErrSubscriptionClosed
	}
	c.pending[id] = result
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.writeFrame(outboundFrame{Action: "push", Req: id, Path: path, Fields: fields}); err != nil {
		return "", fmt.Errorf("push %s: %w", path, err)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-result:
		if res.err != nil {
			return "", fmt.Errorf("push %s: %w", path, res.err)
		}
		return res.key, nil
	}
}

func (c *WSConn) readLoop() {
	var cause error
	for {
		var f inboundFrame
		if err := c.ws.ReadJSON(&f); err != nil {
			cause = err
			break
		}

		switch f.Type {
		case "snapshot":
			c.deliver(f.Sub, f.Records)
		case "ack":
			c.settle(f.Req, pushResult{key: f.Key})
		case "error":
			c.settle(f.Req, pushResult{err: fmt.Errorf("gateway: %s", f.Error)})
		default:
			// unknown frames are ignored, protocol is forward compatible
		}
	}
	c.teardown(cause)
}

func (c *WSConn) deliver(id int64, snap Snapshot) {
	c.mu.Lock()
	sub := c.subs[id]
	c.mu.Unlock()
	if sub == nil {
		return
	}
	select {
	case sub.ch <- snap:
	case <-sub.done:
	}
}

func (c *WSConn) settle(id int64, res pushResult) {
	c.mu.Lock()
	result := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()
	if result != nil {
		result <- res
	}
}

// teardown runs in the read pump after it exits: it fails pending pushes
// and closes remaining snapshot channels so consumers drain out.
func (c *WSConn) teardown(cause error) {
	c.mu.Lock()
	alreadyClosed := c.closed
	c.closed = true
	subs := c.subs
	pending := c.pending
	c.subs = map[int64]*subscription{}
	c.pending = map[int64]chan pushResult{}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
		close(sub.ch)
	}
	for _, result := range pending {
		result <- pushResult{err: common.ErrSubscriptionClosed}
	}

	if alreadyClosed {
		return
	}
	if cause != nil && !websocket.IsCloseError(cause, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Warn(context.Background(), "gateway connection lost", "error", cause)
	}
}

// Close tears down the connection; the read pump observes the closed socket
// and finishes cleanup. Safe to call more than once.
func (c *WSConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.ws.Close()
}
