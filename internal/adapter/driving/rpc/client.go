package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/TejAtParkourOps/Airetable/internal/adapter/driving/dto"
)

// Replies carry whole base trees.
const maxReplyBytes = 64 << 20

// ErrClosed is returned by calls made after the connection is gone.
var ErrClosed = errors.New("rpc: connection closed")

// ResponseError is a failure envelope returned by the server.
type ResponseError struct {
	StatusCode int
	StatusText string
	Message    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("rpc: %d %s: %s", e.StatusCode, e.StatusText, e.Message)
}

type reply = dto.Envelope[json.RawMessage]

// Client is a websocket RPC client. It is safe for concurrent use.
type Client struct {
	conn *websocket.Conn

	mu      sync.Mutex
	pending map[string]chan reply
	err     error
	done    chan struct{}
}

// Dial connects to the RPC endpoint at url, e.g. "ws://localhost:3434/rpc".
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn.SetReadLimit(maxReplyBytes)

	c := &Client{
		conn:    conn,
		pending: make(map[string]chan reply),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	var err error
	for {
		var r reply
		if err = wsjson.Read(context.Background(), c.conn, &r); err != nil {
			break
		}

		c.mu.Lock()
		ch, ok := c.pending[r.ID]
		delete(c.pending, r.ID)
		c.mu.Unlock()
		if ok {
			ch <- r
		}
	}

	c.mu.Lock()
	c.err = errors.Join(ErrClosed, err)
	c.pending = nil
	c.mu.Unlock()
	close(c.done)
}

// Call sends one request and waits for its envelope. A non-success envelope
// is returned as a *ResponseError.
func (c *Client) Call(ctx context.Context, event string, data any) (json.RawMessage, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s data: %w", event, err)
	}
	req := Request{Event: event, ID: uuid.NewString(), Data: raw}
	ch := make(chan reply, 1)

	c.mu.Lock()
	if c.pending == nil {
		err := c.err
		c.mu.Unlock()
		return nil, err
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	if err := wsjson.Write(ctx, c.conn, req); err != nil {
		c.forget(req.ID)
		return nil, fmt.Errorf("send %s: %w", event, err)
	}

	select {
	case r := <-ch:
		if !r.IsSuccess {
			return nil, &ResponseError{StatusCode: r.StatusCode, StatusText: r.StatusText, Message: r.UserFriendlyMessage}
		}
		return r.Data, nil
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return nil, c.err
	case <-ctx.Done():
		c.forget(req.ID)
		return nil, ctx.Err()
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		delete(c.pending, id)
	}
}

// SyncBase asks the server to mirror baseID and returns the built tree.
func (c *Client) SyncBase(ctx context.Context, authToken, baseID string) (*dto.BaseResponse, error) {
	data, err := c.Call(ctx, EventSyncBase, SyncBaseRequest{AuthToken: authToken, BaseID: baseID})
	if err != nil {
		return nil, err
	}

	var base dto.BaseResponse
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("decode base: %w", err)
	}
	return &base, nil
}

// Close performs the closing handshake and waits for the read loop to end.
func (c *Client) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	<-c.done
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return nil
	}
	return err
}
