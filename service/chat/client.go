package chat

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"syncchat/logger"
)

// Client is one live connection belonging to one identity. A user may
// hold several simultaneously (devices, tabs); each is maintained
// separately. Writes go through a bounded send queue drained by a
// single writer goroutine, so a slow consumer backs up only its own
// queue and delivery order per connection is FIFO.

var errQueueFull = errors.New("send queue full")

type Client struct {
	ConnID    string
	UserID    string // empty until authenticated
	CreatedAt time.Time

	ws   *websocket.Conn
	send chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	onClose   func(*Client) // teardown hook, runs exactly once

	pingInterval time.Duration
	writeTimeout time.Duration
}

func NewClient(connID string, ws *websocket.Conn, queueSize int) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ConnID:       connID,
		CreatedAt:    time.Now(),
		ws:           ws,
		send:         make(chan []byte, queueSize),
		ctx:          ctx,
		cancel:       cancel,
		pingInterval: 25 * time.Second,
		writeTimeout: 10 * time.Second,
	}
}

func (c *Client) SetTimeouts(ping, write time.Duration) {
	if ping > 0 {
		c.pingInterval = ping
	}
	if write > 0 {
		c.writeTimeout = write
	}
}

func (c *Client) SetOnClose(f func(*Client)) { c.onClose = f }

func (c *Client) Done() <-chan struct{} { return c.ctx.Done() }

// Context is cancelled when the connection closes; handlers scope their
// blocking work to it so a dying connection aborts in-flight calls.
func (c *Client) Context() context.Context { return c.ctx }

// Enqueue pushes a frame onto the outbound queue without blocking.
// Overflow or a closed connection returns an error; the caller treats
// either as a dead connection.
func (c *Client) Enqueue(payload []byte) error {
	select {
	case <-c.ctx.Done():
		return errors.New("connection closed")
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errQueueFull
	}
}

// WritePump is the single writer: drains the send queue and keeps the
// peer alive with pings. Exits when the client context is cancelled or
// a write fails, then runs teardown.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case payload := <-c.send:
			if err := c.write(websocket.TextMessage, payload); err != nil {
				logger.Debugf("[ws] write failed conn=%s user=%s: %v", c.ConnID, c.UserID, err)
				return
			}
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				logger.Debugf("[ws] ping failed conn=%s user=%s: %v", c.ConnID, c.UserID, err)
				return
			}
		}
	}
}

// flushPending drains queued frames with synchronous writes. Only valid
// while WritePump has not started; afterwards the pump is the sole
// writer.
func (c *Client) flushPending() {
	for {
		select {
		case payload := <-c.send:
			if err := c.write(websocket.TextMessage, payload); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}

// Close tears the connection down exactly once: cancels the context
// (aborting pending enqueues), closes the socket, and fires the
// teardown hook. Safe from any goroutine, any number of times.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.ws != nil {
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = c.ws.Close()
		}
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}
