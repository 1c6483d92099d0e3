package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/shlomilevushh/mini-discord/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Conn is an indirection over *websocket.Conn to ease testing.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	Close() error
}

// Client is one live authenticated connection. The read loop owns it; the
// registry holds a non-owning reference keyed by user id.
type Client struct {
	user domain.User
	hub  *Hub
	conn Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func newClient(user domain.User, conn Conn, h *Hub) *Client {
	return &Client{
		user: user,
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
	}
}

func (c *Client) User() domain.User { return c.user }

// trySend queues data without blocking. A full buffer means the peer cannot
// keep up and counts as a delivery failure.
func (c *Client) trySend(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.conn.Close()
}

// writePump drains the send queue to the network. A write error or missed
// deadline ends the pump; readPump notices the dead socket and runs cleanup.
func (c *Client) writePump(sendTimeout, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(sendTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "hub.client").
					Int64("user_id", int64(c.user.ID)).Msg("write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(sendTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump decodes envelopes one at a time and hands them to the router.
// Decode failures are dropped without touching state; only transport errors
// end the loop.
func (c *Client) readPump(readLimit int64, pongWait time.Duration) {
	defer c.hub.drop(c)

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "hub.client").
					Int64("user_id", int64(c.user.ID)).Msg("read error")
			}
			return
		}
		c.hub.route(c, data)
	}
}
