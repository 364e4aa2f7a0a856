package streamapi

import (
	"errors"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-maze/room"
	"github.com/gorilla/websocket"
)

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrClientClosed   = errors.New("client closed")
)

const (
	defaultSendBuffer   = 32
	defaultWriteTimeout = 2 * time.Second
	defaultPongTimeout  = 60 * time.Second

	maxMessageSize = 1024
)

// client adapts a websocket connection to room.Conn. Outbound payloads are
// queued and written by writePump, so Send never blocks the relaying member.
type client struct {
	conn         *websocket.Conn
	outbox       chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	writeTimeout time.Duration
	pongTimeout  time.Duration
}

var _ room.Conn = &client{}

func newClient(conn *websocket.Conn, sendBuffer int, writeTimeout, pongTimeout time.Duration) *client {
	return &client{
		conn:         conn,
		outbox:       make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		pongTimeout:  pongTimeout,
	}
}

// Send queues payload. A full queue drops it for this member only.
func (c *client) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.outbox <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close sends a close frame and closes the connection. Only the first call
// has an effect.
func (c *client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.writeTimeout),
		)
		err = c.conn.Close()
	})
	return err
}

// writePump writes queued payloads and keepalive pings until the client closes.
func (c *client) writePump() {
	ticker := time.NewTicker(c.pongTimeout * 9 / 10)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.outbox:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump hands every text frame to handle until the connection fails or
// handle returns false. Binary frames are ignored.
func (c *client) readPump(handle func(payload []byte) bool) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongTimeout))
	})

	for {
		messageType, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if !handle(payload) {
			return
		}
	}
}
