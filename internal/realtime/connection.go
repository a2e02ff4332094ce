package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxInboundMessageSize = 4096

var ErrConnectionClosed = errors.New("connection closed")

type ConnectionConfig struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PingPeriod   time.Duration
	ReadTimeout  time.Duration
}

func (c ConnectionConfig) withDefaults() ConnectionConfig {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 128
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = 30 * time.Second
	}
	if c.ReadTimeout <= c.PingPeriod {
		c.ReadTimeout = 2 * c.PingPeriod
	}
	return c
}

// Connection is a websocket-backed Channel. Outbound frames go through a bounded
// buffer drained by a single writer goroutine, so Send never blocks.
type Connection struct {
	ID     string
	UserID int64

	ws     *websocket.Conn
	cfg    ConnectionConfig
	send   chan []byte
	once   sync.Once
	closed chan struct{}
}

func NewConnection(userID int64, ws *websocket.Conn, cfg ConnectionConfig) *Connection {
	cfg = cfg.withDefaults()
	return &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		ws:     ws,
		cfg:    cfg,
		send:   make(chan []byte, cfg.SendBuffer),
		closed: make(chan struct{}),
	}
}

// Start launches the writer. Call it once.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Send enqueues payload. A full buffer means the peer is not keeping up; the
// connection is closed and an error is returned.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("connection send buffer exceeded")
	}
}

func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.closed)
		deadline := time.Now().Add(c.cfg.WriteTimeout)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

// ReadLoop consumes inbound frames until the peer goes away. Clients only
// receive pushes, so inbound payloads are discarded.
func (c *Connection) ReadLoop() {
	c.ws.SetReadLimit(maxInboundMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseGoingAway, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseGoingAway, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
