package websockets

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum inbound message size; START_GAME carries the whole question list.
	maxMessageSize = 1 << 20

	// Outbound messages queued per client before it is considered stuck.
	sendBufferSize = 64
)

var (
	ErrClosed        = errors.New("connection closed")
	ErrSendQueueFull = errors.New("send queue full")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client wraps one websocket connection. Writes go through a buffered queue drained by
// writePump, so Send never blocks the caller.
type Client struct {
	conn         *websocket.Conn
	send         chan []byte
	pingInterval time.Duration

	mu     sync.Mutex
	closed bool
}

// Upgrade switches the request to the websocket protocol.
func Upgrade(w http.ResponseWriter, r *http.Request, pingInterval time.Duration) (*Client, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, pingInterval), nil
}

func NewClient(conn *websocket.Conn, pingInterval time.Duration) *Client {
	return &Client{
		conn:         conn,
		send:         make(chan []byte, sendBufferSize),
		pingInterval: pingInterval,
	}
}

// Send queues data for delivery. A client whose queue is full is closed.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		c.closed = true
		close(c.send)
		return ErrSendQueueFull
	}
}

// Close flushes queued messages, sends a close frame and drops the connection.
// It is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// RemoteAddr is used for logging.
func (c *Client) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Serve runs the write pump in the background and reads in the calling goroutine,
// handing every text message to handle. It returns once the connection is dead.
func (c *Client) Serve(handle func(message []byte)) {
	go c.writePump()
	c.readPump(handle)
}

// pongWait gives the peer one full ping interval to answer before the next ping goes out.
func (c *Client) pongWait() time.Duration {
	return 2 * c.pingInterval
}

func (c *Client) readPump(handle func(message []byte)) {
	defer func() {
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("remote", c.RemoteAddr()).Msg("[readPump] transport error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		handle(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// queue closed: say goodbye
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("remote", c.RemoteAddr()).Msg("[writePump] write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
