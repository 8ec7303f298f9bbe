package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/pkg/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
)

// connection is one live dashboard client. Outbound frames go through a
// buffered channel drained by a single writer goroutine; trySend never
// blocks the caller, which is what keeps the fan-out path non-blocking.
type connection struct {
	id        string
	principal *Principal
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
}

func newConnection(id string, principal *Principal, conn *websocket.Conn, sendBuffer int) *connection {
	return &connection{
		id:        id,
		principal: principal,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
	}
}

// trySend enqueues a frame for delivery. A client too slow to drain its
// buffer loses frames rather than stalling every other connection.
func (c *connection) trySend(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	case <-c.done:
		return false
	default:
		log.Warn("Dropping frame for slow client", "connectionId", c.id, "userId", c.principal.UserID)
		return false
	}
}

// writePump owns all writes to the underlying socket.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
