package websocket

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBuffer     = 64
)

var errSlowClient = errors.New("send buffer is full")

type client struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	send chan []byte
	done chan struct{}
	once sync.Once

	// participant is bound by the first event that names a username. Only the read pump
	// touches it.
	participant string
}

func newClient(id string, conn *websocket.Conn, logger *slog.Logger) *client {
	return &client{
		id:     id,
		conn:   conn,
		logger: logger.With("connID", id),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue never blocks. A client that cannot keep up is closed.
func (that *client) enqueue(frame []byte) error {
	select {
	case <-that.done:
		return nil
	default:
	}

	select {
	case that.send <- frame:
		return nil
	default:
		that.close()
		return errSlowClient
	}
}

func (that *client) close() {
	that.once.Do(func() {
		close(that.done)
	})
}

// readPump runs dispatch for every inbound frame until the connection fails.
func (that *client) readPump(ctx context.Context, dispatch func(ctx context.Context, c *client, data []byte)) {
	defer that.close()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				that.logger.Warn("unexpected close", "error", err)
			}
			return
		}

		dispatch(ctx, that, data)
	}
}

// writePump is the only writer of the connection.
func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case frame := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				that.logger.Warn("failed to write message", "error", err)
				that.close()
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.close()
				return
			}

		case <-that.done:
			_ = that.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
