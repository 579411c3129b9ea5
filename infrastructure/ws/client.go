package ws

import (
	"context"
	"log/slog"
	"sharecircle/contract"
	"sharecircle/domain/chat"
	"sharecircle/errors"
	"sharecircle/sink"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type client struct {
	id      chat.ConnectionID
	conn    *websocket.Conn
	sink    *sink.ConnectionSink
	relay   contract.IRelay
	log     *slog.Logger
	limiter *rate.Limiter
	closed  chan struct{}
}

// readPump decodes frames into relay commands. Leaving the loop means the
// socket is gone, which is turned into a disconnect command.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		close(c.closed)
		_ = c.conn.Close()

		disconnectCtx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := c.relay.Submit(disconnectCtx, chat.DisconnectCommand{Connection: c.id}); err != nil {
			c.log.Warn("Disconnect not submitted", "error", err)
			// The relay will never detach the sink
			c.sink.Close()
		}
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Unexpected close", "error", err)
			} else {
				c.log.Debug("Client disconnected", "error", err)
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.log.Warn("Rate limit exceeded, message discarded")
			continue
		}

		cmd, err := Decode(c.id, raw)
		if err != nil {
			c.log.Warn("Invalid frame", "error", err)
			continue
		}

		if err := c.relay.Submit(ctx, cmd); err != nil {
			if errors.Is(err, errors.ErrRelayStopped) || ctx.Err() != nil {
				return
			}
			c.log.Warn("Command dropped", "error", err)
		}
	}
}

// writePump owns every write on the socket.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.sink.Outbound():
			if err := c.write(msg); err != nil {
				c.log.Debug("Write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.sink.Done():
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case <-c.closed:
			return
		}
	}
}

// flush writes what is still buffered once the sink is closed.
func (c *client) flush() {
	for {
		select {
		case msg := <-c.sink.Outbound():
			if err := c.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *client) write(msg chat.Outbound) error {
	frame, err := Encode(msg)
	if err != nil {
		c.log.Error("Failed to encode message", "error", err)
		return nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}
