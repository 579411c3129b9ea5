// Package ws carries the chat relay over WebSocket connections.
// Each socket gets a read pump feeding the relay and a write pump draining
// its connection sink.
package ws

import (
	"log/slog"
	"net/http"
	"sharecircle/contract"
	"sharecircle/domain/chat"
	"sharecircle/sink"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Leaves the relay time to broadcast the leave notice.
	disconnectTimeout = 5 * time.Second
)

type Config struct {
	AllowedOrigins []string
	BufferSize     int
	MaxMessageSize int64
	RatePerSecond  float64
	RateBurst      int
}

type Handler struct {
	log      *slog.Logger
	relay    contract.IRelay
	config   Config
	upgrader websocket.Upgrader
}

func NewHandler(log *slog.Logger, relay contract.IRelay, config Config) *Handler {
	policy := newOriginPolicy(config.AllowedOrigins)
	return &Handler{
		log:    log,
		relay:  relay,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.check,
		},
	}
}

// ServeHTTP upgrades the request and runs the connection until the client
// leaves or the relay stops.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		h.log.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	id := chat.ConnectionID(uuid.NewString())
	connectionSink := sink.NewConnectionSink(h.config.BufferSize)
	if err := h.relay.Connect(id, connectionSink); err != nil {
		h.log.Warn("Connection refused", "connection_id", id, "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	h.log.Info("Client connected", "connection_id", id, "remote_addr", r.RemoteAddr)

	c := &client{
		id:      id,
		conn:    conn,
		sink:    connectionSink,
		relay:   h.relay,
		log:     h.log.With("connection_id", id),
		limiter: newLimiter(h.config.RatePerSecond, h.config.RateBurst),
		closed:  make(chan struct{}),
	}
	if h.config.MaxMessageSize > 0 {
		conn.SetReadLimit(h.config.MaxMessageSize)
	}

	go c.writePump()
	c.readPump(r.Context())
}

func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
