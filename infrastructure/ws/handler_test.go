package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sharecircle/domain/chat"
	"sharecircle/runtime"
	"sharecircle/runtime/workers"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type chatServer struct {
	url      string
	relay    *runtime.Relay
	registry *runtime.ConnectionRegistry
}

func newChatServer(t *testing.T, config Config) *chatServer {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := runtime.NewConnectionRegistry(log)
	broadcaster := runtime.NewRoomBroadcaster(log, registry, time.Second, nil, nil)
	relay := runtime.NewRelay(log, registry, broadcaster, 64)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = workers.NewRelayWorker(log, relay.Commands(), relay).Run(ctx) }()

	server := httptest.NewServer(NewHandler(log, relay, config))
	t.Cleanup(func() {
		relay.Stop()
		cancel()
		server.Close()
	})
	return &chatServer{
		url:      "ws" + strings.TrimPrefix(server.URL, "http"),
		relay:    relay,
		registry: registry,
	}
}

func defaultConfig() Config {
	return Config{AllowedOrigins: []string{"http://localhost:3000"}, BufferSize: 16, MaxMessageSize: 4096}
}

func dial(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(Envelope{Event: event, Data: payload}))
}

func receive(t *testing.T, conn *websocket.Conn) chat.Outbound {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Equal(t, EventMessage, envelope.Event)
	var msg chat.Outbound
	require.NoError(t, json.Unmarshal(envelope.Data, &msg))
	return msg
}

func TestHandler_LobbyScenario(t *testing.T) {
	req := require.New(t)
	server := newChatServer(t, defaultConfig())

	// Given alice in the lobby
	alice := dial(t, server.url)
	send(t, alice, EventJoinRoom, JoinRoomPayload{Username: "alice", Room: "lobby"})
	req.Equal(chat.JoinedMessage("alice"), receive(t, alice))

	// When bob joins
	bob := dial(t, server.url)
	send(t, bob, EventJoinRoom, JoinRoomPayload{Username: "bob", Room: "lobby"})

	// Then both are notified
	req.Equal(chat.JoinedMessage("bob"), receive(t, alice))
	req.Equal(chat.JoinedMessage("bob"), receive(t, bob))

	// When alice talks, the sender gets its own message too
	send(t, alice, EventSendMessage, SendMessagePayload{Room: "lobby", Message: "hi bob", Sender: "alice"})
	req.Equal(chat.UserMessage("alice", "hi bob"), receive(t, alice))
	req.Equal(chat.UserMessage("alice", "hi bob"), receive(t, bob))

	// When bob leaves, alice is told
	req.NoError(bob.Close())
	req.Equal(chat.LeftMessage("bob"), receive(t, alice))
	req.Eventually(func() bool {
		connections, _ := server.registry.Count()
		return connections == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_InvalidFrameKeepsConnection(t *testing.T) {
	req := require.New(t)
	server := newChatServer(t, defaultConfig())
	alice := dial(t, server.url)

	// Garbage is ignored
	req.NoError(alice.WriteMessage(websocket.TextMessage, []byte("not json")))

	// And the connection still works
	send(t, alice, EventJoinRoom, JoinRoomPayload{Username: "alice", Room: "lobby"})
	req.Equal(chat.JoinedMessage("alice"), receive(t, alice))
}

func TestHandler_RejectsForeignOrigin(t *testing.T) {
	req := require.New(t)
	server := newChatServer(t, defaultConfig())

	header := http.Header{}
	header.Set("Origin", "http://evil.example.com")
	_, resp, err := websocket.DefaultDialer.Dial(server.url, header)

	req.Error(err)
	req.NotNil(resp)
	req.Equal(http.StatusForbidden, resp.StatusCode)

	// An allowed origin goes through
	header.Set("Origin", "http://localhost:3000")
	conn, _, err := websocket.DefaultDialer.Dial(server.url, header)
	req.NoError(err)
	_ = conn.Close()
}

func TestHandler_RelayStopClosesSockets(t *testing.T) {
	req := require.New(t)
	server := newChatServer(t, defaultConfig())
	alice := dial(t, server.url)
	send(t, alice, EventJoinRoom, JoinRoomPayload{Username: "alice", Room: "lobby"})
	req.Equal(chat.JoinedMessage("alice"), receive(t, alice))

	// When the relay stops
	server.relay.Stop()

	// Then the socket receives a normal close
	req.NoError(alice.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := alice.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
