package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sharecircle/domain/chat"
	"sharecircle/infrastructure/ws"
	"sharecircle/internal"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config  Config
	BaseURL string

	app    *internal.App
	server *httptest.Server
	db     *badger.DB
	writer *bluge.Writer
	cancel context.CancelFunc
}

// SetupSuite loads the environment configuration and starts an in-process
// server unless E2E_BASE_URL points at one.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.BaseURL != "" {
		s.BaseURL = strings.TrimSuffix(s.Config.BaseURL, "/")
		return
	}

	s.db, err = badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.writer, err = bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	s.Require().NoError(err)

	config := internal.Config{
		LogLevel:             "DEBUG",
		UploadsDir:           s.T().TempDir(),
		JWTSecret:            "e2e-secret",
		AuthTokenDuration:    time.Hour,
		AllowedOrigins:       "http://localhost:3000",
		DeliveryTimeout:      time.Second,
		ConnectionBufferSize: 64,
		EventBufferSize:      256,
		MaxMessageSize:       4096,
		RestartInterval:      100 * time.Millisecond,
		HeartbeatInterval:    time.Second,
	}
	s.app, err = internal.NewApp(logs.GetLoggerFromLevel(slog.LevelDebug), config, s.db, s.writer)
	s.Require().NoError(err)

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.Require().NoError(s.app.Start(ctx))

	s.server = httptest.NewServer(s.app.Handler())
	s.BaseURL = s.server.URL
}

func (s *BaseSuite) TearDownSuite() {
	if s.server == nil {
		return
	}
	s.server.Close()
	s.app.Stop()
	s.cancel()
	_ = s.writer.Close()
	_ = s.db.Close()
}

// Step prints a header so the steps of a scenario stand out in the logs.
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Do sends a request and returns the status and the raw body.
func (s *BaseSuite) Do(method, path string, body io.Reader, headers map[string]string) (int, []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	s.Require().NoError(err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	line := fmt.Sprintf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		line += "\nRESPONSE:\n" + string(raw)
	}
	s.T().Log(line)
	return resp.StatusCode, raw
}

// DoJSON encodes in as the request body and decodes the response into out when not nil.
func (s *BaseSuite) DoJSON(method, path string, in any, out any, token string) int {
	var body io.Reader
	headers := map[string]string{}
	if in != nil {
		payload, err := json.Marshal(in)
		s.Require().NoError(err)
		body = bytes.NewReader(payload)
		headers["Content-Type"] = "application/json"
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	status, raw := s.Do(method, path, body, headers)
	if out != nil {
		s.Require().NoError(json.Unmarshal(raw, out), string(raw))
	}
	return status
}

// Dial opens a chat socket.
func (s *BaseSuite) Dial() *websocket.Conn {
	url := "ws" + strings.TrimPrefix(s.BaseURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err, "Failed to open chat socket at "+url)
	return conn
}

func (s *BaseSuite) Emit(conn *websocket.Conn, event string, data any) {
	payload, err := json.Marshal(data)
	s.Require().NoError(err)
	s.Require().NoError(conn.WriteJSON(ws.Envelope{Event: event, Data: payload}))
}

// Next waits for the next "message" event on the socket.
func (s *BaseSuite) Next(conn *websocket.Conn) chat.Outbound {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(3 * time.Second)))
	_, raw, err := conn.ReadMessage()
	s.Require().NoError(err)

	var envelope ws.Envelope
	s.Require().NoError(json.Unmarshal(raw, &envelope))
	s.Require().Equal(ws.EventMessage, envelope.Event)

	var msg chat.Outbound
	s.Require().NoError(json.Unmarshal(envelope.Data, &msg))
	return msg
}
