package runtime

import (
	"context"
	"log/slog"
	"sharecircle/domain/chat"
	"sharecircle/errors"
	"sharecircle/mocks"
	"sharecircle/moderation"
	"sharecircle/sink"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type relayFixture struct {
	relay    *Relay
	registry *ConnectionRegistry
	sinks    map[chat.ConnectionID]*sink.ConnectionSink
}

func newRelayFixture(t *testing.T, opts ...RelayOption) *relayFixture {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewConnectionRegistry(log)
	broadcaster := NewRoomBroadcaster(log, registry, time.Second, nil, nil)
	return &relayFixture{
		relay:    NewRelay(log, registry, broadcaster, 16, opts...),
		registry: registry,
		sinks:    make(map[chat.ConnectionID]*sink.ConnectionSink),
	}
}

func (f *relayFixture) connect(t *testing.T, id chat.ConnectionID) {
	s := sink.NewConnectionSink(16)
	f.sinks[id] = s
	require.NoError(t, f.relay.Connect(id, s))
}

func (f *relayFixture) handle(t *testing.T, cmd chat.Command) error {
	return f.relay.Handle(context.Background(), cmd)
}

// received drains what is already buffered for a connection
func (f *relayFixture) received(id chat.ConnectionID) []chat.Outbound {
	var out []chat.Outbound
	for {
		select {
		case msg := <-f.sinks[id].Outbound():
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestRelay_LobbyScenario(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	c1, c2 := chat.ConnectionID("c1"), chat.ConnectionID("c2")

	// Given two connected clients
	f.connect(t, c1)
	f.connect(t, c2)

	// When alice joins the lobby
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: c1, Username: "alice", Room: "lobby"}))

	// Then only alice is notified
	req.Equal([]chat.Outbound{chat.JoinedMessage("alice")}, f.received(c1))
	req.Empty(f.received(c2))

	// When bob joins the lobby
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: c2, Username: "bob", Room: "lobby"}))

	// Then both are notified
	req.Equal([]chat.Outbound{chat.JoinedMessage("bob")}, f.received(c1))
	req.Equal([]chat.Outbound{chat.JoinedMessage("bob")}, f.received(c2))

	// When alice says hi
	req.NoError(f.handle(t, chat.SendMessageCommand{Connection: c1, Room: "lobby", Message: "hi", Sender: "alice"}))

	// Then both receive it, the sender included
	expected := []chat.Outbound{{Sender: "alice", Message: "hi"}}
	req.Equal(expected, f.received(c1))
	req.Equal(expected, f.received(c2))

	// When bob disconnects
	req.NoError(f.handle(t, chat.DisconnectCommand{Connection: c2}))

	// Then alice is told bob left
	req.Equal([]chat.Outbound{chat.LeftMessage("bob")}, f.received(c1))
	req.Len(f.registry.MembersOf("lobby"), 1)
}

func TestRelay_Disconnect_NeverJoined(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	broadcaster := mocks.NewMockIBroadcaster(ctrl)
	registry := NewConnectionRegistry(log)
	relay := NewRelay(log, registry, broadcaster, 1)
	id := newConnectionID()

	// Then the sink is detached and nothing is broadcast
	broadcaster.EXPECT().Attach(id, gomock.Any()).Times(1)
	broadcaster.EXPECT().Detach(id).Times(2)
	broadcaster.EXPECT().Broadcast(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// When a connection that never joined disconnects twice
	req.NoError(relay.Connect(id, mocks.NewMockConnectionSink(ctrl)))
	req.NoError(relay.Handle(context.Background(), chat.DisconnectCommand{Connection: id}))
	req.NoError(relay.Handle(context.Background(), chat.DisconnectCommand{Connection: id}))

	connections, _ := registry.Count()
	req.Zero(connections)
}

func TestRelay_Disconnect_Twice(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	c1, c2 := chat.ConnectionID("c1"), chat.ConnectionID("c2")
	f.connect(t, c1)
	f.connect(t, c2)
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: c1, Username: "alice", Room: "lobby"}))
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: c2, Username: "bob", Room: "lobby"}))
	f.received(c1)

	// When bob disconnects twice
	req.NoError(f.handle(t, chat.DisconnectCommand{Connection: c2}))
	req.NoError(f.handle(t, chat.DisconnectCommand{Connection: c2}))

	// Then alice is told only once
	req.Equal([]chat.Outbound{chat.LeftMessage("bob")}, f.received(c1))
}

func TestRelay_Join_SwitchRoomDoesNotNotifyOldRoom(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	c1, c2 := chat.ConnectionID("c1"), chat.ConnectionID("c2")
	f.connect(t, c1)
	f.connect(t, c2)
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: c1, Username: "alice", Room: "lobby"}))
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: c2, Username: "bob", Room: "lobby"}))
	f.received(c1)
	f.received(c2)

	// When bob moves to the kitchen
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: c2, Username: "bob", Room: "kitchen"}))

	// Then the lobby hears nothing and bob sees his join
	req.Empty(f.received(c1))
	req.Equal([]chat.Outbound{chat.JoinedMessage("bob")}, f.received(c2))

	conn, _ := f.registry.Get(c2)
	req.True(conn.InRoom("kitchen"))
}

func TestRelay_Join_UnknownConnection(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)

	err := f.handle(t, chat.JoinRoomCommand{Connection: "ghost", Username: "alice", Room: "lobby"})

	req.ErrorIs(err, errors.ErrUnknownConnection)
	req.Empty(f.registry.MembersOf("lobby"))
}

func TestRelay_Message_StrictUsesRegistry(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	c1, c2 := chat.ConnectionID("c1"), chat.ConnectionID("c2")
	f.connect(t, c1)
	f.connect(t, c2)
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: c1, Username: "alice", Room: "lobby"}))
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: c2, Username: "bob", Room: "kitchen"}))
	f.received(c1)
	f.received(c2)

	// When alice claims to be mallory in the kitchen
	req.NoError(f.handle(t, chat.SendMessageCommand{Connection: c1, Room: "kitchen", Message: "hi", Sender: "mallory"}))

	// Then the message stays in alice's room under her name
	req.Equal([]chat.Outbound{{Sender: "alice", Message: "hi"}}, f.received(c1))
	req.Empty(f.received(c2))
}

func TestRelay_Message_NotInRoom(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	f.connect(t, "c1")

	err := f.handle(t, chat.SendMessageCommand{Connection: "c1", Room: "lobby", Message: "hi", Sender: "alice"})
	req.ErrorIs(err, errors.ErrNotInRoom)

	err = f.handle(t, chat.SendMessageCommand{Connection: "ghost", Room: "lobby", Message: "hi", Sender: "alice"})
	req.ErrorIs(err, errors.ErrUnknownConnection)
}

func TestRelay_Message_TrustedClientFields(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t, WithTrustedClientFields(true))
	c1, c2 := chat.ConnectionID("c1"), chat.ConnectionID("c2")
	f.connect(t, c1)
	f.connect(t, c2)
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: c2, Username: "bob", Room: "kitchen"}))
	f.received(c2)

	// When a connection outside any room posts to the kitchen
	req.NoError(f.handle(t, chat.SendMessageCommand{Connection: c1, Room: "kitchen", Message: "hi", Sender: "alice"}))

	// Then the payload fields are used as-is
	req.Equal([]chat.Outbound{{Sender: "alice", Message: "hi"}}, f.received(c2))
	req.Empty(f.received(c1))
}

func TestRelay_Message_Censored(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	censor := mocks.NewMockCensor(ctrl)
	f := newRelayFixture(t, WithCensor(censor))
	f.connect(t, "c1")
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: "c1", Username: "alice", Room: "lobby"}))
	f.received("c1")

	censor.EXPECT().Sanitize("you badger").Return("you ******").Times(1)

	req.NoError(f.handle(t, chat.SendMessageCommand{Connection: "c1", Message: "you badger"}))
	req.Equal([]chat.Outbound{{Sender: "alice", Message: "you ******"}}, f.received("c1"))
}

func TestRelay_Message_EmbeddedDictionaries(t *testing.T) {
	req := require.New(t)
	moderator, err := moderation.NewDefaultModerator('#', logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	f := newRelayFixture(t, WithCensor(moderator))
	f.connect(t, "c1")
	f.connect(t, "c2")
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: "c1", Username: "alice", Room: "lobby"}))
	req.NoError(f.handle(t, chat.JoinRoomCommand{Connection: "c2", Username: "bob", Room: "lobby"}))
	f.received("c1")
	f.received("c2")

	// When alice swears in disguise
	req.NoError(f.handle(t, chat.SendMessageCommand{Connection: "c1", Message: "this desk is cr4p"}))

	// Then everybody gets the masked text
	masked := chat.UserMessage("alice", "this desk is ####")
	req.Equal([]chat.Outbound{masked}, f.received("c1"))
	req.Equal([]chat.Outbound{masked}, f.received("c2"))
}

func TestRelay_Submit(t *testing.T) {
	req := require.New(t)
	f := newRelayFixture(t)
	cmd := chat.DisconnectCommand{Connection: "c1"}

	// When a command is submitted
	req.NoError(f.relay.Submit(context.Background(), cmd))

	// Then the worker side can read it
	req.Equal(chat.Command(cmd), <-f.relay.Commands())

	// When the relay stops
	f.connect(t, "c1")
	f.relay.Stop()
	f.relay.Stop()

	// Then commands and connections are rejected and sinks are closed
	req.ErrorIs(f.relay.Submit(context.Background(), cmd), errors.ErrRelayStopped)
	req.ErrorIs(f.relay.Connect("c2", sink.NewConnectionSink(1)), errors.ErrRelayStopped)
	select {
	case <-f.sinks["c1"].Done():
	default:
		req.Fail("sink should be closed")
	}
}

func TestRelay_Submit_FullQueueHonoursContext(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	registry := NewConnectionRegistry(log)
	relay := NewRelay(log, registry, NewRoomBroadcaster(log, registry, time.Second, nil, nil), 1)

	req.NoError(relay.Submit(context.Background(), chat.DisconnectCommand{Connection: "c1"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := relay.Submit(ctx, chat.DisconnectCommand{Connection: "c2"})
	req.ErrorIs(err, context.DeadlineExceeded)
}
