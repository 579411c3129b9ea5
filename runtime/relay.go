package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sharecircle/contract"
	"sharecircle/domain/chat"
	"sharecircle/errors"
	"sharecircle/observability"
	"sync"
)

// Relay drives the lifecycle of chat connections:
// Connected -> InRoom(room) -> Disconnected.
//
// Commands are queued with Submit and drained by a single worker calling
// Handle, which is itself serialized so registry mutations and broadcasts
// happen one at a time in arrival order.
type Relay struct {
	log         *slog.Logger
	registry    contract.IRegistry
	broadcaster contract.IBroadcaster
	metrics     *observability.Metrics

	trustClientFields bool
	censor            contract.Censor

	mu       sync.Mutex
	commands chan chat.Command
	done     chan struct{}
	stopOnce sync.Once
}

type RelayOption func(*Relay)

// WithTrustedClientFields makes sendMessage use the room and sender sent by
// the client instead of the ones recorded at join time.
func WithTrustedClientFields(trust bool) RelayOption {
	return func(r *Relay) { r.trustClientFields = trust }
}

// WithCensor sanitizes user messages before they are broadcast.
func WithCensor(censor contract.Censor) RelayOption {
	return func(r *Relay) { r.censor = censor }
}

func WithMetrics(metrics *observability.Metrics) RelayOption {
	return func(r *Relay) { r.metrics = metrics }
}

func NewRelay(
	log *slog.Logger,
	registry contract.IRegistry,
	broadcaster contract.IBroadcaster,
	bufferSize int,
	opts ...RelayOption,
) *Relay {
	r := &Relay{
		log:         log,
		registry:    registry,
		broadcaster: broadcaster,
		commands:    make(chan chat.Command, bufferSize),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect registers a new connection and attaches its sink.
// A duplicate id is logged and the new connection replaces the old one.
func (r *Relay) Connect(id chat.ConnectionID, sink contract.ConnectionSink) error {
	select {
	case <-r.done:
		return errors.ErrRelayStopped
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.registry.Register(id); err != nil {
		r.log.Warn("Connect overwrote an existing connection", "connection_id", id, "error", err)
	}
	r.broadcaster.Attach(id, sink)
	r.log.Debug("Connection registered", "connection_id", id)
	return nil
}

// Submit queues a command for the relay worker. It blocks while the queue
// is full until ctx is done or the relay stops.
func (r *Relay) Submit(ctx context.Context, cmd chat.Command) error {
	select {
	case <-r.done:
		r.metrics.RecordDroppedCommand()
		return errors.ErrRelayStopped
	default:
	}

	select {
	case r.commands <- cmd:
		r.metrics.RecordQueueDepth(len(r.commands))
		return nil
	case <-ctx.Done():
		r.metrics.RecordDroppedCommand()
		return ctx.Err()
	case <-r.done:
		r.metrics.RecordDroppedCommand()
		return errors.ErrRelayStopped
	}
}

// Commands exposes the queue drained by the relay worker.
func (r *Relay) Commands() <-chan chat.Command {
	return r.commands
}

// Done is closed once the relay has been stopped.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// Handle executes one command. Unknown connections and messages outside
// a room are logged and skipped; the returned error is informative only.
func (r *Relay) Handle(ctx context.Context, cmd chat.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch c := cmd.(type) {
	case chat.JoinRoomCommand:
		return r.join(ctx, c)
	case chat.SendMessageCommand:
		return r.message(ctx, c)
	case chat.DisconnectCommand:
		return r.disconnect(ctx, c)
	default:
		return fmt.Errorf("unsupported command %T", cmd)
	}
}

func (r *Relay) join(ctx context.Context, cmd chat.JoinRoomCommand) error {
	if err := r.registry.SetRoom(cmd.Connection, cmd.Username, cmd.Room); err != nil {
		r.log.Warn("Join ignored", "connection_id", cmd.Connection, "room", cmd.Room, "error", err)
		return err
	}
	r.log.Debug("Connection joined room", "connection_id", cmd.Connection, "room", cmd.Room)
	r.broadcaster.Broadcast(ctx, cmd.Room, &cmd.Connection, chat.JoinedMessage(cmd.Username))
	return nil
}

func (r *Relay) message(ctx context.Context, cmd chat.SendMessageCommand) error {
	conn, ok := r.registry.Get(cmd.Connection)
	if !ok {
		err := fmt.Errorf("%w: %s", errors.ErrUnknownConnection, cmd.Connection)
		r.log.Warn("Message ignored", "connection_id", cmd.Connection, "error", err)
		return err
	}

	room, sender := cmd.Room, cmd.Sender
	if !r.trustClientFields {
		if conn.Room == nil {
			err := fmt.Errorf("%w: %s", errors.ErrNotInRoom, cmd.Connection)
			r.log.Warn("Message ignored", "connection_id", cmd.Connection, "error", err)
			return err
		}
		room, sender = *conn.Room, conn.DisplayName
	}

	content := cmd.Message
	if r.censor != nil {
		content = r.censor.Sanitize(content)
	}
	r.broadcaster.Broadcast(ctx, room, &cmd.Connection, chat.UserMessage(sender, content))
	return nil
}

func (r *Relay) disconnect(ctx context.Context, cmd chat.DisconnectCommand) error {
	conn, ok := r.registry.Remove(cmd.Connection)
	r.broadcaster.Detach(cmd.Connection)
	if !ok {
		r.log.Debug("Disconnect of an unknown connection", "connection_id", cmd.Connection)
		return nil
	}
	r.log.Debug("Connection removed", "connection_id", cmd.Connection)

	if conn.Room != nil {
		r.broadcaster.Broadcast(ctx, *conn.Room, &cmd.Connection, chat.LeftMessage(conn.DisplayName))
	}
	return nil
}

// Stop rejects new commands and closes every connection sink.
func (r *Relay) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.broadcaster.CloseAll()
		r.log.Info("Relay stopped")
	})
}
