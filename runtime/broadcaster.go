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
	"time"
)

// RoomBroadcaster fans a payload out to every member of a room.
// Recipients are resolved through the registry at call time and each
// delivery runs in its own goroutine bounded by deliveryTimeout, so one
// slow or broken connection only fails its own delivery.
type RoomBroadcaster struct {
	log             *slog.Logger
	registry        contract.IRegistry
	deliveryTimeout time.Duration
	metrics         *observability.Metrics
	monitoring      *observability.MonitoringManager

	mu    sync.RWMutex
	sinks map[chat.ConnectionID]contract.ConnectionSink
}

func NewRoomBroadcaster(
	log *slog.Logger,
	registry contract.IRegistry,
	deliveryTimeout time.Duration,
	metrics *observability.Metrics,
	monitoring *observability.MonitoringManager,
) *RoomBroadcaster {
	return &RoomBroadcaster{
		log:             log,
		registry:        registry,
		deliveryTimeout: deliveryTimeout,
		metrics:         metrics,
		monitoring:      monitoring,
		sinks:           make(map[chat.ConnectionID]contract.ConnectionSink),
	}
}

// Attach binds the transport sink of a connection. A previous sink for
// the same id is closed.
func (b *RoomBroadcaster) Attach(id chat.ConnectionID, sink contract.ConnectionSink) {
	b.mu.Lock()
	previous, ok := b.sinks[id]
	b.sinks[id] = sink
	b.mu.Unlock()

	if ok && previous != sink {
		previous.Close()
	}
}

// Detach closes and forgets the sink of a connection.
func (b *RoomBroadcaster) Detach(id chat.ConnectionID) {
	b.mu.Lock()
	sink, ok := b.sinks[id]
	delete(b.sinks, id)
	b.mu.Unlock()

	if ok {
		sink.Close()
	}
}

// CloseAll closes every attached sink, used at shutdown.
func (b *RoomBroadcaster) CloseAll() {
	b.mu.Lock()
	sinks := b.sinks
	b.sinks = make(map[chat.ConnectionID]contract.ConnectionSink)
	b.mu.Unlock()

	for _, sink := range sinks {
		sink.Close()
	}
}

type deliveryResult struct {
	id  chat.ConnectionID
	err error
}

// Broadcast delivers msg to all current members of room, sender included.
// It waits for every delivery to succeed, fail or time out and reports the outcome.
func (b *RoomBroadcaster) Broadcast(ctx context.Context, room chat.RoomID, sender *chat.ConnectionID, msg chat.Outbound) chat.DeliveryReport {
	start := time.Now()
	members := b.registry.MembersOf(room)
	report := chat.DeliveryReport{Room: room}
	if len(members) == 0 {
		return report
	}

	results := make(chan deliveryResult, len(members))
	var wg sync.WaitGroup
	for _, member := range members {
		sink, ok := b.sink(member.ID)
		if !ok {
			results <- deliveryResult{id: member.ID, err: fmt.Errorf("%w: no sink attached", errors.ErrDeliveryFailure)}
			continue
		}
		wg.Add(1)
		go func(id chat.ConnectionID, sink contract.ConnectionSink) {
			defer wg.Done()
			results <- deliveryResult{id: id, err: b.deliver(ctx, sink, msg)}
		}(member.ID, sink)
	}
	wg.Wait()
	close(results)

	for res := range results {
		if res.err != nil {
			b.log.Warn("Delivery failed",
				"connection_id", res.id,
				"room", room,
				"error", res.err)
			report.Failed = append(report.Failed, res.id)
			continue
		}
		report.Delivered = append(report.Delivered, res.id)
	}

	if sender != nil {
		b.log.Debug("Broadcast done", "room", room, "sender", *sender,
			"delivered", len(report.Delivered), "failed", len(report.Failed))
	}
	b.metrics.RecordBroadcast(len(report.Delivered), len(report.Failed), time.Since(start))
	if b.monitoring != nil {
		b.monitoring.IncrDelivered(len(report.Delivered))
		b.monitoring.IncrFailed(len(report.Failed))
	}
	return report
}

func (b *RoomBroadcaster) deliver(ctx context.Context, sink contract.ConnectionSink, msg chat.Outbound) (err error) {
	ctx, cancel := context.WithTimeout(ctx, b.deliveryTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: sink panic: %v", errors.ErrDeliveryFailure, r)
		}
	}()

	if err := sink.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrDeliveryFailure, err)
	}
	return nil
}

func (b *RoomBroadcaster) sink(id chat.ConnectionID) (contract.ConnectionSink, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sink, ok := b.sinks[id]
	return sink, ok
}
