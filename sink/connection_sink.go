package sink

import (
	"context"
	"sharecircle/domain/chat"
	"sharecircle/errors"
	"sync"
)

// ConnectionSink buffers outbound payloads for one connection.
// The transport write loop drains Outbound until Done is closed.
type ConnectionSink struct {
	outbound chan chat.Outbound
	done     chan struct{}
	once     sync.Once
}

func NewConnectionSink(bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		outbound: make(chan chat.Outbound, bufferSize),
		done:     make(chan struct{}),
	}
}

// Deliver is called by the broadcaster.
// It waits for buffer space until ctx expires, so a stalled client
// fails its own delivery without blocking the room.
func (s *ConnectionSink) Deliver(ctx context.Context, msg chat.Outbound) error {
	select {
	case <-s.done:
		return errors.ErrSinkClosed
	default:
	}

	select {
	case s.outbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errors.ErrSinkClosed
	}
}

func (s *ConnectionSink) Outbound() <-chan chat.Outbound {
	return s.outbound
}

func (s *ConnectionSink) Done() <-chan struct{} {
	return s.done
}

// Close is idempotent
func (s *ConnectionSink) Close() {
	s.once.Do(func() { close(s.done) })
}
