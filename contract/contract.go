//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"sharecircle/domain/chat"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ConnectionSink is the write side of a live connection.
// Deliver must honour ctx so a slow client cannot stall a broadcast.
type ConnectionSink interface {
	Deliver(ctx context.Context, msg chat.Outbound) error
	Close()
}

type IRegistry interface {
	Register(id chat.ConnectionID) error
	SetRoom(id chat.ConnectionID, displayName string, room chat.RoomID) error
	Get(id chat.ConnectionID) (chat.Connection, bool)
	Remove(id chat.ConnectionID) (chat.Connection, bool)
	MembersOf(room chat.RoomID) []chat.Connection
	Count() (connections int, rooms int)
}

type IBroadcaster interface {
	Attach(id chat.ConnectionID, sink ConnectionSink)
	Detach(id chat.ConnectionID)
	Broadcast(ctx context.Context, room chat.RoomID, sender *chat.ConnectionID, msg chat.Outbound) chat.DeliveryReport
	CloseAll()
}

type IRelay interface {
	Connect(id chat.ConnectionID, sink ConnectionSink) error
	Submit(ctx context.Context, cmd chat.Command) error
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd chat.Command) error
}

// Censor rewrites user text before it is relayed.
type Censor interface {
	Sanitize(content string) string
}
