// Package chat defines the room relay vocabulary: connections, rooms and the
// commands a connection can issue over its lifetime.
package chat

import "fmt"

type ConnectionID string

type RoomID string

// Connection is a live client known to the relay. Room stays nil until
// a join has been processed; a connection belongs to at most one room.
type Connection struct {
	ID          ConnectionID
	DisplayName string
	Room        *RoomID
}

// InRoom reports whether the connection currently belongs to room.
func (c Connection) InRoom(room RoomID) bool {
	return c.Room != nil && *c.Room == room
}

// SystemSender is the sender name used for relay notifications.
const SystemSender = "System"

// Outbound is the payload delivered to every member of a room.
type Outbound struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

func JoinedMessage(username string) Outbound {
	return Outbound{Sender: SystemSender, Message: fmt.Sprintf("%s has joined the chat.", username)}
}

func LeftMessage(username string) Outbound {
	return Outbound{Sender: SystemSender, Message: fmt.Sprintf("%s has left the chat.", username)}
}

func UserMessage(sender, message string) Outbound {
	return Outbound{Sender: sender, Message: message}
}
