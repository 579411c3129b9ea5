package runtime

import (
	"fmt"
	"log/slog"
	"sharecircle/domain/chat"
	"sharecircle/errors"
	"sync"
)

type Set map[chat.ConnectionID]struct{}

// ConnectionRegistry is the single source of truth for live connections
// and their room membership.
type ConnectionRegistry struct {
	log         *slog.Logger
	mu          sync.RWMutex
	sessions    map[chat.ConnectionID]*chat.Connection // map connection -> state
	roomMembers map[chat.RoomID]Set                    // map room to connections
}

func NewConnectionRegistry(log *slog.Logger) *ConnectionRegistry {
	return &ConnectionRegistry{
		log:         log,
		sessions:    make(map[chat.ConnectionID]*chat.Connection),
		roomMembers: make(map[chat.RoomID]Set),
	}
}

// Register creates a connection with no room.
// An already known id is overwritten and reported as ErrDuplicateConnection
// so the caller can log it; the registry stays consistent either way.
func (r *ConnectionRegistry) Register(id chat.ConnectionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if previous, ok := r.sessions[id]; ok {
		r.leaveRoom(previous)
		r.log.Warn("Connection registered twice, overwriting", "connection_id", id)
		err = fmt.Errorf("%w: %s", errors.ErrDuplicateConnection, id)
	}
	r.sessions[id] = &chat.Connection{ID: id}
	return err
}

// SetRoom records the display name and moves the connection into room.
// The last join wins: the connection leaves its previous room silently.
func (r *ConnectionRegistry) SetRoom(id chat.ConnectionID, displayName string, room chat.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConnection, id)
	}
	r.leaveRoom(conn)

	conn.DisplayName = displayName
	conn.Room = &room
	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(Set)
	}
	r.roomMembers[room][id] = struct{}{}
	return nil
}

// Get returns a copy of the connection state.
func (r *ConnectionRegistry) Get(id chat.ConnectionID) (chat.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.sessions[id]
	if !ok {
		return chat.Connection{}, false
	}
	return copyConnection(conn), true
}

// Remove deletes the connection and returns its last state.
// Removing an unknown id is a no-op.
func (r *ConnectionRegistry) Remove(id chat.ConnectionID) (chat.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.sessions[id]
	if !ok {
		return chat.Connection{}, false
	}
	r.leaveRoom(conn)
	delete(r.sessions, id)
	return copyConnection(conn), true
}

// MembersOf returns the connections currently in room, in no particular order.
func (r *ConnectionRegistry) MembersOf(room chat.RoomID) []chat.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	conns := make([]chat.Connection, 0, len(members))
	for id := range members {
		if conn, exists := r.sessions[id]; exists {
			conns = append(conns, copyConnection(conn))
		}
	}
	return conns
}

// Count returns the number of live connections and non empty rooms.
func (r *ConnectionRegistry) Count() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), len(r.roomMembers)
}

// leaveRoom must be called with the write lock held.
func (r *ConnectionRegistry) leaveRoom(conn *chat.Connection) {
	if conn.Room == nil {
		return
	}
	if members, ok := r.roomMembers[*conn.Room]; ok {
		delete(members, conn.ID)

		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.roomMembers, *conn.Room)
		}
	}
	conn.Room = nil
}

func copyConnection(conn *chat.Connection) chat.Connection {
	c := *conn
	if conn.Room != nil {
		room := *conn.Room
		c.Room = &room
	}
	return c
}
