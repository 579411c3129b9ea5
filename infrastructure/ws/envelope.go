package ws

import (
	"fmt"
	"sharecircle/domain/chat"
	"sharecircle/errors"
	"strings"

	"github.com/goccy/go-json"
)

// Event names exchanged over the socket.
const (
	EventJoinRoom    = "joinRoom"
	EventSendMessage = "sendMessage"
	EventMessage     = "message"
)

// Envelope is the frame of every text message: {"event": "...", "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type JoinRoomPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
}

type SendMessagePayload struct {
	Room    string `json:"room"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

// Decode turns an inbound frame into a relay command for the connection id.
func Decode(id chat.ConnectionID, raw []byte) (chat.Command, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidEnvelope, err)
	}

	switch envelope.Event {
	case EventJoinRoom:
		var payload JoinRoomPayload
		if err := decodeData(envelope.Data, &payload); err != nil {
			return nil, err
		}
		if strings.TrimSpace(payload.Room) == "" {
			return nil, fmt.Errorf("%w: room is required", errors.ErrInvalidEnvelope)
		}
		return chat.JoinRoomCommand{
			Connection: id,
			Username:   payload.Username,
			Room:       chat.RoomID(payload.Room),
		}, nil
	case EventSendMessage:
		var payload SendMessagePayload
		if err := decodeData(envelope.Data, &payload); err != nil {
			return nil, err
		}
		return chat.SendMessageCommand{
			Connection: id,
			Room:       chat.RoomID(payload.Room),
			Message:    payload.Message,
			Sender:     payload.Sender,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event %q", errors.ErrInvalidEnvelope, envelope.Event)
	}
}

// Encode wraps an outbound chat message into a "message" frame.
func Encode(msg chat.Outbound) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: EventMessage, Data: data})
}

func decodeData(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errors.ErrInvalidEnvelope)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidEnvelope, err)
	}
	return nil
}
