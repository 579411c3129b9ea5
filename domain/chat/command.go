package chat

// Command is an event emitted by a connection and executed by the relay.
type Command interface {
	ConnectionID() ConnectionID
}

type JoinRoomCommand struct {
	Connection ConnectionID
	Username   string
	Room       RoomID
}

func (c JoinRoomCommand) ConnectionID() ConnectionID { return c.Connection }

// SendMessageCommand carries the room and sender as sent by the client.
// They are only trusted when the relay is configured to do so.
type SendMessageCommand struct {
	Connection ConnectionID
	Room       RoomID
	Message    string
	Sender     string
}

func (c SendMessageCommand) ConnectionID() ConnectionID { return c.Connection }

type DisconnectCommand struct {
	Connection ConnectionID
}

func (c DisconnectCommand) ConnectionID() ConnectionID { return c.Connection }

// DeliveryReport gathers the outcome of one broadcast.
type DeliveryReport struct {
	Room      RoomID
	Delivered []ConnectionID
	Failed    []ConnectionID
}
