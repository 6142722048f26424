package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin declares an identity and enters a room.
	CommandJoin CommandKind = iota
	// CommandMessage sends a text message to the current room.
	CommandMessage
	// CommandImage sends an image attachment to the current room.
	CommandImage
	// CommandLeave exits the current room.
	CommandLeave
	// CommandUnknown carries an envelope whose type is not understood.
	CommandUnknown
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind
	// Type is the raw discriminator, kept for error reporting.
	Type string

	User      string
	Room      string
	Profile   json.RawMessage
	Content   string
	Data      string
	Filename  string
	ID        string
	Timestamp string
}
