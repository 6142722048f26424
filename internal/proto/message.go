package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
// Fields are flat; which ones are meaningful depends on Type.
type Inbound struct {
	Type      string          `json:"type"`
	User      string          `json:"user,omitempty"`
	Room      string          `json:"room,omitempty"`
	Profile   json.RawMessage `json:"profile,omitempty"`
	Content   string          `json:"content,omitempty"`
	Data      string          `json:"data,omitempty"`
	Filename  string          `json:"filename,omitempty"`
	ID        string          `json:"id,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

const (
	InboundTypeJoin    = "join"
	InboundTypeMessage = "message"
	InboundTypeImage   = "image"
	InboundTypeLeave   = "leave"

	OutboundTypeMessage    = "message"
	OutboundTypeImage      = "image"
	OutboundTypeHistory    = "history"
	OutboundTypePopulation = "population"
	OutboundTypeUserList   = "userList"
	OutboundTypeError      = "error"
)

// Error codes produced outside the core.
const (
	CodeMalformed   = "malformed"
	CodeRateLimited = "rate_limited"
)

// Header is enough of any outbound envelope to learn its type.
type Header struct {
	Type string `json:"type"`
}

// Chat is a message or image envelope, also used as a history entry.
type Chat struct {
	Type          string          `json:"type"`
	ID            string          `json:"id"`
	Room          string          `json:"room"`
	Content       string          `json:"content"`
	ImageRef      string          `json:"imageRef,omitempty"`
	Sender        string          `json:"sender"`
	SenderProfile json.RawMessage `json:"senderProfile,omitempty"`
	Timestamp     string          `json:"timestamp"`
}

// History replays a room's stored messages, oldest first.
type History struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	Messages []Chat `json:"messages"`
}

// Population carries the live member count of a room.
type Population struct {
	Type  string `json:"type"`
	Room  string `json:"room"`
	Count int    `json:"count"`
}

// UserList carries the names of a room's live members in join order.
type UserList struct {
	Type  string   `json:"type"`
	Room  string   `json:"room"`
	Users []string `json:"users"`
}

// Error describes a protocol-level error response.
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// NewError builds an error envelope.
func NewError(code, msg string) Error {
	return Error{Type: OutboundTypeError, Code: code, Message: msg}
}
