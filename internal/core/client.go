package core

import "github.com/vovakirdan/roomrelay/internal/utils"

const (
	commandBuffer = 16
	eventBuffer   = 256
)

// Client is one connected channel as seen by the core layer.
// The transport pushes decoded commands into Commands and drains Events;
// the hub closes Events once the client is unregistered.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	quit chan struct{}
}

// NewClient constructs a client with a fresh opaque connection ID.
func NewClient() *Client {
	return &Client{
		ID:       utils.NewID(),
		Commands: make(chan *Command, commandBuffer),
		Events:   make(chan *Event, eventBuffer),
		quit:     make(chan struct{}),
	}
}
