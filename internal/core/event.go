package core

import "github.com/vovakirdan/roomrelay/internal/store"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage delivers a text or image record to room members.
	EventMessage EventKind = iota
	// EventHistory replays a room's records to a client that just joined.
	EventHistory
	// EventPopulation carries a room's live member count.
	EventPopulation
	// EventUserList carries a room's member names in join order.
	EventUserList
	// EventError notifies a single client about a failed request.
	EventError
	// EventClose asks the transport to close the channel.
	EventClose
)

// Event is sent to clients to describe what happened in the system.
// A single Event may be shared by every recipient of a fan-out and must not be mutated.
type Event struct {
	Kind     EventKind
	Room     string
	Message  store.Record
	Messages []store.Record
	Count    int
	Users    []string
	Error    *CoreError
}
