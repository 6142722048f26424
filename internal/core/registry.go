package core

import "encoding/json"

// Identity is what a channel declared about itself on join.
type Identity struct {
	Username string
	Profile  json.RawMessage
	Room     string
}

// Registry maps connection IDs to their declared identity.
// It is owned by the hub goroutine and is not safe for concurrent use.
type Registry struct {
	identities map[string]Identity
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{identities: make(map[string]Identity)}
}

// Register associates id with clientID, replacing any previous identity.
func (r *Registry) Register(clientID string, id Identity) {
	r.identities[clientID] = id
}

// Lookup returns the identity for clientID, if any.
func (r *Registry) Lookup(clientID string) (Identity, bool) {
	id, ok := r.identities[clientID]
	return id, ok
}

// Remove drops the identity for clientID. Unknown IDs are ignored.
func (r *Registry) Remove(clientID string) {
	delete(r.identities, clientID)
}

// Len reports how many channels have an identity.
func (r *Registry) Len() int {
	return len(r.identities)
}
