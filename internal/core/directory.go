package core

import "sort"

// Room groups the connections currently joined under one ID, in join order.
type Room struct {
	ID      string
	members []string
	index   map[string]struct{}
}

// NewRoom constructs a room with no members.
func NewRoom(id string) *Room {
	return &Room{
		ID:    id,
		index: make(map[string]struct{}),
	}
}

// Add inserts a member. Returns true if newly added.
func (r *Room) Add(clientID string) bool {
	if _, exists := r.index[clientID]; exists {
		return false
	}
	r.index[clientID] = struct{}{}
	r.members = append(r.members, clientID)
	return true
}

// Remove deletes a member. Returns true if removed.
func (r *Room) Remove(clientID string) bool {
	if _, exists := r.index[clientID]; !exists {
		return false
	}
	delete(r.index, clientID)
	for i, id := range r.members {
		if id == clientID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	return true
}

// Empty returns true if no clients are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}

// Directory maps room IDs to their live membership. A room exists exactly
// while it has at least one member. Owned by the hub goroutine.
type Directory struct {
	rooms map[string]*Room
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*Room)}
}

// Join adds clientID to roomID, creating the room on first join.
// Returns false if the client was already a member.
func (d *Directory) Join(roomID, clientID string) bool {
	room, ok := d.rooms[roomID]
	if !ok {
		room = NewRoom(roomID)
		d.rooms[roomID] = room
	}
	return room.Add(clientID)
}

// Leave removes clientID from roomID and deletes the room once empty.
// Returns false if the client was not a member.
func (d *Directory) Leave(roomID, clientID string) bool {
	room, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	removed := room.Remove(clientID)
	if room.Empty() {
		delete(d.rooms, roomID)
	}
	return removed
}

// Members returns a snapshot of the room's members in join order.
func (d *Directory) Members(roomID string) []string {
	room, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, len(room.members))
	copy(out, room.members)
	return out
}

// Population returns the member count, or 0 for a room that does not exist.
func (d *Directory) Population(roomID string) int {
	room, ok := d.rooms[roomID]
	if !ok {
		return 0
	}
	return len(room.members)
}

// Exists reports whether the room currently has members.
func (d *Directory) Exists(roomID string) bool {
	_, ok := d.rooms[roomID]
	return ok
}

// Rooms lists live room IDs in lexical order.
func (d *Directory) Rooms() []string {
	ids := make([]string, 0, len(d.rooms))
	for id := range d.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len reports the number of live rooms.
func (d *Directory) Len() int {
	return len(d.rooms)
}
