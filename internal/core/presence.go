package core

// anonymousName stands in for members whose identity is already gone.
const anonymousName = "Anonymous"

// memberNames resolves every member to a username, keeping list length equal to population.
func (h *Hub) memberNames(roomID string) []string {
	members := h.directory.Members(roomID)
	names := make([]string, 0, len(members))
	for _, clientID := range members {
		if id, ok := h.registry.Lookup(clientID); ok && id.Username != "" {
			names = append(names, id.Username)
			continue
		}
		names = append(names, anonymousName)
	}
	return names
}

// broadcastPopulation sends the live count to every member of roomID.
func (h *Hub) broadcastPopulation(roomID string) {
	members := h.directory.Members(roomID)
	if len(members) == 0 {
		return
	}
	h.fanout(members, &Event{Kind: EventPopulation, Room: roomID, Count: len(members)})
}

// broadcastMemberList sends the member names to every member of roomID.
func (h *Hub) broadcastMemberList(roomID string) {
	members := h.directory.Members(roomID)
	if len(members) == 0 {
		return
	}
	h.fanout(members, &Event{Kind: EventUserList, Room: roomID, Users: h.memberNames(roomID)})
}

func (h *Hub) broadcastPresence(roomID string) {
	h.broadcastPopulation(roomID)
	h.broadcastMemberList(roomID)
}
