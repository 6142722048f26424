package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/vovakirdan/roomrelay/internal/metrics"
	"github.com/vovakirdan/roomrelay/internal/store"
	"github.com/vovakirdan/roomrelay/internal/utils"
)

// dispatch runs the handler for one command. A channel is unidentified until
// it joins and identified (with a current room) afterwards.
func (h *Hub) dispatch(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoin:
		h.handleJoin(c, cmd)
	case CommandMessage:
		h.handleChat(c, cmd, store.KindText)
	case CommandImage:
		h.handleChat(c, cmd, store.KindImage)
	case CommandLeave:
		h.handleLeave(c, cmd)
	default:
		h.metrics.Dropped(metrics.DropUnknownType)
		h.log.Warn().Str("client_id", c.ID).Str("type", cmd.Type).Msg("unknown message type")
		h.send(c.ID, &Event{
			Kind:  EventError,
			Error: coreError(ErrCodeUnknownType, fmt.Sprintf("unknown message type %q", cmd.Type)),
		})
	}
}

func (h *Hub) handleJoin(c *Client, cmd *Command) {
	user := strings.TrimSpace(cmd.User)
	if user == "" {
		h.log.Warn().Str("client_id", c.ID).Msg("join without username, closing channel")
		err := coreError(ErrCodeInvalidUser, "username is required")
		h.send(c.ID, &Event{Kind: EventError, Error: err})
		h.send(c.ID, &Event{Kind: EventClose, Error: err})
		return
	}

	room := roomName(cmd.Room)
	if room == "" {
		room = h.opts.DefaultRoom
	}

	if prev, ok := h.registry.Lookup(c.ID); ok && prev.Room != "" && prev.Room != room {
		if h.directory.Leave(prev.Room, c.ID) {
			h.broadcastPresence(prev.Room)
		}
		h.log.Info().Str("client_id", c.ID).Str("user", prev.Username).Str("room", prev.Room).Msg("left room to join another")
	}

	h.registry.Register(c.ID, Identity{Username: user, Profile: cmd.Profile, Room: room})
	h.directory.Join(room, c.ID)

	h.send(c.ID, &Event{Kind: EventHistory, Room: room, Messages: h.messages.History(room)})
	h.broadcastPresence(room)

	h.metrics.SetRooms(h.directory.Len())
	h.log.Info().Str("client_id", c.ID).Str("user", user).Str("room", room).
		Int("population", h.directory.Population(room)).Msg("client joined room")
}

func (h *Hub) handleChat(c *Client, cmd *Command, kind store.Kind) {
	room := roomName(cmd.Room)
	logger := h.log.With().Str("client_id", c.ID).Str("type", cmd.Type).Str("room", room).Logger()

	id, ok := h.registry.Lookup(c.ID)
	if !ok {
		h.metrics.Dropped(metrics.DropNotJoined)
		logger.Warn().Str("code", ErrCodeNotInRoom).Msg("dropping message from channel that has not joined")
		return
	}

	payload := cmd.Content
	if kind == store.KindImage {
		payload = cmd.Data
	}
	if room == "" || payload == "" {
		h.metrics.Dropped(metrics.DropMissingField)
		logger.Warn().Str("code", ErrCodeBadRequest).Msg("dropping message with missing room or payload")
		return
	}

	if !h.directory.Exists(room) {
		h.metrics.Dropped(metrics.DropRoomNotFound)
		logger.Warn().Str("code", ErrCodeRoomNotFound).Msg("dropping message for room that does not exist")
		return
	}
	if id.Room != room {
		h.metrics.Dropped(metrics.DropNotJoined)
		logger.Warn().Str("code", ErrCodeNotInRoom).Str("current_room", id.Room).Msg("dropping message for room the sender is not in")
		return
	}

	// Recipients are fixed before any I/O.
	members := h.directory.Members(room)

	rec := store.Record{
		ID:            cmd.ID,
		Room:          room,
		Kind:          kind,
		Content:       cmd.Content,
		Sender:        id.Username,
		SenderProfile: id.Profile,
		Timestamp:     cmd.Timestamp,
	}
	if rec.ID == "" {
		rec.ID = h.newID()
	}
	if rec.Timestamp == "" {
		rec.Timestamp = utils.Timestamp(h.now())
	}

	if kind == store.KindImage {
		ctx, cancel := context.WithTimeout(context.Background(), h.opts.BlobTimeout)
		b, err := h.blobs.Save(ctx, cmd.Data, cmd.Filename)
		cancel()
		if err != nil {
			h.metrics.Dropped(metrics.DropBlobFailed)
			logger.Error().Err(err).Str("msg_id", rec.ID).Msg("failed to store image")
			h.send(c.ID, &Event{
				Kind:  EventError,
				Room:  room,
				Error: coreError(ErrCodeStorage, "failed to store image"),
			})
			return
		}
		rec.ImageRef = b.Ref
		rec.Content = imagePlaceholder(cmd.Filename)
		logger.Debug().Str("blob_key", b.Key).Int("size", b.Size).Msg("image stored")
	}

	if err := h.messages.Append(rec); err != nil {
		// Delivery still goes ahead; durability failures are server-side only.
		logger.Error().Err(err).Str("msg_id", rec.ID).Msg("failed to append message")
	}
	h.metrics.MessageAccepted(string(kind))

	ev := &Event{Kind: EventMessage, Room: rec.Room, Message: rec}
	for _, member := range members {
		if member == c.ID && !h.opts.EchoToSender {
			continue
		}
		h.send(member, ev)
	}
	logger.Debug().Str("msg_id", rec.ID).Int("recipients", len(members)).Msg("message fanned out")
}

func (h *Hub) handleLeave(c *Client, cmd *Command) {
	room := roomName(cmd.Room)
	id, ok := h.registry.Lookup(c.ID)
	if !ok {
		h.metrics.Dropped(metrics.DropNotJoined)
		h.log.Warn().Str("client_id", c.ID).Str("room", room).Str("code", ErrCodeNotInRoom).Msg("leave from channel that has not joined")
		return
	}
	if room == "" {
		h.metrics.Dropped(metrics.DropMissingField)
		h.log.Warn().Str("client_id", c.ID).Str("code", ErrCodeBadRequest).Msg("leave without room")
		return
	}
	if room != id.Room {
		h.metrics.Dropped(metrics.DropNotJoined)
		h.log.Warn().Str("client_id", c.ID).Str("room", room).Str("current_room", id.Room).Str("code", ErrCodeNotInRoom).Msg("leave for room the client is not in")
		return
	}

	h.directory.Leave(id.Room, c.ID)
	h.registry.Remove(c.ID)
	h.broadcastPresence(id.Room)

	h.metrics.SetRooms(h.directory.Len())
	h.log.Info().Str("client_id", c.ID).Str("user", id.Username).Str("room", id.Room).Msg("client left room")
}

func imagePlaceholder(filename string) string {
	if filename == "" {
		return "[image]"
	}
	return "[image] " + filename
}

// roomName normalizes a client-supplied room ID the same way for every envelope type.
func roomName(raw string) string {
	return strings.TrimSpace(raw)
}
