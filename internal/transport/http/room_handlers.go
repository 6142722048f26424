package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomrelay/internal/core"
	"github.com/vovakirdan/roomrelay/internal/proto"
)

// RoomHandlers provides read-only HTTP handlers for rooms and their history.
type RoomHandlers struct {
	hub     Hub
	history HistoryReader
	log     *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub Hub, history HistoryReader, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub:     hub,
		history: history,
		log:     logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListRooms handles listing live rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.hub.Rooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "rooms unavailable"})
		return
	}
	if rooms == nil {
		rooms = []core.RoomInfo{}
	}

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, rooms)
}

// RoomHistory returns every stored message of a room, oldest first.
// The room does not need live members.
// GET /api/rooms/:room/history
func (h *RoomHandlers) RoomHistory(c *gin.Context) {
	room := c.Param("room")
	if room == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room is required"})
		return
	}

	c.JSON(http.StatusOK, proto.History{
		Type:     proto.OutboundTypeHistory,
		Room:     room,
		Messages: chatsFromRecords(h.history.History(room)),
	})
}
