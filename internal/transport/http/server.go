package http

import (
	"context"
	stdhttp "net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomrelay/internal/config"
	"github.com/vovakirdan/roomrelay/internal/core"
	"github.com/vovakirdan/roomrelay/internal/metrics"
	"github.com/vovakirdan/roomrelay/internal/store"
)

// Hub is the part of the core the transport talks to.
type Hub interface {
	RegisterClient(c *core.Client) error
	UnregisterClient(c *core.Client)
	Rooms(ctx context.Context) ([]core.RoomInfo, error)
}

// HistoryReader exposes stored messages of a room in append order.
type HistoryReader interface {
	History(room string) []store.Record
}

// NewServer builds an HTTP server with the websocket bridge, REST API and static uploads.
func NewServer(hub Hub, history HistoryReader, cfg *config.Config, m *metrics.Metrics, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, WSOptions{
		MaxMessageBytes:    cfg.MaxMessageBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Metrics:            m,
	}, logger)))

	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	roomHandlers := NewRoomHandlers(hub, history, logger)
	api := router.Group("/api")
	{
		api.GET("/rooms", roomHandlers.ListRooms)
		api.GET("/rooms/:room/history", roomHandlers.RoomHistory)
	}

	// Attachments written by the local driver are served from the same origin.
	if cfg.Blobs.Driver == config.BlobsLocal && strings.HasPrefix(cfg.Blobs.URLPrefix, "/") {
		router.Static(strings.TrimRight(cfg.Blobs.URLPrefix, "/"), cfg.Blobs.Dir)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
