package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomrelay/internal/core"
	"github.com/vovakirdan/roomrelay/internal/metrics"
	"github.com/vovakirdan/roomrelay/internal/proto"
)

// WSOptions tune a websocket channel.
type WSOptions struct {
	// MaxMessageBytes caps a single inbound frame; larger frames close the channel.
	MaxMessageBytes    int64
	RateLimitPerMinute int
	Metrics            *metrics.Metrics
}

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub  Hub
	opts WSOptions
	log  *zerolog.Logger
}

// closeRequest is returned by the write loop when the core asks to close the channel.
type closeRequest struct {
	reason string
}

func (c *closeRequest) Error() string {
	return "close requested: " + c.reason
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub Hub, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, opts: opts, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.opts.MaxMessageBytes)
	}

	client := core.NewClient()
	if err := h.hub.RegisterClient(client); err != nil {
		h.log.Warn().Err(err).Msg("hub unavailable, rejecting channel")
		conn.Close(websocket.StatusTryAgainLater, "server shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)

	logger := h.log.With().Str("client_id", client.ID).Logger()
	logger.Debug().Str("remote", r.RemoteAddr).Msg("channel opened")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.opts.RateLimitPerMinute)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, limiter, &logger)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client, &logger)
	}()

	err = <-errCh

	var closeReq *closeRequest
	if errors.As(err, &closeReq) {
		conn.Close(websocket.StatusPolicyViolation, closeReq.reason)
		cancel()
		<-errCh
		return
	}

	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, limiter *rateLimiter, logger *zerolog.Logger) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			h.opts.Metrics.Dropped(metrics.DropRateLimited)
			logger.Warn().Msg("rate limit exceeded")
			if err := wsjson.Write(ctx, conn, proto.NewError(proto.CodeRateLimited, "rate limit exceeded")); err != nil {
				return err
			}
			continue
		}

		var inbound proto.Inbound
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.opts.Metrics.Dropped(metrics.DropMalformed)
			logger.Warn().Err(err).Msg("malformed inbound envelope")
			if err := wsjson.Write(ctx, conn, proto.NewError(proto.CodeMalformed, "malformed JSON envelope")); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- inboundToCommand(inbound):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, logger *zerolog.Logger) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if event.Kind == core.EventClose {
				reason := "closed by server"
				if event.Error != nil {
					reason = event.Error.Message
				}
				return &closeRequest{reason: reason}
			}
			out := outboundFromEvent(event)
			if out == nil {
				continue
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				logger.Error().Err(err).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
