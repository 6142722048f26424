package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomrelay/internal/blob"
	"github.com/vovakirdan/roomrelay/internal/metrics"
	"github.com/vovakirdan/roomrelay/internal/store"
	"github.com/vovakirdan/roomrelay/internal/utils"
)

const defaultBlobTimeout = 10 * time.Second

// MessageStore is the ordered message log the hub appends to and replays from.
type MessageStore interface {
	Append(rec store.Record) error
	History(room string) []store.Record
}

// BlobStore turns a base64 payload into a stored attachment.
type BlobStore interface {
	Save(ctx context.Context, encoded, filename string) (blob.Blob, error)
}

// Options tune hub behavior.
type Options struct {
	// EchoToSender delivers a sender's own message/image back to it.
	EchoToSender bool
	// DefaultRoom is used when a join omits the room.
	DefaultRoom string
	// BlobTimeout bounds a single attachment write. The write runs on the hub
	// goroutine, so every room waits while it is in flight; keep it short for
	// remote backends such as s3.
	BlobTimeout time.Duration
	Logger      *zerolog.Logger
	Metrics     *metrics.Metrics
}

// RoomInfo is a read-only view of a live room.
type RoomInfo struct {
	ID         string   `json:"id"`
	Population int      `json:"population"`
	Members    []string `json:"members"`
}

type inbound struct {
	client *Client
	cmd    *Command
}

// Hub is the single actor that owns the registry and the directory.
// Every command is processed to completion before the next one starts.
type Hub struct {
	opts     Options
	log      *zerolog.Logger
	metrics  *metrics.Metrics
	messages MessageStore
	blobs    BlobStore

	registry  *Registry
	directory *Directory
	clients   map[string]*Client

	register   chan *Client
	unregister chan *Client
	inbox      chan inbound
	queries    chan func()
	done       chan struct{}

	newID func() string
	now   func() time.Time
}

// NewHub creates a new chat hub instance.
func NewHub(messages MessageStore, blobs BlobStore, opts Options) *Hub {
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = "anonymous"
	}
	if opts.BlobTimeout <= 0 {
		opts.BlobTimeout = defaultBlobTimeout
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Hub{
		opts:       opts,
		log:        logger,
		metrics:    opts.Metrics,
		messages:   messages,
		blobs:      blobs,
		registry:   NewRegistry(),
		directory:  NewDirectory(),
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan inbound),
		queries:    make(chan func()),
		done:       make(chan struct{}),
		newID:      utils.NewID,
		now:        time.Now,
	}
}

// Run processes registrations, commands and disconnects until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.clients[c.ID] = c
			h.metrics.SetConnections(len(h.clients))
			h.log.Debug().Str("client_id", c.ID).Msg("client registered")
			go h.forward(c)
		case c := <-h.unregister:
			h.disconnect(c)
		case in := <-h.inbox:
			if _, ok := h.clients[in.client.ID]; !ok {
				// late command from a channel that already closed
				continue
			}
			h.dispatch(in.client, in.cmd)
		case query := <-h.queries:
			query()
		}
	}
}

// RegisterClient attaches a freshly opened channel.
func (h *Hub) RegisterClient(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// UnregisterClient reports that a channel closed. Safe to call more than once.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Rooms returns a snapshot of live rooms, taken inside the hub goroutine.
func (h *Hub) Rooms(ctx context.Context) ([]RoomInfo, error) {
	reply := make(chan []RoomInfo, 1)
	query := func() {
		ids := h.directory.Rooms()
		infos := make([]RoomInfo, 0, len(ids))
		for _, id := range ids {
			infos = append(infos, RoomInfo{
				ID:         id,
				Population: h.directory.Population(id),
				Members:    h.memberNames(id),
			})
		}
		reply <- infos
	}

	select {
	case h.queries <- query:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case infos := <-reply:
		return infos, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// forward pumps one client's commands into the shared inbox, preserving their order.
func (h *Hub) forward(c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.inbox <- inbound{client: c, cmd: cmd}:
			case <-c.quit:
				return
			case <-h.done:
				return
			}
		case <-c.quit:
			return
		case <-h.done:
			return
		}
	}
}

// disconnect is an implicit leave followed by forgetting the channel.
func (h *Hub) disconnect(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	close(c.quit)
	close(c.Events)

	id, ok := h.registry.Lookup(c.ID)
	h.registry.Remove(c.ID)
	if ok && id.Room != "" {
		if h.directory.Leave(id.Room, c.ID) {
			h.broadcastPresence(id.Room)
		}
	}

	h.metrics.SetConnections(len(h.clients))
	h.metrics.SetRooms(h.directory.Len())
	h.log.Info().Str("client_id", c.ID).Str("user", id.Username).Str("room", id.Room).Msg("client disconnected")
}

func (h *Hub) shutdown() {
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.quit)
		close(c.Events)
	}
	h.metrics.SetConnections(0)
	h.log.Info().Msg("hub stopped")
}

// send delivers ev to one client without blocking; slow consumers lose the event.
func (h *Hub) send(clientID string, ev *Event) {
	c, ok := h.clients[clientID]
	if !ok {
		return
	}
	select {
	case c.Events <- ev:
	default:
		h.metrics.Dropped(metrics.DropSlowConsumer)
		h.log.Warn().Str("client_id", clientID).Msg("event buffer full, dropping event")
	}
}

func (h *Hub) fanout(members []string, ev *Event) {
	for _, clientID := range members {
		h.send(clientID, ev)
	}
}
