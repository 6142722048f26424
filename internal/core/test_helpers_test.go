package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/roomrelay/internal/blob"
	"github.com/vovakirdan/roomrelay/internal/store"
)

type fakeMessages struct {
	mu      sync.Mutex
	records []store.Record
	fail    bool
}

func (f *fakeMessages) Append(rec store.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("log unavailable")
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeMessages) History(room string) []store.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Record, 0)
	for _, rec := range f.records {
		if rec.Room == room {
			out = append(out, rec)
		}
	}
	return out
}

func (f *fakeMessages) all() []store.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Record, len(f.records))
	copy(out, f.records)
	return out
}

type fakeBlobs struct {
	mu    sync.Mutex
	calls int
	fail  bool
	// block makes Save wait for its context to expire.
	block bool
}

func (f *fakeBlobs) Save(ctx context.Context, _, filename string) (blob.Blob, error) {
	f.mu.Lock()
	f.calls++
	block, fail := f.block, f.fail
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return blob.Blob{}, ctx.Err()
	}
	if fail {
		return blob.Blob{}, errors.New("disk full")
	}
	return blob.Blob{Key: "k.png", Ref: "/uploads/k.png", ContentType: "image/png", Size: 3}, nil
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func startHub(t *testing.T, opts Options, msgs *fakeMessages, blobs *fakeBlobs) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(msgs, blobs, opts)
	go hub.Run(ctx)
	return hub
}

func connect(t *testing.T, hub *Hub) *Client {
	t.Helper()
	c := NewClient()
	if err := hub.RegisterClient(c); err != nil {
		t.Fatalf("register client: %v", err)
	}
	return c
}

func join(t *testing.T, hub *Hub, user, room string) *Client {
	t.Helper()
	c := connect(t, hub)
	c.Commands <- &Command{Kind: CommandJoin, Type: "join", User: user, Room: room}
	mustEvent(t, c.Events, EventHistory)
	return c
}

// barrier returns once every command c sent before it has been processed.
func barrier(t *testing.T, c *Client) {
	t.Helper()
	c.Commands <- &Command{Kind: CommandUnknown, Type: "barrier"}
	mustEventMatching(t, c.Events, func(ev *Event) bool {
		return ev.Kind == EventError && ev.Error != nil && ev.Error.Code == ErrCodeUnknownType
	})
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()
	return mustEventMatching(t, ch, func(ev *Event) bool { return ev.Kind == kind })
}

func mustEventMatching(t *testing.T, ch <-chan *Event, match func(*Event) bool) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if match(ev) {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event not received")
	return nil
}

// noEvent drains whatever is queued and fails if an event of kind is among it.
func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	time.Sleep(50 * time.Millisecond)
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			return
		}
	}
}
