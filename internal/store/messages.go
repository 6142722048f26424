package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrClosed is returned when appending to a store that has been closed.
var ErrClosed = errors.New("message store closed")

// Option customizes a Messages store.
type Option func(*Messages)

// WithErrorHandler registers a callback invoked for every record that failed to persist.
func WithErrorHandler(fn func(Record, error)) Option {
	return func(m *Messages) {
		m.onError = fn
	}
}

type job struct {
	rec *Record
	ack chan struct{}
}

// Messages is the ordered log of all accepted records across rooms.
// The in-memory sequence is updated synchronously by Append; durable writes
// are queued and drained by a single writer goroutine in acceptance order.
type Messages struct {
	log     Log
	logger  *zerolog.Logger
	onError func(Record, error)

	mu      sync.RWMutex
	records []Record
	pending []job
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// Open loads the persisted sequence into memory and starts the writer.
func Open(ctx context.Context, l Log, logger *zerolog.Logger, opts ...Option) (*Messages, error) {
	records, err := l.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	m := &Messages{
		log:     l,
		logger:  logger,
		records: records,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.writeLoop()

	logger.Info().Int("records", len(records)).Msg("history loaded")
	return m, nil
}

// Append adds rec to the in-memory sequence and queues it for persistence.
// The record is visible to History as soon as Append returns.
func (m *Messages) Append(rec Record) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.records = append(m.records, rec)
	m.pending = append(m.pending, job{rec: &rec})
	m.mu.Unlock()

	m.signal()
	return nil
}

// History returns all records for room in append order.
func (m *Messages) History(room string) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range m.records {
		if rec.Room == room {
			out = append(out, rec)
		}
	}
	return out
}

// Len reports the total number of records across all rooms.
func (m *Messages) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Flush blocks until every record appended before the call has been handed to the log.
func (m *Messages) Flush(ctx context.Context) error {
	ack := make(chan struct{})

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.pending = append(m.pending, job{ack: ack})
	m.mu.Unlock()
	m.signal()

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains queued writes and closes the durable log.
func (m *Messages) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.signal()
	<-m.done

	return m.log.Close()
}

func (m *Messages) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Messages) writeLoop() {
	defer close(m.done)

	for {
		m.mu.Lock()
		batch := m.pending
		m.pending = nil
		closed := m.closed
		m.mu.Unlock()

		for _, j := range batch {
			if j.rec != nil {
				m.persist(*j.rec)
			}
			if j.ack != nil {
				close(j.ack)
			}
		}

		if len(batch) == 0 {
			if closed {
				return
			}
			<-m.wake
		}
	}
}

func (m *Messages) persist(rec Record) {
	if err := m.log.Append(context.Background(), rec); err != nil {
		m.logger.Error().Err(err).Str("msg_id", rec.ID).Str("room", rec.Room).Msg("persist message")
		if m.onError != nil {
			m.onError(rec, err)
		}
	}
}
