package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLog struct {
	mu       sync.Mutex
	records  []Record
	failIDs  map[string]bool
	inFlight int
	overlap  bool
	closed   bool
}

func (l *memLog) Load(context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out, nil
}

func (l *memLog) Append(_ context.Context, rec Record) error {
	l.mu.Lock()
	l.inFlight++
	if l.inFlight > 1 {
		l.overlap = true
	}
	l.mu.Unlock()

	time.Sleep(time.Millisecond)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.inFlight--
	if l.failIDs[rec.ID] {
		return errors.New("disk full")
	}
	l.records = append(l.records, rec)
	return nil
}

func (l *memLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func rec(id, room string) Record {
	return Record{ID: id, Room: room, Kind: KindText, Content: "c" + id, Sender: "s", Timestamp: "t"}
}

func TestOpenLoadsPersistedSequence(t *testing.T) {
	log := &memLog{records: []Record{rec("1", "a"), rec("2", "b"), rec("3", "a")}}

	m, err := Open(context.Background(), log, nopLogger())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []Record{rec("1", "a"), rec("3", "a")}, m.History("a"))
	assert.Equal(t, []Record{rec("2", "b")}, m.History("b"))
	assert.NotNil(t, m.History("missing"))
	assert.Empty(t, m.History("missing"))
}

func TestAppendIsVisibleImmediatelyAndPersistedInOrder(t *testing.T) {
	log := &memLog{}
	m, err := Open(context.Background(), log, nopLogger())
	require.NoError(t, err)

	var want []Record
	for i := 0; i < 50; i++ {
		r := rec(string(rune('A'+i)), "lobby")
		require.NoError(t, m.Append(r))
		want = append(want, r)
	}
	assert.Equal(t, want, m.History("lobby"))

	require.NoError(t, m.Flush(context.Background()))
	persisted, _ := log.Load(context.Background())
	assert.Equal(t, want, persisted)
	assert.False(t, log.overlap, "writes must never overlap")

	require.NoError(t, m.Close())
	assert.True(t, log.closed)
}

func TestCloseDrainsPendingWrites(t *testing.T) {
	log := &memLog{}
	m, err := Open(context.Background(), log, nopLogger())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, m.Append(rec(string(rune('a'+i)), "r")))
	}
	require.NoError(t, m.Close())

	persisted, _ := log.Load(context.Background())
	assert.Len(t, persisted, 10)

	assert.ErrorIs(t, m.Append(rec("late", "r")), ErrClosed)
	assert.ErrorIs(t, m.Flush(context.Background()), ErrClosed)
	assert.NoError(t, m.Close(), "second close is a no-op")
}

func TestPersistFailureKeepsMemoryAndReportsError(t *testing.T) {
	log := &memLog{failIDs: map[string]bool{"bad": true}}

	var (
		mu     sync.Mutex
		failed []string
	)
	m, err := Open(context.Background(), log, nopLogger(), WithErrorHandler(func(r Record, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, r.ID)
	}))
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Append(rec("ok1", "r")))
	require.NoError(t, m.Append(rec("bad", "r")))
	require.NoError(t, m.Append(rec("ok2", "r")))
	require.NoError(t, m.Flush(context.Background()))

	assert.Len(t, m.History("r"), 3)

	persisted, _ := log.Load(context.Background())
	assert.Equal(t, []Record{rec("ok1", "r"), rec("ok2", "r")}, persisted)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"bad"}, failed)
}

func TestFlushHonorsContext(t *testing.T) {
	m, err := Open(context.Background(), &memLog{}, nopLogger())
	require.NoError(t, err)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// either the writer acked first or the context won; both are valid
	err = m.Flush(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
