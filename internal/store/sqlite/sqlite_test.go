package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/roomrelay/internal/store"
)

func TestAppendAndLoadInOrder(t *testing.T) {
	s, err := NewWithSetup(":memory:", migrate)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	empty, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	want := []store.Record{
		{ID: "1", Room: "lobby", Kind: store.KindText, Content: "hi", Sender: "alice", SenderProfile: json.RawMessage(`{"avatar":"a.png"}`), Timestamp: "t1"},
		{ID: "2", Room: "other", Kind: store.KindText, Content: "yo", Sender: "bob", Timestamp: "t2"},
		{ID: "3", Room: "lobby", Kind: store.KindImage, Content: "[image] pic.png", ImageRef: "/uploads/x.png", Sender: "alice", Timestamp: "t3"},
	}
	for _, rec := range want {
		require.NoError(t, s.Append(ctx, rec))
	}

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "messages.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, store.Record{ID: "a", Room: "r", Kind: store.KindText, Content: "one", Sender: "u", Timestamp: "t"}))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Nil(t, got[0].SenderProfile)
}

func TestNewWithSetupPropagatesError(t *testing.T) {
	_, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec("NOT SQL")
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup")
}
