package bolt

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/roomrelay/internal/store"
)

func TestAppendSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.bolt")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	// more than 255 entries so a little-endian or string key would sort wrong
	var want []store.Record
	for i := 0; i < 300; i++ {
		rec := store.Record{
			ID:        fmt.Sprintf("m%d", i),
			Room:      []string{"a", "b"}[i%2],
			Kind:      store.KindText,
			Content:   "x",
			Sender:    "u",
			Timestamp: "t",
		}
		want = append(want, rec)
		require.NoError(t, s.Append(ctx, rec))
	}
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
