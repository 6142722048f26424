package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.SetConnections(3)
	m.SetRooms(2)
	m.MessageAccepted("text")
	m.MessageAccepted("text")
	m.MessageAccepted("image")
	m.Dropped(DropNotJoined)
	m.PersistFailed()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.connections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rooms))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messages.WithLabelValues("text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped.WithLabelValues(DropNotJoined)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `roomrelay_messages_total{kind="image"} 1`))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetConnections(1)
		m.SetRooms(1)
		m.MessageAccepted("text")
		m.Dropped(DropMalformed)
		m.PersistFailed()
	})
}
