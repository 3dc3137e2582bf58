package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-forge/internal/services/events"
)

type sseFrame struct {
	event string
	data  map[string]interface{}
}

// readFrame reads lines from the stream until one complete SSE frame has
// been assembled.
func readFrame(t *testing.T, r *bufio.Reader) sseFrame {
	t.Helper()
	var frame sseFrame
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, "event: "):
			frame.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame.data))
		case line == "" && frame.event != "":
			return frame
		}
	}
}

func setupEventsHandler(t *testing.T) (*EventsHandler, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return NewEventsHandler(client, testLogger()), client
}

func TestEventsHandler_RelaysStageEvents(t *testing.T) {
	handler, client := setupEventsHandler(t)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/v1/events/requests/req-42")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// Handshake confirms the subscription is live before publishing
	connected := readFrame(t, reader)
	assert.Equal(t, "connected", connected.event)
	assert.Equal(t, "req-42", connected.data["request_id"])

	ctx := context.Background()
	broadcaster := events.NewBroadcaster(client, testLogger())
	broadcaster.PublishStage(ctx, "req-42", events.EventTypeStageDegraded, "attributes", map[string]interface{}{
		"elapsed_ms": 5,
		"error":      "vendor down",
	})
	broadcaster.PublishResult(ctx, "req-42", events.EventTypeEntityCreated, map[string]interface{}{
		"entity_id": "wea_rusty_dagger_001",
	})

	degraded := readFrame(t, reader)
	assert.Equal(t, "stage.degraded", degraded.event)
	assert.Equal(t, "attributes", degraded.data["stage"])
	assert.Equal(t, "vendor down", degraded.data["error"])

	created := readFrame(t, reader)
	assert.Equal(t, "entity.created", created.event)
	assert.Equal(t, "wea_rusty_dagger_001", created.data["entity_id"])

	// Terminal event ends the stream
	_, err = reader.ReadString('\n')
	assert.Error(t, err)
}

func TestEventsHandler_MethodNotAllowed(t *testing.T) {
	handler, _ := setupEventsHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/events/requests/req-1", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestEventsHandler_InvalidPath(t *testing.T) {
	handler, _ := setupEventsHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/events/requests/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
