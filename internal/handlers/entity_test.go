package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-forge/internal/forge"
	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/internal/storage"
	"github.com/jwebster45206/world-forge/pkg/entity"
	"github.com/jwebster45206/world-forge/pkg/rules"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

const daggerDraft = `{
	"id": "pending",
	"name": "Rusty Dagger",
	"rarity": "common",
	"description": "A pitted blade that has seen better days.",
	"category": "weapon"
}`

// draftOrAttributes routes structured completions to the draft or the
// attribute payload based on the requested schema.
func draftOrAttributes(draftPayload, attrPayload string) func(ctx context.Context, prompt string, schema map[string]interface{}) (json.RawMessage, error) {
	return func(ctx context.Context, prompt string, schema map[string]interface{}) (json.RawMessage, error) {
		if props, ok := schema["properties"].(map[string]interface{}); ok {
			if _, isAttributeCall := props["attributes"]; isAttributeCall {
				return json.RawMessage(attrPayload), nil
			}
		}
		return json.RawMessage(draftPayload), nil
	}
}

func newEntityHandler(t *testing.T, mock *services.MockGenAI, store storage.Storage) *EntityHandler {
	t.Helper()
	orchestrator, err := forge.NewOrchestrator(mock, forge.NewMemoryCounterStore(), nil, 0, testLogger())
	require.NoError(t, err)
	return NewEntityHandler(orchestrator, store, rules.Default(), testLogger())
}

func TestEntityHandler_Create(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.CompleteStructuredFunc = draftOrAttributes(daggerDraft, `{"attributes": {}}`)
	store := storage.NewMockStorage()
	handler := newEntityHandler(t, mock, store)

	body := `{"kind": "item", "prompt": "a rusty dagger"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/entities", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var result forge.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "wea_rusty_dagger_001", result.Entity.ID)
	assert.NotEmpty(t, result.RequestID)
	assert.Len(t, result.Trace, 5)

	// Entity was persisted
	saved, err := store.GetEntity(context.Background(), result.Entity.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rusty Dagger", saved.Name)
}

func TestEntityHandler_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid kind", `{"kind": "monster", "prompt": "a dragon"}`},
		{"missing prompt", `{"kind": "item"}`},
		{"not json", `a rusty dagger`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newEntityHandler(t, services.NewMockGenAI(), storage.NewMockStorage())

			req := httptest.NewRequest(http.MethodPost, "/v1/entities", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestEntityHandler_CreateUpstreamFailure(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.CompleteStructuredFunc = draftOrAttributes(daggerDraft, `{"attributes": {}}`)
	mock.SetGenerateImageError(errors.New("image vendor down"))
	store := storage.NewMockStorage()
	handler := newEntityHandler(t, mock, store)

	body := `{"kind": "item", "prompt": "a rusty dagger"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/entities", strings.NewReader(body))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, forge.StageImage, resp.Stage)
	assert.Len(t, resp.Trace, 5, "trace from completed stages is surfaced")

	// Nothing persisted on failure
	ids, _ := store.ListEntityIDs(context.Background())
	assert.Empty(t, ids)
}

func TestEntityHandler_Read(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SaveEntity(context.Background(), &entity.GeneratedEntity{
		ID:   "wea_rusty_dagger_001",
		Name: "Rusty Dagger",
	}))
	handler := newEntityHandler(t, services.NewMockGenAI(), store)

	req := httptest.NewRequest(http.MethodGet, "/v1/entities/wea_rusty_dagger_001", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var ent entity.GeneratedEntity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ent))
	assert.Equal(t, "Rusty Dagger", ent.Name)
}

func TestEntityHandler_ReadNotFound(t *testing.T) {
	handler := newEntityHandler(t, services.NewMockGenAI(), storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodGet, "/v1/entities/wea_missing_001", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEntityHandler_List(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SaveEntity(context.Background(), &entity.GeneratedEntity{ID: "wea_a_001"}))
	require.NoError(t, store.SaveEntity(context.Background(), &entity.GeneratedEntity{ID: "npc_b_001"}))
	handler := newEntityHandler(t, services.NewMockGenAI(), store)

	req := httptest.NewRequest(http.MethodGet, "/v1/entities", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp ListEntitiesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"wea_a_001", "npc_b_001"}, resp.IDs)
}

func TestEntityHandler_Delete(t *testing.T) {
	store := storage.NewMockStorage()
	require.NoError(t, store.SaveEntity(context.Background(), &entity.GeneratedEntity{ID: "wea_a_001"}))
	handler := newEntityHandler(t, services.NewMockGenAI(), store)

	req := httptest.NewRequest(http.MethodDelete, "/v1/entities/wea_a_001", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/entities/wea_a_001", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEntityHandler_MethodNotAllowed(t *testing.T) {
	handler := newEntityHandler(t, services.NewMockGenAI(), storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodPatch, "/v1/entities", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
