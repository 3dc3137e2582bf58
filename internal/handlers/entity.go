package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/world-forge/internal/forge"
	"github.com/jwebster45206/world-forge/internal/storage"
	"github.com/jwebster45206/world-forge/pkg/entity"
	"github.com/jwebster45206/world-forge/pkg/rules"
	"github.com/jwebster45206/world-forge/pkg/world"
)

type ErrorResponse struct {
	Error string            `json:"error"`
	Stage string            `json:"stage,omitempty"`
	Trace []forge.StageDiag `json:"trace,omitempty"`
}

// CreateEntityRequest defines the request body for synchronous entity creation
type CreateEntityRequest struct {
	Kind    entity.Kind    `json:"kind"`
	Prompt  string         `json:"prompt"`
	Context *world.Context `json:"context,omitempty"`
}

// ListEntitiesResponse wraps the id listing
type ListEntitiesResponse struct {
	IDs []string `json:"ids"`
}

// EntityHandler serves synchronous entity generation and entity lookup.
type EntityHandler struct {
	orchestrator *forge.Orchestrator
	storage      storage.Storage
	rules        *rules.WorldRules
	logger       *slog.Logger
}

func NewEntityHandler(orchestrator *forge.Orchestrator, storage storage.Storage, r *rules.WorldRules, logger *slog.Logger) *EntityHandler {
	return &EntityHandler{
		orchestrator: orchestrator,
		storage:      storage,
		rules:        r,
		logger:       logger,
	}
}

// ServeHTTP handles HTTP requests for entity operations
// Routes:
// POST /v1/entities       - Generate an entity synchronously
// GET /v1/entities        - List stored entity ids
// GET /v1/entities/{id}   - Read entity by id
func (h *EntityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/v1/entities")
	entityID := strings.Trim(path, "/")

	switch r.Method {
	case http.MethodPost:
		if entityID != "" {
			h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "POST does not take an entity id"})
			return
		}
		h.handleCreate(w, r)

	case http.MethodGet:
		if entityID == "" {
			h.handleList(w, r)
			return
		}
		h.handleRead(w, r, entityID)

	case http.MethodDelete:
		if entityID == "" {
			h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "Entity id is required for DELETE requests"})
			return
		}
		h.handleDelete(w, r, entityID)

	default:
		h.logger.Warn("Method not allowed for entities endpoint", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error: "Method not allowed. Supported methods: POST, GET, DELETE",
		})
	}
}

func (h *EntityHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON in request body"})
		return
	}

	if !req.Kind.Valid() {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "kind must be one of: item, npc, location"})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		h.writeError(w, http.StatusBadRequest, ErrorResponse{Error: "prompt field is required"})
		return
	}

	wctx := world.Context{}
	if req.Context != nil {
		wctx = *req.Context
	}

	result, err := h.orchestrator.CreateEntity(r.Context(), "", req.Kind, req.Prompt, wctx, h.rules)
	if err != nil {
		var createErr *forge.CreateError
		if errors.As(err, &createErr) {
			// Upstream generation failed: surface the stage and the full
			// diagnostic trace so callers can see how far the pipeline got
			h.writeError(w, http.StatusBadGateway, ErrorResponse{
				Error: createErr.Err.Error(),
				Stage: createErr.Stage,
				Trace: createErr.Trace,
			})
			return
		}
		h.logger.Error("Failed to create entity", "error", err)
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to create entity"})
		return
	}

	if err := h.storage.SaveEntity(r.Context(), result.Entity); err != nil {
		h.logger.Error("Failed to save entity", "error", err, "entity_id", result.Entity.ID)
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to save entity"})
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("Failed to encode entity response", "error", err)
	}
}

func (h *EntityHandler) handleRead(w http.ResponseWriter, r *http.Request, entityID string) {
	ent, err := h.storage.GetEntity(r.Context(), entityID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, ErrorResponse{Error: "Entity not found"})
			return
		}
		h.logger.Error("Failed to load entity", "error", err, "entity_id", entityID)
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to load entity"})
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ent); err != nil {
		h.logger.Error("Failed to encode entity response", "error", err)
	}
}

func (h *EntityHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.storage.ListEntityIDs(r.Context())
	if err != nil {
		h.logger.Error("Failed to list entities", "error", err)
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to list entities"})
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ListEntitiesResponse{IDs: ids}); err != nil {
		h.logger.Error("Failed to encode list response", "error", err)
	}
}

func (h *EntityHandler) handleDelete(w http.ResponseWriter, r *http.Request, entityID string) {
	if err := h.storage.DeleteEntity(r.Context(), entityID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, ErrorResponse{Error: "Entity not found"})
			return
		}
		h.logger.Error("Failed to delete entity", "error", err, "entity_id", entityID)
		h.writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete entity"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EntityHandler) writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
