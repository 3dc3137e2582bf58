package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	queueService "github.com/jwebster45206/world-forge/internal/services/queue"
	"github.com/jwebster45206/world-forge/pkg/queue"
)

// GenerateResponse acknowledges an accepted generation request. The
// request id is the key for the SSE event stream and later lookup.
type GenerateResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// GenerateHandler accepts asynchronous generation requests and enqueues
// them for the worker.
type GenerateHandler struct {
	queue  *queueService.GenerationQueue
	logger *slog.Logger
}

func NewGenerateHandler(q *queueService.GenerationQueue, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		queue:  q,
		logger: logger,
	}
}

// ServeHTTP handles POST /v1/generate
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for generate endpoint", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req CreateEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if !req.Kind.Valid() {
		h.writeError(w, http.StatusBadRequest, "kind must be one of: item, npc, location")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		h.writeError(w, http.StatusBadRequest, "prompt field is required")
		return
	}

	queued := &queue.Request{
		RequestID:  uuid.New().String(),
		Kind:       req.Kind,
		Prompt:     req.Prompt,
		Context:    req.Context,
		EnqueuedAt: time.Now(),
	}

	if err := h.queue.Enqueue(r.Context(), queued); err != nil {
		h.logger.Error("Failed to enqueue generation request", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to enqueue request")
		return
	}

	h.logger.Info("Generation request enqueued",
		"request_id", queued.RequestID,
		"kind", queued.Kind)

	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(GenerateResponse{
		RequestID: queued.RequestID,
		Status:    "queued",
	}); err != nil {
		h.logger.Error("Failed to encode generate response", "error", err)
	}
}

func (h *GenerateHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
