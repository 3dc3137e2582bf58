package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/world-forge/internal/forge"
	"github.com/jwebster45206/world-forge/internal/services/queue"
	"github.com/jwebster45206/world-forge/internal/storage"
	"github.com/jwebster45206/world-forge/pkg/entity"
	queuePkg "github.com/jwebster45206/world-forge/pkg/queue"
	"github.com/jwebster45206/world-forge/pkg/rules"
	"github.com/jwebster45206/world-forge/pkg/world"
)

const (
	workerTimeout = 5 * time.Second
)

// Generator runs the entity-creation pipeline for one request. Satisfied
// by *forge.Orchestrator.
type Generator interface {
	CreateEntity(ctx context.Context, requestID string, kind entity.Kind, prompt string, wctx world.Context, r *rules.WorldRules) (*forge.Result, error)
}

// Worker drains the generation queue, running the pipeline for each
// request and persisting the composed entity. Stage-level telemetry is
// published by the pipeline itself; the worker publishes nothing extra.
type Worker struct {
	id        string
	queue     *queue.GenerationQueue
	generator Generator
	store     storage.Storage
	rules     *rules.WorldRules
	ambient   world.Context
	log       *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a new worker instance
func New(genQueue *queue.GenerationQueue, generator Generator, store storage.Storage, r *rules.WorldRules, ambient world.Context, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:        workerID,
		queue:     genQueue,
		generator: generator,
		store:     store,
		rules:     r,
		ambient:   ambient,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	// Block waiting for next request (timeout after 5 seconds to check for shutdown)
	ctx, cancel := context.WithTimeout(w.ctx, workerTimeout)
	defer cancel()

	req, err := w.queue.BlockingDequeue(ctx, workerTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}

	if req == nil {
		// Queue is empty or timeout occurred - this is normal
		return nil
	}

	return w.ProcessRequest(w.ctx, req)
}

// ProcessRequest runs the pipeline for a single queued request and saves
// the composed entity.
func (w *Worker) ProcessRequest(ctx context.Context, req *queuePkg.Request) error {
	w.log.Info("Processing request",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"kind", req.Kind,
		"queued_ms", time.Since(req.EnqueuedAt).Milliseconds(),
	)

	wctx := w.ambient
	if req.Context != nil {
		wctx = *req.Context
	}

	result, err := w.generator.CreateEntity(ctx, req.RequestID, req.Kind, req.Prompt, wctx, w.rules)
	if err != nil {
		// The pipeline already published the failure event with its trace
		return fmt.Errorf("failed to generate entity: %w", err)
	}

	if err := w.store.SaveEntity(ctx, result.Entity); err != nil {
		w.log.Error("Failed to save generated entity",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"entity_id", result.Entity.ID,
			"error", err,
		)
		return fmt.Errorf("failed to save entity: %w", err)
	}

	w.log.Info("Request processed successfully",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"entity_id", result.Entity.ID,
		"total_ms", result.Timing.TotalMs,
	)
	return nil
}

// Ensure the orchestrator satisfies the Generator port
var _ Generator = (*forge.Orchestrator)(nil)
