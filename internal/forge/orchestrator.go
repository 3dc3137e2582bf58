package forge

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/internal/services/events"
	"github.com/jwebster45206/world-forge/pkg/chat"
	"github.com/jwebster45206/world-forge/pkg/entity"
	"github.com/jwebster45206/world-forge/pkg/rules"
	"github.com/jwebster45206/world-forge/pkg/textfilter"
	"github.com/jwebster45206/world-forge/pkg/world"
)

// Result is the composed output of one entity-creation request.
type Result struct {
	RequestID     string                            `json:"request_id"`
	Entity        *entity.GeneratedEntity           `json:"entity"`
	NewAttributes map[string]entity.AttributeRecord `json:"new_attributes,omitempty"`
	Timing        Timing                            `json:"timing"`
	Trace         []StageDiag                       `json:"trace"`
}

// Orchestrator sequences the five generation stages. Each request runs
// strictly sequentially; concurrent requests are independent except for
// the shared counter store, whose increments are atomic per key.
type Orchestrator struct {
	contextSynth *ContextSynthesizer
	drafter      *EntityDrafter
	allocator    *IdentityAllocator
	reconciler   *AttributeReconciler
	imageSynth   *ImageSynthesizer
	publisher    events.Publisher
	filter       *textfilter.PromptFilter
	stageTimeout time.Duration
	logger       *slog.Logger
}

// NewOrchestrator wires the five stages around a vendor service and a
// counter store. stageTimeout bounds each network-bound stage; zero
// disables the per-stage bound. publisher may be nil.
func NewOrchestrator(genai services.GenAIService, counters CounterStore, publisher events.Publisher, stageTimeout time.Duration, logger *slog.Logger) (*Orchestrator, error) {
	drafter, err := NewEntityDrafter(genai, logger)
	if err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	return &Orchestrator{
		contextSynth: NewContextSynthesizer(genai, logger),
		drafter:      drafter,
		allocator:    NewIdentityAllocator(counters),
		reconciler:   NewAttributeReconciler(genai, logger),
		imageSynth:   NewImageSynthesizer(genai, logger),
		publisher:    publisher,
		filter:       textfilter.NewPromptFilter(),
		stageTimeout: stageTimeout,
		logger:       logger,
	}, nil
}

// ResetCounters clears all id counters; the next allocation for any
// (kind, category) key restarts at 1.
func (o *Orchestrator) ResetCounters(ctx context.Context) error {
	return o.allocator.Reset(ctx)
}

func (o *Orchestrator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.stageTimeout)
}

// CreateEntity runs one full generation pipeline:
// context (degradable) -> draft (fatal) -> identity -> attributes
// (degradable) -> image (fatal) -> compose. A fatal stage failure aborts
// composition and returns a CreateError carrying the trace accumulated so
// far; no partial entity is ever returned.
func (o *Orchestrator) CreateEntity(ctx context.Context, requestID string, kind entity.Kind, prompt string, wctx world.Context, r *rules.WorldRules) (*Result, error) {
	if requestID == "" {
		requestID = uuid.New().String()
	}
	if r == nil {
		r = rules.Default()
	}
	if textfilter.ShouldFilter(r.ContentRating) {
		prompt = o.filter.Sanitize(prompt)
	}

	log := o.logger.With("request_id", requestID, "kind", kind)
	start := time.Now()
	trace := make([]StageDiag, 0, 5)

	fail := func(stage string, err error) (*Result, error) {
		o.publisher.PublishResult(ctx, requestID, events.EventTypeEntityFailed, map[string]interface{}{
			"stage": stage,
			"error": err.Error(),
		})
		log.Error("Entity creation failed", "stage", stage, "error", err)
		return nil, &CreateError{Stage: stage, Trace: trace, Err: err}
	}

	// Stage 1: context synthesis (never fatal)
	o.publisher.PublishStage(ctx, requestID, events.EventTypeStageStarted, StageContext, nil)
	cctx, cancel := o.stageContext(ctx)
	summary, diag := o.contextSynth.Synthesize(cctx, wctx, r)
	cancel()
	trace = append(trace, diag)
	o.publishStageDone(ctx, requestID, diag)

	// Stage 2: entity draft (fatal)
	o.publisher.PublishStage(ctx, requestID, events.EventTypeStageStarted, StageDraft, nil)
	cctx, cancel = o.stageContext(ctx)
	draft, diag, err := o.drafter.Draft(cctx, kind, prompt, summary, r)
	cancel()
	trace = append(trace, diag)
	o.publishStageDone(ctx, requestID, diag)
	if err != nil {
		return fail(StageDraft, err)
	}

	// Stage 3: identity allocation
	id, err := o.allocator.NextID(ctx, kind, draft.Category, draft.Name)
	if err != nil {
		trace = append(trace, fatalDiag(StageIdentity, 0, err))
		return fail(StageIdentity, err)
	}
	trace = append(trace, okDiag(StageIdentity, 0))

	// Stage 4: attribute reconciliation (never fatal)
	o.publisher.PublishStage(ctx, requestID, events.EventTypeStageStarted, StageAttributes, nil)
	cctx, cancel = o.stageContext(ctx)
	attributes, newAttributes, diag := o.reconciler.Generate(cctx, draft, summary, r)
	cancel()
	trace = append(trace, diag)
	o.publishStageDone(ctx, requestID, diag)

	// Stage 5: image synthesis (fatal)
	o.publisher.PublishStage(ctx, requestID, events.EventTypeStageStarted, StageImage, nil)
	cctx, cancel = o.stageContext(ctx)
	image, diag, err := o.imageSynth.Generate(cctx, draft, r.ArtStyle)
	cancel()
	trace = append(trace, diag)
	o.publishStageDone(ctx, requestID, diag)
	if err != nil {
		return fail(StageImage, err)
	}

	result := &Result{
		RequestID:     requestID,
		Entity:        o.compose(id, kind, draft, attributes, image, wctx),
		NewAttributes: newAttributes,
		Trace:         trace,
	}
	result.Timing = timingFromTrace(trace, time.Since(start).Milliseconds())

	o.publisher.PublishResult(ctx, requestID, events.EventTypeEntityCreated, map[string]interface{}{
		"entity_id": result.Entity.ID,
		"name":      result.Entity.Name,
	})
	log.Info("Entity created",
		"entity_id", result.Entity.ID,
		"name", result.Entity.Name,
		"new_attributes", len(newAttributes),
		"total_ms", result.Timing.TotalMs)

	return result, nil
}

// compose merges the stage outputs into the final entity, applying
// structural defaults: origin coordinates, the context's region, and
// kind-specific fields.
func (o *Orchestrator) compose(id string, kind entity.Kind, draft *entity.Draft, attributes map[string]entity.AttributeRecord, image []byte, wctx world.Context) *entity.GeneratedEntity {
	ent := &entity.GeneratedEntity{
		ID:            id,
		Kind:          kind,
		Name:          draft.Name,
		Rarity:        draft.Rarity,
		Description:   draft.Description,
		Category:      draft.Category,
		OwnAttributes: attributes,
		ImageURL:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
		X:             0,
		Y:             0,
		Region:        wctx.CurrentRegion.Name,
		CreatedAt:     time.Now().UTC(),
	}

	if kind == entity.KindNPC {
		ent.Purpose = draft.Purpose
		ent.ChatHistory = []chat.ChatMessage{}
	}

	return ent
}

func (o *Orchestrator) publishStageDone(ctx context.Context, requestID string, diag StageDiag) {
	eventType := events.EventTypeStageCompleted
	if diag.Outcome == OutcomeDegraded {
		eventType = events.EventTypeStageDegraded
	}
	data := map[string]interface{}{"elapsed_ms": diag.ElapsedMs}
	if diag.Error != "" {
		data["error"] = diag.Error
	}
	o.publisher.PublishStage(ctx, requestID, eventType, diag.Stage, data)
}

func timingFromTrace(trace []StageDiag, totalMs int64) Timing {
	t := Timing{TotalMs: totalMs}
	for _, diag := range trace {
		switch diag.Stage {
		case StageContext:
			t.ContextMs = diag.ElapsedMs
		case StageDraft:
			t.DraftMs = diag.ElapsedMs
		case StageAttributes:
			t.AttributesMs = diag.ElapsedMs
		case StageImage:
			t.ImageMs = diag.ElapsedMs
		}
	}
	return t
}
