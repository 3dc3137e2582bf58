package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/pkg/entity"
	"github.com/jwebster45206/world-forge/pkg/prompts"
	"github.com/jwebster45206/world-forge/pkg/rules"
)

// draftSchema returns the fixed JSON schema for a kind's base entity
// draft. The same schema is sent to the vendor as the response format and
// compiled locally to validate what comes back.
func draftSchema(kind entity.Kind) map[string]interface{} {
	properties := map[string]interface{}{
		"id":   map[string]interface{}{"type": "string"},
		"name": map[string]interface{}{"type": "string", "minLength": 1},
		"rarity": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"common", "rare", "epic", "legendary"},
		},
		"description": map[string]interface{}{"type": "string", "minLength": 1},
		"category":    map[string]interface{}{"type": "string", "minLength": 1},
	}
	required := []interface{}{"id", "name", "rarity", "description"}

	switch kind {
	case entity.KindNPC:
		// Category is inferred when the model omits it; purpose is the
		// NPC's role or agenda in the world.
		properties["purpose"] = map[string]interface{}{"type": "string"}
		required = append(required, "purpose")
	default:
		required = append(required, "category")
	}

	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           properties,
		"required":             required,
	}
}

// EntityDrafter requests the base entity fields against a fixed schema.
// This stage is fatal: a transport error or a response that fails schema
// validation aborts the pipeline with no partial entity.
type EntityDrafter struct {
	genai    services.GenAIService
	schemas  map[entity.Kind]map[string]interface{}
	compiled map[entity.Kind]*jsonschema.Schema
	logger   *slog.Logger
}

func NewEntityDrafter(genai services.GenAIService, logger *slog.Logger) (*EntityDrafter, error) {
	d := &EntityDrafter{
		genai:    genai,
		schemas:  make(map[entity.Kind]map[string]interface{}),
		compiled: make(map[entity.Kind]*jsonschema.Schema),
		logger:   logger,
	}

	for _, kind := range []entity.Kind{entity.KindItem, entity.KindNPC, entity.KindLocation} {
		schema := draftSchema(kind)
		d.schemas[kind] = schema

		raw, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s draft schema: %w", kind, err)
		}
		compiled, err := jsonschema.CompileString(fmt.Sprintf("draft-%s.json", kind), string(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s draft schema: %w", kind, err)
		}
		d.compiled[kind] = compiled
	}

	return d, nil
}

// Draft requests the base entity fields for a kind.
func (d *EntityDrafter) Draft(ctx context.Context, kind entity.Kind, prompt, contextSummary string, r *rules.WorldRules) (*entity.Draft, StageDiag, error) {
	start := time.Now()

	raw, err := d.genai.CompleteStructured(ctx, prompts.Draft(kind, prompt, contextSummary, r), d.schemas[kind])
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		genErr := &GenerationError{Stage: StageDraft, Err: err}
		return nil, fatalDiag(StageDraft, elapsed, genErr), genErr
	}

	draft, err := d.parseDraft(kind, raw)
	if err != nil {
		genErr := &GenerationError{Stage: StageDraft, Err: err}
		return nil, fatalDiag(StageDraft, elapsed, genErr), genErr
	}

	d.logger.Debug("Entity drafted",
		"kind", kind,
		"name", draft.Name,
		"category", draft.Category,
		"rarity", draft.Rarity)

	return draft, okDiag(StageDraft, elapsed), nil
}

func (d *EntityDrafter) parseDraft(kind entity.Kind, raw json.RawMessage) (*entity.Draft, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("draft response is not valid JSON: %w", err)
	}

	if err := d.compiled[kind].Validate(decoded); err != nil {
		return nil, fmt.Errorf("draft response failed schema validation: %w", err)
	}

	var draft entity.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("failed to parse draft response: %w", err)
	}

	if kind == entity.KindNPC && draft.Category == "" {
		draft.Category = "npc"
	}

	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("draft response is incomplete: %w", err)
	}

	return &draft, nil
}
