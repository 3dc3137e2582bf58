package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/pkg/entity"
	"github.com/jwebster45206/world-forge/pkg/prompts"
	"github.com/jwebster45206/world-forge/pkg/rules"
)

// attributeResponseSchema constrains the vendor to the structured response
// shape. Older models that ignore the response format and return a flat
// key-value map are still accepted by the decoder.
var attributeResponseSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"attributes":         map[string]interface{}{"type": "object"},
		"attribute_metadata": map[string]interface{}{"type": "object"},
	},
	"required": []interface{}{"attributes"},
}

// attributeMetaPayload is the metadata the model may supply for
// attributes outside the known library.
type attributeMetaPayload struct {
	Type        entity.AttributeType `json:"type"`
	Description string               `json:"description"`
	Reference   string               `json:"reference,omitempty"`
	Values      []string             `json:"values,omitempty"`
}

// attributePayload is the decoded response, tagged by shape.
type attributePayload struct {
	values   map[string]interface{}
	metadata map[string]attributeMetaPayload
	legacy   bool
}

// AttributeReconciler requests entity attributes and reconciles them
// against the known per-category library. Keys outside the library are
// classified as new, with supplied or inferred metadata. This stage never
// fails the pipeline: an entity may legitimately exist with zero
// attributes.
type AttributeReconciler struct {
	genai  services.GenAIService
	logger *slog.Logger
}

func NewAttributeReconciler(genai services.GenAIService, logger *slog.Logger) *AttributeReconciler {
	return &AttributeReconciler{
		genai:  genai,
		logger: logger,
	}
}

// Generate requests attributes for a drafted entity. The first return
// value holds every attribute on the entity; the second holds the subset
// whose names were absent from the combined (category + common) library
// view, keyed by name and carrying their adopted or inferred metadata.
func (r *AttributeReconciler) Generate(ctx context.Context, draft *entity.Draft, contextSummary string, worldRules *rules.WorldRules) (map[string]entity.AttributeRecord, map[string]entity.AttributeRecord, StageDiag) {
	available := worldRules.Categories.ForCategory(draft.Category)

	start := time.Now()
	raw, err := r.genai.CompleteStructured(ctx, prompts.Attributes(draft, contextSummary, available, worldRules), attributeResponseSchema)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		r.logger.Warn("Attribute generation failed, continuing with no attributes",
			"name", draft.Name, "error", err)
		return map[string]entity.AttributeRecord{}, map[string]entity.AttributeRecord{}, degradedDiag(StageAttributes, elapsed, err)
	}

	payload, err := decodeAttributePayload(raw)
	if err != nil {
		r.logger.Warn("Attribute response unparseable, continuing with no attributes",
			"name", draft.Name, "error", err)
		return map[string]entity.AttributeRecord{}, map[string]entity.AttributeRecord{}, degradedDiag(StageAttributes, elapsed, err)
	}

	attributes, newAttributes, warnings := r.reconcile(draft.Category, payload, available)

	diag := okDiag(StageAttributes, elapsed)
	diag.Warnings = warnings
	if payload.legacy {
		diag.Warnings = append(diag.Warnings, "legacy flat response shape")
	}
	return attributes, newAttributes, diag
}

// decodeAttributePayload disambiguates the two accepted response shapes
// by the presence of the top-level "attributes" key.
func decodeAttributePayload(raw json.RawMessage) (attributePayload, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return attributePayload{}, fmt.Errorf("attribute response is not a JSON object: %w", err)
	}

	if attrsRaw, ok := probe["attributes"]; ok {
		// Preferred shape: {attributes, attribute_metadata}
		var values map[string]interface{}
		if err := json.Unmarshal(attrsRaw, &values); err != nil {
			return attributePayload{}, fmt.Errorf("attributes key is not an object: %w", err)
		}

		metadata := make(map[string]attributeMetaPayload)
		if metaRaw, ok := probe["attribute_metadata"]; ok {
			if err := json.Unmarshal(metaRaw, &metadata); err != nil {
				return attributePayload{}, fmt.Errorf("attribute_metadata is malformed: %w", err)
			}
		}
		return attributePayload{values: values, metadata: metadata}, nil
	}

	// Legacy shape: flat key-value map
	var values map[string]interface{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return attributePayload{}, fmt.Errorf("flat attribute response is malformed: %w", err)
	}
	return attributePayload{values: values, legacy: true}, nil
}

// reconcile classifies each returned key against the combined library
// view. Library-known keys adopt library metadata; unknown keys adopt the
// response's metadata when supplied, or inferred fallback metadata
// otherwise. All records are tagged with the entity's category.
func (r *AttributeReconciler) reconcile(category string, payload attributePayload, available map[string]rules.AttributeMeta) (map[string]entity.AttributeRecord, map[string]entity.AttributeRecord, []string) {
	attributes := make(map[string]entity.AttributeRecord, len(payload.values))
	newAttributes := make(map[string]entity.AttributeRecord)
	var warnings []string

	names := make([]string, 0, len(payload.values))
	for name := range payload.values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := payload.values[name]

		if meta, known := available[name]; known {
			attributes[name] = entity.AttributeRecord{
				Value:       value,
				Type:        meta.Type,
				Description: meta.Description,
				Reference:   meta.Reference,
				Values:      meta.Values,
				Category:    category,
				Origin:      entity.OriginKnown,
			}
			continue
		}

		meta := payload.metadata[name]
		record := entity.AttributeRecord{
			Value:       value,
			Type:        meta.Type,
			Description: meta.Description,
			Reference:   meta.Reference,
			Values:      meta.Values,
			Category:    category,
			Origin:      entity.OriginInferred,
		}
		if record.Type == "" {
			// SchemaGapWarning: the model invented an attribute without a
			// type. Infer it from the runtime value, keeping whatever
			// descriptive fields were supplied.
			record.Type = inferAttributeType(value)
			warnings = append(warnings, fmt.Sprintf("metadata missing for new attribute %q", name))
			r.logger.Warn("New attribute generated without metadata",
				"attribute", name, "category", category)
		}
		if record.Description == "" {
			record.Description = fmt.Sprintf("Generated attribute for %s entities.", category)
		}

		attributes[name] = record
		newAttributes[name] = record
	}

	return attributes, newAttributes, warnings
}

// inferAttributeType maps a decoded JSON value's runtime shape to an
// attribute type.
func inferAttributeType(value interface{}) entity.AttributeType {
	switch v := value.(type) {
	case bool:
		return entity.AttributeBoolean
	case float64:
		if v == math.Trunc(v) {
			return entity.AttributeInteger
		}
		return entity.AttributeNumber
	case string:
		return entity.AttributeString
	case []interface{}:
		return entity.AttributeArray
	default:
		return entity.AttributeString
	}
}
