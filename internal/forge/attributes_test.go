package forge

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/pkg/entity"
	"github.com/jwebster45206/world-forge/pkg/rules"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func weaponRules() *rules.WorldRules {
	return &rules.WorldRules{
		Genre:    "high fantasy",
		ArtStyle: "oil painting",
		Categories: rules.AttributeLibrary{
			rules.CommonCategory: {
				"value": {Type: entity.AttributeInteger, Description: "Trade value.", Reference: "1=trinket, 500=priceless"},
			},
			"weapon": {
				"damage": {Type: entity.AttributeInteger, Description: "Damage dealt.", Reference: "10=basic, 25=good"},
			},
		},
	}
}

func weaponDraft() *entity.Draft {
	return &entity.Draft{
		ID:          "pending",
		Name:        "Rusty Dagger",
		Rarity:      entity.RarityCommon,
		Description: "A pitted blade that has seen better days.",
		Category:    "weapon",
	}
}

func TestAttributeReconciler_KnownAttribute(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteStructuredResponse(`{"attributes": {"damage": 8}}`)
	reconciler := NewAttributeReconciler(mock, testLogger())

	attrs, newAttrs, diag := reconciler.Generate(context.Background(), weaponDraft(), "", weaponRules())

	assert.Equal(t, OutcomeOK, diag.Outcome)
	require.Contains(t, attrs, "damage")
	// Library-known key never lands in newAttributes
	assert.NotContains(t, newAttrs, "damage")

	record := attrs["damage"]
	assert.Equal(t, entity.AttributeInteger, record.Type)
	assert.Equal(t, "Damage dealt.", record.Description)
	assert.Equal(t, "10=basic, 25=good", record.Reference)
	assert.Equal(t, entity.OriginKnown, record.Origin)
	assert.Equal(t, "weapon", record.Category)
}

func TestAttributeReconciler_CommonBucketIsKnown(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteStructuredResponse(`{"attributes": {"value": 3}}`)
	reconciler := NewAttributeReconciler(mock, testLogger())

	attrs, newAttrs, _ := reconciler.Generate(context.Background(), weaponDraft(), "", weaponRules())

	require.Contains(t, attrs, "value")
	assert.NotContains(t, newAttrs, "value")
	assert.Equal(t, entity.OriginKnown, attrs["value"].Origin)
}

func TestAttributeReconciler_NewAttributeWithMetadata(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteStructuredResponse(`{
		"attributes": {"curse_level": 2},
		"attribute_metadata": {
			"curse_level": {"type": "integer", "description": "Strength of the curse.", "reference": "1=mild, 5=dire"}
		}
	}`)
	reconciler := NewAttributeReconciler(mock, testLogger())

	attrs, newAttrs, diag := reconciler.Generate(context.Background(), weaponDraft(), "", weaponRules())

	require.Contains(t, newAttrs, "curse_level")
	record := newAttrs["curse_level"]
	assert.Equal(t, entity.AttributeInteger, record.Type)
	assert.Equal(t, "Strength of the curse.", record.Description)
	assert.Equal(t, "1=mild, 5=dire", record.Reference)
	assert.Equal(t, "weapon", record.Category)
	assert.Equal(t, entity.OriginInferred, record.Origin)

	// New attributes also appear on the entity itself
	assert.Contains(t, attrs, "curse_level")
	// Supplied metadata is not a schema gap
	assert.Empty(t, diag.Warnings)
}

func TestAttributeReconciler_PartialMetadataMerged(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteStructuredResponse(`{
		"attributes": {"curse_level": 2},
		"attribute_metadata": {
			"curse_level": {"description": "Strength of the curse.", "reference": "1=mild, 5=dire"}
		}
	}`)
	reconciler := NewAttributeReconciler(mock, testLogger())

	_, newAttrs, diag := reconciler.Generate(context.Background(), weaponDraft(), "", weaponRules())

	require.Contains(t, newAttrs, "curse_level")
	record := newAttrs["curse_level"]
	// Type is inferred from the value, descriptive fields are kept
	assert.Equal(t, entity.AttributeInteger, record.Type)
	assert.Equal(t, "Strength of the curse.", record.Description)
	assert.Equal(t, "1=mild, 5=dire", record.Reference)
	assert.Equal(t, entity.OriginInferred, record.Origin)

	// The missing type is still a schema gap
	require.Len(t, diag.Warnings, 1)
	assert.Contains(t, diag.Warnings[0], "curse_level")
}

func TestAttributeReconciler_FallbackMetadata(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		attribute    string
		expectedType entity.AttributeType
	}{
		{"integer value", `{"attributes": {"weight": 4}}`, "weight", entity.AttributeInteger},
		{"fractional value", `{"attributes": {"weight": 4.5}}`, "weight", entity.AttributeNumber},
		{"string value", `{"attributes": {"material": "iron"}}`, "material", entity.AttributeString},
		{"boolean value", `{"attributes": {"cursed": true}}`, "cursed", entity.AttributeBoolean},
		{"array value", `{"attributes": {"runes": ["ash", "oak"]}}`, "runes", entity.AttributeArray},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := services.NewMockGenAI()
			mock.SetCompleteStructuredResponse(tt.payload)
			reconciler := NewAttributeReconciler(mock, testLogger())

			_, newAttrs, diag := reconciler.Generate(context.Background(), weaponDraft(), "", weaponRules())

			require.Contains(t, newAttrs, tt.attribute)
			assert.Equal(t, tt.expectedType, newAttrs[tt.attribute].Type)
			assert.Equal(t, entity.OriginInferred, newAttrs[tt.attribute].Origin)
			// Missing metadata is flagged in the diagnostic channel
			require.Len(t, diag.Warnings, 1)
			assert.Contains(t, diag.Warnings[0], tt.attribute)
		})
	}
}

func TestAttributeReconciler_LegacyFlatShape(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteStructuredResponse(`{"damage": 12, "material": "bronze"}`)
	reconciler := NewAttributeReconciler(mock, testLogger())

	attrs, newAttrs, diag := reconciler.Generate(context.Background(), weaponDraft(), "", weaponRules())

	require.Contains(t, attrs, "damage")
	assert.Equal(t, entity.OriginKnown, attrs["damage"].Origin)
	assert.Contains(t, newAttrs, "material")
	assert.Contains(t, diag.Warnings, "legacy flat response shape")
}

func TestAttributeReconciler_UpstreamFailureDegrades(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteStructuredError(errors.New("vendor unavailable"))
	reconciler := NewAttributeReconciler(mock, testLogger())

	attrs, newAttrs, diag := reconciler.Generate(context.Background(), weaponDraft(), "", weaponRules())

	// Never raises: empty payload plus an error-flavored diag
	assert.Empty(t, attrs)
	assert.Empty(t, newAttrs)
	assert.Equal(t, OutcomeDegraded, diag.Outcome)
	assert.Contains(t, diag.Error, "vendor unavailable")
}

func TestAttributeReconciler_MalformedResponseDegrades(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteStructuredResponse(`[1, 2, 3]`)
	reconciler := NewAttributeReconciler(mock, testLogger())

	attrs, _, diag := reconciler.Generate(context.Background(), weaponDraft(), "", weaponRules())

	assert.Empty(t, attrs)
	assert.Equal(t, OutcomeDegraded, diag.Outcome)
}

func TestDecodeAttributePayload_ShapeDiscrimination(t *testing.T) {
	structured, err := decodeAttributePayload([]byte(`{"attributes": {"a": 1}}`))
	require.NoError(t, err)
	assert.False(t, structured.legacy)

	legacy, err := decodeAttributePayload([]byte(`{"a": 1}`))
	require.NoError(t, err)
	assert.True(t, legacy.legacy)
}

func TestInferAttributeType(t *testing.T) {
	tests := []struct {
		value    interface{}
		expected entity.AttributeType
	}{
		{true, entity.AttributeBoolean},
		{float64(7), entity.AttributeInteger},
		{7.5, entity.AttributeNumber},
		{"iron", entity.AttributeString},
		{[]interface{}{"a"}, entity.AttributeArray},
		{map[string]interface{}{}, entity.AttributeString},
	}

	for _, tt := range tests {
		if got := inferAttributeType(tt.value); got != tt.expected {
			t.Errorf("inferAttributeType(%v) = %v, want %v", tt.value, got, tt.expected)
		}
	}
}
