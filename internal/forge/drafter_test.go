package forge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/pkg/entity"
)

func TestEntityDrafter_Draft(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteStructuredResponse(`{
		"id": "pending",
		"name": "Rusty Dagger",
		"rarity": "common",
		"description": "A pitted blade that has seen better days.",
		"category": "weapon"
	}`)
	drafter, err := NewEntityDrafter(mock, testLogger())
	require.NoError(t, err)

	draft, diag, err := drafter.Draft(context.Background(), entity.KindItem, "a rusty dagger", "", weaponRules())
	require.NoError(t, err)

	assert.Equal(t, "Rusty Dagger", draft.Name)
	assert.Equal(t, entity.RarityCommon, draft.Rarity)
	assert.Equal(t, "weapon", draft.Category)
	assert.Equal(t, OutcomeOK, diag.Outcome)
}

func TestEntityDrafter_TransportErrorIsFatal(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteStructuredError(errors.New("vendor unavailable"))
	drafter, err := NewEntityDrafter(mock, testLogger())
	require.NoError(t, err)

	draft, diag, err := drafter.Draft(context.Background(), entity.KindItem, "a rusty dagger", "", weaponRules())

	require.Error(t, err)
	assert.Nil(t, draft)
	assert.Equal(t, OutcomeFatal, diag.Outcome)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, StageDraft, genErr.Stage)
}

func TestEntityDrafter_SchemaViolationIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"missing name", `{"id": "pending", "rarity": "common", "description": "x", "category": "weapon"}`},
		{"bad rarity", `{"id": "pending", "name": "Dagger", "rarity": "mythic", "description": "x", "category": "weapon"}`},
		{"missing category", `{"id": "pending", "name": "Dagger", "rarity": "common", "description": "x"}`},
		{"not json", `the dagger is rusty`},
		{"extra fields", `{"id": "pending", "name": "Dagger", "rarity": "common", "description": "x", "category": "weapon", "damage": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := services.NewMockGenAI()
			mock.SetCompleteStructuredResponse(tt.payload)
			drafter, err := NewEntityDrafter(mock, testLogger())
			require.NoError(t, err)

			draft, diag, err := drafter.Draft(context.Background(), entity.KindItem, "a rusty dagger", "", weaponRules())

			require.Error(t, err)
			assert.Nil(t, draft)
			assert.Equal(t, OutcomeFatal, diag.Outcome)
		})
	}
}

func TestEntityDrafter_NPCCategoryInferred(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteStructuredResponse(`{
		"id": "pending",
		"name": "Maro the Tinker",
		"rarity": "rare",
		"description": "A wandering gnome with a cart of oddities.",
		"purpose": "Sells repairs and rumors."
	}`)
	drafter, err := NewEntityDrafter(mock, testLogger())
	require.NoError(t, err)

	draft, _, err := drafter.Draft(context.Background(), entity.KindNPC, "a tinker", "", weaponRules())
	require.NoError(t, err)

	assert.Equal(t, "npc", draft.Category)
	assert.Equal(t, "Sells repairs and rumors.", draft.Purpose)
}

func TestEntityDrafter_SchemaPerKind(t *testing.T) {
	mock := services.NewMockGenAI()
	drafter, err := NewEntityDrafter(mock, testLogger())
	require.NoError(t, err)

	itemSchema := drafter.schemas[entity.KindItem]
	npcSchema := drafter.schemas[entity.KindNPC]

	itemRequired := itemSchema["required"].([]interface{})
	assert.Contains(t, itemRequired, "category")

	npcProps := npcSchema["properties"].(map[string]interface{})
	assert.Contains(t, npcProps, "purpose")
	npcRequired := npcSchema["required"].([]interface{})
	assert.NotContains(t, npcRequired, "category")
}
