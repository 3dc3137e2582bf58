package forge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwebster45206/world-forge/internal/services"
	"github.com/jwebster45206/world-forge/pkg/world"
)

func TestContextSynthesizer_EmptyContextSkipsCall(t *testing.T) {
	mock := services.NewMockGenAI()
	synth := NewContextSynthesizer(mock, testLogger())

	summary, diag := synth.Synthesize(context.Background(), world.Context{}, weaponRules())

	assert.Empty(t, summary)
	assert.Equal(t, OutcomeOK, diag.Outcome)
	_, textCalls, _ := mock.CallCounts()
	assert.Zero(t, textCalls, "empty context must not call the vendor")
}

func TestContextSynthesizer_Summarizes(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.CompleteTextFunc = func(ctx context.Context, prompt string) (string, error) {
		return "  A mist-shrouded valley, uneasy after the raid.  ", nil
	}
	synth := NewContextSynthesizer(mock, testLogger())

	wctx := world.Context{
		CurrentRegion: world.Region{Name: "Vale of Thorns", Biome: "temperate forest"},
		RecentEvents:  []string{"bandit raid on the mill"},
	}
	summary, diag := synth.Synthesize(context.Background(), wctx, weaponRules())

	assert.Equal(t, "A mist-shrouded valley, uneasy after the raid.", summary)
	assert.Equal(t, OutcomeOK, diag.Outcome)
}

func TestContextSynthesizer_UpstreamFailureDegrades(t *testing.T) {
	mock := services.NewMockGenAI()
	mock.SetCompleteTextError(errors.New("vendor unavailable"))
	synth := NewContextSynthesizer(mock, testLogger())

	wctx := world.Context{Setting: "a drowned coastal kingdom"}
	summary, diag := synth.Synthesize(context.Background(), wctx, weaponRules())

	// Never raises: empty summary plus an error-flavored diag
	assert.Empty(t, summary)
	assert.Equal(t, OutcomeDegraded, diag.Outcome)
	assert.Contains(t, diag.Error, "vendor unavailable")
}
