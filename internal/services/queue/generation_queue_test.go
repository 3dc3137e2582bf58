package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/jwebster45206/world-forge/pkg/entity"
	"github.com/jwebster45206/world-forge/pkg/queue"
)

func setupTestQueue(t *testing.T) *GenerationQueue {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	client, err := NewClient(mr.Addr(), logger)
	if err != nil {
		t.Fatalf("Failed to create queue client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewGenerationQueue(client)
}

func testRequest(prompt string) *queue.Request {
	return &queue.Request{
		RequestID:  uuid.New().String(),
		Kind:       entity.KindItem,
		Prompt:     prompt,
		EnqueuedAt: time.Now().UTC(),
	}
}

func TestGenerationQueue_EnqueueDequeue(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()

	first := testRequest("a rusty dagger")
	second := testRequest("a gleaming sword")

	if err := q.Enqueue(ctx, first); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Enqueue(ctx, second); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	depth, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("Depth failed: %v", err)
	}
	if depth != 2 {
		t.Errorf("Expected depth 2, got %d", depth)
	}

	// FIFO order
	got, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if got == nil || got.RequestID != first.RequestID {
		t.Errorf("Expected first request back, got %+v", got)
	}
	if got.Prompt != "a rusty dagger" {
		t.Errorf("Expected prompt preserved, got %q", got.Prompt)
	}

	got, err = q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if got == nil || got.RequestID != second.RequestID {
		t.Errorf("Expected second request back, got %+v", got)
	}
}

func TestGenerationQueue_DequeueEmpty(t *testing.T) {
	q := setupTestQueue(t)

	got, err := q.Dequeue(context.Background())
	if err != nil {
		t.Fatalf("Dequeue on empty queue should not error: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil request from empty queue, got %+v", got)
	}
}

func TestGenerationQueue_EnqueueInvalid(t *testing.T) {
	q := setupTestQueue(t)

	req := &queue.Request{RequestID: uuid.New().String(), Kind: "dragon", Prompt: "x"}
	if err := q.Enqueue(context.Background(), req); err == nil {
		t.Error("Expected error for invalid kind")
	}

	req = &queue.Request{RequestID: uuid.New().String(), Kind: entity.KindItem}
	if err := q.Enqueue(context.Background(), req); err == nil {
		t.Error("Expected error for empty prompt")
	}
}

func TestGenerationQueue_Clear(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, testRequest("a torch")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	depth, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("Depth failed: %v", err)
	}
	if depth != 0 {
		t.Errorf("Expected empty queue after clear, got depth %d", depth)
	}
}
