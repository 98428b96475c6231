package jobs

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

func TestStreamEndsAfterTerminalEvent(t *testing.T) {
	store := NewStore(nil)
	id := newJob(t, store)
	stream, err := store.Stream(id, time.Second)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	ctx := context.Background()
	first, err := stream.Next(ctx)
	if err != nil || first.Status != StatusPending {
		t.Fatalf("first event %+v, err %v", first, err)
	}
	if _, err := store.Update(id, StatusFailed, 0, "", WithError("download failed")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	last, err := stream.Next(ctx)
	if err != nil || last.Status != StatusFailed || last.Error != "download failed" {
		t.Fatalf("terminal event %+v, err %v", last, err)
	}
	if _, err := stream.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestStreamIdleTimeout(t *testing.T) {
	store := NewStore(nil)
	id := newJob(t, store)
	stream, err := store.Stream(id, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Next(context.Background()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, err := stream.Next(context.Background()); !errors.Is(err, ErrIdleTimeout) {
		t.Fatalf("expected ErrIdleTimeout, got %v", err)
	}
}

func TestStreamHonoursContext(t *testing.T) {
	store := NewStore(nil)
	id := newJob(t, store)
	stream, err := store.Stream(id, time.Minute)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()
	_, _ = stream.Next(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := stream.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
