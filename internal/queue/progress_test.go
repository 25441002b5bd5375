package queue_test

import (
	"testing"

	"shelver/internal/queue"
)

func TestTrackerClampsAndRemoves(t *testing.T) {
	tracker := queue.NewTracker()

	tracker.Set(1, -5)
	if percent, ok := tracker.Get(1); !ok || percent != 0 {
		t.Fatalf("expected clamp to 0, got %d (%v)", percent, ok)
	}
	tracker.Set(1, 250)
	if percent, _ := tracker.Get(1); percent != 100 {
		t.Fatalf("expected clamp to 100, got %d", percent)
	}

	tracker.Remove(1)
	if _, ok := tracker.Get(1); ok {
		t.Fatal("expected entry removed")
	}
}

func TestSinkWritesBoundJob(t *testing.T) {
	tracker := queue.NewTracker()
	sink := tracker.Sink(9)
	sink(42)
	if percent, ok := tracker.Get(9); !ok || percent != 42 {
		t.Fatalf("expected 42 for job 9, got %d (%v)", percent, ok)
	}
	if _, ok := tracker.Get(8); ok {
		t.Fatal("unexpected entry for other job")
	}
}
