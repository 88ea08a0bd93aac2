package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitEnforcesBudget(t *testing.T) {
	l := New(0, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
	if err := l.Wait(ctx); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("third Wait = %v, want ErrLimitReached", err)
	}
	if got := l.GetStats()["requests_used"].(int); got != 2 {
		t.Errorf("requests_used = %d, want 2", got)
	}
}

func TestWaitPacesRequests(t *testing.T) {
	// 600 rpm = one request every 100ms, burst 1
	l := New(600, 0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("3 requests took %v, expected pacing of ~200ms", elapsed)
	}
}

func TestWaitRespectsCancelledContext(t *testing.T) {
	l := New(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestRecordCacheHit(t *testing.T) {
	l := New(0, 0)
	l.RecordCacheHit(100)
	l.RecordCacheHit(50)
	stats := l.GetStats()
	if stats["cache_hits"].(int) != 2 || stats["chars_saved"].(int) != 150 {
		t.Errorf("stats = %v", stats)
	}
}
