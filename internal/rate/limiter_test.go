package rate

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketFirstCallImmediate(t *testing.T) {
	tb := NewTokenBucket(10)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := tb.Wait(ctx); err != nil {
		t.Fatalf("first wait should not block: %v", err)
	}
}

func TestTokenBucketRespectsCancel(t *testing.T) {
	tb := NewTokenBucket(1)

	// drain the initial token
	if err := tb.Wait(context.Background()); err != nil {
		t.Fatalf("drain failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tb.Wait(ctx); err == nil {
		t.Fatalf("expected canceled wait to error")
	}
}

func TestWaitIfSetNilAdmits(t *testing.T) {
	if err := WaitIfSet(context.Background(), nil); err != nil {
		t.Fatalf("nil limiter must admit: %v", err)
	}
}
