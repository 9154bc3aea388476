package rate

import (
	"context"
	"fmt"
	"time"
)

// Limiter gates outbound API calls (Gmail, model provider) so we stay
// inside their per-user quotas.
type Limiter interface {
	Wait(ctx context.Context) error
}

// TokenBucket releases a fixed number of tokens per second.
type TokenBucket struct {
	ticker   *time.Ticker
	tokens   chan struct{}
	stopDone chan struct{}
}

// NewTokenBucket returns a limiter that admits rps calls per second.
func NewTokenBucket(rps int) *TokenBucket {
	if rps <= 0 {
		rps = 1
	}
	tb := &TokenBucket{
		ticker:   time.NewTicker(time.Second / time.Duration(rps)),
		tokens:   make(chan struct{}, rps),
		stopDone: make(chan struct{}),
	}
	// let the first caller through without waiting a full tick
	tb.tokens <- struct{}{}
	go tb.refill()
	return tb
}

func (t *TokenBucket) refill() {
	defer close(t.stopDone)
	for range t.ticker.C {
		select {
		case t.tokens <- struct{}{}:
		default:
		}
	}
}

// Wait blocks until a token is available or the context is canceled.
func (t *TokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate wait canceled: %w", ctx.Err())
	case <-t.tokens:
		return nil
	}
}

// Stop releases the limiter's ticker goroutine.
func (t *TokenBucket) Stop() {
	t.ticker.Stop()
	<-t.stopDone
}

var _ Limiter = (*TokenBucket)(nil)

// WaitIfSet is a nil-tolerant helper; a nil limiter admits everything.
func WaitIfSet(ctx context.Context, l Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
