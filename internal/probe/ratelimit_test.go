package probe

import (
	"context"
	"errors"
	"testing"
	"time"
)

type blockingWaiter struct{}

func (blockingWaiter) Wait(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestNewTokenBucketLimiterUsesDefaults(t *testing.T) {
	limiter := newTokenBucketLimiter(0, 0)
	if limiter == nil {
		t.Fatalf("expected limiter instance")
	}
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("expected first probe to proceed, got %v", err)
	}
}

func TestLimiterWaitHonoursCancellation(t *testing.T) {
	limiter := newTokenBucketLimiter(0.001, 1)
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx); err == nil {
		t.Fatalf("expected second wait to fail before a token is available")
	}
}

func TestNilLimiterAdapterPasses(t *testing.T) {
	var l *limiterAdapter
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("expected nil adapter to pass, got %v", err)
	}
}

func TestCheckReportsCancelledProbe(t *testing.T) {
	p := newTestProber(t, Config{})
	p.limiter = blockingWaiter{}

	src := envFromPairs("DEEPGRAM_API_KEY", "dg")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	deepgram := p.Checks(src)[2]
	res := deepgram.Run(ctx)
	if res.Passed || res.Hint != "probe cancelled" || !errors.Is(res.Err, context.Canceled) {
		t.Fatalf("unexpected result %+v", res)
	}
}
