package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// WindowLimiter is a fixed-window rate limiter: up to max admissions per
// window, then callers block until the window resets. The window starts at
// the first admission after a reset, not on a wall-clock grid.
type WindowLimiter struct {
	mu          sync.Mutex
	max         int
	window      time.Duration
	windowStart time.Time
	count       int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewWindowLimiter builds a limiter admitting max calls per window.
func NewWindowLimiter(max int, window time.Duration) (*WindowLimiter, error) {
	if max <= 0 {
		return nil, fmt.Errorf("max must be positive, got %d", max)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %v", window)
	}
	return &WindowLimiter{
		max:    max,
		window: window,
		now:    time.Now,
		sleep:  sleepContext,
	}, nil
}

// Wait blocks until the caller is admitted or ctx is done. Admission order
// among blocked callers is not guaranteed.
func (l *WindowLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.count = 0
		}
		if l.count < l.max {
			l.count++
			l.mu.Unlock()
			return nil
		}
		wait := l.windowStart.Add(l.window).Sub(now)
		l.mu.Unlock()

		slog.Debug("rate limit window full, waiting", "wait", wait)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Remaining reports how many admissions are left in the current window.
func (l *WindowLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.windowStart.IsZero() || l.now().Sub(l.windowStart) >= l.window {
		return l.max
	}
	return l.max - l.count
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
