// Package retry runs chat turns with bounded retries and lets a newer turn
// supersede one still in flight.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hjkwon-github/docmost-codex/internal/codec"
	"github.com/hjkwon-github/docmost-codex/internal/domain"
)

var (
	// ErrSuperseded is the cancellation cause of a turn replaced by a newer one.
	ErrSuperseded = errors.New("superseded by a newer request")

	// ErrAborted is the cancellation cause of a turn stopped through Cancel.
	ErrAborted = errors.New("aborted by caller")
)

// Policy bounds the retry loop.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy allows three attempts with 500ms, 1s backoff, capped at 8s.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    8 * time.Second,
}

// Backoff returns the delay before the attempt following attempt (1-based).
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return min(d, p.MaxDelay)
}

type turn struct {
	cancel context.CancelCauseFunc
}

// Controller owns one cancellation scope per turn key.
type Controller struct {
	policy Policy
	logger *slog.Logger

	mu    sync.Mutex
	turns map[string]*turn
}

// NewController creates a controller. A zero MaxAttempts means DefaultPolicy.
func NewController(policy Policy, logger *slog.Logger) *Controller {
	if policy.MaxAttempts <= 0 {
		policy = DefaultPolicy
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		policy: policy,
		logger: logger,
		turns:  make(map[string]*turn),
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts run out. The returned error is always a *domain.Error.
//
// A non-empty turnKey makes the call supersede any pending call with the same
// key; the superseded call returns a cancelled error and its result is
// discarded.
func (c *Controller) Do(ctx context.Context, turnKey string, fn func(context.Context) error) error {
	turnCtx, cancel := context.WithCancelCause(ctx)
	t := &turn{cancel: cancel}
	c.begin(turnKey, t)
	defer func() {
		c.end(turnKey, t)
		cancel(nil)
	}()

	for attempt := 1; ; attempt++ {
		err := fn(turnCtx)
		if err == nil {
			if turnCtx.Err() != nil {
				return cancelled(turnCtx)
			}
			return nil
		}

		if turnCtx.Err() != nil {
			return cancelled(turnCtx)
		}

		norm := codec.Normalize(err)
		if !norm.Retryable || attempt >= c.policy.MaxAttempts {
			return norm
		}

		delay := c.policy.Backoff(attempt)
		c.logger.Info("retrying chat turn",
			slog.String("turn", turnKey),
			slog.Int("attempt", attempt),
			slog.String("kind", string(norm.Kind)),
			slog.Duration("backoff", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-turnCtx.Done():
			timer.Stop()
			return cancelled(turnCtx)
		case <-timer.C:
		}
	}
}

// Cancel aborts the in-flight turn for turnKey. It reports whether one existed.
func (c *Controller) Cancel(turnKey string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.turns[turnKey]
	if !ok {
		return false
	}
	t.cancel(ErrAborted)
	delete(c.turns, turnKey)
	return true
}

// Pending returns the number of turns in flight.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.turns)
}

func (c *Controller) begin(key string, t *turn) {
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.turns[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	c.turns[key] = t
}

func (c *Controller) end(key string, t *turn) {
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.turns[key] == t {
		delete(c.turns, key)
	}
}

func cancelled(ctx context.Context) *domain.Error {
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, ErrSuperseded), errors.Is(cause, ErrAborted):
		return domain.ErrCancelled(cause.Error())
	case errors.Is(cause, context.DeadlineExceeded):
		return domain.ErrUnavailable("request timed out")
	default:
		return domain.ErrCancelled("request was cancelled")
	}
}
