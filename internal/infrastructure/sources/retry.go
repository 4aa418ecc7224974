package sources

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/reglet-dev/hotload/internal/application/ports"
)

// Ensure interface compliance
var _ ports.ByteSource = (*Retrying)(nil)

// BackoffType selects how the delay grows between attempts.
type BackoffType string

const (
	BackoffNone        BackoffType = "none"
	BackoffLinear      BackoffType = "linear"
	BackoffExponential BackoffType = "exponential"
)

// RetryPolicy configures Retrying.
type RetryPolicy struct {
	Strategy     BackoffType
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// CalculateBackoff computes the delay for the next retry attempt.
func CalculateBackoff(
	strategy BackoffType,
	attempt int,
	initialDelay time.Duration,
	maxDelay time.Duration,
) time.Duration {
	switch strategy {
	case BackoffLinear:
		// 1s, 2s, 3s...
		delay := time.Duration(attempt) * initialDelay
		if maxDelay > 0 && delay > maxDelay {
			return maxDelay
		}
		return delay
	case BackoffExponential:
		// 2s, 4s, 8s...
		if attempt > 62 {
			return maxDelay
		}
		factor := time.Duration(1 << attempt)
		delay := factor * initialDelay
		if maxDelay > 0 && (delay > maxDelay || delay < 0) {
			return maxDelay
		}
		return delay
	default:
		return initialDelay
	}
}

// IsTransient reports whether err is likely to go away on retry. A missing
// resource and a cancelled context are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTemporary {
		return true
	}

	// Pool exhaustion and LOADING replies from a restarting server.
	if errors.Is(err, redis.ErrPoolTimeout) || redis.HasErrorPrefix(err, "LOADING") {
		return true
	}

	return false
}

// Retrying retries Open on transient failures of the wrapped source.
type Retrying struct {
	source ports.ByteSource
	policy RetryPolicy
}

// NewRetrying wraps source.
func NewRetrying(source ports.ByteSource, policy RetryPolicy) *Retrying {
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 100 * time.Millisecond
	}
	if policy.Strategy == "" {
		policy.Strategy = BackoffExponential
	}
	return &Retrying{source: source, policy: policy}
}

// Open implements ports.ByteSource.
func (r *Retrying) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	for attempt := 0; ; attempt++ {
		rc, err := r.source.Open(ctx, path)
		if err == nil || attempt >= r.policy.Attempts || !IsTransient(err) {
			return rc, err
		}

		delay := CalculateBackoff(r.policy.Strategy, attempt+1, r.policy.InitialDelay, r.policy.MaxDelay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
