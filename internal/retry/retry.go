// Package retry wraps provider calls with bounded attempts, an exponential
// backoff schedule, and credential rotation on quota exhaustion. The policy
// is an explicit loop driven by the transport error classification so it can
// be tested apart from any provider.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"llmgrader/internal/providers"
	"llmgrader/internal/utils"
)

// waitFor is swappable in tests.
var waitFor = utils.WaitFor

// Config holds the retry policy knobs.
type Config struct {
	MaxAttempts int
	Delay       time.Duration
	BackoffBase float64
	BackoffMax  time.Duration
}

// Defaults matching the collection pipeline configuration.
const (
	DefaultMaxAttempts = 10
	DefaultBackoffBase = 2
)

const (
	defaultDelay      = 60 * time.Second
	defaultBackoffMax = 300 * time.Second
)

// RetriesExhausted is returned after MaxAttempts unsuccessful attempts.
type RetriesExhausted struct {
	Model    string
	Attempts int
	Err      error
}

func (e *RetriesExhausted) Error() string {
	return fmt.Sprintf("max retries (%d) exceeded for model %s: %v", e.Attempts, e.Model, e.Err)
}

func (e *RetriesExhausted) Unwrap() error {
	return e.Err
}

// CredentialsExhausted is returned when quota exhaustion hits and no further
// credential remains for the provider.
type CredentialsExhausted struct {
	Provider string
	Err      error
}

func (e *CredentialsExhausted) Error() string {
	return fmt.Sprintf("all %s credentials exhausted: %v", e.Provider, e.Err)
}

func (e *CredentialsExhausted) Unwrap() error {
	return e.Err
}

// CallFunc performs one provider attempt.
type CallFunc func(ctx context.Context) (string, error)

// Controller executes provider calls under the retry policy.
type Controller struct {
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Controller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Delay <= 0 {
		cfg.Delay = defaultDelay
	}
	if cfg.BackoffBase <= 1 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = defaultBackoffMax
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{cfg: cfg, logger: logger}
}

// schedule produces the deterministic interval ladder
// min(delay * base^attempt, ceiling). Randomization is disabled so waits are
// reproducible.
func (c *Controller) schedule() backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.cfg.Delay
	expo.RandomizationFactor = 0
	expo.Multiplier = c.cfg.BackoffBase
	expo.MaxInterval = c.cfg.BackoffMax
	expo.MaxElapsedTime = 0
	expo.Reset()
	return expo
}

// Do executes call up to MaxAttempts times. Rate limiting and overload wait
// out the next backoff interval; quota exhaustion rotates credentials via
// the hook and retries immediately without consuming a backoff slot; any
// other failure is returned as is. The rotation still counts against
// MaxAttempts.
func (c *Controller) Do(ctx context.Context, model string, call CallFunc, rotate func() bool) (string, error) {
	sched := c.schedule()

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		result, err := call(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		switch providers.ClassifyKind(err) {
		case providers.KindRateLimited, providers.KindOverloaded:
			if attempt == c.cfg.MaxAttempts-1 {
				continue
			}
			wait := sched.NextBackOff()
			c.logger.Warn("transient provider failure, backing off",
				zap.String("model", model),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", c.cfg.MaxAttempts),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
			if werr := waitFor(ctx, wait); werr != nil {
				return "", werr
			}

		case providers.KindQuotaExhausted:
			if rotate == nil || !rotate() {
				return "", &CredentialsExhausted{Provider: providerOf(err), Err: err}
			}
			c.logger.Info("rotated credentials after quota exhaustion, retrying",
				zap.String("model", model),
				zap.Int("attempt", attempt+1),
			)

		default:
			c.logger.Error("non-retryable provider failure",
				zap.String("model", model),
				zap.Error(err),
			)
			return "", err
		}
	}

	return "", &RetriesExhausted{Model: model, Attempts: c.cfg.MaxAttempts, Err: lastErr}
}

func providerOf(err error) string {
	var terr *providers.TransportError
	if errors.As(err, &terr) {
		return terr.Provider
	}
	return "unknown"
}
