package throttle

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/gothrottle/throttle/metrics"
	"github.com/gothrottle/throttle/retry"
)

const (
	defaultMaxConcurrent     = 10
	defaultMaxRetries        = 3
	defaultInitialRetryDelay = 1 * time.Second
	defaultMaxRetryDelay     = 10 * time.Second
	defaultID                = "default"
)

// Config is the configuration of the Scheduler.
type Config struct {
	// MaxConcurrent is the ceiling of tasks executing at the same time.
	MaxConcurrent int
	// MaxRetries is the number of times that a failed task will be retried
	// before returning the error itself.
	MaxRetries int
	// DisableRetry disables the retries, every failure is terminal.
	DisableRetry bool
	// InitialRetryDelay is the base of the exponential backoff.
	InitialRetryDelay time.Duration
	// MaxRetryDelay is the cap of any wait before a retry, including the ones
	// directed by the server with a Retry-After.
	MaxRetryDelay time.Duration
	// RetryPolicy decides if a failure is eligible for a retry.
	// By default network failures, rate limits and server errors are.
	RetryPolicy retry.Policy
	// Rand is the source of the backoff jitter. It's only used while holding the
	// scheduler lock so it doesn't need to be safe for concurrent use.
	Rand retry.Rand
	// MetricsRecorder is the recorder used to measure the scheduler.
	MetricsRecorder metrics.Recorder
	// ID identifies the scheduler on the metrics and logs.
	ID string
	// Logger is the logger used by the scheduler. By default it doesn't log.
	Logger *zerolog.Logger
}

func (c *Config) defaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = defaultMaxConcurrent
	}

	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}

	if c.DisableRetry {
		c.MaxRetries = 0
	}

	if c.InitialRetryDelay <= 0 {
		c.InitialRetryDelay = defaultInitialRetryDelay
	}

	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = defaultMaxRetryDelay
	}

	if c.RetryPolicy == nil {
		c.RetryPolicy = retry.IsRetryable
	}

	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if c.MetricsRecorder == nil {
		c.MetricsRecorder = metrics.Dummy
	}

	if c.ID == "" {
		c.ID = defaultID
	}

	if c.Logger == nil {
		l := zerolog.Nop()
		c.Logger = &l
	}
}
