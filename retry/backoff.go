package retry

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// jitterFactor is the max fraction of the exponential delay added as jitter.
	jitterFactor = 0.3

	retryAfterHeader = "Retry-After"
)

// Rand is the source of randomness used for the jitter, *rand.Rand satisfies it.
type Rand interface {
	// Float64 returns a number in [0.0,1.0).
	Float64() float64
}

// BackoffConfig is the configuration used to calculate the wait between retries.
type BackoffConfig struct {
	// Initial is the base of the exponential backoff series, the first retry
	// waits at least this.
	Initial time.Duration
	// Max is the hard cap of any wait, including the server directed ones.
	Max time.Duration
}

// Delay returns the time to wait before executing again a failed execution.
// retryCount is the number of retries already made (0 for the first retry).
//
// If the failure carries a server retry hint it will be used capped to the max,
// if not, it uses an exponential backoff with an additive jitter of up to 30%,
// also capped to the max.
func Delay(retryCount int, err error, cfg BackoffConfig, rnd Rand) time.Duration {
	if hint, ok := RetryAfter(err); ok {
		return capDuration(float64(hint), cfg.Max)
	}

	// Use the algorithms for jitter and backoff.
	// https://aws.amazon.com/es/blogs/architecture/exponential-backoff-and-jitter/
	exp := exponential(retryCount, cfg)
	if exp >= float64(cfg.Max) {
		return cfg.Max
	}
	jitter := 0.0
	if rnd != nil {
		jitter = rnd.Float64() * jitterFactor * exp
	}

	return capDuration(exp+jitter, cfg.Max)
}

// BaseDelay returns the non jittered exponential delay for the retry count, capped
// to the max.
func BaseDelay(retryCount int, cfg BackoffConfig) time.Duration {
	return capDuration(exponential(retryCount, cfg), cfg.Max)
}

// RetryAfter returns the server retry hint carried by the error. The Retry-After
// header of the response is expressed in seconds, invalid or negative values are
// ignored.
func RetryAfter(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	if resp := response(err); resp != nil && resp.Header != nil {
		if v := strings.TrimSpace(resp.Header.Get(retryAfterHeader)); v != "" {
			secs, perr := strconv.ParseFloat(v, 64)
			if perr == nil && secs >= 0 && !math.IsInf(secs, 0) && !math.IsNaN(secs) {
				return durationFromFloat(secs * float64(time.Second)), true
			}
		}
	}

	var ra RetryAfterer
	if errors.As(err, &ra) {
		if d := ra.RetryAfter(); d >= 0 {
			return d, true
		}
	}

	return 0, false
}

func exponential(retryCount int, cfg BackoffConfig) float64 {
	if retryCount < 0 {
		retryCount = 0
	}
	// The backoff is calculated exponentially based on a base time
	// and the retry number.
	return float64(cfg.Initial) * math.Exp2(float64(retryCount))
}

func capDuration(d float64, maxD time.Duration) time.Duration {
	if math.IsNaN(d) || d > float64(maxD) {
		return maxD
	}
	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

func durationFromFloat(d float64) time.Duration {
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
