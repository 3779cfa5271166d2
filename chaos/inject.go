package chaos

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gothrottle/throttle"
	"github.com/gothrottle/throttle/errors"
	"github.com/gothrottle/throttle/retry"
)

const defaultStatus = http.StatusServiceUnavailable

// Injector will control how the faults will be injected. It's safe to change
// it while the injections are running.
type Injector struct {
	latency      time.Duration
	errorPercent int
	status       int
	retryAfter   time.Duration
	mu           sync.Mutex
}

// SetLatency will set the latency on the injector.
func (i *Injector) SetLatency(t time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.latency = t
}

// SetErrorPercent will set the error percent on the injector.
func (i *Injector) SetErrorPercent(percent int) error {
	if percent > 100 || percent < 0 {
		return fmt.Errorf("%d is not a valid percent", percent)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.errorPercent = percent
	return nil
}

// SetStatus will set the status of the injected failures, 503 by default.
func (i *Injector) SetStatus(code int) error {
	if code < 100 || code > 599 {
		return fmt.Errorf("%d is not a valid status code", code)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = code
	return nil
}

// SetRetryAfter will set a Retry-After hint on the injected failures, 0 disables it.
func (i *Injector) SetRetryAfter(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.retryAfter = d
}

type injection struct {
	latency      time.Duration
	errorPercent int
	status       int
	retryAfter   time.Duration
}

func (i *Injector) snapshot() injection {
	i.mu.Lock()
	defer i.mu.Unlock()
	status := i.status
	if status == 0 {
		status = defaultStatus
	}
	return injection{
		latency:      i.latency,
		errorPercent: i.errorPercent,
		status:       status,
		retryAfter:   i.retryAfter,
	}
}

// Config is the configuration of the failure injector.
type Config struct {
	// Injector is the failure injector.
	Injector *Injector
}

func (c *Config) defaults() {
	if c.Injector == nil {
		c.Injector = &Injector{
			latency: 100 * time.Millisecond,
		}
	}
}

// FailureInjector injects latency and status failures on the executions it wraps,
// the failures are spread so the ratio of injected failures follows the injector
// error percent.
type FailureInjector struct {
	total int
	errs  int
	mu    sync.Mutex
	cfg   Config
}

// New returns a new failure injector. See Injector to know what kind of
// failures are controlable.
func New(cfg Config) *FailureInjector {
	cfg.defaults()
	return &FailureInjector{cfg: cfg}
}

// inject waits the latency and returns the response to fail with, or nil if
// the execution should not fail.
func (f *FailureInjector) inject(ctx context.Context) *retry.Response {
	inj := f.cfg.Injector.snapshot()

	// Inject latency attack.
	if inj.latency > 0 {
		t := time.NewTimer(inj.latency)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}

	// Inject error attack.
	f.mu.Lock()
	f.total++
	fail := f.errs*100 < inj.errorPercent*f.total
	if fail {
		f.errs++
	}
	f.mu.Unlock()

	if !fail {
		return nil
	}

	h := http.Header{}
	if inj.retryAfter > 0 {
		h.Set("Retry-After", strconv.FormatFloat(inj.retryAfter.Seconds(), 'f', -1, 64))
	}
	return &retry.Response{StatusCode: inj.status, Header: h}
}

// Func wraps fn injecting the failures.
func (f *FailureInjector) Func(fn throttle.Func) throttle.Func {
	return func(ctx context.Context) error {
		if resp := f.inject(ctx); resp != nil {
			return retry.NewResponseError(resp, errors.ErrFailureInjected)
		}
		return fn(ctx)
	}
}

// Runner returns a Runner that runs the executions on next with the failures
// injected, every attempt of next goes through the injector.
func (f *FailureInjector) Runner(next throttle.Runner) throttle.Runner {
	return throttle.RunnerFunc(func(ctx context.Context, fn throttle.Func) error {
		return next.Run(ctx, f.Func(fn))
	})
}

// Wrap wraps a task injecting the failures.
func Wrap[T any](f *FailureInjector, fn func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		if resp := f.inject(ctx); resp != nil {
			var zero T
			return zero, retry.NewResponseError(resp, errors.ErrFailureInjected)
		}
		return fn(ctx)
	}
}

// Handler wraps an HTTP handler answering with the injected failures instead
// of calling next.
func (f *FailureInjector) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := f.inject(r.Context())
		if resp == nil {
			next.ServeHTTP(w, r)
			return
		}

		for k, vs := range resp.Header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		w.WriteHeader(resp.StatusCode)
		fmt.Fprint(w, errors.ErrFailureInjected.Error())
	})
}
