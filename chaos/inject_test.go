package chaos_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gothrottle/throttle"
	"github.com/gothrottle/throttle/chaos"
	"github.com/gothrottle/throttle/errors"
	"github.com/gothrottle/throttle/retry"
)

var err = fmt.Errorf("wanted error")
var okf = func(ctx context.Context) error { return nil }
var errf = func(ctx context.Context) error { return err }

func TestFailureInjector(t *testing.T) {
	tests := []struct {
		name       string
		injector   func() *chaos.Injector
		calls      int
		f          func(ctx context.Context) error
		expErrs    int
		expStatus  int
		expLatency time.Duration
	}{
		{
			name: "Setting no errors shouldn't return an error.",
			injector: func() *chaos.Injector {
				i := &chaos.Injector{}
				i.SetErrorPercent(0)
				return i
			},
			calls:   100,
			f:       okf,
			expErrs: 0,
		},
		{
			name: "Setting error percent should make return errors on that percent.",
			injector: func() *chaos.Injector {
				i := &chaos.Injector{}
				i.SetErrorPercent(90)
				return i
			},
			calls:     100,
			f:         okf,
			expErrs:   90,
			expStatus: http.StatusServiceUnavailable,
		},
		{
			name: "Setting a status should return errors with that status.",
			injector: func() *chaos.Injector {
				i := &chaos.Injector{}
				i.SetErrorPercent(100)
				i.SetStatus(http.StatusTooManyRequests)
				return i
			},
			calls:     10,
			f:         okf,
			expErrs:   10,
			expStatus: http.StatusTooManyRequests,
		},
		{
			name: "Not injected executions should return the func result.",
			injector: func() *chaos.Injector {
				i := &chaos.Injector{}
				i.SetErrorPercent(50)
				return i
			},
			calls:     10,
			f:         errf,
			expErrs:   10,
			expStatus: http.StatusServiceUnavailable,
		},
		{
			name: "Injecting latency should make the response to be delayed.",
			injector: func() *chaos.Injector {
				i := &chaos.Injector{}
				i.SetLatency(10 * time.Millisecond)
				return i
			},
			calls:      1,
			f:          okf,
			expLatency: 8 * time.Millisecond,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)

			fi := chaos.New(chaos.Config{Injector: test.injector()})
			f := fi.Func(test.f)

			start := time.Now()
			gotErrs := 0
			for i := 0; i < test.calls; i++ {
				if err := f(context.TODO()); err != nil {
					gotErrs++
					if code, ok := retry.StatusCode(err); ok {
						assert.Equal(test.expStatus, code)
						assert.ErrorIs(err, errors.ErrFailureInjected)
					}
				}
			}

			assert.Equal(test.expErrs, gotErrs)
			assert.GreaterOrEqual(time.Since(start), test.expLatency)
		})
	}
}

func TestWrapRetryAfter(t *testing.T) {
	assert := assert.New(t)

	inj := &chaos.Injector{}
	inj.SetErrorPercent(100)
	inj.SetStatus(http.StatusTooManyRequests)
	inj.SetRetryAfter(1500 * time.Millisecond)
	fi := chaos.New(chaos.Config{Injector: inj})

	f := chaos.Wrap(fi, func(context.Context) (string, error) { return "ok", nil })
	res, err := f(context.TODO())

	assert.Equal("", res)
	assert.Equal(retry.KindRateLimited, retry.Classify(err))
	hint, ok := retry.RetryAfter(err)
	assert.True(ok)
	assert.Equal(1500*time.Millisecond, hint)
}

func TestRunnerRetriesInjectedFailures(t *testing.T) {
	assert := assert.New(t)

	inj := &chaos.Injector{}
	inj.SetErrorPercent(50)
	fi := chaos.New(chaos.Config{Injector: inj})

	s := throttle.New(throttle.Config{
		MaxConcurrent:     1,
		MaxRetries:        2,
		InitialRetryDelay: time.Millisecond,
	})
	runner := fi.Runner(s)

	calls := 0
	err := runner.Run(context.TODO(), func(ctx context.Context) error {
		calls++
		return nil
	})

	// The first attempt is injected with a 503 and the retry goes through.
	assert.NoError(err)
	assert.Equal(1, calls)
}

func TestHandler(t *testing.T) {
	assert := assert.New(t)

	inj := &chaos.Injector{}
	inj.SetErrorPercent(50)
	inj.SetRetryAfter(2 * time.Second)
	fi := chaos.New(chaos.Config{Injector: inj})

	h := fi.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := []int{}
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
		if rec.Code != http.StatusOK {
			assert.Equal("2", rec.Header().Get("Retry-After"))
		}
	}

	assert.Equal([]int{503, 200, 503, 200}, codes)
}

func TestInjectorValidation(t *testing.T) {
	assert := assert.New(t)

	inj := &chaos.Injector{}
	assert.Error(inj.SetErrorPercent(101))
	assert.Error(inj.SetErrorPercent(-1))
	assert.NoError(inj.SetErrorPercent(100))
	assert.Error(inj.SetStatus(99))
	assert.Error(inj.SetStatus(600))
	assert.NoError(inj.SetStatus(429))
}
