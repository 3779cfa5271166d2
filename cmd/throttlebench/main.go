// Command throttlebench fires HTTP requests through a throttle scheduler and
// reports how they settled. Without a target it spins up an in-process server
// that fails a share of the requests with retryable statuses.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/gothrottle/throttle"
	"github.com/gothrottle/throttle/chaos"
	"github.com/gothrottle/throttle/httpx"
	"github.com/gothrottle/throttle/metrics"
	"github.com/gothrottle/throttle/retry"
)

const consoleTimeFormat = "15:04:05.000"

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg.LogLevel)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("benchmark failed")
		os.Exit(1)
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.ErrorFieldName = "err"
	cw := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: consoleTimeFormat}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

func run(ctx context.Context, cfg benchConfig, logger zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	target := cfg.Target
	if target == "" {
		fi, err := newFlakyInjector(cfg.Chaos)
		if err != nil {
			return err
		}
		srv := httptest.NewServer(fi.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, "ok")
		})))
		defer srv.Close()
		target = srv.URL
		logger.Info().
			Str("url", target).
			Int("error_percent", cfg.Chaos.ErrorPercent).
			Msg("using in-process flaky server")
	}

	schedCfg := cfg.Scheduler
	schedCfg.MetricsRecorder = metrics.NewPrometheusRecorder(reg)
	schedLogger := logger.With().Str("component", "scheduler").Logger()
	schedCfg.Logger = &schedLogger
	s := throttle.New(schedCfg)

	rep, err := fire(ctx, s, cfg, target)
	if err != nil {
		return err
	}
	rep.log(logger)

	return nil
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

func newFlakyInjector(cfg chaosConfig) (*chaos.FailureInjector, error) {
	inj := &chaos.Injector{}
	if err := inj.SetErrorPercent(cfg.ErrorPercent); err != nil {
		return nil, err
	}
	if cfg.Status != 0 {
		if err := inj.SetStatus(cfg.Status); err != nil {
			return nil, err
		}
	}
	inj.SetRetryAfter(cfg.RetryAfter)
	inj.SetLatency(cfg.Latency)

	return chaos.New(chaos.Config{Injector: inj}), nil
}

type report struct {
	requests  int
	successes int
	// abandoned are the requests interrupted because the run was stopped.
	abandoned int
	failures  map[retry.Kind]int
	elapsed   time.Duration
}

func (r *report) record(ctx context.Context, err error) {
	switch {
	case err == nil:
		r.successes++
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		r.abandoned++
	default:
		r.failures[retry.Classify(err)]++
	}
}

// fire submits the requests paced by the configured rate and waits for all of
// them to settle.
func fire(ctx context.Context, s *throttle.Scheduler, cfg benchConfig, target string) (report, error) {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	rep := report{failures: map[retry.Kind]int{}}
	var mu sync.Mutex
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < cfg.Requests; i++ {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		f := httpx.Get(ctx, s, nil, target)
		rep.requests++
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Wait(ctx)

			mu.Lock()
			defer mu.Unlock()
			rep.record(ctx, err)
		}()
	}
	wg.Wait()
	rep.elapsed = time.Since(start)

	if rep.requests == 0 {
		return rep, fmt.Errorf("no request was submitted: %w", ctx.Err())
	}

	return rep, nil
}

func (r report) log(logger zerolog.Logger) {
	kinds := make([]string, 0, len(r.failures))
	for k := range r.failures {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	failures := zerolog.Dict()
	total := 0
	for _, k := range kinds {
		n := r.failures[retry.Kind(k)]
		failures.Int(k, n)
		total += n
	}

	logger.Info().
		Int("requests", r.requests).
		Int("successes", r.successes).
		Int("failed", total).
		Int("abandoned", r.abandoned).
		Dict("failures", failures).
		Dur("elapsed", r.elapsed).
		Msg("benchmark finished")
}
