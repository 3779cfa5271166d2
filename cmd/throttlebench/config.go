package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	yaml "go.yaml.in/yaml/v3"

	"github.com/gothrottle/throttle"
)

type fileConfig struct {
	Requests    int           `yaml:"requests"`
	Rate        float64       `yaml:"rate"`
	Target      string        `yaml:"target"`
	MetricsAddr string        `yaml:"metrics_addr"`
	LogLevel    string        `yaml:"log_level"`
	Scheduler   schedulerFile `yaml:"scheduler"`
	Chaos       chaosFile     `yaml:"chaos"`
}

type schedulerFile struct {
	ID                string `yaml:"id"`
	MaxConcurrent     int    `yaml:"max_concurrent"`
	MaxRetries        int    `yaml:"max_retries"`
	DisableRetry      bool   `yaml:"disable_retry"`
	InitialRetryDelay string `yaml:"initial_retry_delay"`
	MaxRetryDelay     string `yaml:"max_retry_delay"`
}

type chaosFile struct {
	ErrorPercent int    `yaml:"error_percent"`
	Status       int    `yaml:"status"`
	RetryAfter   string `yaml:"retry_after"`
	Latency      string `yaml:"latency"`
}

// benchConfig is the resolved configuration of a run.
type benchConfig struct {
	Requests    int
	Rate        float64
	Target      string
	MetricsAddr string
	LogLevel    string
	Scheduler   throttle.Config
	Chaos       chaosConfig
}

type chaosConfig struct {
	ErrorPercent int
	Status       int
	RetryAfter   time.Duration
	Latency      time.Duration
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Requests: 100,
		Rate:     50,
		LogLevel: "info",
		Scheduler: schedulerFile{
			ID:                "throttlebench",
			InitialRetryDelay: "100ms",
			MaxRetryDelay:     "2s",
		},
		Chaos: chaosFile{
			ErrorPercent: 30,
			Latency:      "20ms",
		},
	}
}

func loadFile(path string) (fileConfig, error) {
	cfg := defaultFileConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("yaml unmarshal: %w", err)
	}

	return cfg, nil
}

// parseConfig loads the config file selected on the args and applies the
// flags over it.
func parseConfig(args []string) (benchConfig, error) {
	fs := flag.NewFlagSet("throttlebench", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to a yaml config file")
	requests := fs.Int("requests", 0, "number of requests to execute")
	rate := fs.Float64("rate", 0, "submitted requests per second")
	target := fs.String("target", "", "URL to request, an in-process flaky server is used when empty")
	metricsAddr := fs.String("metrics-addr", "", "address to serve the prometheus metrics on")
	logLevel := fs.String("log-level", "", "log level")
	maxConcurrent := fs.Int("max-concurrent", 0, "maximum requests in flight")
	maxRetries := fs.Int("max-retries", 0, "maximum retries of a request")
	if err := fs.Parse(args); err != nil {
		return benchConfig{}, err
	}

	fc, err := loadFile(*cfgPath)
	if err != nil {
		return benchConfig{}, err
	}

	// Only the flags set explicitly override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "requests":
			fc.Requests = *requests
		case "rate":
			fc.Rate = *rate
		case "target":
			fc.Target = *target
		case "metrics-addr":
			fc.MetricsAddr = *metricsAddr
		case "log-level":
			fc.LogLevel = *logLevel
		case "max-concurrent":
			fc.Scheduler.MaxConcurrent = *maxConcurrent
		case "max-retries":
			fc.Scheduler.MaxRetries = *maxRetries
		}
	})

	return fc.resolve()
}

func (fc fileConfig) resolve() (benchConfig, error) {
	if fc.Requests <= 0 {
		return benchConfig{}, fmt.Errorf("requests: must be > 0")
	}
	if fc.Rate < 0 {
		return benchConfig{}, fmt.Errorf("rate: must be >= 0")
	}
	if fc.Chaos.ErrorPercent < 0 || fc.Chaos.ErrorPercent > 100 {
		return benchConfig{}, fmt.Errorf("chaos.error_percent: %d is not a valid percent", fc.Chaos.ErrorPercent)
	}

	initial, err := parseDurationOrDefault("scheduler.initial_retry_delay", fc.Scheduler.InitialRetryDelay, 0)
	if err != nil {
		return benchConfig{}, err
	}
	maxDelay, err := parseDurationOrDefault("scheduler.max_retry_delay", fc.Scheduler.MaxRetryDelay, 0)
	if err != nil {
		return benchConfig{}, err
	}
	retryAfter, err := parseDurationOrDefault("chaos.retry_after", fc.Chaos.RetryAfter, 0)
	if err != nil {
		return benchConfig{}, err
	}
	latency, err := parseDurationOrDefault("chaos.latency", fc.Chaos.Latency, 0)
	if err != nil {
		return benchConfig{}, err
	}

	return benchConfig{
		Requests:    fc.Requests,
		Rate:        fc.Rate,
		Target:      strings.TrimSpace(fc.Target),
		MetricsAddr: strings.TrimSpace(fc.MetricsAddr),
		LogLevel:    fc.LogLevel,
		Scheduler: throttle.Config{
			ID:                fc.Scheduler.ID,
			MaxConcurrent:     fc.Scheduler.MaxConcurrent,
			MaxRetries:        fc.Scheduler.MaxRetries,
			DisableRetry:      fc.Scheduler.DisableRetry,
			InitialRetryDelay: initial,
			MaxRetryDelay:     maxDelay,
		},
		Chaos: chaosConfig{
			ErrorPercent: fc.Chaos.ErrorPercent,
			Status:       fc.Chaos.Status,
			RetryAfter:   retryAfter,
			Latency:      latency,
		},
	}, nil
}

func parseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}
