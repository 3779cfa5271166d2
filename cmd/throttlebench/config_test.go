package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
requests: 20
rate: 5
log_level: debug
scheduler:
  id: bench
  max_concurrent: 4
  max_retries: 2
  initial_retry_delay: 50ms
  max_retry_delay: 1s
chaos:
  error_percent: 50
  status: 429
  retry_after: 250ms
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		args   []string
		expErr bool
		check  func(assert *assert.Assertions, cfg benchConfig)
	}{
		{
			name: "Without a file the defaults should be used.",
			check: func(assert *assert.Assertions, cfg benchConfig) {
				assert.Equal(100, cfg.Requests)
				assert.Equal(50.0, cfg.Rate)
				assert.Equal("throttlebench", cfg.Scheduler.ID)
				assert.Equal(100*time.Millisecond, cfg.Scheduler.InitialRetryDelay)
				assert.Equal(2*time.Second, cfg.Scheduler.MaxRetryDelay)
				assert.Equal(30, cfg.Chaos.ErrorPercent)
				assert.Equal(20*time.Millisecond, cfg.Chaos.Latency)
			},
		},
		{
			name: "The file should be loaded.",
			file: testYAML,
			check: func(assert *assert.Assertions, cfg benchConfig) {
				assert.Equal(20, cfg.Requests)
				assert.Equal(5.0, cfg.Rate)
				assert.Equal("debug", cfg.LogLevel)
				assert.Equal("bench", cfg.Scheduler.ID)
				assert.Equal(4, cfg.Scheduler.MaxConcurrent)
				assert.Equal(2, cfg.Scheduler.MaxRetries)
				assert.Equal(50*time.Millisecond, cfg.Scheduler.InitialRetryDelay)
				assert.Equal(time.Second, cfg.Scheduler.MaxRetryDelay)
				assert.Equal(50, cfg.Chaos.ErrorPercent)
				assert.Equal(429, cfg.Chaos.Status)
				assert.Equal(250*time.Millisecond, cfg.Chaos.RetryAfter)
			},
		},
		{
			name: "The flags should override the file.",
			file: testYAML,
			args: []string{"-requests", "7", "-max-concurrent", "1", "-target", " http://127.0.0.1:1 "},
			check: func(assert *assert.Assertions, cfg benchConfig) {
				assert.Equal(7, cfg.Requests)
				assert.Equal(1, cfg.Scheduler.MaxConcurrent)
				assert.Equal("http://127.0.0.1:1", cfg.Target)
				assert.Equal(2, cfg.Scheduler.MaxRetries)
			},
		},
		{
			name:   "An invalid duration should fail.",
			file:   "scheduler:\n  max_retry_delay: soon\n",
			expErr: true,
		},
		{
			name:   "A negative duration should fail.",
			file:   "chaos:\n  latency: -1s\n",
			expErr: true,
		},
		{
			name:   "An invalid error percent should fail.",
			file:   "chaos:\n  error_percent: 120\n",
			expErr: true,
		},
		{
			name:   "Zero requests should fail.",
			args:   []string{"-requests", "0"},
			expErr: true,
		},
		{
			name:   "Malformed yaml should fail.",
			file:   "requests: [",
			expErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)

			args := test.args
			if test.file != "" {
				args = append([]string{"-config", writeConfig(t, test.file)}, args...)
			}

			cfg, err := parseConfig(args)

			if test.expErr {
				assert.Error(err)
				return
			}
			if assert.NoError(err) {
				test.check(assert, cfg)
			}
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := parseConfig([]string{"-config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
