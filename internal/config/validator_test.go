package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		expected string
	}{
		{
			name:     "with field",
			err:      &ValidationError{Field: "host", Message: "host is required"},
			expected: "validation error on field 'host': host is required",
		},
		{
			name:     "without field",
			err:      &ValidationError{Message: "bad"},
			expected: "validation error: bad",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := &ValidationErrors{}
	assert.Equal(t, "no validation errors", errs.Error())
	assert.False(t, errs.HasErrors())

	errs.Add("a", "first")
	assert.Equal(t, "validation error on field 'a': first", errs.Error())

	errs.Add("b", "second")
	msg := errs.Error()
	assert.True(t, strings.HasPrefix(msg, "2 validation errors:"))
	assert.Contains(t, msg, "1. validation error on field 'a': first")
	assert.Contains(t, msg, "2. validation error on field 'b': second")
	assert.True(t, errs.Has("b"))
	assert.False(t, errs.Has("c"))
}

func validConfig() *RunConfig {
	cfg := &RunConfig{Host: "http://localhost:8080"}
	cfg.ApplyDefaults()
	return cfg
}

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *RunConfig)
		wantField string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *RunConfig) {},
		},
		{
			name: "valid wait bounds",
			mutate: func(c *RunConfig) {
				c.MinWait = NewMillis(5000)
				c.MaxWait = NewMillis(9000)
			},
		},
		{
			name: "equal wait bounds",
			mutate: func(c *RunConfig) {
				c.MinWait = NewMillis(0)
				c.MaxWait = NewMillis(0)
			},
		},
		{
			name:      "missing host",
			mutate:    func(c *RunConfig) { c.Host = "" },
			wantField: "host",
		},
		{
			name:      "host without scheme",
			mutate:    func(c *RunConfig) { c.Host = "localhost:8080" },
			wantField: "host",
		},
		{
			name:      "host with ftp scheme",
			mutate:    func(c *RunConfig) { c.Host = "ftp://files.example.com" },
			wantField: "host",
		},
		{
			name:      "negative users",
			mutate:    func(c *RunConfig) { c.Users = -1 },
			wantField: "users",
		},
		{
			name:      "negative spawn rate",
			mutate:    func(c *RunConfig) { c.SpawnRate = -2 },
			wantField: "spawnRate",
		},
		{
			name:      "negative duration",
			mutate:    func(c *RunConfig) { c.Duration = Duration(-time.Second) },
			wantField: "duration",
		},
		{
			name:      "negative timeout",
			mutate:    func(c *RunConfig) { c.Timeout = Duration(-time.Second) },
			wantField: "timeout",
		},
		{
			name: "min exceeds max",
			mutate: func(c *RunConfig) {
				c.MinWait = NewMillis(9001)
				c.MaxWait = NewMillis(9000)
			},
			wantField: "minWait",
		},
		{
			name:      "negative min wait",
			mutate:    func(c *RunConfig) { c.MinWait = NewMillis(-1) },
			wantField: "minWait",
		},
		{
			name:      "negative max wait",
			mutate:    func(c *RunConfig) { c.MaxWait = NewMillis(-1) },
			wantField: "maxWait",
		},
		{
			name:      "auth enabled without username",
			mutate:    func(c *RunConfig) { c.Auth = &AuthConfig{Enabled: true} },
			wantField: "auth.username",
		},
		{
			name:   "auth disabled without username",
			mutate: func(c *RunConfig) { c.Auth = &AuthConfig{Enabled: false} },
		},
		{
			name:      "empty header name",
			mutate:    func(c *RunConfig) { c.Headers = map[string]string{" ": "x"} },
			wantField: "headers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var verrs *ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.True(t, verrs.Has(tt.wantField), "expected error on %s, got %v", tt.wantField, err)
		})
	}
}

func TestRunConfig_ValidateCollectsAll(t *testing.T) {
	cfg := &RunConfig{
		Users:   -1,
		MinWait: NewMillis(10),
		MaxWait: NewMillis(5),
	}

	err := cfg.Validate()
	require.Error(t, err)

	var verrs *ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.True(t, verrs.Has("host"))
	assert.True(t, verrs.Has("users"))
	assert.True(t, verrs.Has("minWait"))
}

func TestRunConfig_ApplyDefaults(t *testing.T) {
	cfg := &RunConfig{Host: "http://localhost"}
	cfg.ApplyDefaults()

	assert.Equal(t, DefaultName, cfg.Name)
	assert.Equal(t, DefaultUsers, cfg.Users)
	assert.Equal(t, DefaultSpawnRate, cfg.SpawnRate)
	assert.Equal(t, DefaultDuration, cfg.Duration.Std())
	assert.Equal(t, DefaultTimeout, cfg.Timeout.Std())

	custom := &RunConfig{Name: "n", Users: 7, SpawnRate: 3, Duration: Duration(time.Minute), Timeout: Duration(time.Second)}
	custom.ApplyDefaults()
	assert.Equal(t, "n", custom.Name)
	assert.Equal(t, 7, custom.Users)
	assert.Equal(t, 3.0, custom.SpawnRate)
	assert.Equal(t, time.Minute, custom.Duration.Std())
	assert.Equal(t, time.Second, custom.Timeout.Std())
}

func TestRunConfig_WaitBounds(t *testing.T) {
	cfg := &RunConfig{}
	minWait, maxWait := cfg.WaitBounds(5*time.Second, 9*time.Second)
	assert.Equal(t, 5*time.Second, minWait)
	assert.Equal(t, 9*time.Second, maxWait)

	cfg.MaxWait = NewMillis(6000)
	minWait, maxWait = cfg.WaitBounds(5*time.Second, 9*time.Second)
	assert.Equal(t, 5*time.Second, minWait)
	assert.Equal(t, 6*time.Second, maxWait)

	cfg.MinWait = NewMillis(100)
	minWait, maxWait = cfg.WaitBounds(5*time.Second, 9*time.Second)
	assert.Equal(t, 100*time.Millisecond, minWait)
	assert.Equal(t, 6*time.Second, maxWait)
}
