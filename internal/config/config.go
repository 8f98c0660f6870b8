// Package config provides the run configuration for replaying a scenario.
//
// Example YAML:
//
//	name: "website"
//	host: "https://www.example.com"
//	users: 50
//	spawnRate: 5
//	duration: 10m
//	minWait: 5000
//	maxWait: 9000
//	auth:
//	  enabled: false
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultName      = "website"
	DefaultUsers     = 1
	DefaultSpawnRate = 1.0
	DefaultDuration  = 30 * time.Second
	DefaultTimeout   = 30 * time.Second
)

// RunConfig is the engine-side configuration for a run.
type RunConfig struct {
	// Name of the run (for reporting)
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Host is the target base URL, e.g. "https://www.example.com"
	Host string `json:"host" yaml:"host"`

	// Users is the number of concurrent simulated users
	Users int `json:"users,omitempty" yaml:"users,omitempty"`

	// SpawnRate is how many users are started per second
	SpawnRate float64 `json:"spawnRate,omitempty" yaml:"spawnRate,omitempty"`

	// Duration is how long the run lasts once spawning starts
	Duration Duration `json:"duration,omitempty" yaml:"duration,omitempty"`

	// MinWait and MaxWait override the scenario's wait bounds
	MinWait *Millis `json:"minWait,omitempty" yaml:"minWait,omitempty"`
	MaxWait *Millis `json:"maxWait,omitempty" yaml:"maxWait,omitempty"`

	// Timeout is the per-request timeout
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Headers are sent on every request
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Auth configures login/logout form submission
	Auth *AuthConfig `json:"auth,omitempty" yaml:"auth,omitempty"`

	// ResetStats clears statistics once every user is spawned and set up
	ResetStats bool `json:"resetStats,omitempty" yaml:"resetStats,omitempty"`
}

// AuthConfig holds the credentials posted on login and logout.
type AuthConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *RunConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Users == 0 {
		c.Users = DefaultUsers
	}
	if c.SpawnRate == 0 {
		c.SpawnRate = DefaultSpawnRate
	}
	if c.Duration == 0 {
		c.Duration = Duration(DefaultDuration)
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(DefaultTimeout)
	}
}

// WaitBounds returns the configured wait bounds, falling back to the given
// scenario defaults for any bound that is not set.
func (c *RunConfig) WaitBounds(defaultMin, defaultMax time.Duration) (time.Duration, time.Duration) {
	minWait, maxWait := defaultMin, defaultMax
	if c.MinWait != nil {
		minWait = c.MinWait.Duration()
	}
	if c.MaxWait != nil {
		maxWait = c.MaxWait.Duration()
	}
	return minWait, maxWait
}

// AuthEnabled reports whether login/logout requests should be sent.
func (c *RunConfig) AuthEnabled() bool {
	return c.Auth != nil && c.Auth.Enabled
}

// Duration is a time.Duration that unmarshals from strings like "30s" or
// from bare integers, which are taken as seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*d = 0
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}

	dur, err := ParseDurationString(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}

	dur, err := ParseDurationString(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(dur)
	return nil
}

// Millis is a wait bound. Bare integers are milliseconds; strings like
// "5s" are parsed as Go durations.
type Millis time.Duration

// NewMillis returns a pointer to ms milliseconds.
func NewMillis(ms int64) *Millis {
	m := Millis(time.Duration(ms) * time.Millisecond)
	return &m
}

// Duration returns the value as a time.Duration.
func (m Millis) Duration() time.Duration {
	return time.Duration(m)
}

// MarshalJSON implements json.Marshaler. Values are written as integers.
func (m Millis) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(m).Milliseconds())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Millis) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}

	dur, err := parseMillis(s)
	if err != nil {
		return err
	}
	*m = Millis(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Millis) MarshalYAML() (interface{}, error) {
	return time.Duration(m).Milliseconds(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Millis) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: wait must be a scalar", value.Line)
	}

	dur, err := parseMillis(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = Millis(dur)
	return nil
}

func parseMillis(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid wait %q: expected milliseconds or a duration", s)
	}
	return d, nil
}
