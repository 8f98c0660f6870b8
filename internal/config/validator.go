package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Has returns true if any error is on field.
func (e *ValidationErrors) Has(field string) bool {
	for _, err := range e.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Validate validates the run configuration.
//
// Returns nil if valid, or a *ValidationErrors containing all validation errors.
// Zero-valued optional fields are accepted; call ApplyDefaults first to
// validate the effective configuration.
func (c *RunConfig) Validate() error {
	errs := &ValidationErrors{}

	validateHost(c.Host, errs)

	if c.Users < 0 {
		errs.Add("users", "users must be at least 1")
	}
	if c.SpawnRate < 0 {
		errs.Add("spawnRate", "spawnRate must be greater than 0")
	}
	if c.Duration < 0 {
		errs.Add("duration", "duration must not be negative")
	}
	if c.Timeout < 0 {
		errs.Add("timeout", "timeout must not be negative")
	}

	validateWait(c, errs)

	if c.Auth != nil && c.Auth.Enabled && c.Auth.Username == "" {
		errs.Add("auth.username", "username is required when auth is enabled")
	}

	for key := range c.Headers {
		if strings.TrimSpace(key) == "" {
			errs.Add("headers", "header names must not be empty")
			break
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// validateHost validates the target base URL.
func validateHost(host string, errs *ValidationErrors) {
	if host == "" {
		errs.Add("host", "host is required")
		return
	}

	u, err := url.Parse(host)
	if err != nil {
		errs.Add("host", fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add("host", fmt.Sprintf("scheme must be http or https, got %q", u.Scheme))
	}
	if u.Host == "" {
		errs.Add("host", "host name is required")
	}
}

// validateWait checks wait bounds. min ≤ max is only checked when both are
// set; a single override is checked against the scenario when it is merged.
func validateWait(c *RunConfig, errs *ValidationErrors) {
	if c.MinWait != nil && c.MinWait.Duration() < 0 {
		errs.Add("minWait", "minWait must not be negative")
	}
	if c.MaxWait != nil && c.MaxWait.Duration() < 0 {
		errs.Add("maxWait", "maxWait must not be negative")
	}
	if c.MinWait != nil && c.MaxWait != nil && c.MinWait.Duration() > c.MaxWait.Duration() {
		errs.Add("minWait", fmt.Sprintf("minWait (%dms) must not exceed maxWait (%dms)",
			c.MinWait.Duration().Milliseconds(), c.MaxWait.Duration().Milliseconds()))
	}
}
