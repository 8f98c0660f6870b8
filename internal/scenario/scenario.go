// Package scenario defines simulated user behavior.
//
// A UserScenario is an explicit table of weighted tasks plus wait bounds and
// optional start/stop hooks. It is pure configuration: the engine creates one
// User per simulated client from it, calls Setup once, repeatedly picks and
// performs tasks with a random wait in between, and calls Teardown once.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// HookFunc runs once at the start or end of a user's life.
type HookFunc func(ctx context.Context, u *User) error

// UserScenario declares what a simulated user does.
type UserScenario struct {
	// Name of the scenario (for reporting)
	Name string

	// Tasks is the weighted action table, in declaration order.
	Tasks []Task

	// MinWait and MaxWait bound the random wait after each task.
	MinWait time.Duration
	MaxWait time.Duration

	// OnStart runs once before any task. An error aborts the user.
	OnStart HookFunc

	// OnStop runs once when the user stops. Errors are non-fatal.
	OnStop HookFunc
}

// Validate checks the scenario's invariants and reports every violation.
func (s *UserScenario) Validate() error {
	var errs []error

	if len(s.Tasks) == 0 {
		errs = append(errs, errors.New("at least one task is required"))
	}

	seen := make(map[string]bool, len(s.Tasks))
	for i, t := range s.Tasks {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("tasks[%d]: name is required", i))
		} else if seen[t.Name] {
			errs = append(errs, fmt.Errorf("tasks[%d]: duplicate task name %q", i, t.Name))
		}
		seen[t.Name] = true

		if t.Weight <= 0 {
			errs = append(errs, fmt.Errorf("tasks[%d]: weight must be a positive integer, got %d", i, t.Weight))
		}
		if t.Fn == nil {
			errs = append(errs, fmt.Errorf("tasks[%d]: function is required", i))
		}
	}

	if s.MinWait < 0 {
		errs = append(errs, fmt.Errorf("min wait must not be negative, got %v", s.MinWait))
	}
	if s.MinWait > s.MaxWait {
		errs = append(errs, fmt.Errorf("min wait (%v) must not exceed max wait (%v)", s.MinWait, s.MaxWait))
	}

	if len(errs) > 0 {
		return fmt.Errorf("scenario %q: %w", s.Name, errors.Join(errs...))
	}
	return nil
}

// WithWait returns a copy of the scenario with different wait bounds.
func (s *UserScenario) WithWait(minWait, maxWait time.Duration) *UserScenario {
	c := *s
	c.Tasks = append([]Task(nil), s.Tasks...)
	c.MinWait = minWait
	c.MaxWait = maxWait
	return &c
}

// WaitTime samples a wait uniformly over whole milliseconds in
// [MinWait, MaxWait].
func (s *UserScenario) WaitTime(r *rand.Rand) time.Duration {
	spanMillis := int64((s.MaxWait - s.MinWait) / time.Millisecond)
	if spanMillis <= 0 {
		return s.MinWait
	}
	return s.MinWait + time.Duration(r.Int63n(spanMillis+1))*time.Millisecond
}
