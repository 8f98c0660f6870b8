package scenario

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/swarm/internal/session"
)

var (
	// ErrAlreadyStarted is returned when Setup is called more than once.
	ErrAlreadyStarted = errors.New("user already started")

	// ErrNotRunning is returned for actions or teardown outside the Running state.
	ErrNotRunning = errors.New("user is not running")

	// ErrUnknownAction is returned when PerformAction names no declared task.
	ErrUnknownAction = errors.New("unknown action")
)

// State represents the lifecycle state of a User.
type State int32

const (
	// StateNotStarted indicates Setup has not completed.
	StateNotStarted State = iota
	// StateRunning indicates Setup succeeded and actions may run.
	StateRunning
	// StateStopped indicates Teardown ran or Setup failed.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// User is one simulated client executing a scenario.
//
// Each User has its own session and random source and shares nothing with
// other users. A User is driven by a single goroutine; only the state and
// counters may be read concurrently.
type User struct {
	// Unique identifier for this user
	ID int

	scenario *UserScenario
	picker   *Picker
	tasks    map[string]*Task
	session  *session.Session
	rng      *rand.Rand

	// Lifecycle state (atomic for lock-free reads)
	state atomic.Int32

	// Serializes transitions so each happens at most once.
	transitionMu sync.Mutex

	actions atomic.Int64
}

// NewUser creates a user for a validated scenario. A nil rng is replaced by
// one seeded from the clock and id.
func NewUser(id int, sc *UserScenario, sess *session.Session, rng *rand.Rand) (*User, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errors.New("session is required")
	}

	picker, err := NewPicker(sc.Tasks)
	if err != nil {
		return nil, err
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
	}

	tasks := make(map[string]*Task, len(sc.Tasks))
	for i := range sc.Tasks {
		tasks[sc.Tasks[i].Name] = &sc.Tasks[i]
	}

	return &User{
		ID:       id,
		scenario: sc,
		picker:   picker,
		tasks:    tasks,
		session:  sess,
		rng:      rng,
	}, nil
}

// Session returns the user's HTTP session.
func (u *User) Session() *session.Session {
	return u.session
}

// Scenario returns the scenario the user executes.
func (u *User) Scenario() *UserScenario {
	return u.scenario
}

// GetState returns the current lifecycle state.
func (u *User) GetState() State {
	return State(u.state.Load())
}

// Actions returns the number of actions performed so far.
func (u *User) Actions() int64 {
	return u.actions.Load()
}

// Setup runs the scenario's start hook and moves the user to Running.
//
// If the hook fails the user moves straight to Stopped and Teardown must not
// be called.
func (u *User) Setup(ctx context.Context) error {
	u.transitionMu.Lock()
	defer u.transitionMu.Unlock()

	if u.GetState() != StateNotStarted {
		return fmt.Errorf("user %d: %w", u.ID, ErrAlreadyStarted)
	}

	if u.scenario.OnStart != nil {
		if err := u.scenario.OnStart(ctx, u); err != nil {
			u.state.Store(int32(StateStopped))
			return fmt.Errorf("user %d setup: %w", u.ID, err)
		}
	}

	u.state.Store(int32(StateRunning))
	return nil
}

// Next picks the next task by weight.
func (u *User) Next() *Task {
	return u.picker.Pick(u.rng)
}

// PerformAction runs the named task once.
func (u *User) PerformAction(ctx context.Context, name string) error {
	if u.GetState() != StateRunning {
		return fmt.Errorf("user %d: %w", u.ID, ErrNotRunning)
	}

	task, ok := u.tasks[name]
	if !ok {
		return fmt.Errorf("user %d: %w: %q", u.ID, ErrUnknownAction, name)
	}

	u.actions.Add(1)
	if err := task.Fn(ctx, u); err != nil {
		return fmt.Errorf("user %d action %q: %w", u.ID, name, err)
	}
	return nil
}

// Wait sleeps for a random duration within the scenario's wait bounds, or
// until ctx is done.
func (u *User) Wait(ctx context.Context) error {
	d := u.scenario.WaitTime(u.rng)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Teardown runs the scenario's stop hook and moves the user to Stopped.
//
// The user is Stopped even if the hook fails.
func (u *User) Teardown(ctx context.Context) error {
	u.transitionMu.Lock()
	defer u.transitionMu.Unlock()

	if u.GetState() != StateRunning {
		return fmt.Errorf("user %d: %w", u.ID, ErrNotRunning)
	}
	u.state.Store(int32(StateStopped))

	if u.scenario.OnStop != nil {
		if err := u.scenario.OnStop(ctx, u); err != nil {
			return fmt.Errorf("user %d teardown: %w", u.ID, err)
		}
	}
	return nil
}
