// Package runner drives a population of simulated users through a scenario.
//
// A Runner spawns users at a fixed rate, lets each one loop over weighted
// actions until the run ends, and collects every request outcome into a
// shared stats.Collector.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wesleyorama2/swarm/internal/config"
	"github.com/wesleyorama2/swarm/internal/scenario"
	"github.com/wesleyorama2/swarm/internal/session"
	"github.com/wesleyorama2/swarm/internal/stats"
)

// DefaultStopTimeout bounds how long a user's teardown may take once the run
// has ended.
const DefaultStopTimeout = 10 * time.Second

// ErrAlreadyRun is returned when Run is called twice on the same Runner.
var ErrAlreadyRun = errors.New("runner already run")

// Factory builds the scenario each user executes.
type Factory func(cfg *config.RunConfig) *scenario.UserScenario

// Website is the Factory for the website scenario. Login credentials are
// only used when auth is enabled in cfg.
func Website(cfg *config.RunConfig) *scenario.UserScenario {
	var creds *scenario.Credentials
	if cfg.AuthEnabled() {
		creds = &scenario.Credentials{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		}
	}
	return scenario.Website(creds)
}

// Result summarizes a completed run.
type Result struct {
	ID               string
	Name             string
	Host             string
	StartTime        time.Time
	Duration         time.Duration
	UsersSpawned     int
	SetupFailures    int
	TeardownFailures int
	Stats            *stats.Snapshot
}

// AllSetupsFailed reports whether every spawned user failed its setup.
func (r *Result) AllSetupsFailed() bool {
	return r.UsersSpawned > 0 && r.SetupFailures == r.UsersSpawned
}

// Runner executes one run of a scenario.
type Runner struct {
	cfg      *config.RunConfig
	scenario *scenario.UserScenario

	logger      *zap.Logger
	stopTimeout time.Duration
	httpClient  *http.Client
	seed        int64
	seeded      bool

	collector *stats.Collector
	failures  chan error
	setups    sync.WaitGroup

	started          atomic.Bool
	spawned          atomic.Int64
	setupFailures    atomic.Int64
	teardownFailures atomic.Int64
	active           atomic.Int64
	nextID           atomic.Int32

	seedMu sync.Mutex
	rng    *rand.Rand
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStopTimeout sets the teardown deadline.
func WithStopTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.stopTimeout = d
	}
}

// WithSeed makes user action selection and waits reproducible.
func WithSeed(seed int64) Option {
	return func(r *Runner) {
		r.seed = seed
		r.seeded = true
	}
}

// WithHTTPClient sets the client whose transport all users share.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// New creates a runner. cfg is copied and defaulted; the scenario built by
// factory has the configured wait bounds merged in and is validated.
func New(cfg *config.RunConfig, factory Factory, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if factory == nil {
		factory = Website
	}

	c := *cfg
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	base := factory(&c)
	if base == nil {
		return nil, errors.New("factory returned no scenario")
	}
	minWait, maxWait := c.WaitBounds(base.MinWait, base.MaxWait)
	sc := base.WithWait(minWait, maxWait)
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:         &c,
		scenario:    sc,
		logger:      zap.NewNop(),
		stopTimeout: DefaultStopTimeout,
		collector:   stats.NewCollector(),
		failures:    make(chan error, c.Users),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.httpClient == nil {
		r.httpClient = newHTTPClient(c.Users)
	}
	if !r.seeded {
		r.seed = time.Now().UnixNano()
	}
	r.rng = rand.New(rand.NewSource(r.seed))

	return r, nil
}

// newHTTPClient creates a client with a pooled transport sized for users.
func newHTTPClient(users int) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = users * 2
	transport.MaxIdleConnsPerHost = users
	transport.IdleConnTimeout = 90 * time.Second
	return &http.Client{Transport: transport}
}

// Config returns the effective configuration.
func (r *Runner) Config() *config.RunConfig {
	return r.cfg
}

// Scenario returns the scenario users execute.
func (r *Runner) Scenario() *scenario.UserScenario {
	return r.scenario
}

// Failures returns setup failures as they happen. The channel is closed when
// Run returns.
func (r *Runner) Failures() <-chan error {
	return r.failures
}

// ActiveUsers returns how many users are currently past setup and not yet
// torn down.
func (r *Runner) ActiveUsers() int {
	return int(r.active.Load())
}

// Stats returns a snapshot of the statistics recorded so far.
func (r *Runner) Stats() *stats.Snapshot {
	return r.collector.Snapshot()
}

// Run spawns users and blocks until the run duration elapses or ctx is
// cancelled, then waits for every user to tear down.
//
// With ResetStats set, statistics are cleared once every user has been
// spawned and has finished setup, so the result covers only steady state.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if !r.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}
	defer close(r.failures)

	id := uuid.New().String()
	start := time.Now()
	log := r.logger.With(zap.String("run", id))

	log.Info("run starting",
		zap.String("name", r.cfg.Name),
		zap.String("host", r.cfg.Host),
		zap.Int("users", r.cfg.Users),
		zap.Float64("spawnRate", r.cfg.SpawnRate),
		zap.Duration("duration", r.cfg.Duration.Std()),
		zap.Duration("minWait", r.scenario.MinWait),
		zap.Duration("maxWait", r.scenario.MaxWait))

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Duration.Std())
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(r.cfg.SpawnRate), 1)

	var g errgroup.Group
	spawnedAll := true
	for i := 0; i < r.cfg.Users; i++ {
		if err := limiter.Wait(runCtx); err != nil {
			log.Debug("spawning stopped", zap.Int("spawned", i), zap.Error(err))
			spawnedAll = false
			break
		}

		user, err := r.spawn()
		if err != nil {
			cancel()
			_ = g.Wait()
			return nil, err
		}

		r.setups.Add(1)
		g.Go(func() error {
			r.runUser(runCtx, user, log)
			return nil
		})
	}

	if spawnedAll && r.cfg.ResetStats {
		r.setups.Wait()
		r.collector.Reset()
		log.Info("stats reset after spawning", zap.Int("users", int(r.spawned.Load())))
	}

	_ = g.Wait()

	result := &Result{
		ID:               id,
		Name:             r.cfg.Name,
		Host:             r.cfg.Host,
		StartTime:        start,
		Duration:         time.Since(start),
		UsersSpawned:     int(r.spawned.Load()),
		SetupFailures:    int(r.setupFailures.Load()),
		TeardownFailures: int(r.teardownFailures.Load()),
		Stats:            r.collector.Snapshot(),
	}

	log.Info("run finished",
		zap.Duration("elapsed", result.Duration),
		zap.Int("usersSpawned", result.UsersSpawned),
		zap.Int("setupFailures", result.SetupFailures),
		zap.Int("teardownFailures", result.TeardownFailures),
		zap.Int64("requests", result.Stats.Total.Requests),
		zap.Int64("failures", result.Stats.Total.Failures))

	return result, nil
}

// spawn creates the next user with its own session and random source.
func (r *Runner) spawn() (*scenario.User, error) {
	id := int(r.nextID.Add(1))

	options := []session.Option{
		session.WithHTTPClient(r.httpClient),
		session.WithTimeout(r.cfg.Timeout.Std()),
	}
	for key, value := range r.cfg.Headers {
		options = append(options, session.WithHeader(key, value))
	}

	sess, err := session.New(r.cfg.Host, r.collector, options...)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}

	user, err := scenario.NewUser(id, r.scenario, sess, r.userRand())
	if err != nil {
		return nil, err
	}

	r.spawned.Add(1)
	return user, nil
}

// userRand derives a per-user random source from the runner seed.
func (r *Runner) userRand() *rand.Rand {
	r.seedMu.Lock()
	defer r.seedMu.Unlock()
	return rand.New(rand.NewSource(r.rng.Int63()))
}

// runUser drives one user through its whole lifecycle.
func (r *Runner) runUser(ctx context.Context, user *scenario.User, log *zap.Logger) {
	log = log.With(zap.Int("user", user.ID))

	err := user.Setup(ctx)
	r.setups.Done()
	if err != nil {
		r.setupFailures.Add(1)
		log.Error("user setup failed", zap.Error(err))
		select {
		case r.failures <- err:
		default:
		}
		return
	}
	log.Debug("user started")

	r.active.Add(1)
	defer r.active.Add(-1)

	// Requests run to completion once issued; only waits observe the stop.
	actionCtx := context.WithoutCancel(ctx)

	for ctx.Err() == nil {
		task := user.Next()
		if err := user.PerformAction(actionCtx, task.Name); err != nil {
			log.Debug("action failed", zap.String("action", task.Name), zap.Error(err))
		}
		if err := user.Wait(ctx); err != nil {
			break
		}
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.stopTimeout)
	defer cancel()

	if err := user.Teardown(stopCtx); err != nil {
		r.teardownFailures.Add(1)
		log.Warn("user teardown failed", zap.Error(err))
		return
	}
	log.Debug("user stopped", zap.Int64("actions", user.Actions()))
}
