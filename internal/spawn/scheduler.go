// Package spawn brings a boid population from zero to its target one entity
// per scheduler tick, with a fixed delay between ticks.
package spawn

import (
	"fmt"
	"time"

	"github.com/flockgo/flockd/internal/boid"
	"github.com/flockgo/flockd/internal/core/ecs"
	"github.com/flockgo/flockd/internal/core/event"
	"github.com/flockgo/flockd/internal/core/timer"
	"go.uber.org/zap"
)

// State is the scheduler lifecycle. There is no way back to Idle.
type State int

const (
	StateIdle State = iota
	StateSpawning
	StateFullySpawned
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpawning:
		return "spawning"
	case StateFullySpawned:
		return "fully_spawned"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further entity will be created.
func (s State) Terminal() bool {
	return s == StateFullySpawned || s == StateFailed || s == StateStopped
}

// Config is fixed for the lifetime of one run.
type Config struct {
	NumEntities int
	Delay       time.Duration
	Radius      float64 // forwarded to the host for placement
	Template    string
	Flock       boid.Params // forwarded, never read here
}

func (c Config) Validate() error {
	if c.NumEntities < 0 {
		return fmt.Errorf("%w: num entities %d is negative", ErrConfiguration, c.NumEntities)
	}
	if c.Delay < 0 {
		return fmt.Errorf("%w: spawn delay %s is negative", ErrConfiguration, c.Delay)
	}
	if c.Template == "" {
		return fmt.Errorf("%w: template is empty", ErrConfiguration)
	}
	return nil
}

// Request is what the host receives for each entity to create.
type Request struct {
	Seq      int
	Template string
	Radius   float64
	Flock    boid.Params
}

// Host creates entities and parents them under the shared anchor. Release
// undoes Instantiate for an entity that could not be attached or registered.
type Host interface {
	Instantiate(req Request) (ecs.EntityID, error)
	Attach(id ecs.EntityID) error
	Release(id ecs.EntityID)
}

// Clock schedules deferred callbacks; timer.Queue satisfies it.
type Clock interface {
	Now() time.Duration
	After(d time.Duration, fn func()) timer.Handle
	Cancel(h timer.Handle) bool
}

// Scheduler drives one spawn run. Accessed only from the host loop goroutine.
type Scheduler struct {
	clock    Clock
	host     Host
	bus      *event.Bus
	log      *zap.Logger
	registry *Registry

	cfg       Config
	state     State
	err       error
	pending   timer.Handle
	startedAt time.Duration
}

// NewScheduler builds an Idle scheduler. bus may be nil.
func NewScheduler(clock Clock, host Host, bus *event.Bus, log *zap.Logger) *Scheduler {
	return &Scheduler{
		clock:    clock,
		host:     host,
		bus:      bus,
		log:      log,
		registry: NewRegistry(),
	}
}

func (s *Scheduler) State() State        { return s.state }
func (s *Scheduler) Err() error          { return s.err }
func (s *Scheduler) Count() int          { return s.registry.Len() }
func (s *Scheduler) Registry() *Registry { return s.registry }
func (s *Scheduler) Config() Config      { return s.cfg }

// Start validates cfg and begins the run. The first entity is created before
// Start returns; the rest follow cfg.Delay apart on the clock. A creation
// failure on that first tick is returned as a *CreationError.
func (s *Scheduler) Start(cfg Config) error {
	if s.state != StateIdle {
		return fmt.Errorf("%w: %w (state %s)", ErrConfiguration, ErrAlreadyStarted, s.state)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.cfg = cfg
	s.registry.reset(cfg.NumEntities)
	s.startedAt = s.clock.Now()
	s.state = StateSpawning

	s.log.Info("spawn run started",
		zap.Int("target", cfg.NumEntities),
		zap.Duration("delay", cfg.Delay),
		zap.String("template", cfg.Template),
	)
	if s.bus != nil {
		event.Emit(s.bus, event.SpawnStarted{
			Target:   cfg.NumEntities,
			Delay:    cfg.Delay,
			Template: cfg.Template,
			At:       s.startedAt,
		})
	}

	if cfg.NumEntities == 0 {
		s.complete()
		return nil
	}
	return s.tick()
}

// Stop cancels a run in progress, keeping what has been spawned. It reports
// false when the scheduler is not spawning.
func (s *Scheduler) Stop() bool {
	if s.state != StateSpawning {
		return false
	}
	if s.pending != 0 {
		s.clock.Cancel(s.pending)
		s.pending = 0
	}
	s.state = StateStopped
	now := s.clock.Now()
	s.log.Info("spawn run stopped", zap.Int("count", s.registry.Len()), zap.Int("target", s.cfg.NumEntities))
	if s.bus != nil {
		event.Emit(s.bus, event.SpawnStopped{Count: s.registry.Len(), At: now})
	}
	return true
}

func (s *Scheduler) onTimer() {
	s.pending = 0
	if s.state != StateSpawning {
		return
	}
	_ = s.tick() // recorded in s.err
}

// tick creates, attaches and registers exactly one entity, then either
// schedules the next tick or finishes the run.
func (s *Scheduler) tick() error {
	seq := s.registry.Len()
	id, err := s.host.Instantiate(Request{
		Seq:      seq,
		Template: s.cfg.Template,
		Radius:   s.cfg.Radius,
		Flock:    s.cfg.Flock,
	})
	if err != nil {
		return s.fail(seq, err)
	}
	if err := s.host.Attach(id); err != nil {
		s.host.Release(id)
		return s.fail(seq, fmt.Errorf("attach to anchor: %w", err))
	}
	if err := s.registry.append(id); err != nil {
		s.host.Release(id)
		return s.fail(seq, err)
	}

	now := s.clock.Now()
	s.log.Debug("boid spawned",
		zap.Int("seq", seq),
		zap.Uint64("entity", uint64(id)),
		zap.Duration("at", now-s.startedAt),
	)
	if s.bus != nil {
		event.Emit(s.bus, event.BoidSpawned{Entity: id, Seq: seq, Template: s.cfg.Template, At: now})
	}

	if s.registry.Len() < s.cfg.NumEntities {
		s.pending = s.clock.After(s.cfg.Delay, s.onTimer)
		return nil
	}
	s.complete()
	return nil
}

func (s *Scheduler) complete() {
	s.state = StateFullySpawned
	now := s.clock.Now()
	s.log.Info("spawn run complete",
		zap.Int("count", s.registry.Len()),
		zap.Duration("elapsed", now-s.startedAt),
	)
	if s.bus != nil {
		event.Emit(s.bus, event.SpawnCompleted{Count: s.registry.Len(), At: now})
	}
}

func (s *Scheduler) fail(seq int, cause error) error {
	err := &CreationError{Seq: seq, Template: s.cfg.Template, Err: cause}
	s.state = StateFailed
	s.err = err
	now := s.clock.Now()
	s.log.Error("spawn run halted",
		zap.Int("seq", seq),
		zap.Int("count", s.registry.Len()),
		zap.Int("target", s.cfg.NumEntities),
		zap.Error(cause),
	)
	if s.bus != nil {
		event.Emit(s.bus, event.SpawnFailed{Seq: seq, Count: s.registry.Len(), Err: err, At: now})
	}
	return err
}
