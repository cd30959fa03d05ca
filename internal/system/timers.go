package system

import (
	"time"

	coresys "github.com/flockgo/flockd/internal/core/system"
	"github.com/flockgo/flockd/internal/core/timer"
)

// TimerSystem advances the virtual clock by the tick length. Spawn ticks and
// any other queued callbacks fire from here. Phase 0 (Timers).
type TimerSystem struct {
	queue *timer.Queue
	fired int
}

func NewTimerSystem(q *timer.Queue) *TimerSystem {
	return &TimerSystem{queue: q}
}

func (s *TimerSystem) Phase() coresys.Phase { return coresys.PhaseTimers }

func (s *TimerSystem) Update(dt time.Duration) {
	s.fired += s.queue.Advance(dt)
}

// Fired reports how many callbacks have run so far.
func (s *TimerSystem) Fired() int { return s.fired }
