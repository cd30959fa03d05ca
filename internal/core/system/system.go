package system

import "time"

// Phase orders systems within one host tick.
type Phase int

const (
	PhaseTimers     Phase = iota // 0: advance the callback queue (spawn ticks fire here)
	PhaseEvents                  // 1: dispatch last tick's events
	PhaseUpdate                  // 2: flocking
	PhasePostUpdate              // 3: transform sync
	PhasePersist                 // 4: journal flush
	PhaseCleanup                 // 5: destroy queued entities
)

var phaseNames = [...]string{"timers", "events", "update", "post_update", "persist", "cleanup"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is implemented by everything the Runner drives.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
