package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }
func (r recorder) Update(time.Duration) {
	*r.log = append(*r.log, r.name)
}

func TestRunner_PhaseOrderStable(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"cleanup", PhaseCleanup, &log})
	r.Register(recorder{"flock", PhaseUpdate, &log})
	r.Register(recorder{"timers", PhaseTimers, &log})
	r.Register(recorder{"flock2", PhaseUpdate, &log})

	r.Tick(time.Millisecond)
	assert.Equal(t, []string{"timers", "flock", "flock2", "cleanup"}, log)
	assert.Equal(t, uint64(1), r.Ticks())
}

func TestRunner_TickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"persist", PhasePersist, &log})
	r.Register(recorder{"flock", PhaseUpdate, &log})

	r.TickPhase(PhasePersist, 0)
	assert.Equal(t, []string{"persist"}, log)
	assert.Zero(t, r.Ticks())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "post_update", PhasePostUpdate.String())
	assert.Equal(t, "unknown", Phase(99).String())
}
