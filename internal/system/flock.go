package system

import (
	"time"

	"github.com/flockgo/flockd/internal/boid"
	"github.com/flockgo/flockd/internal/core/ecs"
	coresys "github.com/flockgo/flockd/internal/core/system"
	"github.com/flockgo/flockd/internal/world"
)

// FlockSystem steers and moves every spawned boid. All neighborhoods are
// surveyed before any boid moves, so the result does not depend on the
// visiting order. Phase 2 (Update).
type FlockSystem struct {
	ctx *world.Context

	// scratch buffers reused across ticks
	order  []ecs.EntityID
	hoods  []boid.Neighborhood
	ids    []ecs.EntityID
	nearby []*boid.Boid
}

func NewFlockSystem(ctx *world.Context) *FlockSystem {
	return &FlockSystem{ctx: ctx}
}

func (s *FlockSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *FlockSystem) Update(dt time.Duration) {
	secs := dt.Seconds()
	if secs <= 0 {
		return
	}

	s.order = s.order[:0]
	s.hoods = s.hoods[:0]
	s.ctx.Registry().Each(func(_ int, id ecs.EntityID) bool {
		b, ok := s.ctx.Boid(id)
		if !ok {
			return true
		}
		s.nearby = s.nearby[:0]
		s.ids, s.nearby = s.ctx.Neighbors(id, s.ids, s.nearby)
		s.order = append(s.order, id)
		s.hoods = append(s.hoods, boid.Survey(b, s.nearby))
		return true
	})

	attractor := s.ctx.Attractor()
	for i, id := range s.order {
		b, _ := s.ctx.Boid(id)
		from := b.Position
		b.Steer(s.hoods[i], attractor, secs)
		b.Move(secs)
		s.ctx.Grid.Move(id, from, b.Position)
	}
}
