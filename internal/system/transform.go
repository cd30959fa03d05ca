package system

import (
	"time"

	"github.com/flockgo/flockd/internal/boid"
	"github.com/flockgo/flockd/internal/core/ecs"
	coresys "github.com/flockgo/flockd/internal/core/system"
	"github.com/flockgo/flockd/internal/scene"
	"github.com/flockgo/flockd/internal/world"
)

// TransformSystem copies boid positions into their scene nodes.
// Phase 3 (PostUpdate).
type TransformSystem struct {
	ctx *world.Context
}

func NewTransformSystem(ctx *world.Context) *TransformSystem {
	return &TransformSystem{ctx: ctx}
}

func (s *TransformSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *TransformSystem) Update(_ time.Duration) {
	ecs.Each2(s.ctx.Boids, s.ctx.Nodes, func(_ ecs.EntityID, b *boid.Boid, n *scene.Node) {
		n.Local = b.Position
	})
}
