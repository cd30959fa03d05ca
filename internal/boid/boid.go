// Package boid implements the per-entity flocking behavior: collision
// avoidance, velocity matching, flock centering and attractor pull/push.
package boid

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

// Boid is the behavior unit attached to a spawned entity.
type Boid struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Params   Params
}

// New creates a boid at pos heading in a random direction at Params.Velocity.
func New(pos mgl64.Vec3, p Params, rng *rand.Rand) *Boid {
	return &Boid{
		Position: pos,
		Velocity: RandomDirection(rng).Mul(p.Velocity),
		Params:   p,
	}
}

// RandomDirection returns a uniformly distributed unit vector.
func RandomDirection(rng *rand.Rand) mgl64.Vec3 {
	z := rng.Float64()*2 - 1
	a := rng.Float64() * 2 * math.Pi
	r := math.Sqrt(1 - z*z)
	return mgl64.Vec3{r * math.Cos(a), r * math.Sin(a), z}
}

// Neighborhood summarizes the boids a boid can perceive.
type Neighborhood struct {
	Neighbors   int        // within NeighborDist
	Close       int        // within CollDist
	AvgPos      mgl64.Vec3 // mean neighbor position
	AvgVel      mgl64.Vec3 // mean neighbor velocity
	AvgClosePos mgl64.Vec3 // mean position of too-close boids
}

// Survey builds b's neighborhood from candidates. b itself is skipped.
func Survey(b *Boid, candidates []*Boid) Neighborhood {
	var n Neighborhood
	nd2 := b.Params.NeighborDist * b.Params.NeighborDist
	cd2 := b.Params.CollDist * b.Params.CollDist
	for _, o := range candidates {
		if o == b {
			continue
		}
		d2 := o.Position.Sub(b.Position).LenSqr()
		if d2 > nd2 {
			continue
		}
		n.Neighbors++
		n.AvgPos = n.AvgPos.Add(o.Position)
		n.AvgVel = n.AvgVel.Add(o.Velocity)
		if d2 <= cd2 {
			n.Close++
			n.AvgClosePos = n.AvgClosePos.Add(o.Position)
		}
	}
	if n.Neighbors > 0 {
		inv := 1 / float64(n.Neighbors)
		n.AvgPos = n.AvgPos.Mul(inv)
		n.AvgVel = n.AvgVel.Mul(inv)
	}
	if n.Close > 0 {
		n.AvgClosePos = n.AvgClosePos.Mul(1 / float64(n.Close))
	}
	return n
}

// Steer blends the boid's velocity toward the flocking goals over dt seconds.
// Collision avoidance, when needed, overrides every other goal. The result is
// rescaled to Params.Velocity.
func (b *Boid) Steer(n Neighborhood, attractor mgl64.Vec3, dt float64) {
	p := b.Params
	vel := b.Velocity

	if n.Close > 0 {
		away := b.Position.Sub(n.AvgClosePos)
		vel = lerp(vel, away, p.CollAvoid*dt)
	} else {
		if n.Neighbors > 0 {
			if align := scaled(n.AvgVel, p.Velocity); !isZero(align) {
				vel = lerp(vel, align, p.VelMatching*dt)
			}
			if center := scaled(n.AvgPos.Sub(b.Position), p.Velocity); !isZero(center) {
				vel = lerp(vel, center, p.FlockCentering*dt)
			}
		}
		delta := attractor.Sub(b.Position)
		if pull := scaled(delta, p.Velocity); !isZero(pull) {
			if delta.Len() > p.AttractPushDist {
				vel = lerp(vel, pull, p.AttractPull*dt)
			} else {
				vel = lerp(vel, pull.Mul(-1), p.AttractPush*dt)
			}
		}
	}

	if isZero(vel) {
		b.Velocity = vel
		return
	}
	b.Velocity = vel.Normalize().Mul(p.Velocity)
}

// Move advances the position by the current velocity.
func (b *Boid) Move(dt float64) {
	b.Position = b.Position.Add(b.Velocity.Mul(dt))
}

func isZero(v mgl64.Vec3) bool {
	return v.LenSqr() < epsilon
}

// scaled returns v rescaled to length l, or the zero vector if v is zero.
func scaled(v mgl64.Vec3, l float64) mgl64.Vec3 {
	if isZero(v) {
		return mgl64.Vec3{}
	}
	return v.Normalize().Mul(l)
}

// lerp interpolates with t clamped to [0, 1].
func lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	t = mgl64.Clamp(t, 0, 1)
	return a.Add(b.Sub(a).Mul(t))
}
