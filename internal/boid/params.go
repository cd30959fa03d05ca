package boid

// Params are the flocking tunables handed to every spawned boid. The spawner
// forwards them untouched; only Boid.Steer interprets them.
type Params struct {
	Velocity        float64 `toml:"velocity"`          // constant cruise speed
	NeighborDist    float64 `toml:"neighbor_dist"`     // perception radius
	CollDist        float64 `toml:"coll_dist"`         // too-close radius
	VelMatching     float64 `toml:"vel_matching"`      // alignment weight
	FlockCentering  float64 `toml:"flock_centering"`   // cohesion weight
	CollAvoid       float64 `toml:"coll_avoid"`        // separation weight
	AttractPull     float64 `toml:"attract_pull"`      // weight toward the attractor when far
	AttractPush     float64 `toml:"attract_push"`      // weight away from the attractor when near
	AttractPushDist float64 `toml:"attract_push_dist"` // distance under which the attractor repels
}

// DefaultParams returns the tuned flocking defaults.
func DefaultParams() Params {
	return Params{
		Velocity:        30,
		NeighborDist:    30,
		CollDist:        4,
		VelMatching:     0.25,
		FlockCentering:  0.2,
		CollAvoid:       2,
		AttractPull:     2,
		AttractPush:     2,
		AttractPushDist: 5,
	}
}
