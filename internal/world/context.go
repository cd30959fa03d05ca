// Package world holds the explicit simulation context: configuration, the ECS
// world and component stores, the spawn scheduler with its registry, the boid
// anchor, and the formation container. Collaborators receive the *Context
// instead of reaching for global state.
package world

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/flockgo/flockd/internal/boid"
	"github.com/flockgo/flockd/internal/config"
	"github.com/flockgo/flockd/internal/core/ecs"
	"github.com/flockgo/flockd/internal/core/event"
	"github.com/flockgo/flockd/internal/core/timer"
	"github.com/flockgo/flockd/internal/data"
	"github.com/flockgo/flockd/internal/formation"
	"github.com/flockgo/flockd/internal/scene"
	"github.com/flockgo/flockd/internal/spawn"
	"github.com/go-gl/mathgl/mgl64"
	colorful "github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
)

const (
	AnchorName    = "BoidAnchor"
	ContainerName = "SphereContainer"
)

// ErrUnknownTemplate is returned when a spawn request names a template that
// is not in the table.
var ErrUnknownTemplate = errors.New("unknown boid template")

// Placer chooses spawn positions. ok is false when it has no opinion and the
// default random placement should be used.
type Placer interface {
	SpawnPosition(seq int, radius float64) (pos mgl64.Vec3, ok bool, err error)
}

// Appearance is the template identity and tint carried by each spawned boid.
type Appearance struct {
	Template string
	Tint     colorful.Color
}

// Marker is the component carried by formation marker entities.
type Marker struct {
	Swatch   formation.Swatch
	Meridian int
}

// Deps bundles what NewContext needs. Placer and Bus may be nil.
type Deps struct {
	Config    *config.Config
	Templates *data.TemplateTable
	Placer    Placer
	Timers    *timer.Queue
	Bus       *event.Bus
	Log       *zap.Logger
	Rand      *rand.Rand
}

// Context is the simulation state shared by the systems. Accessed only from
// the host loop goroutine, except Registry snapshots which are safe anywhere.
type Context struct {
	cfg       *config.Config
	templates *data.TemplateTable
	placer    Placer
	timers    *timer.Queue
	bus       *event.Bus
	log       *zap.Logger
	rng       *rand.Rand

	ecs     *ecs.World
	Boids       *ecs.Store[boid.Boid]
	Nodes       *ecs.Store[scene.Node]
	Appearances *ecs.Store[Appearance]
	Markers     *ecs.Store[Marker]
	Grid        *NeighborGrid

	anchor    *scene.Node
	scheduler *spawn.Scheduler
	attractor mgl64.Vec3

	formation        *scene.Node
	formationMarkers []ecs.EntityID
}

func NewContext(d Deps) *Context {
	rng := d.Rand
	if rng == nil {
		seed := d.Config.Spawn.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	c := &Context{
		cfg:       d.Config,
		templates: d.Templates,
		placer:    d.Placer,
		timers:    d.Timers,
		bus:       d.Bus,
		log:       d.Log,
		rng:       rng,
		ecs:       ecs.NewWorld(),
		Boids:       ecs.NewStore[boid.Boid](),
		Nodes:       ecs.NewStore[scene.Node](),
		Appearances: ecs.NewStore[Appearance](),
		Markers:     ecs.NewStore[Marker](),
		anchor:      scene.NewNode(AnchorName),
		attractor:   mgl64.Vec3(d.Config.Attractor.Position),
	}
	c.ecs.Register(c.Boids)
	c.ecs.Register(c.Nodes)
	c.ecs.Register(c.Appearances)
	c.ecs.Register(c.Markers)
	c.Grid = NewNeighborGrid(c.maxPerception())
	c.scheduler = spawn.NewScheduler(d.Timers, c, d.Bus, d.Log.Named("spawn"))
	return c
}

// maxPerception is the largest neighbor distance any template can produce.
func (c *Context) maxPerception() float64 {
	scale := 1.0
	if c.templates != nil {
		for _, id := range c.templates.IDs() {
			if s := c.templates.Get(id).SightScale; s > scale {
				scale = s
			}
		}
	}
	return c.cfg.Flock.NeighborDist * scale
}

func (c *Context) Config() *config.Config      { return c.cfg }
func (c *Context) ECS() *ecs.World             { return c.ecs }
func (c *Context) Anchor() *scene.Node         { return c.anchor }
func (c *Context) Scheduler() *spawn.Scheduler { return c.scheduler }
func (c *Context) Registry() *spawn.Registry   { return c.scheduler.Registry() }
func (c *Context) Attractor() mgl64.Vec3       { return c.attractor }

// SpawnConfig derives the scheduler's run configuration from the config file.
func (c *Context) SpawnConfig() spawn.Config {
	return spawn.Config{
		NumEntities: c.cfg.Spawn.NumBoids,
		Delay:       c.cfg.Spawn.SpawnDelay,
		Radius:      c.cfg.Spawn.SpawnRadius,
		Template:    c.cfg.Spawn.Template,
		Flock:       c.cfg.Flock,
	}
}

// StartSpawning begins the staggered spawn run.
func (c *Context) StartSpawning() error {
	return c.scheduler.Start(c.SpawnConfig())
}

// Boid returns the behavior component of a spawned entity.
func (c *Context) Boid(id ecs.EntityID) (*boid.Boid, bool) {
	return c.Boids.Get(id)
}

// Neighbors appends to buf the boids sharing id's grid neighborhood,
// excluding id itself.
func (c *Context) Neighbors(id ecs.EntityID, ids []ecs.EntityID, buf []*boid.Boid) ([]ecs.EntityID, []*boid.Boid) {
	self, ok := c.Boids.Get(id)
	if !ok {
		return ids, buf
	}
	ids = c.Grid.Nearby(self.Position, ids[:0])
	for _, other := range ids {
		if other == id {
			continue
		}
		if b, ok := c.Boids.Get(other); ok {
			buf = append(buf, b)
		}
	}
	return ids, buf
}

// Instantiate creates one boid entity from its template. It implements
// spawn.Host.
func (c *Context) Instantiate(req spawn.Request) (ecs.EntityID, error) {
	if c.templates == nil {
		return 0, fmt.Errorf("%w: %q (no template table loaded)", ErrUnknownTemplate, req.Template)
	}
	tmpl := c.templates.Get(req.Template)
	if tmpl == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTemplate, req.Template)
	}

	pos, err := c.spawnPosition(req.Seq, req.Radius)
	if err != nil {
		return 0, err
	}

	id := c.ecs.CreateEntity()
	b := boid.New(pos, tmpl.Apply(req.Flock), c.rng)
	node := scene.NewNode(fmt.Sprintf("%s-%d", tmpl.Name, req.Seq))
	node.Entity = id
	node.Local = pos

	c.Boids.Set(id, b)
	c.Nodes.Set(id, node)
	c.Appearances.Set(id, &Appearance{Template: tmpl.ID, Tint: tmpl.Tint()})
	c.Grid.Add(id, pos)
	return id, nil
}

// Attach parents a spawned entity's node under the boid anchor. It implements
// spawn.Host.
func (c *Context) Attach(id ecs.EntityID) error {
	node, ok := c.Nodes.Get(id)
	if !ok {
		return fmt.Errorf("entity %d has no scene node", uint64(id))
	}
	return c.anchor.Attach(node)
}

// Release takes back an entity whose spawn could not complete. It leaves the
// neighbor grid and the anchor at once; its components go at the next cleanup.
// It implements spawn.Host.
func (c *Context) Release(id ecs.EntityID) {
	if b, ok := c.Boids.Get(id); ok {
		c.Grid.Remove(id, b.Position)
	}
	if node, ok := c.Nodes.Get(id); ok {
		node.Detach()
	}
	c.ecs.MarkForDestruction(id)
}

func (c *Context) spawnPosition(seq int, radius float64) (mgl64.Vec3, error) {
	if c.placer != nil {
		pos, ok, err := c.placer.SpawnPosition(seq, radius)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("place entity %d: %w", seq, err)
		}
		if ok {
			return pos, nil
		}
	}
	return randomInSphere(c.rng, radius), nil
}

// randomInSphere picks a point uniformly inside a ball of the given radius.
func randomInSphere(rng *rand.Rand, radius float64) mgl64.Vec3 {
	if radius <= 0 {
		return mgl64.Vec3{}
	}
	r := radius * math.Cbrt(rng.Float64())
	return boid.RandomDirection(rng).Mul(r)
}

// PlaceFormation creates one marker entity per point under a fresh container
// node and returns that container. A previously placed formation is detached
// and its markers are queued for destruction.
func (c *Context) PlaceFormation(set formation.Set) *scene.Node {
	replaced := 0
	if c.formation != nil {
		c.formation.Detach()
		for _, id := range c.formationMarkers {
			c.ecs.MarkForDestruction(id)
		}
		replaced = len(c.formationMarkers)
	}

	container := scene.NewNode(ContainerName)
	markers := make([]ecs.EntityID, 0, set.Len())
	for i, p := range set.Points {
		id := c.ecs.CreateEntity()
		node := scene.NewNode(fmt.Sprintf("marker-%d", i))
		node.Entity = id
		node.Local = p.Position
		_ = container.Attach(node) // fresh nodes, cannot cycle
		c.Nodes.Set(id, node)
		c.Markers.Set(id, &Marker{Swatch: p.Swatch, Meridian: p.Meridian})
		markers = append(markers, id)
	}
	c.formation = container
	c.formationMarkers = markers

	c.log.Info("formation placed",
		zap.Int("points", set.Len()),
		zap.Int("meridians", set.Meridians),
		zap.Int("replaced", replaced),
	)
	if c.bus != nil {
		event.Emit(c.bus, event.FormationPlaced{Container: container.Name, Points: set.Len(), Replaced: replaced})
	}
	return container
}

// Formation returns the current formation container, or nil.
func (c *Context) Formation() *scene.Node { return c.formation }
