package world

import (
	"math"

	"github.com/flockgo/flockd/internal/core/ecs"
	"github.com/go-gl/mathgl/mgl64"
)

// NeighborGrid buckets boids into cubic cells. The cell edge is at least the
// largest perception radius, so a 3x3x3 block of cells around a boid holds
// every boid it can perceive. Accessed only from the host loop goroutine.
type NeighborGrid struct {
	cellSize float64
	cells    map[cellKey]map[ecs.EntityID]struct{}
	count    int
}

type cellKey struct {
	cx, cy, cz int32
}

func NewNeighborGrid(cellSize float64) *NeighborGrid {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		cellSize = 1
	}
	return &NeighborGrid{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[ecs.EntityID]struct{}),
	}
}

func (g *NeighborGrid) CellSize() float64 { return g.cellSize }

// Len reports how many entities are tracked.
func (g *NeighborGrid) Len() int { return g.count }

func (g *NeighborGrid) key(p mgl64.Vec3) cellKey {
	return cellKey{
		cx: int32(math.Floor(p[0] / g.cellSize)),
		cy: int32(math.Floor(p[1] / g.cellSize)),
		cz: int32(math.Floor(p[2] / g.cellSize)),
	}
}

func (g *NeighborGrid) Add(id ecs.EntityID, pos mgl64.Vec3) {
	k := g.key(pos)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	if _, ok := cell[id]; !ok {
		cell[id] = struct{}{}
		g.count++
	}
}

func (g *NeighborGrid) Remove(id ecs.EntityID, pos mgl64.Vec3) {
	k := g.key(pos)
	cell := g.cells[k]
	if cell == nil {
		return
	}
	if _, ok := cell[id]; ok {
		delete(cell, id)
		g.count--
	}
	if len(cell) == 0 {
		delete(g.cells, k)
	}
}

// Move rebuckets id when its position crosses a cell boundary.
func (g *NeighborGrid) Move(id ecs.EntityID, from, to mgl64.Vec3) {
	if g.key(from) == g.key(to) {
		return
	}
	g.Remove(id, from)
	g.Add(id, to)
}

// Nearby appends to buf every entity in the 3x3x3 block of cells around pos.
// Callers do the exact distance filtering.
func (g *NeighborGrid) Nearby(pos mgl64.Vec3, buf []ecs.EntityID) []ecs.EntityID {
	c := g.key(pos)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dz := int32(-1); dz <= 1; dz++ {
				for id := range g.cells[cellKey{c.cx + dx, c.cy + dy, c.cz + dz}] {
					buf = append(buf, id)
				}
			}
		}
	}
	return buf
}
