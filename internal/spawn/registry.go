package spawn

import (
	"fmt"
	"sync/atomic"

	"github.com/flockgo/flockd/internal/core/ecs"
)

// Registry is the ordered list of spawned entities. The scheduler is its only
// writer; readers on any goroutine get a consistent prefix without locking.
//
// Appends write past every published length, and a full backing array is
// copied rather than grown in place, so no reader ever sees an element change.
type Registry struct {
	limit int
	ids   atomic.Pointer[[]ecs.EntityID]
}

func NewRegistry() *Registry {
	r := &Registry{}
	empty := make([]ecs.EntityID, 0)
	r.ids.Store(&empty)
	return r
}

// maxPrealloc caps the capacity reserved up front; larger runs grow by append.
const maxPrealloc = 1024

// reset sizes the registry for a run of limit entities.
func (r *Registry) reset(limit int) {
	r.limit = limit
	ids := make([]ecs.EntityID, 0, min(limit, maxPrealloc))
	r.ids.Store(&ids)
}

func (r *Registry) append(id ecs.EntityID) error {
	cur := *r.ids.Load()
	if len(cur) >= r.limit {
		return fmt.Errorf("%w: limit %d", ErrRegistryFull, r.limit)
	}
	next := append(cur, id)
	r.ids.Store(&next)
	return nil
}

// Limit is the population target of the current run.
func (r *Registry) Limit() int { return r.limit }

func (r *Registry) Len() int { return len(*r.ids.Load()) }

// Snapshot returns the entities registered so far, in creation order. The
// slice is shared: callers must not modify it.
func (r *Registry) Snapshot() []ecs.EntityID {
	return *r.ids.Load()
}

// At returns the i-th created entity.
func (r *Registry) At(i int) (ecs.EntityID, bool) {
	ids := *r.ids.Load()
	if i < 0 || i >= len(ids) {
		return 0, false
	}
	return ids[i], true
}

// Each visits entities in creation order until fn returns false.
func (r *Registry) Each(fn func(seq int, id ecs.EntityID) bool) {
	for i, id := range *r.ids.Load() {
		if !fn(i, id) {
			return
		}
	}
}
