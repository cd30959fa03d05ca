package timer

import (
	"container/heap"
	"time"
)

// Handle identifies a scheduled callback. The zero Handle is never issued.
type Handle uint64

type entry struct {
	due    time.Duration
	handle Handle
	fn     func()
	index  int
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].handle < h[j].handle
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Queue runs callbacks against a virtual clock that only moves through
// Advance. Accessed only from the host loop goroutine.
type Queue struct {
	now      time.Duration
	next     Handle
	items    entryHeap
	pending  map[Handle]*entry
	running  bool
	deferred []*entry
}

func NewQueue() *Queue {
	return &Queue{
		pending: make(map[Handle]*entry),
	}
}

// Now reports the virtual time. Inside a callback it is that callback's due
// time, so a callback that reschedules itself keeps an exact cadence.
func (q *Queue) Now() time.Duration { return q.now }

// Len reports how many callbacks are scheduled.
func (q *Queue) Len() int { return len(q.pending) }

// After schedules fn to run d after Now. A non-positive d scheduled from inside
// a running callback waits for the next Advance instead of running in the
// current one.
func (q *Queue) After(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	q.next++
	e := &entry{due: q.now + d, handle: q.next, fn: fn, index: -1}
	q.pending[e.handle] = e
	if d == 0 && q.running {
		q.deferred = append(q.deferred, e)
		return e.handle
	}
	heap.Push(&q.items, e)
	return e.handle
}

// Cancel removes a scheduled callback. It reports false when the handle is
// unknown, already fired, or already cancelled.
func (q *Queue) Cancel(h Handle) bool {
	e, ok := q.pending[h]
	if !ok {
		return false
	}
	delete(q.pending, h)
	if e.index >= 0 {
		heap.Remove(&q.items, e.index)
	}
	return true
}

// Advance moves the clock forward by dt and runs every callback due at or
// before the new time, earliest first. It returns the number run.
func (q *Queue) Advance(dt time.Duration) int {
	if dt < 0 {
		dt = 0
	}
	target := q.now + dt
	fired := 0

	q.running = true
	for len(q.items) > 0 && q.items[0].due <= target {
		e := heap.Pop(&q.items).(*entry)
		delete(q.pending, e.handle)
		q.now = e.due
		e.fn()
		fired++
	}
	q.running = false
	q.now = target

	for _, e := range q.deferred {
		if _, ok := q.pending[e.handle]; !ok {
			continue // cancelled before release
		}
		e.due = target
		heap.Push(&q.items, e)
	}
	q.deferred = q.deferred[:0]
	return fired
}
