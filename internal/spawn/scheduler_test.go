package spawn

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/flockgo/flockd/internal/boid"
	"github.com/flockgo/flockd/internal/core/ecs"
	"github.com/flockgo/flockd/internal/core/event"
	"github.com/flockgo/flockd/internal/core/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeHost records every call and can be told to fail at a given sequence.
type fakeHost struct {
	world     *ecs.World
	clock     *timer.Queue
	created   []ecs.EntityID
	attached  []ecs.EntityID
	times     []time.Duration
	requests  []Request
	released  []ecs.EntityID
	failAt    int // -1 = never
	failCause error
	attachErr error
}

func newFakeHost(clock *timer.Queue) *fakeHost {
	return &fakeHost{world: ecs.NewWorld(), clock: clock, failAt: -1}
}

func (h *fakeHost) Instantiate(req Request) (ecs.EntityID, error) {
	h.requests = append(h.requests, req)
	if req.Seq == h.failAt {
		return 0, h.failCause
	}
	id := h.world.CreateEntity()
	h.created = append(h.created, id)
	h.times = append(h.times, h.clock.Now())
	return id, nil
}

func (h *fakeHost) Attach(id ecs.EntityID) error {
	if h.attachErr != nil {
		return h.attachErr
	}
	h.attached = append(h.attached, id)
	return nil
}

func (h *fakeHost) Release(id ecs.EntityID) {
	h.released = append(h.released, id)
}

func testConfig(n int, delay time.Duration) Config {
	return Config{
		NumEntities: n,
		Delay:       delay,
		Radius:      100,
		Template:    "boid",
		Flock:       boid.DefaultParams(),
	}
}

func newTestScheduler(t *testing.T) (*Scheduler, *fakeHost, *timer.Queue, *event.Bus) {
	t.Helper()
	q := timer.NewQueue()
	h := newFakeHost(q)
	bus := event.NewBus()
	return NewScheduler(q, h, bus, zaptest.NewLogger(t)), h, q, bus
}

func TestScheduler_StaggeredScenario(t *testing.T) {
	s, _, q, _ := newTestScheduler(t)
	require.NoError(t, s.Start(testConfig(5, 100*time.Millisecond)))
	assert.Equal(t, StateSpawning, s.State())
	assert.Equal(t, 1, s.Registry().Len(), "first entity is created at t=0")

	q.Advance(50 * time.Millisecond)
	assert.Equal(t, 1, s.Registry().Len())
	assert.Equal(t, StateSpawning, s.State())

	q.Advance(400 * time.Millisecond)
	assert.Equal(t, 5, s.Registry().Len())
	assert.Equal(t, StateFullySpawned, s.State())
	assert.Zero(t, q.Len(), "no tick left scheduled after the run")
}

func TestScheduler_OneEntityPerTickAtExactDelay(t *testing.T) {
	s, h, q, _ := newTestScheduler(t)
	delay := 100 * time.Millisecond
	require.NoError(t, s.Start(testConfig(8, delay)))

	// Drive like a host loop with a frame period that does not divide the delay.
	for i := 0; i < 100 && !s.State().Terminal(); i++ {
		q.Advance(16 * time.Millisecond)
	}

	require.Equal(t, StateFullySpawned, s.State())
	require.Len(t, h.times, 8)
	for i := 1; i < len(h.times); i++ {
		assert.Equal(t, delay, h.times[i]-h.times[i-1], "gap before entity %d", i)
	}
}

func TestScheduler_RegistryOrderMatchesCreation(t *testing.T) {
	s, h, q, _ := newTestScheduler(t)
	require.NoError(t, s.Start(testConfig(6, 10*time.Millisecond)))
	q.Advance(time.Second)

	assert.Equal(t, h.created, s.Registry().Snapshot())
	assert.Equal(t, h.created, h.attached)
	for i, req := range h.requests {
		assert.Equal(t, i, req.Seq)
		assert.Equal(t, boid.DefaultParams(), req.Flock)
		assert.Equal(t, 100.0, req.Radius)
	}
}

func TestScheduler_CompletedRunSizes(t *testing.T) {
	for _, n := range []int{0, 1, 2, 17} {
		s, _, q, _ := newTestScheduler(t)
		require.NoError(t, s.Start(testConfig(n, 5*time.Millisecond)))
		q.Advance(time.Second)
		assert.Equal(t, n, s.Registry().Len(), "target %d", n)
		assert.Equal(t, StateFullySpawned, s.State(), "target %d", n)
	}
}

func TestScheduler_ZeroTargetCreatesNothing(t *testing.T) {
	s, h, _, _ := newTestScheduler(t)
	require.NoError(t, s.Start(testConfig(0, time.Millisecond)))
	assert.Empty(t, h.requests)
	assert.Equal(t, StateFullySpawned, s.State())
}

func TestScheduler_ZeroDelaySpawnsOnePerAdvance(t *testing.T) {
	s, _, q, _ := newTestScheduler(t)
	require.NoError(t, s.Start(testConfig(3, 0)))
	assert.Equal(t, 1, s.Count())
	q.Advance(0)
	assert.Equal(t, 2, s.Count())
	q.Advance(0)
	assert.Equal(t, 3, s.Count())
	assert.Equal(t, StateFullySpawned, s.State())
}

func TestScheduler_RejectsInvalidConfig(t *testing.T) {
	cases := map[string]Config{
		"negative count": testConfig(-1, time.Millisecond),
		"negative delay": testConfig(3, -time.Millisecond),
		"empty template": {NumEntities: 3, Delay: time.Millisecond},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			s, h, _, _ := newTestScheduler(t)
			err := s.Start(cfg)
			assert.ErrorIs(t, err, ErrConfiguration)
			assert.Equal(t, StateIdle, s.State())
			assert.Empty(t, h.requests)
		})
	}
}

func TestScheduler_RejectsSecondStart(t *testing.T) {
	s, _, q, _ := newTestScheduler(t)
	require.NoError(t, s.Start(testConfig(3, 10*time.Millisecond)))

	err := s.Start(testConfig(3, 10*time.Millisecond))
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	q.Advance(time.Second)
	assert.Equal(t, 3, s.Count(), "rejected restart must not disturb the run")
	assert.ErrorIs(t, s.Start(testConfig(3, 10*time.Millisecond)), ErrAlreadyStarted)
}

func TestScheduler_CreationFailureHaltsRun(t *testing.T) {
	s, h, q, bus := newTestScheduler(t)
	cause := errors.New("template missing")
	h.failAt = 2
	h.failCause = cause

	var failed []event.SpawnFailed
	event.Subscribe(bus, func(ev event.SpawnFailed) { failed = append(failed, ev) })

	require.NoError(t, s.Start(testConfig(5, 10*time.Millisecond)))
	q.Advance(time.Second)

	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, 2, s.Count(), "partial population is kept")
	assert.Len(t, h.requests, 3, "no retry after the failure")
	assert.Zero(t, q.Len())

	var ce *CreationError
	require.ErrorAs(t, s.Err(), &ce)
	assert.Equal(t, 2, ce.Seq)
	assert.Equal(t, "boid", ce.Template)
	assert.ErrorIs(t, s.Err(), cause)

	bus.SwapBuffers()
	bus.DispatchAll()
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].Count)
}

func TestScheduler_FailureOnFirstTickIsReturned(t *testing.T) {
	s, h, _, _ := newTestScheduler(t)
	h.failAt = 0
	h.failCause = errors.New("boom")

	err := s.Start(testConfig(4, time.Millisecond))
	var ce *CreationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, ce.Seq)
	assert.Equal(t, StateFailed, s.State())
	assert.Zero(t, s.Count())
}

func TestScheduler_AttachFailureReleasesEntity(t *testing.T) {
	s, h, _, _ := newTestScheduler(t)
	h.attachErr = errors.New("anchor gone")

	err := s.Start(testConfig(3, time.Millisecond))
	require.Error(t, err)
	assert.ErrorIs(t, err, h.attachErr)
	require.Len(t, h.created, 1)
	assert.Equal(t, h.created, h.released, "created entity is handed back")
	assert.Zero(t, s.Count())
	assert.Equal(t, StateFailed, s.State())
}

func TestScheduler_HugeTargetStartsLazily(t *testing.T) {
	s, h, q, _ := newTestScheduler(t)

	assert.NotPanics(t, func() {
		require.NoError(t, s.Start(testConfig(math.MaxInt, time.Millisecond)))
	})
	assert.Equal(t, StateSpawning, s.State())
	assert.Equal(t, math.MaxInt, s.Registry().Limit())

	q.Advance(5 * time.Millisecond)
	assert.Equal(t, 6, s.Count())
	assert.Empty(t, h.released)
	assert.True(t, s.Stop())
}

func TestScheduler_StopCancelsPendingTick(t *testing.T) {
	s, _, q, _ := newTestScheduler(t)
	require.NoError(t, s.Start(testConfig(10, 100*time.Millisecond)))
	q.Advance(250 * time.Millisecond)
	require.Equal(t, 3, s.Count())

	assert.True(t, s.Stop())
	assert.Equal(t, StateStopped, s.State())
	assert.False(t, s.Stop())

	q.Advance(time.Second)
	assert.Equal(t, 3, s.Count())
	assert.Zero(t, q.Len())
}

func TestScheduler_StopOutsideRun(t *testing.T) {
	s, _, q, _ := newTestScheduler(t)
	assert.False(t, s.Stop(), "idle")
	require.NoError(t, s.Start(testConfig(1, time.Millisecond)))
	q.Advance(time.Second)
	assert.False(t, s.Stop(), "fully spawned")
}

func TestScheduler_EmitsLifecycleEvents(t *testing.T) {
	s, _, q, bus := newTestScheduler(t)
	var started []event.SpawnStarted
	var spawned []event.BoidSpawned
	var done []event.SpawnCompleted
	event.Subscribe(bus, func(ev event.SpawnStarted) { started = append(started, ev) })
	event.Subscribe(bus, func(ev event.BoidSpawned) { spawned = append(spawned, ev) })
	event.Subscribe(bus, func(ev event.SpawnCompleted) { done = append(done, ev) })

	require.NoError(t, s.Start(testConfig(3, 20*time.Millisecond)))
	q.Advance(100 * time.Millisecond)
	bus.SwapBuffers()
	bus.DispatchAll()

	require.Len(t, started, 1)
	assert.Equal(t, 3, started[0].Target)
	require.Len(t, spawned, 3)
	for i, ev := range spawned {
		assert.Equal(t, i, ev.Seq)
		assert.Equal(t, time.Duration(i)*20*time.Millisecond, ev.At)
	}
	require.Len(t, done, 1)
	assert.Equal(t, 3, done[0].Count)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "fully_spawned", StateFullySpawned.String())
	assert.Equal(t, "state(42)", State(42).String())
	assert.False(t, StateSpawning.Terminal())
	assert.True(t, StateStopped.Terminal())
}
