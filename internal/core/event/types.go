package event

import (
	"time"

	"github.com/flockgo/flockd/internal/core/ecs"
)

// SpawnStarted is emitted when a spawn run leaves Idle.
type SpawnStarted struct {
	Target   int
	Delay    time.Duration
	Template string
	At       time.Duration
}

// BoidSpawned is emitted once per scheduler tick.
type BoidSpawned struct {
	Entity   ecs.EntityID
	Seq      int
	Template string
	At       time.Duration
}

// SpawnFailed carries the creation failure that halted a run.
type SpawnFailed struct {
	Seq   int
	Count int
	Err   error
	At    time.Duration
}

type SpawnCompleted struct {
	Count int
	At    time.Duration
}

type SpawnStopped struct {
	Count int
	At    time.Duration
}

// FormationPlaced is emitted after a formation's markers are attached.
type FormationPlaced struct {
	Container string
	Points    int
	Replaced  int
}
