package system

import (
	"context"
	"time"

	"github.com/flockgo/flockd/internal/core/event"
	coresys "github.com/flockgo/flockd/internal/core/system"
	"github.com/flockgo/flockd/internal/persist"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JournalStore receives the buffered spawn journal. *persist.JournalRepo
// implements it.
type JournalStore interface {
	BeginRun(ctx context.Context, run persist.RunRecord) error
	RecordSpawns(ctx context.Context, rows []persist.SpawnRecord) error
	FinishRun(ctx context.Context, out persist.RunOutcome) error
}

// JournalSystem buffers spawn events and writes them to the store every
// interval ticks. Rows that fail to write stay buffered for the next flush.
// Phase 4 (Persist).
type JournalSystem struct {
	store    JournalStore
	log      *zap.Logger
	interval int
	ticks    int

	runID     uuid.UUID
	startedAt time.Duration
	begin     *persist.RunRecord
	rows      []persist.SpawnRecord
	outcome   *persist.RunOutcome
}

func NewJournalSystem(bus *event.Bus, store JournalStore, log *zap.Logger, intervalTicks int) *JournalSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	s := &JournalSystem{store: store, log: log, interval: intervalTicks}
	event.Subscribe(bus, s.onStarted)
	event.Subscribe(bus, s.onSpawned)
	event.Subscribe(bus, s.onFailed)
	event.Subscribe(bus, s.onCompleted)
	event.Subscribe(bus, s.onStopped)
	return s
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) Update(_ time.Duration) {
	s.ticks++
	if s.ticks < s.interval {
		return
	}
	s.ticks = 0
	s.Flush()
}

// RunID is the identifier of the current run, or uuid.Nil before any run.
func (s *JournalSystem) RunID() uuid.UUID { return s.runID }

// Buffered reports how many spawn rows are waiting to be written.
func (s *JournalSystem) Buffered() int { return len(s.rows) }

func (s *JournalSystem) onStarted(e event.SpawnStarted) {
	s.runID = uuid.New()
	s.startedAt = e.At
	s.begin = &persist.RunRecord{ID: s.runID, Template: e.Template, Target: e.Target, Delay: e.Delay}
	s.rows = s.rows[:0]
	s.outcome = nil
}

func (s *JournalSystem) onSpawned(e event.BoidSpawned) {
	if s.runID == uuid.Nil {
		return
	}
	s.rows = append(s.rows, persist.SpawnRecord{
		RunID:    s.runID,
		Seq:      e.Seq,
		EntityID: uint64(e.Entity),
		Offset:   e.At - s.startedAt,
	})
}

func (s *JournalSystem) onFailed(e event.SpawnFailed) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	s.finish("failed", e.Count, msg)
}

func (s *JournalSystem) onCompleted(e event.SpawnCompleted) { s.finish("fully_spawned", e.Count, "") }
func (s *JournalSystem) onStopped(e event.SpawnStopped)     { s.finish("stopped", e.Count, "") }

func (s *JournalSystem) finish(state string, count int, msg string) {
	if s.runID == uuid.Nil {
		return
	}
	s.outcome = &persist.RunOutcome{ID: s.runID, State: state, Spawned: count, Error: msg}
}

// Flush writes everything buffered. Called on the interval and once more
// during graceful shutdown.
func (s *JournalSystem) Flush() {
	if s.begin == nil && len(s.rows) == 0 && s.outcome == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.begin != nil {
		if err := s.store.BeginRun(ctx, *s.begin); err != nil {
			s.log.Warn("journal: begin run failed", zap.Stringer("run", s.runID), zap.Error(err))
			return
		}
		s.begin = nil
	}
	if len(s.rows) > 0 {
		if err := s.store.RecordSpawns(ctx, s.rows); err != nil {
			s.log.Warn("journal: record spawns failed", zap.Int("rows", len(s.rows)), zap.Error(err))
			return
		}
		s.log.Debug("journal flushed", zap.Stringer("run", s.runID), zap.Int("rows", len(s.rows)))
		s.rows = s.rows[:0]
	}
	if s.outcome != nil {
		if err := s.store.FinishRun(ctx, *s.outcome); err != nil {
			s.log.Warn("journal: finish run failed", zap.Stringer("run", s.runID), zap.Error(err))
			return
		}
		s.log.Info("journal: run closed",
			zap.Stringer("run", s.runID),
			zap.String("state", s.outcome.State),
			zap.Int("spawned", s.outcome.Spawned),
		)
		s.outcome = nil
	}
}
