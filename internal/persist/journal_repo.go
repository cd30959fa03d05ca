package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RunRecord is the header row of one spawn run.
type RunRecord struct {
	ID       uuid.UUID
	Template string
	Target   int
	Delay    time.Duration
}

// SpawnRecord is one created entity of a run.
type SpawnRecord struct {
	RunID    uuid.UUID
	Seq      int
	EntityID uint64
	Offset   time.Duration // since the run started
}

// RunOutcome closes a run row.
type RunOutcome struct {
	ID      uuid.UUID
	State   string
	Spawned int
	Error   string
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

func (r *JournalRepo) BeginRun(ctx context.Context, run RunRecord) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO spawn_runs (run_id, template, target, delay_ms)
		 VALUES ($1::uuid, $2, $3, $4)
		 ON CONFLICT (run_id) DO NOTHING`,
		run.ID.String(), run.Template, run.Target, run.Delay.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("begin run %s: %w", run.ID, err)
	}
	return nil
}

// RecordSpawns writes a batch of entity rows in one transaction and bumps the
// run's spawned counter.
func (r *JournalRepo) RecordSpawns(ctx context.Context, rows []SpawnRecord) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	perRun := make(map[uuid.UUID]int, 1)
	for _, row := range rows {
		batch.Queue(
			`INSERT INTO spawn_entities (run_id, seq, entity_id, offset_ms)
			 VALUES ($1::uuid, $2, $3, $4)
			 ON CONFLICT (run_id, seq) DO NOTHING`,
			row.RunID.String(), row.Seq, int64(row.EntityID), row.Offset.Milliseconds(),
		)
		perRun[row.RunID]++
	}
	for id, n := range perRun {
		batch.Queue(`UPDATE spawn_runs SET spawned = spawned + $2 WHERE run_id = $1::uuid`, id.String(), n)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *JournalRepo) FinishRun(ctx context.Context, out RunOutcome) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE spawn_runs
		 SET state = $2, spawned = $3, error = $4, finished_at = NOW()
		 WHERE run_id = $1::uuid`,
		out.ID.String(), out.State, out.Spawned, out.Error,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", out.ID, err)
	}
	return nil
}
