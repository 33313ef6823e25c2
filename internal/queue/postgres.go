package queue

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// status mirrors the status column in spec.md §6.2.
type status int

const (
	statusReady status = iota
	statusInFlight
	statusDone
	statusFailed
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS voyager_queue (
	id bigserial PRIMARY KEY,
	payload bytea NOT NULL,
	status int NOT NULL DEFAULT 0,
	created_at timestamptz NOT NULL DEFAULT now(),
	claimed_at timestamptz NULL
)`

// PGQueue is the durable Queue backing (spec.md §6.2): a single table,
// claimed with SELECT ... FOR UPDATE SKIP LOCKED so multiple engine
// replicas could in principle share one database without double-
// claiming a row, though this engine only ever runs one Process loop
// at a time (spec.md §5, single-writer dispatch).
type PGQueue struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewPGQueue connects to databaseURL and ensures the schema exists.
func NewPGQueue(ctx context.Context, databaseURL string, log *zap.Logger) (*PGQueue, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("queue: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("queue: ensure schema: %w", err)
	}
	return &PGQueue{pool: pool, log: log}, nil
}

func (q *PGQueue) Enqueue(ctx context.Context, msgs ...message.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("queue: begin enqueue tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, m := range msgs {
		payload, err := message.Marshal(m)
		if err != nil {
			return fmt.Errorf("queue: marshal message: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO voyager_queue (payload, status) VALUES ($1, $2)`,
			payload, statusReady,
		); err != nil {
			return fmt.Errorf("queue: insert: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("queue: commit enqueue tx: %w", err)
	}
	return nil
}

// Process claims the head row and runs the whole claim-handle-commit
// cycle in one transaction, per spec.md §6.2: "process claims the
// lowest-id ready row FOR UPDATE SKIP LOCKED, sets in_flight, invokes
// handler, then in one transaction: inserts successors and sets
// claimed row to done ... or resets to ready". Holding the row lock
// for the duration of the handler is what gives the at-least-once
// guarantee in spec.md §8.6: a crash between handler return and commit
// rolls the whole transaction back, including the in_flight marker, so
// the same row is claimable again on restart.
func (q *PGQueue) Process(ctx context.Context, h Handler) error {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("queue: begin process tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	var payload []byte
	row := tx.QueryRow(ctx, `
		SELECT id, payload FROM voyager_queue
		WHERE status = $1
		ORDER BY id ASC
		FOR UPDATE SKIP LOCKED
		LIMIT 1`, statusReady)
	if err := row.Scan(&id, &payload); err != nil {
		if err == pgx.ErrNoRows {
			return ErrEmpty
		}
		return fmt.Errorf("queue: claim head: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE voyager_queue SET status = $1, claimed_at = now() WHERE id = $2`,
		statusInFlight, id); err != nil {
		return fmt.Errorf("queue: mark in_flight: %w", err)
	}

	m, err := message.Unmarshal(payload)
	if err != nil {
		q.log.Error("queue: corrupt payload, marking failed", zap.Int64("id", id), zap.Error(err))
		if _, err := tx.Exec(ctx, `UPDATE voyager_queue SET status = $1 WHERE id = $2`, statusFailed, id); err != nil {
			return fmt.Errorf("queue: mark failed: %w", err)
		}
		return tx.Commit(ctx)
	}

	result := h(ctx, m)

	switch result.Flow {
	case FlowSuccess:
		for _, succ := range result.Messages {
			succPayload, err := message.Marshal(succ)
			if err != nil {
				return fmt.Errorf("queue: marshal successor: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO voyager_queue (payload, status) VALUES ($1, $2)`,
				succPayload, statusReady,
			); err != nil {
				return fmt.Errorf("queue: insert successor: %w", err)
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE voyager_queue SET status = $1 WHERE id = $2`, statusDone, id); err != nil {
			return fmt.Errorf("queue: mark done: %w", err)
		}
	case FlowRequeue:
		if _, err := tx.Exec(ctx,
			`UPDATE voyager_queue SET status = $1, claimed_at = NULL WHERE id = $2`, statusReady, id,
		); err != nil {
			return fmt.Errorf("queue: reset to ready: %w", err)
		}
	case FlowFail:
		if _, err := tx.Exec(ctx, `UPDATE voyager_queue SET status = $1 WHERE id = $2`, statusFailed, id); err != nil {
			return fmt.Errorf("queue: mark failed: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("queue: commit fail-mark: %w", err)
		}
		return result.Err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("queue: commit result tx: %w", err)
	}
	return nil
}

func (q *PGQueue) Close() error {
	q.pool.Close()
	return nil
}
