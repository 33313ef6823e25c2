// Package engine wires reducer.Dispatch into a queue.Handler and runs
// the single process loop that owns every Process call (spec.md §5:
// "internal/engine.Engine.Run(ctx) is the one goroutine calling
// queue.Process"). It is the one place the error taxonomy in spec.md §7
// turns into a concrete ProcessFlow.
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/hasura"
	"github.com/cosmos/voyager-eureka/internal/message"
	"github.com/cosmos/voyager-eureka/internal/queue"
	"github.com/cosmos/voyager-eureka/internal/reducer"
	"github.com/cosmos/voyager-eureka/internal/telemetry"
)

// idleTick is how long Run waits after an empty poll before trying
// again; Process is a poll (claim-or-ErrEmpty), not a blocking receive,
// so this is the loop's equivalent of the teacher eventloop's channel
// select block.
const idleTick = 200 * time.Millisecond

// queryRetryAttempts/queryRetryBackoff implement spec.md §7's explicit
// redesign instruction: a ChainQueryError is given a bounded number of
// retries before it's allowed to become fatal.
const (
	queryRetryAttempts = 3
	queryRetryBackoff  = 1 * time.Second
)

// Engine is the single-writer loop described in spec.md §5.
type Engine struct {
	Queue    queue.Queue
	Registry *chain.Registry
	Log      *zap.Logger
	// Hasura is optional; nil disables archiving entirely.
	Hasura *hasura.Sink
	// Metrics is optional; nil disables Prometheus instrumentation
	// entirely, the same on/off-by-nil convention Hasura uses.
	Metrics *telemetry.Metrics
}

// Run polls Queue.Process until ctx is canceled or a FlowFail surfaces.
// A FlowFail return from Process is treated as fatal here: Run returns
// the error rather than looping, matching spec.md §5's "a
// ProcessFlow::Fail panics the process; supervisory restart expected" --
// Run logs the error via zap before returning it, and the caller
// (cmd/voyager) prints it to stderr and exits non-zero so its process
// supervisor restarts the whole engine.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := e.Queue.Process(ctx, e.handle)
		switch {
		case err == nil:
			continue
		case errors.Is(err, queue.ErrEmpty):
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(idleTick):
			}
		default:
			e.Log.Error("engine: fatal queue error, stopping", zap.Error(err))
			return err
		}
	}
}

// handle is the queue.Handler passed to Process: run the reducer,
// archive a best-effort copy, and classify any error into the right
// ProcessFlow.
func (e *Engine) handle(ctx context.Context, m message.Message) queue.Result {
	if e.Hasura != nil {
		e.Hasura.Post(ctx, "dequeue", m)
	}
	if e.Metrics != nil {
		e.Metrics.Dispatched.WithLabelValues(m.Kind()).Inc()
	}

	successors, err := reducer.Dispatch(ctx, e.Registry, e.Log, m)
	if err != nil {
		return e.classify(m, err)
	}

	if e.Hasura != nil {
		for _, s := range successors {
			e.Hasura.Post(ctx, "enqueue", s)
		}
	}
	if e.Metrics != nil {
		e.Metrics.Outcomes.WithLabelValues("success").Inc()
	}
	return queue.Success(successors...)
}

// classify implements the propagation policy table in spec.md §7.
func (e *Engine) classify(m message.Message, err error) queue.Result {
	var recoverable *reducer.ChainSubmitRecoverableError
	var queryErr *reducer.ChainQueryError

	switch {
	case errors.As(err, &recoverable):
		// Already logged a loss of this specific in-flight message as
		// acceptable: a fresh on-chain event will re-trigger the same
		// choreography row (spec.md §7).
		e.Log.Warn("engine: recoverable submit error, dropping message",
			zap.String("kind", m.Kind()), zap.Error(err))
		e.countOutcome("recoverable")
		return queue.Success()

	case errors.As(err, &queryErr):
		e.Log.Warn("engine: chain query error, converting to bounded retry",
			zap.String("kind", m.Kind()), zap.Error(err))
		e.countOutcome("retry")
		return queue.Success(message.NewSequence(
			message.DeferUntil{UnixSeconds: time.Now().Add(queryRetryBackoff).Unix()},
			message.Retry{AttemptsLeft: queryRetryAttempts, Backoff: queryRetryBackoff, Inner: m},
		))

	default:
		// PersistenceError, EncodingError, ChainSubmitFatalError,
		// ErrAggregateSchemaMismatch, ErrUnknownMessage, and anything
		// else uncategorized: all fatal per spec.md §7.
		e.Log.Error("engine: fatal dispatch error", zap.String("kind", m.Kind()), zap.Error(err))
		e.countOutcome("fatal")
		return queue.Fail(err)
	}
}

func (e *Engine) countOutcome(result string) {
	if e.Metrics != nil {
		e.Metrics.Outcomes.WithLabelValues(result).Inc()
	}
}
