package reducer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cosmos/voyager-eureka/internal/chain"
	"github.com/cosmos/voyager-eureka/internal/message"
)

// maxRetryBackoff caps the doubling backoff so a pathological
// AttemptsLeft doesn't push DeferUntil arbitrarily far into the
// future; the curve follows retry-go/v4's BackOffDelay formula
// (double each attempt, capped), reimplemented inline since Retry is
// itself the persisted backoff state rather than a blocking call
// retry-go could wrap.
const maxRetryBackoff = 5 * time.Minute

// dispatchRetry resolves spec.md §9's open question: exponential
// backoff, fatal on exhaustion. On success of Inner, Retry is
// discarded and Inner's own successors pass through unwrapped. On
// failure, Retry re-emits itself with AttemptsLeft-1 and doubled
// Backoff, deferred behind a DeferUntil. At AttemptsLeft == 0 the last
// error is returned, which the engine treats as fatal, rather than
// retrying forever.
func dispatchRetry(ctx context.Context, reg *chain.Registry, log *zap.Logger, r message.Retry) ([]message.Message, error) {
	successors, err := Dispatch(ctx, reg, log, r.Inner)
	if err == nil {
		return successors, nil
	}

	if r.AttemptsLeft <= 0 {
		log.Error("reducer: retry exhausted",
			zap.String("inner_kind", r.Inner.Kind()), zap.Error(err))
		// %v rather than %w: a wrapped ChainQueryError would make the
		// engine start a fresh Retry instead of stopping.
		return nil, fmt.Errorf("reducer: retry exhausted for %s: %v", r.Inner.Kind(), err)
	}

	nextBackoff := r.Backoff * 2
	if nextBackoff > maxRetryBackoff || nextBackoff <= 0 {
		nextBackoff = maxRetryBackoff
	}
	log.Warn("reducer: retrying after error",
		zap.String("inner_kind", r.Inner.Kind()), zap.Int("attempts_left", r.AttemptsLeft-1),
		zap.Duration("backoff", nextBackoff), zap.Error(err))

	return []message.Message{message.NewSequence(
		message.DeferUntil{UnixSeconds: time.Now().Add(r.Backoff).Unix()},
		message.Retry{AttemptsLeft: r.AttemptsLeft - 1, Backoff: nextBackoff, Inner: r.Inner},
	)}, nil
}
