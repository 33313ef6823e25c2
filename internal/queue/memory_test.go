package queue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cosmos/voyager-eureka/internal/message"
	"github.com/cosmos/voyager-eureka/internal/queue"
)

func TestInMemoryProcessEmptyReturnsErrEmpty(t *testing.T) {
	q := queue.NewInMemory()
	err := q.Process(t.Context(), func(ctx context.Context, m message.Message) queue.Result {
		t.Fatal("handler should not be called on an empty queue")
		return queue.Result{}
	})
	require.ErrorIs(t, err, queue.ErrEmpty)
}

// TestInMemorySuccessEnqueuesSuccessors covers a single dispatch step:
// a handled message's successors are appended to the tail, in FIFO
// order with whatever else is already queued.
func TestInMemorySuccessEnqueuesSuccessors(t *testing.T) {
	ctx := t.Context()
	q := queue.NewInMemory()
	first := message.DeferUntil{UnixSeconds: 1}
	require.NoError(t, q.Enqueue(ctx, first))

	successor := message.DeferUntil{UnixSeconds: 2}
	err := q.Process(ctx, func(ctx context.Context, m message.Message) queue.Result {
		require.Equal(t, first, m)
		return queue.Success(successor)
	})
	require.NoError(t, err)
	require.Equal(t, 1, q.Len())

	err = q.Process(ctx, func(ctx context.Context, m message.Message) queue.Result {
		require.Equal(t, successor, m)
		return queue.Success()
	})
	require.NoError(t, err)
	require.Equal(t, 0, q.Len())
}

// TestInMemoryRequeuePreservesAtLeastOnce covers spec.md §8's
// at-least-once property: a FlowRequeue result puts the original
// message back at the front, so the very next Process call redelivers
// the same message rather than losing it.
func TestInMemoryRequeuePreservesAtLeastOnce(t *testing.T) {
	ctx := t.Context()
	q := queue.NewInMemory()
	m := message.DeferUntil{UnixSeconds: 5}
	require.NoError(t, q.Enqueue(ctx, m))

	attempts := 0
	err := q.Process(ctx, func(ctx context.Context, got message.Message) queue.Result {
		attempts++
		return queue.Requeue()
	})
	require.NoError(t, err)
	require.Equal(t, 1, attempts)
	require.Equal(t, 1, q.Len())

	err = q.Process(ctx, func(ctx context.Context, got message.Message) queue.Result {
		require.Equal(t, m, got)
		return queue.Success()
	})
	require.NoError(t, err)
}

func TestInMemoryFailReturnsHandlerError(t *testing.T) {
	ctx := t.Context()
	q := queue.NewInMemory()
	require.NoError(t, q.Enqueue(ctx, message.DeferUntil{UnixSeconds: 1}))

	fatal := errors.New("boom")
	err := q.Process(ctx, func(ctx context.Context, m message.Message) queue.Result {
		return queue.Fail(fatal)
	})
	require.ErrorIs(t, err, fatal)
	require.Equal(t, 0, q.Len())
}
