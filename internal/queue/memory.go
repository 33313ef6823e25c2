package queue

import (
	"container/list"
	"context"
	"sync"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// InMemory is the non-durable Queue backing: a doubly-linked list
// guarded by a mutex, in the same spirit as the teacher's
// spike/eventloop mutex-guarded heap. Restarting the process loses
// everything in it -- fine for local development and tests, never for
// production (spec.md §6.3's "in-memory" queue kind).
type InMemory struct {
	mu   sync.Mutex
	msgs *list.List
}

// NewInMemory constructs an empty in-memory queue.
func NewInMemory() *InMemory {
	return &InMemory{msgs: list.New()}
}

func (q *InMemory) Enqueue(_ context.Context, msgs ...message.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, m := range msgs {
		q.msgs.PushBack(m)
	}
	return nil
}

func (q *InMemory) Process(ctx context.Context, h Handler) error {
	q.mu.Lock()
	front := q.msgs.Front()
	if front == nil {
		q.mu.Unlock()
		return ErrEmpty
	}
	m := q.msgs.Remove(front).(message.Message)
	q.mu.Unlock()

	result := h(ctx, m)

	q.mu.Lock()
	defer q.mu.Unlock()
	switch result.Flow {
	case FlowSuccess:
		for _, succ := range result.Messages {
			q.msgs.PushBack(succ)
		}
		return nil
	case FlowRequeue:
		q.msgs.PushFront(m)
		return nil
	case FlowFail:
		return result.Err
	default:
		return nil
	}
}

func (q *InMemory) Close() error { return nil }

// Len reports the number of messages currently queued.
func (q *InMemory) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.msgs.Len()
}
