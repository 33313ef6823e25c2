// Package queue implements the durable, at-least-once work queue the
// engine drains: enqueue appends to the tail, Process claims the head
// exclusively, invokes a handler, and applies its ProcessFlow verdict.
// Two backings share this interface, in-memory and Postgres
// (spec.md §4.1/§6.2), the same way the teacher's queue.rs names an
// AnyQueue enum over InMemoryQueue/PgQueue.
package queue

import (
	"context"
	"errors"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// ProcessFlow is the return contract of a message handler.
type ProcessFlow int

const (
	// FlowSuccess appends Result.Messages to the tail and marks the head done.
	FlowSuccess ProcessFlow = iota
	// FlowRequeue re-inserts the head message at the same position.
	FlowRequeue
	// FlowFail is fatal: the queue driver surfaces Result.Err and the
	// process is expected to be restarted by its supervisor.
	FlowFail
)

func (f ProcessFlow) String() string {
	switch f {
	case FlowSuccess:
		return "success"
	case FlowRequeue:
		return "requeue"
	case FlowFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Result is what a Handler returns: the flow, any successor messages
// (only meaningful for FlowSuccess), and an error (only meaningful for
// FlowFail, or for logging on FlowRequeue).
type Result struct {
	Flow     ProcessFlow
	Messages []message.Message
	Err      error
}

func Success(msgs ...message.Message) Result { return Result{Flow: FlowSuccess, Messages: msgs} }
func Requeue() Result                        { return Result{Flow: FlowRequeue} }
func Fail(err error) Result                  { return Result{Flow: FlowFail, Err: err} }

// Handler reduces one Message to a Result. It is the sole place I/O or
// the reducer's pure dispatch runs per process() call.
type Handler func(context.Context, message.Message) Result

// ErrEmpty is returned by Process to distinguish "no work right now"
// from a real error; the engine's run loop treats it as an idle tick.
var ErrEmpty = errors.New("queue: empty")

// Queue is the shared interface over the in-memory and durable
// backings (spec.md §4.1).
type Queue interface {
	// Enqueue appends msgs to the tail, in order.
	Enqueue(ctx context.Context, msgs ...message.Message) error
	// Process claims one head message exclusively, invokes h, and
	// applies the result. Returns ErrEmpty if the queue had nothing to
	// claim. A non-ErrEmpty, non-nil error is either a queue/persistence
	// failure (spec.md §7) or the Err of a FlowFail result returned by h:
	// both are fatal, the caller should stop the engine.
	Process(ctx context.Context, h Handler) error
	// Close releases any held resources (db pools, etc).
	Close() error
}
