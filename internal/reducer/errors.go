// Package reducer implements the total dispatch function over the
// message algebra (spec.md §4.3-4.6): Dispatch turns one message into
// zero or more successors, touching the outside world only through the
// chain.Adapter interface.
package reducer

import (
	"errors"
	"fmt"

	"github.com/cosmos/voyager-eureka/internal/message"
)

// PersistenceError wraps a queue/db failure. Fatal: the engine stops,
// its supervisor restarts it (spec.md §7).
type PersistenceError struct{ Err error }

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence: %v", e.Err) }
func (e *PersistenceError) Unwrap() error  { return e.Err }

// EncodingError indicates a bug: a wire payload that should always
// decode did not. Never expected at runtime; dispatch returns it with
// context and the engine treats it as fatal (FlowFail) rather than
// limping on with corrupt state.
type EncodingError struct{ Err error }

func (e *EncodingError) Error() string { return fmt.Sprintf("encoding: %v", e.Err) }
func (e *EncodingError) Unwrap() error  { return e.Err }

// ChainQueryError is transient: spec.md §7 calls for converting it to a
// bounded Retry (engine.go wraps the failed message once in a
// message.Retry carrying a fixed number of attempts) before treating
// it as fatal.
type ChainQueryError struct{ Err error }

func (e *ChainQueryError) Error() string { return fmt.Sprintf("chain query: %v", e.Err) }
func (e *ChainQueryError) Unwrap() error  { return e.Err }

// ChainSubmitRecoverableError is logged and treated as queue success;
// the choreography that produced this Msg will be re-triggered by a
// fresh on-chain event (spec.md §7). A revert that looks like
// "already registered"/"already exists" is folded into this case by
// classifySubmitError (msg.go), not treated as a hard failure.
type ChainSubmitRecoverableError struct{ Err error }

func (e *ChainSubmitRecoverableError) Error() string {
	return fmt.Sprintf("chain submit (recoverable): %v", e.Err)
}
func (e *ChainSubmitRecoverableError) Unwrap() error { return e.Err }

// ChainSubmitFatalError is not recoverable: dispatch propagates it as a
// FlowFail.
type ChainSubmitFatalError struct{ Err error }

func (e *ChainSubmitFatalError) Error() string {
	return fmt.Sprintf("chain submit (fatal): %v", e.Err)
}
func (e *ChainSubmitFatalError) Unwrap() error { return e.Err }

// ErrAggregateSchemaMismatch fires when an Aggregate completes its
// Queue but the accumulated Data doesn't match Receiver.Schema():
// spec.md calls this "a fatal bug" (excess or missing items).
var ErrAggregateSchemaMismatch = errors.New("reducer: aggregate data does not match receiver schema")

// ErrIncomparableRevisions re-exports message's sentinel for callers
// that only import reducer.
var ErrIncomparableRevisions = message.ErrIncomparableRevisions

// ErrUnknownMessage indicates Dispatch was handed a Message type it
// doesn't know how to reduce -- this is effectively an EncodingError
// for messages that decoded successfully into a type outside our
// closed algebra, which should be impossible given message.Unmarshal's
// own closed switch.
var ErrUnknownMessage = errors.New("reducer: unknown message type")
