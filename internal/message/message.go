package message

import "time"

// Message is the tagged union the queue carries. Implementations are
// closed to this package's variants; spec.md §9 calls for enumerating
// the algebra rather than open polymorphism.
type Message interface {
	isMessage()
	Kind() string
}

// LightClientMessage carries one of {Event, Data, Fetch, Wait, Msg}
// parameterized by a (chain, light-client) pair; Aggregate is a
// top-level Message of its own.
type LightClientMessage struct {
	ChainID     ChainID
	LightClient LightClientKind
	Body        LightClientBody
}

func (LightClientMessage) isMessage()     {}
func (m LightClientMessage) Kind() string { return "light_client:" + m.Body.bodyKind() }

// LightClientBody is the inner payload of a LightClientMessage: one of
// Event, Fetch, Wait, Msg, or DataMsg (an aggregate is
// represented at the top level as Aggregate, since it owns a queue of
// further Messages rather than being a chain-scoped leaf).
type LightClientBody interface {
	bodyKind() string
}

// DeferUntil suspends the head of the queue until wall-clock time
// reaches UnixSeconds.
type DeferUntil struct {
	UnixSeconds int64
}

func (DeferUntil) isMessage()     {}
func (DeferUntil) Kind() string   { return "defer_until" }

func (d DeferUntil) Due(now time.Time) bool {
	return now.Unix() >= d.UnixSeconds
}

// Timeout drops Inner if not resolved by TimeoutUnixSeconds.
type Timeout struct {
	TimeoutUnixSeconds int64
	Inner              Message
}

func (Timeout) isMessage()   {}
func (Timeout) Kind() string { return "timeout" }

func (t Timeout) Expired(now time.Time) bool {
	return now.Unix() > t.TimeoutUnixSeconds
}

// Sequence is an ordered, head-first list of Messages. The variadic
// constructor NewSequence flattens nested sequences so the invariant
// "a Sequence is never nested" holds by construction.
type Sequence struct {
	Messages []Message
}

func (Sequence) isMessage()   {}
func (Sequence) Kind() string { return "sequence" }

// NewSequence flattens any nested Sequence values in ms into one flat
// Sequence. Property under test: handling Sequence[Sequence[a,b],c]
// yields the same successor stream as Sequence[a,b,c] (spec.md §8.1).
func NewSequence(ms ...Message) Sequence {
	return Sequence{Messages: flatten(ms)}
}

func flatten(ms []Message) []Message {
	out := make([]Message, 0, len(ms))
	for _, m := range ms {
		if seq, ok := m.(Sequence); ok {
			out = append(out, flatten(seq.Messages)...)
			continue
		}
		out = append(out, m)
	}
	return out
}

// Retry wraps Inner with a bounded, exponentially-backed-off retry
// policy. spec.md §9 leaves this open in the source (`todo!`); §4.3
// resolves it as exponential backoff with fatal-on-exhaustion.
type Retry struct {
	AttemptsLeft int
	Backoff      time.Duration
	Inner        Message
}

func (Retry) isMessage()   {}
func (Retry) Kind() string { return "retry" }

// Aggregate is a planned join point: Queue is drained one message at a
// time, successors that are Data of the shape Receiver.Schema() expects
// move into Data, everything else goes back into Queue. Once Queue is
// empty, Receiver.Aggregate(Data) produces the final Message.
type Aggregate struct {
	Queue    []Message
	Data     []Data
	Receiver AggregateReceiver
}

func (Aggregate) isMessage() {}

func (a Aggregate) Kind() string {
	if a.Receiver == nil {
		return "aggregate"
	}
	return "aggregate:" + a.Receiver.Name()
}

// AggregateReceiver declares a typed schema of required Data payloads
// and a pure function from a satisfying slice to the next Message.
// Receivers must also be JSON-marshalable so an in-flight Aggregate
// survives a queue persist/restore cycle; see codec.go and
// RegisterReceiverKind.
type AggregateReceiver interface {
	// Name identifies the receiver for logging/serialization; it must
	// match the name passed to RegisterReceiverKind.
	Name() string
	// Schema lists the DataKinds this receiver needs, in the order it
	// expects to consume them (aggregation itself is commutative over
	// inputs -- the aggregator matches by type, not position -- but the
	// declared order is what callers build Queue in).
	Schema() []DataKind
	// Aggregate runs once len(data) == len(Schema()) and every kind
	// matches; returns the single successor Message.
	Aggregate(data []Data) (Message, error)

	jsonMarshaler
}

type jsonMarshaler interface {
	MarshalJSON() ([]byte, error)
}
