package message

import (
	"encoding/json"
	"fmt"
)

// envelope is the on-the-wire shape for every closed interface family in
// this package: a discriminant tag plus the concrete payload. It is the
// same discriminated-envelope shape the teacher uses for
// relayer.ModuleConfig{Name, Config any} in the e2e relayer config.
type envelope struct {
	Kind string          `json:"kind"`
	Body json.RawMessage `json:"body,omitempty"`
}

func encode(kind string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("message: encode %s: %w", kind, err)
	}
	return json.Marshal(envelope{Kind: kind, Body: body})
}

// Marshal serializes a Message for durable queue persistence
// (spec.md §6.2: "payload bytea").
func Marshal(m Message) ([]byte, error) {
	switch v := m.(type) {
	case LightClientMessage:
		body, err := marshalLightClientBody(v.Body)
		if err != nil {
			return nil, err
		}
		return json.Marshal(envelope{Kind: "light_client", Body: mustJoin(lcEnvelope{
			ChainID: v.ChainID, LightClient: v.LightClient, Body: body,
		})})
	case DeferUntil:
		return encode("defer_until", v)
	case Timeout:
		inner, err := Marshal(v.Inner)
		if err != nil {
			return nil, err
		}
		return encode("timeout", timeoutWire{TimeoutUnixSeconds: v.TimeoutUnixSeconds, Inner: inner})
	case Sequence:
		wires := make([]json.RawMessage, len(v.Messages))
		for i, inner := range v.Messages {
			b, err := Marshal(inner)
			if err != nil {
				return nil, err
			}
			wires[i] = b
		}
		return encode("sequence", wires)
	case Retry:
		inner, err := Marshal(v.Inner)
		if err != nil {
			return nil, err
		}
		return encode("retry", retryWire{AttemptsLeft: v.AttemptsLeft, BackoffNanos: int64(v.Backoff), Inner: inner})
	case Aggregate:
		queue := make([]json.RawMessage, len(v.Queue))
		for i, inner := range v.Queue {
			b, err := Marshal(inner)
			if err != nil {
				return nil, err
			}
			queue[i] = b
		}
		data := make([]json.RawMessage, len(v.Data))
		for i, d := range v.Data {
			b, err := MarshalData(d)
			if err != nil {
				return nil, err
			}
			data[i] = b
		}
		var receiver json.RawMessage
		if v.Receiver != nil {
			rb, err := v.Receiver.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("message: marshal receiver %s: %w", v.Receiver.Name(), err)
			}
			receiver = json.RawMessage(rb)
		}
		receiverName := ""
		if v.Receiver != nil {
			receiverName = v.Receiver.Name()
		}
		return encode("aggregate", aggregateWire{Queue: queue, Data: data, ReceiverName: receiverName, Receiver: receiver})
	default:
		return nil, fmt.Errorf("message: unknown Message type %T", m)
	}
}

// Unmarshal is the inverse of Marshal.
func Unmarshal(b []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("message: decode envelope: %w", err)
	}
	switch env.Kind {
	case "light_client":
		var w lcEnvelope
		if err := json.Unmarshal(env.Body, &w); err != nil {
			return nil, err
		}
		body, err := unmarshalLightClientBody(w.Body)
		if err != nil {
			return nil, err
		}
		return LightClientMessage{ChainID: w.ChainID, LightClient: w.LightClient, Body: body}, nil
	case "defer_until":
		var v DeferUntil
		return v, json.Unmarshal(env.Body, &v)
	case "timeout":
		var w timeoutWire
		if err := json.Unmarshal(env.Body, &w); err != nil {
			return nil, err
		}
		inner, err := Unmarshal(w.Inner)
		if err != nil {
			return nil, err
		}
		return Timeout{TimeoutUnixSeconds: w.TimeoutUnixSeconds, Inner: inner}, nil
	case "sequence":
		var wires []json.RawMessage
		if err := json.Unmarshal(env.Body, &wires); err != nil {
			return nil, err
		}
		msgs := make([]Message, len(wires))
		for i, w := range wires {
			m, err := Unmarshal(w)
			if err != nil {
				return nil, err
			}
			msgs[i] = m
		}
		return Sequence{Messages: msgs}, nil
	case "retry":
		var w retryWire
		if err := json.Unmarshal(env.Body, &w); err != nil {
			return nil, err
		}
		inner, err := Unmarshal(w.Inner)
		if err != nil {
			return nil, err
		}
		return Retry{AttemptsLeft: w.AttemptsLeft, Backoff: timeDuration(w.BackoffNanos), Inner: inner}, nil
	case "aggregate":
		var w aggregateWire
		if err := json.Unmarshal(env.Body, &w); err != nil {
			return nil, err
		}
		queue := make([]Message, len(w.Queue))
		for i, qb := range w.Queue {
			m, err := Unmarshal(qb)
			if err != nil {
				return nil, err
			}
			queue[i] = m
		}
		data := make([]Data, len(w.Data))
		for i, db := range w.Data {
			d, err := UnmarshalData(db)
			if err != nil {
				return nil, err
			}
			data[i] = d
		}
		var receiver AggregateReceiver
		if w.ReceiverName != "" {
			var err error
			receiver, err = unmarshalReceiver(w.ReceiverName, w.Receiver)
			if err != nil {
				return nil, err
			}
		}
		return Aggregate{Queue: queue, Data: data, Receiver: receiver}, nil
	default:
		return nil, fmt.Errorf("message: unknown Message kind %q", env.Kind)
	}
}

type lcEnvelope struct {
	ChainID     ChainID         `json:"chain_id"`
	LightClient LightClientKind `json:"light_client"`
	Body        json.RawMessage `json:"body"`
}

type timeoutWire struct {
	TimeoutUnixSeconds int64           `json:"timeout_unix_seconds"`
	Inner              json.RawMessage `json:"inner"`
}

type retryWire struct {
	AttemptsLeft int             `json:"attempts_left"`
	BackoffNanos int64           `json:"backoff_nanos"`
	Inner        json.RawMessage `json:"inner"`
}

type aggregateWire struct {
	Queue        []json.RawMessage `json:"queue"`
	Data         []json.RawMessage `json:"data"`
	ReceiverName string            `json:"receiver_name,omitempty"`
	Receiver     json.RawMessage   `json:"receiver,omitempty"`
}

func mustJoin(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("message: unreachable marshal failure: %v", err))
	}
	return b
}

// --- LightClientBody ---

func marshalLightClientBody(b LightClientBody) (json.RawMessage, error) {
	switch v := b.(type) {
	case Event:
		return encode("event", v)
	case Fetch:
		fv, err := marshalFetchVariant(v.Variant)
		if err != nil {
			return nil, err
		}
		return encode("fetch", fv)
	case Wait:
		wv, err := marshalWaitVariant(v.Variant)
		if err != nil {
			return nil, err
		}
		return encode("wait", wv)
	case Msg:
		mv, err := marshalMsgVariant(v.Variant)
		if err != nil {
			return nil, err
		}
		return encode("msg", mv)
	case DataMsg:
		d, err := MarshalData(v.Payload)
		if err != nil {
			return nil, err
		}
		return encode("data", d)
	default:
		return nil, fmt.Errorf("message: unknown LightClientBody %T", b)
	}
}

func unmarshalLightClientBody(b json.RawMessage) (LightClientBody, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case "event":
		var v Event
		return v, json.Unmarshal(env.Body, &v)
	case "fetch":
		var fe envelope
		if err := json.Unmarshal(env.Body, &fe); err != nil {
			return nil, err
		}
		variant, err := unmarshalFetchVariant(fe)
		if err != nil {
			return nil, err
		}
		return Fetch{Variant: variant}, nil
	case "wait":
		var we envelope
		if err := json.Unmarshal(env.Body, &we); err != nil {
			return nil, err
		}
		variant, err := unmarshalWaitVariant(we)
		if err != nil {
			return nil, err
		}
		return Wait{Variant: variant}, nil
	case "msg":
		var me envelope
		if err := json.Unmarshal(env.Body, &me); err != nil {
			return nil, err
		}
		variant, err := unmarshalMsgVariant(me)
		if err != nil {
			return nil, err
		}
		return Msg{Variant: variant}, nil
	case "data":
		d, err := UnmarshalData(env.Body)
		if err != nil {
			return nil, err
		}
		return DataMsg{Payload: d}, nil
	default:
		return nil, fmt.Errorf("message: unknown LightClientBody kind %q", env.Kind)
	}
}
