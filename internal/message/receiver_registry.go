package message

import "fmt"

// receiverDecoder turns a receiver's own MarshalJSON() output back into
// a concrete AggregateReceiver. The reducer package registers one of
// these per receiver type in an init() func, since message must not
// import reducer (it would be a cycle) but still needs to durably
// persist an in-flight Aggregate across restarts.
type receiverDecoder func(body []byte) (AggregateReceiver, error)

var receiverDecoders = map[string]receiverDecoder{}

// RegisterReceiverKind associates an AggregateReceiver's Name() with
// the function that can reconstruct it from its own MarshalJSON bytes.
// Called from reducer's init().
func RegisterReceiverKind(name string, decode receiverDecoder) {
	if _, exists := receiverDecoders[name]; exists {
		panic(fmt.Sprintf("message: receiver kind %q already registered", name))
	}
	receiverDecoders[name] = decode
}

func unmarshalReceiver(name string, body []byte) (AggregateReceiver, error) {
	decode, ok := receiverDecoders[name]
	if !ok {
		return nil, fmt.Errorf("message: no receiver decoder registered for %q (forgot to import the reducer package?)", name)
	}
	return decode(body)
}
