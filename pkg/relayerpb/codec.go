package relayerpb

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// gobCodec lets this hand-written service run over a real
// *grpc.Server/*grpc.ClientConn without the proto.Message
// implementations protoc-gen-go would normally generate, using
// grpc-go's own pluggable encoding.Codec extension point (the same
// one protobuf itself registers under) with encoding/gob as the wire
// format. Selected per-call via grpc.CallContentSubtype("gob").
type gobCodec struct{}

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("relayerpb: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("relayerpb: gob decode: %w", err)
	}
	return nil
}

func (gobCodec) Name() string { return "gob" }

func init() {
	encoding.RegisterCodec(gobCodec{})
}
