package gateway

import (
	"fmt"

	"google.golang.org/grpc"
)

// codecName selects "application/grpc+proto", the only content type the robot accepts.
const codecName = "proto"

// protoCodec encodes the wire messages in messages.go as protocol buffers.
// It is attached per call with grpc.ForceCodec and never registered, so the
// process-wide proto codec is left alone.
type protoCodec struct{}

// callCodec is passed to every call and stream on the robot channel.
var callCodec = grpc.ForceCodec(protoCodec{})

func (protoCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(message)
	if !ok {
		return nil, fmt.Errorf("gateway: cannot encode %T", v)
	}
	return m.marshalProto(nil), nil
}

func (protoCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(message)
	if !ok {
		return fmt.Errorf("gateway: cannot decode into %T", v)
	}
	if err := m.unmarshalProto(data); err != nil {
		return fmt.Errorf("gateway: decoding %T: %w", v, err)
	}
	return nil
}

func (protoCodec) Name() string {
	return codecName
}
