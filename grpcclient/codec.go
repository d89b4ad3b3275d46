package grpcclient

import (
	"encoding"
	"fmt"

	gencoding "google.golang.org/grpc/encoding"
)

// codecName identifies the raw binary codec registered below. Callers
// select it per-RPC with grpc.CallContentSubtype(codecName).
const codecName = "fluidblob-raw"

// rawCodec lets grpc transport the wire types this module already knows
// how to encode (blob.Address, blob.Blob) without generating protobuf
// stubs for them: any request/response implementing encoding.Binary
// Marshaler/Unmarshaler rides as-is. This is the "raw codec" escape hatch
// grpc-go exposes via google.golang.org/grpc/encoding precisely so a
// client can reuse a hand-written wire format instead of protoc-gen-go.
type rawCodec struct{}

func (rawCodec) Name() string { return codecName }

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(encoding.BinaryMarshaler)
	if !ok {
		return nil, fmt.Errorf("grpcclient: %T does not implement encoding.BinaryMarshaler", v)
	}
	return m.MarshalBinary()
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(encoding.BinaryUnmarshaler)
	if !ok {
		return fmt.Errorf("grpcclient: %T does not implement encoding.BinaryUnmarshaler", v)
	}
	return m.UnmarshalBinary(data)
}

func init() {
	gencoding.RegisterCodec(rawCodec{})
}

// ack is the empty response body for RPCs that only report success or
// failure (PutBlob, DeleteBlob).
type ack struct{}

func (ack) MarshalBinary() ([]byte, error) { return nil, nil }
func (*ack) UnmarshalBinary([]byte) error  { return nil }
