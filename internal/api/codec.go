// Package api defines the worklog RPC contract: request and response
// messages, procedure names, and Connect handler and client constructors.
//
// Messages are plain Go structs carried by a JSON codec, so the package
// needs no generated code.
package api

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// Codec marshals messages as JSON. It replaces connect's built-in "json"
// codec, which only accepts protobuf messages.
type Codec struct{}

var _ connect.Codec = Codec{}

// Name implements connect.Codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}

// WithCodec is the option both sides must pass to speak this contract.
func WithCodec() connect.Option {
	return connect.WithCodec(Codec{})
}
