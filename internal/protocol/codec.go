package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformed   = errors.New("malformed message envelope")
	ErrUnknownType = errors.New("unknown message type")
)

// Envelope is the wire frame around every message
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func decodeAs[T ToBackend](data json.RawMessage) (ToBackend, error) {
	var v T
	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode parses a client frame into its concrete request type
func Decode(raw []byte) (ToBackend, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	decode, ok := requestTypes[env.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	msg, err := decode(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return msg, nil
}

// Encode frames a message for a client connection
func Encode(msg ToFrontend) ([]byte, error) {
	return encode(msg.Kind(), msg)
}

// EncodeRequest frames a request the way a client would send it
func EncodeRequest(msg ToBackend) ([]byte, error) {
	return encode(msg.Kind(), msg)
}

func encode(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return json.Marshal(Envelope{Type: kind, Data: data})
}
