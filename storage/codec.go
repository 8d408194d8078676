// Package storage holds the pieces shared by the persistent hsm.StateStorage
// implementations in its subpackages.
package storage

import (
	"encoding/json"
	"fmt"
)

// Codec converts state values to and from their stored form.
type Codec[S any] interface {
	Encode(state S) ([]byte, error)
	Decode(data []byte) (S, error)
}

// JSONCodec stores states as JSON documents.
type JSONCodec[S any] struct{}

// Encode implements Codec.
func (JSONCodec[S]) Encode(state S) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}

// Decode implements Codec.
func (JSONCodec[S]) Decode(data []byte) (S, error) {
	var state S
	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}
