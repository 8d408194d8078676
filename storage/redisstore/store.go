// Package redisstore keeps the current state of a state machine under a Redis key.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atlekbai/hsm/storage"
)

// Store is an hsm.StateStorage backed by a single Redis key.
type Store[S any] struct {
	client  redis.UniversalClient
	key     string
	initial S
	ttl     time.Duration
	codec   storage.Codec[S]
}

// Option configures a Store.
type Option[S any] func(*Store[S])

// WithTTL expires the stored state ttl after the last transition. Zero means no expiration.
func WithTTL[S any](ttl time.Duration) Option[S] {
	return func(s *Store[S]) {
		s.ttl = ttl
	}
}

// WithCodec replaces the default JSON codec.
func WithCodec[S any](codec storage.Codec[S]) Option[S] {
	return func(s *Store[S]) {
		s.codec = codec
	}
}

// New returns a store for key. A missing key loads as initial.
func New[S any](client redis.UniversalClient, key string, initial S, opts ...Option[S]) *Store[S] {
	s := &Store[S]{
		client:  client,
		key:     key,
		initial: initial,
		codec:   storage.JSONCodec[S]{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load implements hsm.StateStorage.
func (s *Store[S]) Load(ctx context.Context) (S, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return s.initial, nil
	}
	if err != nil {
		var zero S
		return zero, fmt.Errorf("get %s: %w", s.key, err)
	}
	return s.codec.Decode(data)
}

// Store implements hsm.StateStorage.
func (s *Store[S]) Store(ctx context.Context, state S) error {
	data, err := s.codec.Encode(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", s.key, err)
	}
	return nil
}

// Delete removes the key, so that Load reports the initial state again.
func (s *Store[S]) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", s.key, err)
	}
	return nil
}
