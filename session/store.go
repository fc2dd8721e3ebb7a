package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/aura/storage"
)

// DefaultKey is the slot key used when none is configured.
const DefaultKey = "aura_user"

// Store reads and writes the single session record slot.
//
// Store instances are intended to be configured during initialization and then treated as immutable.
type Store struct {
	kv    storage.KV
	key   string
	codec Codec
}

// NewStore binds kv, key and codec. Empty key selects DefaultKey, nil codec
// selects JSONCodec.
func NewStore(kv storage.KV, key string, codec Codec) *Store {
	if key == "" {
		key = DefaultKey
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Store{
		kv:    kv,
		key:   key,
		codec: codec,
	}
}

// Key returns the slot key.
func (s *Store) Key() string { return s.key }

// Codec returns the record codec name.
func (s *Store) Codec() string { return s.codec.Name() }

// Load reads and decodes the slot.
//
// It returns ErrRecordNotFound for an empty slot, an error wrapping
// ErrRecordMalformed when the bytes do not decode, and one wrapping
// ErrStorageUnavailable when the backend fails.
func (s *Store) Load(ctx context.Context) (*Record, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	rec, err := s.codec.Decode(data)
	if err != nil {
		if errors.Is(err, ErrRecordMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRecordMalformed, err)
	}
	return rec, nil
}

// Save encodes rec and overwrites the slot.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	data, err := s.codec.Encode(rec)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// Delete erases the slot. Erasing an empty slot succeeds.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return nil
}
