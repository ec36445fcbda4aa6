package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/seal-preview/pkg/aggregate"
	"github.com/Sternrassler/seal-preview/pkg/metadata"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound indicates no complete snapshot is stored for the contract
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidSnapshot indicates a stored snapshot could not be decoded
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Snapshot is a stored aggregate result.
type Snapshot struct {
	ContractID string
	HTML       string
	Metadata   metadata.Index
	StoredAt   time.Time
}

// Store persists contract snapshots in Redis.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// New creates a store. A ttl of 0 keeps snapshots until deleted.
func New(redisClient *redis.Client, ttl time.Duration) *Store {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Store{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Save stores result as the snapshot of contract id, replacing any earlier one.
func (s *Store) Save(ctx context.Context, id string, result *aggregate.Result) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	meta, err := json.Marshal(result.Metadata)
	if err != nil {
		StoreErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("marshal metadata: %w", err)
	}

	storedAt, err := time.Now().UTC().MarshalText()
	if err != nil {
		StoreErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("marshal stored_at: %w", err)
	}

	keys := keysFor(id)
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, keys[0], result.HTML, s.ttl)
	pipe.Set(ctx, keys[1], meta, s.ttl)
	pipe.Set(ctx, keys[2], storedAt, s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		StoreErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("redis save: %w", err)
	}

	StoreBytesWritten.Add(float64(len(result.HTML) + len(meta) + len(storedAt)))
	return nil
}

// Load returns the snapshot of contract id.
// Returns ErrNotFound if any part is missing or expired.
func (s *Store) Load(ctx context.Context, id string) (*Snapshot, error) {
	vals, err := s.redis.MGet(ctx, keysFor(id)...).Result()
	if err != nil {
		StoreErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	parts := make([]string, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			StoreMisses.Inc()
			return nil, ErrNotFound
		}
		parts[i] = str
	}

	snap := &Snapshot{ContractID: id, HTML: parts[0]}

	dec := json.NewDecoder(bytes.NewReader([]byte(parts[1])))
	dec.UseNumber()
	if err := dec.Decode(&snap.Metadata); err != nil {
		StoreErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	if err := snap.StoredAt.UnmarshalText([]byte(parts[2])); err != nil {
		StoreErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	StoreHits.Inc()
	return snap, nil
}

// Delete removes the snapshot of contract id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, keysFor(id)...).Err(); err != nil {
		StoreErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Result converts the snapshot back into an aggregate result.
func (s *Snapshot) Result() *aggregate.Result {
	return &aggregate.Result{HTML: s.HTML, Metadata: s.Metadata}
}
