package cart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Storage persists the cart as a single opaque blob per slot key. Mutations
// always rewrite the whole blob; there are no partial or append writes.
type Storage interface {
	Get(ctx context.Context, key string) (blob []byte, ok bool, err error)
	Set(ctx context.Context, key string, blob []byte) error
}

// RedisStorage keeps cart blobs in Redis with a rolling TTL.
type RedisStorage struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

// Get fetches the blob for the slot, reporting whether it existed.
func (s RedisStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.Client == nil {
		return nil, false, nil
	}
	data, err := s.Client.Get(ctx, s.Prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cart storage: get: %w", err)
	}
	return data, true, nil
}

// Set stores the blob and refreshes the slot's TTL.
func (s RedisStorage) Set(ctx context.Context, key string, blob []byte) error {
	if s.Client == nil {
		return nil
	}
	if err := s.Client.Set(ctx, s.Prefix+key, blob, s.TTL).Err(); err != nil {
		return fmt.Errorf("cart storage: set: %w", err)
	}
	return nil
}

// FileStorage keeps cart blobs as files under a directory. Writes go through
// a temp file and rename so a crash never leaves a half-written slot.
type FileStorage struct {
	Dir string
}

// Get reads the blob for the slot, reporting whether it existed.
func (s FileStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cart storage: read: %w", err)
	}
	return data, true, nil
}

// Set writes the blob atomically.
func (s FileStorage) Set(_ context.Context, key string, blob []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("cart storage: mkdir: %w", err)
	}
	target := s.path(key)
	tmp, err := os.CreateTemp(s.Dir, "cart-*.tmp")
	if err != nil {
		return fmt.Errorf("cart storage: temp: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("cart storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("cart storage: close: %w", err)
	}
	if err := os.Rename(name, target); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("cart storage: rename: %w", err)
	}
	return nil
}

func (s FileStorage) path(key string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(s.Dir, safe+".json")
}

// MemoryStorage is an in-process Storage for tests and the memory backend.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailWrites makes Set return an error, for exercising the
	// persistence-failure recovery path.
	FailWrites bool
}

// NewMemoryStorage constructs an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: map[string][]byte{}}
}

// Get returns the stored blob for the slot.
func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

// Set stores the blob for the slot.
func (s *MemoryStorage) Set(_ context.Context, key string, blob []byte) error {
	if s.FailWrites {
		return fmt.Errorf("cart storage: writes disabled")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		s.blobs = map[string][]byte{}
	}
	s.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// Seed injects a raw blob, bypassing Set, for corruption tests.
func (s *MemoryStorage) Seed(key string, blob []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blobs == nil {
		s.blobs = map[string][]byte{}
	}
	s.blobs[key] = append([]byte(nil), blob...)
}
