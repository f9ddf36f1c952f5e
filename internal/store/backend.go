package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/campuscode/canteen/internal/config"
)

// Backend persists one opaque blob per collection name. Each collection is
// written and read as a whole; there are no partial updates.
type Backend interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, blob []byte) error
	Drop(ctx context.Context, name string) error
}

// ErrNoCollection indicates the named collection has never been written.
var ErrNoCollection = errors.New("collection does not exist")

// ErrCapacityExceeded indicates the backend refused a write for size reasons.
var ErrCapacityExceeded = errors.New("storage capacity exceeded")

// NewBackend initialises the configured blob backend (redis, file or memory).
func NewBackend(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Backend, error) {
	switch cfg.Store.Driver {
	case "memory":
		if logger != nil {
			logger.Info("record store using in-memory backend")
		}
		return NewMemoryBackend(0), nil
	case "file":
		return newFileBackend(cfg.Store.Dir)
	case "redis":
		return newRedisBackend(lc, cfg.Store, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// MemoryBackend keeps collection blobs in process memory. It backs tests and
// the memory store driver. A non-zero maxBytes rejects oversized blobs with
// ErrCapacityExceeded.
type MemoryBackend struct {
	mu       sync.RWMutex
	blobs    map[string][]byte
	maxBytes int
}

// NewMemoryBackend builds a memory backend; maxBytes of 0 means unbounded.
func NewMemoryBackend(maxBytes int) *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string][]byte), maxBytes: maxBytes}
}

func (m *MemoryBackend) Load(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[name]
	if !ok {
		return nil, ErrNoCollection
	}
	return append([]byte(nil), blob...), nil
}

func (m *MemoryBackend) Save(_ context.Context, name string, blob []byte) error {
	if m.maxBytes > 0 && len(blob) > m.maxBytes {
		return ErrCapacityExceeded
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = append([]byte(nil), blob...)
	return nil
}

func (m *MemoryBackend) Drop(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, name)
	return nil
}

// fileBackend stores each collection as a JSON file under a directory.
type fileBackend struct {
	dir string
}

func newFileBackend(dir string) (Backend, error) {
	if dir == "" {
		return nil, errors.New("store file directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &fileBackend{dir: dir}, nil
}

func (f *fileBackend) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *fileBackend) Load(_ context.Context, name string) ([]byte, error) {
	blob, err := os.ReadFile(f.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoCollection
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (f *fileBackend) Save(_ context.Context, name string, blob []byte) error {
	tmp := f.path(name) + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(name))
}

func (f *fileBackend) Drop(_ context.Context, name string) error {
	err := os.Remove(f.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// redisBackend stores each collection blob under a prefixed redis key.
type redisBackend struct {
	client *goredis.Client
	prefix string
}

func newRedisBackend(lc fx.Lifecycle, cfg config.Store, logger *zap.Logger) (Backend, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	backend := &redisBackend{client: client, prefix: cfg.KeyPrefix}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping store redis: %w", err)
			}
			if logger != nil {
				logger.Info("record store redis connected", zap.String("addr", cfg.Redis.Addr))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return backend, nil
}

func (r *redisBackend) key(name string) string {
	return r.prefix + name
}

func (r *redisBackend) Load(ctx context.Context, name string) ([]byte, error) {
	blob, err := r.client.Get(ctx, r.key(name)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNoCollection
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (r *redisBackend) Save(ctx context.Context, name string, blob []byte) error {
	return r.client.Set(ctx, r.key(name), blob, 0).Err()
}

func (r *redisBackend) Drop(ctx context.Context, name string) error {
	return r.client.Del(ctx, r.key(name)).Err()
}
