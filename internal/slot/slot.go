package slot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gradebook/gradebook/internal/config"
)

// ErrEmpty is returned by Get when nothing has been written under the key.
var ErrEmpty = errors.New("slot: empty")

// Slot is a single named value in durable key-value storage.
type Slot interface {
	// Key returns the slot name.
	Key() string
	// Get returns the stored value, or ErrEmpty if none was ever written.
	Get(ctx context.Context) ([]byte, error)
	// Put replaces the stored value with data.
	Put(ctx context.Context, data []byte) error
}

// Open returns the Slot backend selected by cfg.Backend.
func Open(cfg config.StorageConfig) (Slot, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFile(cfg.Dir, cfg.Key), nil
	case config.BackendMemory:
		return NewMemory(cfg.Key), nil
	case config.BackendPostgres:
		dsn := cfg.DSN()
		if dsn == "" {
			return nil, fmt.Errorf("slot: postgres backend: env %q is empty", cfg.DSNEnv)
		}
		return OpenPostgres(dsn, cfg.Key)
	default:
		return nil, fmt.Errorf("slot: unsupported backend %q", cfg.Backend)
	}
}

// Memory is an in-process Slot. The zero value is not usable; call NewMemory.
type Memory struct {
	key string

	mu   sync.RWMutex
	data []byte
	set  bool
}

// NewMemory returns an empty in-memory slot.
func NewMemory(key string) *Memory {
	return &Memory{key: key}
}

// Key implements Slot.
func (m *Memory) Key() string { return m.key }

// Get implements Slot.
func (m *Memory) Get(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return nil, ErrEmpty
	}
	return append([]byte(nil), m.data...), nil
}

// Put implements Slot.
func (m *Memory) Put(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.set = true
	return nil
}
