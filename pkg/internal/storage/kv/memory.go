package kv

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

// MemoryKV 进程内 KV，读时惰性清理过期键；只适合单实例部署和测试.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value    []byte
	expireAt time.Time // 零值表示永不过期
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// NewMemoryKV 创建内存后端，配置参数未用.
func NewMemoryKV(_ context.Context, _ *configs.KVConfig) (KVStore, error) {
	return &MemoryKV{entries: make(map[string]memoryEntry)}, nil
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	if entry.expired(time.Now()) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	return append([]byte(nil), entry.value...), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expireAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()

	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}

	if entry.expired(time.Now()) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()

		return false, nil
	}

	return true, nil
}

func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
