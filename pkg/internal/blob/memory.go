package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
)

// MemoryStore 进程内 blob 存储，用于测试与本地开发.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory 创建内存 blob 存储.
func NewMemory() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put 写入新对象.
func (m *MemoryStore) Put(ctx context.Context, key Key, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read blob body: %w", err)
	}

	ref := newRef(key)

	m.mu.Lock()
	m.objects[ref] = data
	m.mu.Unlock()

	return ref, nil
}

// Get 按引用读取对象.
func (m *MemoryStore) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	m.mu.RLock()
	data, ok := m.objects[ref]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("blob %s: %w", ref, pipeline.ErrNotFound)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete 按引用删除对象.
func (m *MemoryStore) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	delete(m.objects, ref)
	m.mu.Unlock()

	return nil
}

// Len 返回当前对象数，测试用.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.objects)
}
