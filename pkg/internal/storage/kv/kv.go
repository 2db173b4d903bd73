// Package kv 会话文档的键值存储，后端经工厂注册：memory、redis、nats.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

// ErrKeyNotFound 键不存在，各后端统一返回（可能被包装）.
var ErrKeyNotFound = errors.New("kv: key not found")

// KVStore 键值存储后端接口.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// Client 会话存储客户端.
type Client struct {
	KVStore
}

// KVType 后端类型.
type KVType string

const (
	KVTypeMemory KVType = "memory"
	KVTypeRedis  KVType = "redis"
	KVTypeNATS   KVType = "nats"
)

// KVFactory 后端构造函数.
type KVFactory func(ctx context.Context, config *configs.KVConfig) (KVStore, error)

var kvFactories = make(map[KVType]KVFactory)

// RegisterKVFactory 注册后端工厂，各后端文件在 init 里调用.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 返回编入本次构建的后端类型.
func GetRegisteredKVTypes() []KVType {
	types := make([]KVType, 0, len(kvFactories))
	for t := range kvFactories {
		types = append(types, t)
	}

	return types
}

// NewKVStore 按类型构建后端.
func NewKVStore(ctx context.Context, kvType KVType, config *configs.KVConfig) (KVStore, error) {
	factory, ok := kvFactories[kvType]
	if !ok {
		return nil, fmt.Errorf("kv backend %s not built in", kvType)
	}

	return factory(ctx, config)
}

// NewKVClient 按全局配置构建客户端.
func NewKVClient(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig().KV

	store, err := NewKVStore(ctx, KVType(cfg.Type), &cfg)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store}, nil
}
