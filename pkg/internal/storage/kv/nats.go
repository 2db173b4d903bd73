package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
)

// NATSKV 基于 NATS JetStream KV 的实现.
// 作业队列已经拉起了一个 NATS，会话文档搭在同一实例上即可，不必再引入 Redis.
type NATSKV struct {
	kv   nats.KeyValue
	conn *nats.Conn
}

// NewNATSKV 创建 NATS KV 实例.
func NewNATSKV(ctx context.Context, config *configs.KVConfig) (KVStore, error) {
	natsCfg := config.NATS

	opts := []nats.Option{nats.Name(configs.AppName + "-kv")}
	if natsCfg.User != "" {
		opts = append(opts, nats.UserInfo(natsCfg.User, natsCfg.Password))
	}

	nc, err := nats.Connect(natsCfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.CreateKeyValue(&nats.KeyValueConfig{Bucket: natsCfg.Bucket})
	if err != nil {
		// bucket 已存在时直接取用
		kv, err = js.KeyValue(natsCfg.Bucket)
		if err != nil {
			nc.Close()

			return nil, fmt.Errorf("failed to create/get KV bucket: %w", err)
		}
	}

	return &NATSKV{kv: kv, conn: nc}, nil
}

// Get 获取键的值；过期条目惰性删除.
func (n *NATSKV) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	if err != nil {
		return nil, fmt.Errorf("nats kv get %s: %w", key, err)
	}

	val, expired, err := decodeWithTTL(entry.Value(), time.Now())
	if err != nil {
		return nil, err
	}

	if expired {
		_ = n.kv.Delete(key)

		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	return val, nil
}

// Set 设置键的值；NATS KV 无按键 TTL，由值包装器补齐.
func (n *NATSKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(key, encoded); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// Delete 删除键.
func (n *NATSKV) Delete(ctx context.Context, key string) error {
	if err := n.kv.Delete(key); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在.
func (n *NATSKV) Exists(ctx context.Context, key string) (bool, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to check key existence: %w", err)
	}

	_, expired, err := decodeWithTTL(entry.Value(), time.Now())
	if err != nil {
		return false, err
	}

	if expired {
		_ = n.kv.Delete(key)

		return false, nil
	}

	return true, nil
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()

	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
