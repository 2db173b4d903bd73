package kv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// 跨实现的 KV 值 TTL 包装：后端不支持按键过期时（如 NATS KV）用它补齐语义.
const ttlMagic = "BLKTTL1:"

type ttlValue struct {
	V []byte `json:"v"`
	E int64  `json:"e,omitempty"` // unix 秒；0 表示不过期
}

// encodeWithTTL 在 ttl>0 时包装值，否则原样返回.
func encodeWithTTL(value []byte, ttl time.Duration) ([]byte, error) {
	if ttl <= 0 {
		return value, nil
	}

	tv := ttlValue{V: value, E: time.Now().Add(ttl).Unix()}

	b, err := sonic.Marshal(tv)
	if err != nil {
		return nil, fmt.Errorf("marshal ttl value: %w", err)
	}

	return append([]byte(ttlMagic), b...), nil
}

// decodeWithTTL 识别包装并判定过期；返回 (值, 是否已过期, error).
func decodeWithTTL(b []byte, now time.Time) ([]byte, bool, error) {
	if !bytes.HasPrefix(b, []byte(ttlMagic)) {
		return b, false, nil
	}

	var tv ttlValue
	if err := sonic.Unmarshal(b[len(ttlMagic):], &tv); err != nil {
		return nil, false, fmt.Errorf("unmarshal ttl value: %w", err)
	}

	if tv.E > 0 && now.Unix() >= tv.E {
		return nil, true, nil
	}

	return tv.V, false, nil
}
