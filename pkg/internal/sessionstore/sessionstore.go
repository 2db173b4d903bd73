// Package sessionstore 管理单例共享的编辑会话文档.
// 会话承载编辑器间共享的 UI 状态（当前选中资产等），没有版本号，
// 采用 last-write-wins 合并，每次更新后广播变更.
package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/storage/kv"
	nlog "github.com/gamepoet/blink-assetsrv/pkg/log"
	"github.com/gamepoet/blink-assetsrv/pkg/queue"
)

// sessionKey 会话在 KV 中的存储键，单例文档.
const sessionKey = "blink:session"

// Store KV 背书的会话存储.
type Store struct {
	kv  kv.KVStore
	pub message.Publisher

	// mu 串行化本进程内的读-改-写；跨进程仍是 last-write-wins
	mu sync.Mutex
}

// New 创建会话存储.
func New(store kv.KVStore, pub message.Publisher) *Store {
	return &Store{kv: store, pub: pub}
}

// Get 读取会话文档，不存在时返回空文档.
func (s *Store) Get(ctx context.Context) (*model.SessionRecord, error) {
	data, err := s.kv.Get(ctx, sessionKey)
	if errors.Is(err, kv.ErrKeyNotFound) {
		// 尚无会话，返回空文档
		return model.NewSessionRecord(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var rec model.SessionRecord
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	if rec.Doc == nil {
		rec.Doc = make(map[string]any)
	}

	return &rec, nil
}

// ApplyDelta 合并会话增量并广播.
// delta 的键可为点分路径；合并语义是 last-write-wins，无并发控制.
func (s *Store) ApplyDelta(ctx context.Context, delta map[string]any) (*model.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	rec.Merge(delta, time.Now().UTC())

	data, err := sonic.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	if err := s.kv.Set(ctx, sessionKey, data, 0); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.publishChanged(rec)

	return rec, nil
}

// publishChanged 广播会话变更，尽力而为.
func (s *Store) publishChanged(rec *model.SessionRecord) {
	if s.pub == nil {
		return
	}

	err := queue.PublishSessionChanged(s.pub, queue.SessionChangedPayload{Doc: rec.Doc},
		queue.WithProducer(configs.AppName))
	if err != nil {
		nlog.Logger().Warn().Err(err).Msg("failed to publish session change")
	}
}
