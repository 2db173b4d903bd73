package service

import (
	"context"
	"sync"

	ctxPkg "github.com/gamepoet/blink-assetsrv/pkg/context"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/sessionstore"
)

var (
	sessionOnce  sync.Once
	sessionStore *sessionstore.Store
)

// SessionService 编辑会话文档的业务服务.
// 底层 Store 是进程级单例，保证进程内的增量写入串行合并.
type SessionService struct {
	store *sessionstore.Store
}

// NewSessionService 从请求上下文中的存储管理器装配会话服务.
func NewSessionService(c context.Context) *SessionService {
	sessionOnce.Do(func() {
		kvc := ctxPkg.GetKVClient(c)
		mqc := ctxPkg.GetMQClient(c)
		sessionStore = sessionstore.New(kvc, mqc.Publisher())
	})

	return &SessionService{store: sessionStore}
}

// Get 读取当前会话文档.
func (s *SessionService) Get(ctx context.Context) (*model.SessionRecord, error) {
	return s.store.Get(ctx)
}

// ApplyDelta 合并一次会话增量并返回合并后的文档.
func (s *SessionService) ApplyDelta(ctx context.Context, delta map[string]any) (*model.SessionRecord, error) {
	return s.store.ApplyDelta(ctx, delta)
}
