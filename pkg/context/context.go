// Package context 在请求/任务上下文里携带存储管理器，service 层统一从这里取客户端.
package context

import (
	"context"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/storage"
	dbc "github.com/gamepoet/blink-assetsrv/pkg/internal/storage/db"
	kvc "github.com/gamepoet/blink-assetsrv/pkg/internal/storage/kv"
	mqc "github.com/gamepoet/blink-assetsrv/pkg/internal/storage/mq"
	s3c "github.com/gamepoet/blink-assetsrv/pkg/internal/storage/s3"
)

// ctxKey 私有类型，避免与其他包的 context key 冲突.
type ctxKey int

const managerKey ctxKey = iota

// WithStorageManager 把 Manager 挂到 context.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey, mgr)
}

// GetManager 取 Manager，不存在时返回 nil.
func GetManager(ctx context.Context) *storage.Manager {
	mgr, _ := ctx.Value(managerKey).(*storage.Manager)

	return mgr
}

// GetDBClient 取记录库客户端.
func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

// GetS3Client 取对象存储客户端.
func GetS3Client(ctx context.Context) *s3c.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetS3Client()
	}

	return nil
}

// GetMQClient 取任务队列客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// GetKVClient 取会话存储客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}
