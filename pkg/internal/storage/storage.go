// Package storage 聚合资产服务的四类存储资源：资产记录库(DB)、blob 对象存储(S3)、
// 作业队列与变更通知(MQ)、会话存储(KV)，并以单例 Manager 对外提供.
package storage

import (
	"context"
	"sync"

	dbc "github.com/gamepoet/blink-assetsrv/pkg/internal/storage/db"
	kvc "github.com/gamepoet/blink-assetsrv/pkg/internal/storage/kv"
	mqc "github.com/gamepoet/blink-assetsrv/pkg/internal/storage/mq"
	s3c "github.com/gamepoet/blink-assetsrv/pkg/internal/storage/s3"
	nlog "github.com/gamepoet/blink-assetsrv/pkg/log"
)

// Manager 聚合全部存储客户端.
type Manager struct {
	DB *dbc.Client
	S3 *s3c.Client
	MQ *mqc.Client
	KV *kvc.Client
}

var (
	mgr     *Manager
	mgrOnce sync.Once
)

// Init 按全局配置拉起全部存储连接，进程内单例；任一失败则整体失败.
func Init(ctx context.Context) (*Manager, error) {
	var err error

	mgrOnce.Do(func() {
		m := &Manager{}

		if m.DB, err = dbc.New(ctx); err != nil {
			return
		}

		if m.S3, err = s3c.New(ctx); err != nil {
			return
		}

		if m.MQ, err = mqc.New(ctx); err != nil {
			return
		}

		if m.KV, err = kvc.NewKVClient(ctx); err != nil {
			return
		}

		mgr = m

		nlog.Logger().Info().Msg("storage manager initialized")
	})

	return mgr, err
}

// GetDBClient 记录库客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetS3Client 对象存储客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetMQClient 作业队列客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// GetKVClient 会话存储客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// Close 关闭持有连接的客户端，返回第一个错误.
// DB/S3 客户端没有需要显式释放的资源.
func (m *Manager) Close() error {
	var firstErr error

	if err := m.MQ.Close(); err != nil {
		firstErr = err
	}

	if err := m.KV.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
