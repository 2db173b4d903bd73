// Package service 汇集业务服务，把存储客户端装配成面向 HTTP 层的操作.
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gamepoet/blink-assetsrv/pkg/configs"
	ctxPkg "github.com/gamepoet/blink-assetsrv/pkg/context"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/assetstore"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/assettype"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/blob"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/compressor"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/coordinator"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
)

// AssetService 资产记录与构建管线的业务服务.
// 每次请求构造一个实例；底层客户端由存储管理器持有，构造本身是轻量的.
type AssetService struct {
	records *assetstore.Store
	blobs   blob.Store
	coord   *coordinator.Coordinator
}

// NewAssetService 从请求上下文中的存储管理器装配资产服务.
func NewAssetService(c context.Context) *AssetService {
	dbc := ctxPkg.GetDBClient(c)
	s3c := ctxPkg.GetS3Client(c)
	mqc := ctxPkg.GetMQClient(c)

	cfg := configs.GetConfig()

	records := assetstore.New(dbc.GetDB())
	blobs := blob.NewS3(s3c, cfg.S3.Bucket)
	coord := coordinator.New(records, blobs, compressor.NewStdImage(), mqc.Publisher(), &cfg.Pipeline)

	return &AssetService{
		records: records,
		blobs:   blobs,
		coord:   coord,
	}
}

// List 返回指定类型的全部资产记录.
func (s *AssetService) List(ctx context.Context, assetType string) ([]model.AssetRecord, error) {
	if _, err := assettype.GetHandler(assetType); err != nil {
		return nil, err
	}

	return s.records.List(ctx, assetType)
}

// ListStale 返回最后写入早于 olderThan 的指定类型记录，供补偿扫描使用.
func (s *AssetService) ListStale(ctx context.Context, assetType string, olderThan time.Time) ([]model.AssetRecord, error) {
	return s.records.ListStale(ctx, assetType, olderThan)
}

// Get 按 id 取资产记录；记录存在但类型不匹配时同样视为不存在.
func (s *AssetService) Get(ctx context.Context, assetType, id string) (*model.AssetRecord, error) {
	rec, err := s.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.AssetType != assetType {
		return nil, fmt.Errorf("asset %s is not a %s: %w", id, assetType, pipeline.ErrNotFound)
	}

	return rec, nil
}

// Submit 提交新资产并返回创建的记录.
func (s *AssetService) Submit(ctx context.Context, assetType, filename string, meta map[string]any) (*model.AssetRecord, error) {
	return s.coord.Submit(ctx, assetType, filename, meta)
}

// ApplyDelta 应用一次编辑器元数据增量.
func (s *AssetService) ApplyDelta(ctx context.Context, assetType, id string, delta map[string]any) (*model.AssetRecord, error) {
	if _, err := s.Get(ctx, assetType, id); err != nil {
		return nil, err
	}

	return s.coord.ApplyDelta(ctx, assetType, id, delta)
}

// UploadBulk 接收资产的源二进制并触发构建.
func (s *AssetService) UploadBulk(ctx context.Context, assetType, id string, r io.Reader, size int64) (*model.AssetRecord, error) {
	if _, err := s.Get(ctx, assetType, id); err != nil {
		return nil, err
	}

	return s.coord.AttachSource(ctx, assetType, id, r, size)
}

// DownloadBulk 按阶段读出资产的二进制产物.
// stage 为空时取源阶段；阶段尚未有产物时返回 ErrNotFound.
func (s *AssetService) DownloadBulk(ctx context.Context, assetType, id, stage string) (io.ReadCloser, error) {
	if stage == "" {
		stage = model.StageSource
	}

	rec, err := s.Get(ctx, assetType, id)
	if err != nil {
		return nil, err
	}

	ref, ok := rec.FileRefs[stage]
	if !ok || ref == "" {
		return nil, fmt.Errorf("asset %s has no %s data: %w", id, stage, pipeline.ErrNotFound)
	}

	return s.blobs.Get(ctx, ref)
}
