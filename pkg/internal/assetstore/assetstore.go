// Package assetstore 提供版本化资产记录仓库.
//
// ConditionalUpdate 是整个管线唯一的跨进程序列化点：并发的编译作业、
// 重投递的作业与编辑器写入全部通过它提交，版本守卫失败即静默放弃.
package assetstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
	"github.com/gamepoet/blink-assetsrv/pkg/internal/pipeline"
)

// Store GORM 后端的资产记录仓库.
type Store struct {
	db *gorm.DB
}

// New 创建仓库.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate 建表.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&model.AssetRecord{})
}

// Create 插入新记录；id 已存在时返回 ErrDuplicateID.
func (s *Store) Create(ctx context.Context, rec *model.AssetRecord) error {
	err := s.db.WithContext(ctx).Create(rec).Error
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("asset %s: %w", rec.ID, pipeline.ErrDuplicateID)
	}

	return fmt.Errorf("create asset %s: %w", rec.ID, err)
}

// Get 按 id 取记录；不存在时返回 ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*model.AssetRecord, error) {
	var rec model.AssetRecord

	err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("asset %s: %w", id, pipeline.ErrNotFound)
		}

		return nil, fmt.Errorf("get asset %s: %w", id, err)
	}

	return &rec, nil
}

// List 返回指定类型的全部记录，顺序不保证.
func (s *Store) List(ctx context.Context, assetType string) ([]model.AssetRecord, error) {
	var recs []model.AssetRecord

	err := s.db.WithContext(ctx).Where("asset_type = ?", assetType).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list assets type=%s: %w", assetType, err)
	}

	return recs, nil
}

// ListStale 返回最后一次写入早于 olderThan 的指定类型记录，用于补偿扫描.
// 阶段完成与否记在 JSON 列里，由调用方在内存中判断.
func (s *Store) ListStale(ctx context.Context, assetType string, olderThan time.Time) ([]model.AssetRecord, error) {
	var recs []model.AssetRecord

	err := s.db.WithContext(ctx).
		Where("asset_type = ? AND updated_at < ?", assetType, olderThan).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list stale assets type=%s: %w", assetType, err)
	}

	return recs, nil
}

// ConditionalUpdate 原子地执行 find-and-modify：
// 在一个事务里持行锁取出记录，校验版本与附加守卫，应用变更后写回.
// 守卫失败返回 ErrConflict 且不落任何写入；调用方据此判定"别人已推进了这条记录".
//
// 版本号本身只在元数据变更时递增（Update.IncVersion），因此同一版本下
// 不同平台的阶段提交可以各自成功；行锁保证它们仍是串行化的读-改-写.
func (s *Store) ConditionalUpdate(ctx context.Context, id string, expectedVersion int64, up Update) (*model.AssetRecord, error) {
	var out *model.AssetRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.AssetRecord

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&rec, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("asset %s: %w", id, pipeline.ErrNotFound)
			}

			return fmt.Errorf("lock asset %s: %w", id, err)
		}

		if rec.Version != expectedVersion {
			return fmt.Errorf("asset %s at v%d, expected v%d: %w",
				id, rec.Version, expectedVersion, pipeline.ErrConflict)
		}

		if up.Guard != nil && !up.Guard(&rec) {
			return fmt.Errorf("asset %s guard failed: %w", id, pipeline.ErrConflict)
		}

		next := rec.Clone()
		up.apply(next, time.Now().UTC())

		res := tx.Model(&model.AssetRecord{}).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(map[string]any{
				"version":    next.Version,
				"status":     next.Status,
				"file_refs":  next.FileRefs,
				"metadata":   next.Metadata,
				"updated_at": next.UpdatedAt,
			})
		if res.Error != nil {
			return fmt.Errorf("update asset %s: %w", id, res.Error)
		}

		if res.RowsAffected == 0 {
			return fmt.Errorf("asset %s: %w", id, pipeline.ErrConflict)
		}

		out = next

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
