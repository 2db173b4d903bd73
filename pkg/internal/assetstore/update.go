package assetstore

import (
	"time"

	"github.com/gamepoet/blink-assetsrv/pkg/internal/model"
)

// Update 描述一次条件更新要应用的变更，等价于文档存储的 $set/$unset/$inc 组合.
// 所有字段在同一次提交里原子生效.
type Update struct {
	// Guard 可选的附加前置条件，在存储侧持有行锁后、应用变更前求值；
	// 返回 false 时整个更新以 Conflict 失败且不产生任何写入.
	Guard func(*model.AssetRecord) bool

	// SetStatus 写入的阶段完成标志.
	SetStatus map[string]bool
	// SetRefs 写入的阶段 blob 引用.
	SetRefs map[string]string
	// UnsetRefs 移除的阶段 blob 引用（平台失效时与 SetStatus=false 配对）.
	UnsetRefs []string
	// SetMeta 以点分路径写入 metadata 树的值.
	SetMeta map[string]any
	// UnsetMeta 以点分路径从 metadata 树删除的叶子.
	UnsetMeta []string
	// IncVersion 是否把版本号加一；仅元数据变更置位，阶段提交保持版本不变.
	IncVersion bool
}

// apply 在记录副本上应用变更并刷新时间戳.
func (u *Update) apply(rec *model.AssetRecord, now time.Time) {
	if rec.Status == nil {
		rec.Status = make(model.StatusMap)
	}

	for stage, built := range u.SetStatus {
		rec.Status[stage] = built
	}

	if rec.FileRefs == nil {
		rec.FileRefs = make(model.RefMap)
	}

	for stage, ref := range u.SetRefs {
		rec.FileRefs[stage] = ref
	}

	for _, stage := range u.UnsetRefs {
		delete(rec.FileRefs, stage)
	}

	if rec.Metadata == nil {
		rec.Metadata = make(model.MetaTree)
	}

	for path, v := range u.SetMeta {
		model.SetPath(rec.Metadata, path, v)
	}

	for _, path := range u.UnsetMeta {
		model.UnsetPath(rec.Metadata, path)
	}

	if u.IncVersion {
		rec.Version++
	}

	rec.UpdatedAt = now
}
