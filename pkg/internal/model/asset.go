// Package model 定义资产记录与会话文档模型.
package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// 资产记录中固定的阶段名：source 之外的阶段名即目标平台名.
const (
	StageSource = "source"

	// AssetTypeTexture 当前唯一注册的资产类型.
	AssetTypeTexture = "texture"
)

// StatusMap 阶段名到"是否已用当前输入构建完成"的映射；缺失条目视为 false.
type StatusMap map[string]bool

// RefMap 阶段名到 blob 引用的映射.
type RefMap map[string]string

// MetaTree 嵌套元数据树，持有 source.* 与 target.* 两个区域.
type MetaTree map[string]any

// AssetRecord 版本化资产元数据记录，资产构建管线的唯一共享可变状态.
//
// Version 是乐观并发令牌：每次接受的元数据变更把它加一；
// 阶段提交（source 分析、平台编译）不改变版本，只翻转 status 并写入 fileRefs.
type AssetRecord struct {
	ID        string    `gorm:"primaryKey;size:16"           json:"id"`
	AssetType string    `gorm:"size:64;index;not null"       json:"assetType"`
	Filename  string    `gorm:"size:512;not null"            json:"filename"`
	Version   int64     `gorm:"not null"                     json:"version"`
	Status    StatusMap `gorm:"type:text"                    json:"status"`
	FileRefs  RefMap    `gorm:"type:text"                    json:"fileRefs"`
	Metadata  MetaTree  `gorm:"type:text"                    json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名.
func (AssetRecord) TableName() string { return "assets" }

// StageBuilt 返回指定阶段是否已构建；缺失条目视为 false.
func (r *AssetRecord) StageBuilt(stage string) bool {
	if r.Status == nil {
		return false
	}

	return r.Status[stage]
}

// Target 返回 metadata.target 子树，不存在时返回 nil.
func (r *AssetRecord) Target() MetaTree {
	sub, ok := GetPath(r.Metadata, "target").(map[string]any)
	if !ok {
		return nil
	}

	return sub
}

// EffectiveTarget 按单一解析规则取平台的有效目标元数据值：
// 先查 target.<platform>.<key>，缺失时退回 target.default.<key>.
func (r *AssetRecord) EffectiveTarget(platform, key string) (any, bool) {
	if v := GetPath(r.Metadata, "target."+platform+"."+key); v != nil {
		return v, true
	}

	if v := GetPath(r.Metadata, "target.default."+key); v != nil {
		return v, true
	}

	return nil, false
}

// Clone 深拷贝记录，写入者在副本上构造变更，避免共享树的别名问题.
func (r *AssetRecord) Clone() *AssetRecord {
	dup := *r
	dup.Status = make(StatusMap, len(r.Status))

	for k, v := range r.Status {
		dup.Status[k] = v
	}

	dup.FileRefs = make(RefMap, len(r.FileRefs))
	for k, v := range r.FileRefs {
		dup.FileRefs[k] = v
	}

	dup.Metadata = CloneTree(r.Metadata)

	return &dup
}

// ---- GORM 序列化：JSON 文本列 ----

func jsonValue(v any) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}

	b, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json column: %w", err)
	}

	return string(b), nil
}

func jsonScan(src, dst any) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		return sonic.Unmarshal(s, dst)
	case string:
		return sonic.Unmarshal([]byte(s), dst)
	default:
		return fmt.Errorf("unsupported json column source type %T", src)
	}
}

func (m StatusMap) Value() (driver.Value, error) { return jsonValue(map[string]bool(m)) }

func (m *StatusMap) Scan(src any) error { return jsonScan(src, (*map[string]bool)(m)) }

func (m RefMap) Value() (driver.Value, error) { return jsonValue(map[string]string(m)) }

func (m *RefMap) Scan(src any) error { return jsonScan(src, (*map[string]string)(m)) }

func (m MetaTree) Value() (driver.Value, error) { return jsonValue(map[string]any(m)) }

func (m *MetaTree) Scan(src any) error { return jsonScan(src, (*map[string]any)(m)) }
