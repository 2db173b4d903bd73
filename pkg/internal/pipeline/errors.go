// Package pipeline 定义资产构建管线共享的错误分类.
//
// 分类语义：
//   - ErrNotFound / ErrConflict 是并发管线的正常分支：作业基于过期输入时直接丢弃，不告警不重试
//   - ErrDuplicateID 表示重复提交（同一规范化文件名的哈希）
//   - ErrDecodeFailure / ErrConfiguration 是作业级失败，记录保持原状，可人工重试
//   - 基础设施不可用向上透传底层错误，由队列按投递策略重试
package pipeline

import "errors"

var (
	// ErrNotFound 记录或 blob 不存在.
	ErrNotFound = errors.New("not found")
	// ErrConflict 版本或前置条件守卫失败，另一个写入者已推进了记录.
	ErrConflict = errors.New("version conflict")
	// ErrDuplicateID 创建记录时 id 已存在.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrDecodeFailure 源字节无法解码.
	ErrDecodeFailure = errors.New("decode failure")
	// ErrConfiguration 缺少解析有效目标元数据所需的 default 键.
	ErrConfiguration = errors.New("configuration error")
)

// Discardable 判断错误是否属于"作业静默丢弃"一类：
// 记录缺失或已被并发写入者推进时，重跑不会产生任何效果.
func Discardable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict)
}
