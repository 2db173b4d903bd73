package model

import "time"

// SessionRecord 单例共享的编辑会话文档（当前选中资产等 UI 状态）.
// 没有版本号，last-write-wins：PUT 的 delta 键直接覆盖已有键.
type SessionRecord struct {
	Doc       map[string]any `json:"doc"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// NewSessionRecord 返回空会话文档.
func NewSessionRecord() *SessionRecord {
	return &SessionRecord{Doc: make(map[string]any)}
}

// Merge 合并 delta 键（last-write-wins）并刷新时间戳.
// 键可以是点分路径，写入文档树的对应叶子.
func (s *SessionRecord) Merge(delta map[string]any, now time.Time) {
	if s.Doc == nil {
		s.Doc = make(map[string]any)
	}

	for k, v := range delta {
		SetPath(s.Doc, k, v)
	}

	s.UpdatedAt = now
}
