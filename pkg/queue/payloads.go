package queue

import "time"

// EventHeader 定义所有事件的通用头部元数据.
// 建议在发布消息时填充 TraceID、OccurredAt、Producer 等，便于追踪链路与审计.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪/关联 ID，可来自中间件或业务生成.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者服务名或节点标识.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本，便于向后兼容演进.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
// T 即不同主题对应的负载结构体.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// -------------------------- 资产构建领域 --------------------------

// SourceJobPayload 请求源分析作业.
// MinVersion 是入队时刻的记录版本号：消费端发现记录版本已超过
// MinVersion 对应的预期时，说明有更新的变更在排队，本作业可安全丢弃.
type SourceJobPayload struct {
	AssetType string `json:"asset_type"`
	ID        string `json:"id"`
	// MinVersion 作业有效的最低记录版本，记录版本低于此值说明消息早于记录到达.
	MinVersion int64 `json:"min_version,omitempty"`
}

// PlatformJobPayload 请求平台编译作业.
type PlatformJobPayload struct {
	AssetType string `json:"asset_type"`
	ID        string `json:"id"`
	Platform  string `json:"platform"`
	// MinVersion 同 SourceJobPayload.MinVersion.
	MinVersion int64 `json:"min_version,omitempty"`
}

// -------------------------- 变更通知领域 --------------------------

// AssetChangedPayload 资产记录发生变化（元数据增量、阶段产物提交、失效等）.
// Doc 是变化后的完整记录快照，编辑器收到后直接整体替换本地副本.
type AssetChangedPayload struct {
	AssetType string `json:"asset_type"`
	ID        string `json:"id"`
	Version   int64  `json:"version"`
	Doc       any    `json:"doc"`
}

// SessionChangedPayload 编辑会话文档变化.
type SessionChangedPayload struct {
	Doc any `json:"doc"`
}
