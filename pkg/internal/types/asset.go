// Package types 定义 HTTP 层的请求与响应结构.
package types

// SubmitAssetRequest 提交新资产的请求体.
// Metadata 可以携带初始目标配置，源分析阶段不会覆盖已有的 target 配置.
type SubmitAssetRequest struct {
	Filename string         `json:"filename" rule:"required,max=512"`
	Metadata map[string]any `json:"metadata"`
}

// DeltaRequest 元数据增量请求体（资产与会话共用）.
// Delta 的键可以是点分路径，如 "target.default.height".
type DeltaRequest struct {
	Delta map[string]any `json:"delta" rule:"required"`
}

// ErrorResponse 统一错误响应.
type ErrorResponse struct {
	Error string `json:"error"`
}
