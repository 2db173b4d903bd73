package types

import "time"

// SessionResponse 会话文档响应.
type SessionResponse struct {
	Doc       map[string]any `json:"doc"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
