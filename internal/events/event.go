// Package events 把分配结果以结构化事件的形式分发给日志、Kafka 等输出端。
package events

import (
	"time"

	"banker/internal/common"

	"github.com/google/uuid"
)

// Type 事件类型
type Type string

const (
	TypeGranted  Type = "granted"
	TypeDenied   Type = "denied"
	TypeRejected Type = "rejected"
	TypeReleased Type = "released"
	// TypeAll 注册处理器时表示所有事件类型
	TypeAll Type = "*"
)

// Event 一次请求或释放的结果
type Event struct {
	ID        string                `json:"id"`
	Type      Type                  `json:"type"`
	Node      int                   `json:"node"`
	NodeName  string                `json:"node_name,omitempty"`
	Request   common.ResourceVector `json:"request,omitempty"`
	Released  common.ResourceVector `json:"released,omitempty"`
	Reason    string                `json:"reason,omitempty"`
	Available common.ResourceVector `json:"available,omitempty"`
	Error     string                `json:"error,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// New 创建带 ID 与时间戳的事件
func New(eventType Type, node int, nodeName string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Node:      node,
		NodeName:  nodeName,
		Timestamp: time.Now(),
	}
}
