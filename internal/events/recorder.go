package events

import (
	"context"
	"sync"
)

// Recorder 在内存中保存收到的事件
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder 创建事件记录器
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Process 可直接注册为 Processor
func (r *Recorder) Process(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events 返回已记录事件的副本
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count 统计某类事件数量
func (r *Recorder) Count(eventType Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
