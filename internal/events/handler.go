package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Processor 事件处理函数
type Processor func(ctx context.Context, event Event) error

// Handler 事件处理接口
type Handler interface {
	// HandleEvent 处理事件
	HandleEvent(ctx context.Context, event Event) error

	// RegisterProcessor 注册事件处理器，eventType 为 TypeAll 时接收所有事件
	RegisterProcessor(eventType Type, processor Processor)
}

// DefaultHandler 默认事件处理器实现
type DefaultHandler struct {
	logger     *zap.Logger
	processors map[Type][]Processor
	mutex      sync.RWMutex
}

// NewDefaultHandler 创建默认事件处理器
func NewDefaultHandler(logger *zap.Logger) *DefaultHandler {
	return &DefaultHandler{
		logger:     logger.With(zap.String("component", "event_handler")),
		processors: make(map[Type][]Processor),
	}
}

// HandleEvent 依次调用该类型和 TypeAll 的处理器，处理器失败只记录日志
func (h *DefaultHandler) HandleEvent(ctx context.Context, event Event) error {
	h.mutex.RLock()
	processors := make([]Processor, 0, len(h.processors[event.Type])+len(h.processors[TypeAll]))
	processors = append(processors, h.processors[event.Type]...)
	processors = append(processors, h.processors[TypeAll]...)
	h.mutex.RUnlock()

	if len(processors) == 0 {
		h.logger.Debug("No processors for event type",
			zap.String("type", string(event.Type)))
		return nil
	}

	for _, processor := range processors {
		if err := processor(ctx, event); err != nil {
			h.logger.Error("Event processor failed",
				zap.String("type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}

	return nil
}

// RegisterProcessor 注册事件处理器
func (h *DefaultHandler) RegisterProcessor(eventType Type, processor Processor) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.processors[eventType] = append(h.processors[eventType], processor)

	h.logger.Debug("Event processor registered",
		zap.String("type", string(eventType)))
}

// NopHandler 丢弃所有事件
type NopHandler struct{}

func (NopHandler) HandleEvent(context.Context, Event) error { return nil }

func (NopHandler) RegisterProcessor(Type, Processor) {}
