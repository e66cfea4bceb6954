// Package allocator 在 banker.State 之上提供服务层：记录指标、写日志、分发事件。
package allocator

import (
	"context"
	"fmt"
	"time"

	"banker/internal/banker"
	"banker/internal/common"
	"banker/internal/events"

	"go.uber.org/zap"
)

// Service 持有唯一权威的分配状态
type Service struct {
	state     *banker.State
	nodeNames []string
	metrics   *common.Metrics
	handler   events.Handler
	logger    *zap.Logger
}

// Option 服务选项
type Option func(*Service)

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics 设置指标实例
func WithMetrics(metrics *common.Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// WithEventHandler 设置事件处理器
func WithEventHandler(handler events.Handler) Option {
	return func(s *Service) { s.handler = handler }
}

// WithNodeNames 设置节点名称，长度需与节点数一致
func WithNodeNames(names []string) Option {
	return func(s *Service) { s.nodeNames = append([]string(nil), names...) }
}

// NewService 创建分配服务
func NewService(state *banker.State, opts ...Option) *Service {
	s := &Service{
		state:   state,
		metrics: common.NewMetrics(),
		handler: events.NopHandler{},
		logger:  common.ComponentLogger("allocator"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.nodeNames) != state.Nodes() {
		s.nodeNames = make([]string, state.Nodes())
		for i := range s.nodeNames {
			s.nodeNames[i] = fmt.Sprintf("node-%d", i)
		}
	}
	s.metrics.UpdateResourceMetrics(state.Total(), state.Available())
	return s
}

// NewServiceFromConfig 根据配置创建状态与服务
func NewServiceFromConfig(config *common.Config, opts ...Option) (*Service, error) {
	var (
		state *banker.State
		err   error
	)
	if allocation := config.InitialAllocation(); allocation != nil {
		state, err = banker.NewWithAllocation(config.Resources.Total, config.Maximum(), allocation)
	} else {
		state, err = banker.New(config.Resources.Total, config.Maximum())
	}
	if err != nil {
		return nil, fmt.Errorf("initialize allocation state: %w", err)
	}
	return NewService(state, append([]Option{WithNodeNames(config.NodeNames())}, opts...)...), nil
}

// Request 为节点申请资源
func (s *Service) Request(ctx context.Context, node int, request common.ResourceVector) (banker.Decision, error) {
	start := time.Now()
	s.metrics.IncrementRequestCount("request")
	defer func() { s.metrics.RecordResponseTime("request", time.Since(start)) }()

	decision, err := s.state.TryRequest(node, request)
	if err != nil {
		s.metrics.IncrementErrorCount("request")
		s.metrics.RecordRejected()
		s.logger.Warn("Invalid resource request",
			zap.Int("node", node),
			zap.Stringer("request", request),
			zap.Error(err))

		event := events.New(events.TypeRejected, node, s.NodeName(node))
		event.Request = request.Clone()
		event.Error = err.Error()
		s.dispatch(ctx, event)
		return decision, err
	}

	eventType := events.TypeGranted
	if decision.Granted() {
		s.metrics.RecordGranted()
	} else {
		eventType = events.TypeDenied
		s.metrics.RecordDenied(string(decision.Reason))
	}
	s.metrics.UpdateResourceMetrics(s.state.Total(), decision.Available)

	s.logger.Debug("Resource request evaluated",
		zap.Int("node", node),
		zap.Stringer("request", request),
		zap.Stringer("outcome", decision.Outcome),
		zap.String("reason", string(decision.Reason)))

	event := events.New(eventType, node, s.NodeName(node))
	event.Request = decision.Request
	event.Reason = string(decision.Reason)
	event.Available = decision.Available
	s.dispatch(ctx, event)

	return decision, nil
}

// Release 释放节点持有的全部资源
func (s *Service) Release(ctx context.Context, node int) (common.ResourceVector, error) {
	s.metrics.IncrementRequestCount("release")

	released, available, err := s.state.ReleaseDetail(node)
	if err != nil {
		s.metrics.IncrementErrorCount("release")
		s.logger.Warn("Invalid release", zap.Int("node", node), zap.Error(err))
		return nil, err
	}
	s.metrics.RecordRelease()
	s.metrics.UpdateResourceMetrics(s.state.Total(), available)

	event := events.New(events.TypeReleased, node, s.NodeName(node))
	event.Released = released.Clone()
	event.Available = available
	s.dispatch(ctx, event)

	return released, nil
}

// IsSafe 当前状态是否安全
func (s *Service) IsSafe() bool {
	return s.state.IsSafe()
}

// Snapshot 当前状态快照
func (s *Service) Snapshot() banker.Snapshot {
	return s.state.Snapshot()
}

// Need 节点剩余需求
func (s *Service) Need(node int) (common.ResourceVector, error) {
	return s.state.Need(node)
}

// Nodes 节点数
func (s *Service) Nodes() int {
	return s.state.Nodes()
}

// NodeName 节点名称，越界时返回 node-<i>
func (s *Service) NodeName(node int) string {
	if node >= 0 && node < len(s.nodeNames) {
		return s.nodeNames[node]
	}
	return fmt.Sprintf("node-%d", node)
}

// NodeIndex 按名称查找节点编号
func (s *Service) NodeIndex(name string) (int, bool) {
	for i, n := range s.nodeNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Metrics 指标实例
func (s *Service) Metrics() *common.Metrics {
	return s.metrics
}

func (s *Service) dispatch(ctx context.Context, event events.Event) {
	if err := s.handler.HandleEvent(ctx, event); err != nil {
		s.logger.Error("Failed to handle event",
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}
