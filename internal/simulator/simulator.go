// Package simulator 是演示用的外部驱动：为每个节点生成申请队列，依次调用分配服务。
package simulator

import (
	"context"
	"time"

	"banker/internal/banker"
	"banker/internal/common"

	"go.uber.org/zap"
)

// Allocator 模拟器依赖的分配服务接口
type Allocator interface {
	Request(ctx context.Context, node int, request common.ResourceVector) (banker.Decision, error)
	Release(ctx context.Context, node int) (common.ResourceVector, error)
	Need(node int) (common.ResourceVector, error)
	Nodes() int
}

// Config 模拟参数
type Config struct {
	Rounds            int
	Delay             time.Duration
	ReleaseAfterGrant bool
}

// ConfigFromCommon 从全局配置转换
func ConfigFromCommon(c common.SimulationConfig) Config {
	return Config{
		Rounds:            c.Rounds,
		Delay:             c.Delay,
		ReleaseAfterGrant: c.ReleaseAfterGrant,
	}
}

// NodeReport 单个节点的统计
type NodeReport struct {
	Requests int `json:"requests"`
	Granted  int `json:"granted"`
	Denied   int `json:"denied"`
	Errors   int `json:"errors"`
	Releases int `json:"releases"`
}

// Report 模拟结果
type Report struct {
	Nodes     []NodeReport      `json:"nodes"`
	Decisions []banker.Decision `json:"decisions"`
}

// Simulator 演示驱动
type Simulator struct {
	alloc  Allocator
	source RequestSource
	config Config
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New 创建模拟器
func New(alloc Allocator, source RequestSource, config Config, logger *zap.Logger) *Simulator {
	return &Simulator{
		alloc:  alloc,
		source: source,
		config: config,
		logger: logger.With(zap.String("component", "simulator")),
		sleep:  sleepContext,
	}
}

// Run 第一阶段为每个节点排入 Rounds 个申请（按生成时的剩余需求取值），
// 第二阶段按节点顺序依次处理队列。授予后（若配置）等待 Delay 再释放该节点，
// 每个申请之后再等待 Delay。ctx 取消时返回已完成部分的报告与 ctx 错误。
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	n := s.alloc.Nodes()
	report := &Report{Nodes: make([]NodeReport, n)}

	queues := make([][]common.ResourceVector, n)
	for round := 0; round < s.config.Rounds; round++ {
		for node := 0; node < n; node++ {
			need, err := s.alloc.Need(node)
			if err != nil {
				return report, err
			}
			request, ok := s.source.Next(node, need)
			if !ok {
				continue
			}
			queues[node] = append(queues[node], request)
		}
	}

	for node := 0; node < n; node++ {
		for _, request := range queues[node] {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			nodeReport := &report.Nodes[node]
			nodeReport.Requests++
			s.logger.Info("Node requesting resources",
				zap.Int("node", node),
				zap.Stringer("request", request))

			decision, err := s.alloc.Request(ctx, node, request)
			if err != nil {
				nodeReport.Errors++
				s.logger.Warn("Request rejected", zap.Int("node", node), zap.Error(err))
				continue
			}
			report.Decisions = append(report.Decisions, decision)

			if decision.Granted() {
				nodeReport.Granted++
				if s.config.ReleaseAfterGrant {
					if err := s.sleep(ctx, s.config.Delay); err != nil {
						return report, err
					}
					if _, err := s.alloc.Release(ctx, node); err != nil {
						return report, err
					}
					nodeReport.Releases++
				}
			} else {
				nodeReport.Denied++
			}

			if err := s.sleep(ctx, s.config.Delay); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
