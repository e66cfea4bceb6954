package simulator

import (
	"math/rand"
	"sync"

	"banker/internal/common"
)

// RequestSource 为节点生成下一次申请，need 为节点当前剩余需求。
// 返回 false 表示该节点没有更多申请。
type RequestSource interface {
	Next(node int, need common.ResourceVector) (common.ResourceVector, bool)
}

// RandomSource 每个分量在 [0, need[j]] 内均匀取值
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource 以给定种子创建随机申请源
func NewRandomSource(seed int64) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewSource(seed))}
}

// Next 实现 RequestSource
func (s *RandomSource) Next(_ int, need common.ResourceVector) (common.ResourceVector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request := make(common.ResourceVector, len(need))
	for j, n := range need {
		if n > 0 {
			request[j] = s.rng.Int63n(n + 1)
		}
	}
	return request, true
}

// ScriptedSource 按节点预先给定的申请序列
type ScriptedSource struct {
	mu     sync.Mutex
	script map[int][]common.ResourceVector
}

// NewScriptedSource 创建脚本申请源
func NewScriptedSource(script map[int][]common.ResourceVector) *ScriptedSource {
	copied := make(map[int][]common.ResourceVector, len(script))
	for node, requests := range script {
		for _, r := range requests {
			copied[node] = append(copied[node], r.Clone())
		}
	}
	return &ScriptedSource{script: copied}
}

// Next 实现 RequestSource，忽略 need
func (s *ScriptedSource) Next(node int, _ common.ResourceVector) (common.ResourceVector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.script[node]
	if len(queue) == 0 {
		return nil, false
	}
	s.script[node] = queue[1:]
	return queue[0], true
}
