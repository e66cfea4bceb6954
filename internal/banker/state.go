// Package banker 实现银行家算法：维护分配状态，并在授予请求前做安全性检查。
//
// 本包不做日志与 I/O，结果通过返回值暴露给调用方。
package banker

import (
	"fmt"
	"sync"

	"banker/internal/common"
)

// State 分配状态。
//
// 不变式（每个公开方法返回后，包括出错路径）：
//   - allocation[i][j] >= 0，need[i][j] >= 0
//   - allocation[i][j] + need[i][j] == maximum[i][j]
//   - available[j] + Σ_i allocation[i][j] == total[j]
//
// 所有方法由同一把锁串行化，可被多个 goroutine 并发调用。
type State struct {
	mu sync.Mutex

	total      common.ResourceVector
	available  common.ResourceVector
	maximum    [][]int64
	allocation [][]int64
	need       [][]int64
}

// New 创建初始状态：allocation 全 0，need = maximum，available = total。
// 允许 Σ maximum 超过 total。
func New(total common.ResourceVector, maximum [][]int64) (*State, error) {
	if err := validateConfiguration(total, maximum); err != nil {
		return nil, err
	}

	n, r := len(maximum), len(total)
	s := &State{
		total:      total.Clone(),
		available:  total.Clone(),
		maximum:    common.CloneMatrix(maximum),
		allocation: make([][]int64, n),
		need:       common.CloneMatrix(maximum),
	}
	for i := range s.allocation {
		s.allocation[i] = make([]int64, r)
	}
	return s, nil
}

// NewWithAllocation 以给定的初始分配创建状态。
// 要求 allocation <= maximum 且每种资源的分配总和不超过 total；不要求初始状态安全。
func NewWithAllocation(total common.ResourceVector, maximum, allocation [][]int64) (*State, error) {
	s, err := New(total, maximum)
	if err != nil {
		return nil, err
	}
	if len(allocation) != len(maximum) {
		return nil, common.NewValidationError(common.ErrInvalidConfiguration, "allocation",
			fmt.Sprintf("expected %d rows, got %d", len(maximum), len(allocation)), len(allocation))
	}

	available := total.Clone()
	for i, row := range allocation {
		field := fmt.Sprintf("allocation[%d]", i)
		if err := common.ValidateVector(common.ErrInvalidConfiguration, field, row, len(total)); err != nil {
			return nil, err
		}
		if !common.ResourceVector(row).LessOrEqual(maximum[i]) {
			return nil, common.NewValidationError(common.ErrInvalidConfiguration, field, "exceeds maximum", row)
		}
		available = available.Subtract(row)
	}
	if j, ok := available.HasNegative(); ok {
		return nil, common.NewValidationError(common.ErrInvalidConfiguration, fmt.Sprintf("allocation[*][%d]", j),
			"total allocation exceeds total resources", total[j]-available[j])
	}

	s.available = available
	for i, row := range allocation {
		copy(s.allocation[i], row)
		s.need[i] = common.ResourceVector(maximum[i]).Subtract(row)
	}
	return s, nil
}

func validateConfiguration(total common.ResourceVector, maximum [][]int64) error {
	if len(total) == 0 {
		return common.NewValidationError(common.ErrInvalidConfiguration, "total", "at least one resource type is required", nil)
	}
	if err := common.ValidateVector(common.ErrInvalidConfiguration, "total", total, len(total)); err != nil {
		return err
	}
	if len(maximum) == 0 {
		return common.NewValidationError(common.ErrInvalidConfiguration, "maximum", "at least one node is required", nil)
	}
	for i, row := range maximum {
		if err := common.ValidateVector(common.ErrInvalidConfiguration, fmt.Sprintf("maximum[%d]", i), row, len(total)); err != nil {
			return err
		}
	}
	return nil
}

// Nodes 节点数 N
func (s *State) Nodes() int {
	return len(s.maximum)
}

// Resources 资源类型数 R
func (s *State) Resources() int {
	return len(s.total)
}

// Total 资源总量
func (s *State) Total() common.ResourceVector {
	return s.total.Clone()
}

// TryRequest 尝试为节点分配 request。
//
// 格式错误（节点越界、长度不符、负数）返回错误且不修改状态。
// 超过 need、超过 available 或会导致不安全时返回 Denied，状态保持不变；
// 否则一次性提交 available、allocation[node]、need[node] 并返回 Granted。
func (s *State) TryRequest(node int, request common.ResourceVector) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNode(node); err != nil {
		return Decision{}, err
	}
	if err := common.ValidateVector(common.ErrInvalidRequest, "request", request, len(s.total)); err != nil {
		return Decision{}, err
	}

	decision := Decision{
		Node:    node,
		Request: request.Clone(),
		Outcome: Denied,
	}

	if !request.LessOrEqual(s.need[node]) {
		decision.Reason = ReasonExceedsNeed
		decision.Available = s.available.Clone()
		return decision, nil
	}
	if !request.LessOrEqual(s.available) {
		decision.Reason = ReasonExceedsAvailable
		decision.Available = s.available.Clone()
		return decision, nil
	}

	next := s.tentative(node, request)
	safe, order := CheckSafety(next.available, next.allocation, next.need)
	if !safe {
		decision.Reason = ReasonUnsafe
		decision.Available = s.available.Clone()
		return decision, nil
	}

	s.commit(node, next)
	decision.Outcome = Granted
	decision.Available = s.available.Clone()
	decision.FinishOrder = order
	return decision, nil
}

// Release 归还节点当前持有的全部资源，need 重置为 maximum。返回归还的向量。
func (s *State) Release(node int) (common.ResourceVector, error) {
	released, _, err := s.ReleaseDetail(node)
	return released, err
}

// ReleaseDetail 同 Release，另外返回同一临界区内归还后的 available
func (s *State) ReleaseDetail(node int) (released, available common.ResourceVector, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNode(node); err != nil {
		return nil, nil, err
	}

	released = common.ResourceVector(s.allocation[node]).Clone()
	s.available = s.available.Add(released)
	s.allocation[node] = make([]int64, len(s.total))
	s.need[node] = common.ResourceVector(s.maximum[node]).Clone()
	return released, s.available.Clone(), nil
}

// IsSafe 当前状态是否安全
func (s *State) IsSafe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return IsSafeState(s.available, s.allocation, s.need)
}

// Need 节点剩余需求
func (s *State) Need(node int) (common.ResourceVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkNode(node); err != nil {
		return nil, err
	}
	return common.ResourceVector(s.need[node]).Clone(), nil
}

// Allocation 节点当前持有量
func (s *State) Allocation(node int) (common.ResourceVector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkNode(node); err != nil {
		return nil, err
	}
	return common.ResourceVector(s.allocation[node]).Clone(), nil
}

// Available 当前空闲资源
func (s *State) Available() common.ResourceVector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.available.Clone()
}

// Snapshot 返回状态深拷贝及安全性
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	safe, order := CheckSafety(s.available, s.allocation, s.need)
	snap := Snapshot{
		Total:      s.total.Clone(),
		Available:  s.available.Clone(),
		Maximum:    common.CloneMatrix(s.maximum),
		Allocation: common.CloneMatrix(s.allocation),
		Need:       common.CloneMatrix(s.need),
		Safe:       safe,
	}
	if safe {
		snap.FinishOrder = order
	}
	return snap
}

func (s *State) checkNode(node int) error {
	if node < 0 || node >= len(s.maximum) {
		return common.NewValidationError(common.ErrUnknownNode, "node",
			fmt.Sprintf("must be in [0, %d)", len(s.maximum)), node)
	}
	return nil
}

// pending 申请被应用后的候选状态。未改动的行与 State 共享，只读。
type pending struct {
	available     common.ResourceVector
	allocation    [][]int64
	need          [][]int64
	allocationRow []int64
	needRow       []int64
}

func (s *State) tentative(node int, request common.ResourceVector) pending {
	p := pending{
		available:     s.available.Subtract(request),
		allocationRow: common.ResourceVector(s.allocation[node]).Add(request),
		needRow:       common.ResourceVector(s.need[node]).Subtract(request),
		allocation:    make([][]int64, len(s.allocation)),
		need:          make([][]int64, len(s.need)),
	}
	copy(p.allocation, s.allocation)
	copy(p.need, s.need)
	p.allocation[node] = p.allocationRow
	p.need[node] = p.needRow
	return p
}

func (s *State) commit(node int, p pending) {
	s.available = p.available
	s.allocation[node] = p.allocationRow
	s.need[node] = p.needRow
}
