package banker

import (
	"fmt"

	"banker/internal/common"
)

// Outcome 请求结果
type Outcome int

const (
	Denied Outcome = iota
	Granted
)

func (o Outcome) String() string {
	switch o {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText 以字符串形式序列化
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText 从字符串解析
func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "granted":
		*o = Granted
	case "denied":
		*o = Denied
	default:
		return fmt.Errorf("unknown outcome %q", text)
	}
	return nil
}

// DenyReason 拒绝原因
type DenyReason string

const (
	ReasonNone             DenyReason = ""
	ReasonExceedsNeed      DenyReason = "exceeds_need"
	ReasonExceedsAvailable DenyReason = "exceeds_available"
	ReasonUnsafe           DenyReason = "unsafe"
)

// Decision 一次 TryRequest 的结果
type Decision struct {
	Node      int                   `json:"node"`
	Request   common.ResourceVector `json:"request"`
	Outcome   Outcome               `json:"outcome"`
	Reason    DenyReason            `json:"reason,omitempty"`
	Available common.ResourceVector `json:"available"`
	// FinishOrder 授予时找到的安全序列
	FinishOrder []int `json:"finish_order,omitempty"`
}

// Granted 请求是否被授予
func (d Decision) Granted() bool {
	return d.Outcome == Granted
}

func (d Decision) String() string {
	if d.Outcome == Granted {
		return fmt.Sprintf("node %d request %s granted, available %s", d.Node, d.Request, d.Available)
	}
	return fmt.Sprintf("node %d request %s denied (%s), available %s", d.Node, d.Request, d.Reason, d.Available)
}

// Snapshot 状态的深拷贝
type Snapshot struct {
	Total       common.ResourceVector `json:"total"`
	Available   common.ResourceVector `json:"available"`
	Maximum     [][]int64             `json:"maximum"`
	Allocation  [][]int64             `json:"allocation"`
	Need        [][]int64             `json:"need"`
	Safe        bool                  `json:"safe"`
	FinishOrder []int                 `json:"finish_order,omitempty"`
}

// Equal 比较两个快照的矩阵与向量
func (s Snapshot) Equal(other Snapshot) bool {
	return s.Total.Equals(other.Total) &&
		s.Available.Equals(other.Available) &&
		matrixEqual(s.Maximum, other.Maximum) &&
		matrixEqual(s.Allocation, other.Allocation) &&
		matrixEqual(s.Need, other.Need)
}

func matrixEqual(a, b [][]int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !common.ResourceVector(a[i]).Equals(b[i]) {
			return false
		}
	}
	return true
}
