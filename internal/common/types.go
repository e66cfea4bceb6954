package common

import (
	"fmt"
	"strings"
)

// ResourceVector 表示每种资源类型的数量，长度等于资源类型数
type ResourceVector []int64

// NewResourceVector 创建长度为 n 的零向量
func NewResourceVector(n int) ResourceVector {
	return make(ResourceVector, n)
}

// Clone 返回向量的副本
func (v ResourceVector) Clone() ResourceVector {
	if v == nil {
		return nil
	}
	out := make(ResourceVector, len(v))
	copy(out, v)
	return out
}

// Len 资源类型数
func (v ResourceVector) Len() int {
	return len(v)
}

// IsEmpty 所有分量都为 0
func (v ResourceVector) IsEmpty() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// HasNegative 是否存在负数分量，返回第一个负数分量的下标
func (v ResourceVector) HasNegative() (int, bool) {
	for j, x := range v {
		if x < 0 {
			return j, true
		}
	}
	return -1, false
}

// Equals 逐分量比较
func (v ResourceVector) Equals(other ResourceVector) bool {
	if len(v) != len(other) {
		return false
	}
	for j := range v {
		if v[j] != other[j] {
			return false
		}
	}
	return true
}

// LessOrEqual 每个分量都不大于 other 对应分量；长度不同时返回 false
func (v ResourceVector) LessOrEqual(other ResourceVector) bool {
	if len(v) != len(other) {
		return false
	}
	for j := range v {
		if v[j] > other[j] {
			return false
		}
	}
	return true
}

// Add 返回逐分量之和，长度必须一致
func (v ResourceVector) Add(other ResourceVector) ResourceVector {
	out := v.Clone()
	for j := range out {
		out[j] += other[j]
	}
	return out
}

// Subtract 返回逐分量之差，长度必须一致
func (v ResourceVector) Subtract(other ResourceVector) ResourceVector {
	out := v.Clone()
	for j := range out {
		out[j] -= other[j]
	}
	return out
}

func (v ResourceVector) String() string {
	parts := make([]string, len(v))
	for j, x := range v {
		parts[j] = fmt.Sprintf("%d", x)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// CloneMatrix 深拷贝 N×R 矩阵
func CloneMatrix(m [][]int64) [][]int64 {
	if m == nil {
		return nil
	}
	out := make([][]int64, len(m))
	for i, row := range m {
		out[i] = make([]int64, len(row))
		copy(out[i], row)
	}
	return out
}
