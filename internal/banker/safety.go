package banker

import "banker/internal/common"

// CheckSafety 银行家安全性检查。
//
// 每一轮按下标顺序找到第一个未完成且 need[i] <= work 的节点，把它的
// allocation 加回 work 并标记完成，然后从下标 0 重新扫描。某一轮找不到
// 这样的节点即为不安全。返回是否安全以及找到的完成顺序（不安全时为部分顺序）。
//
// 输入不会被修改。维度不一致（行数不同或某行长度与 available 不同）时
// 返回 false 和空顺序。
func CheckSafety(available common.ResourceVector, allocation, need [][]int64) (bool, []int) {
	if !sameShape(available, allocation, need) {
		return false, nil
	}

	n := len(need)
	work := available.Clone()
	finished := make([]bool, n)
	order := make([]int, 0, n)

	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !finished[i] && fits(need[i], work) {
				next = i
				break
			}
		}
		if next < 0 {
			return false, order
		}
		for j := range work {
			work[j] += allocation[next][j]
		}
		finished[next] = true
		order = append(order, next)
	}
	return true, order
}

// IsSafeState 同 CheckSafety，只返回是否安全
func IsSafeState(available common.ResourceVector, allocation, need [][]int64) bool {
	safe, _ := CheckSafety(available, allocation, need)
	return safe
}

func fits(need []int64, work common.ResourceVector) bool {
	for j, x := range need {
		if x > work[j] {
			return false
		}
	}
	return true
}

func sameShape(available common.ResourceVector, allocation, need [][]int64) bool {
	if len(allocation) != len(need) {
		return false
	}
	for i := range need {
		if len(need[i]) != len(available) || len(allocation[i]) != len(available) {
			return false
		}
	}
	return true
}
