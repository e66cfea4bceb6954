package common

import (
	"runtime"
	"sync"
	"time"
)

// Metrics 分配器指标
type Metrics struct {
	mu sync.RWMutex

	StartTime    time.Time                `json:"start_time"`
	RequestCount map[string]int64         `json:"request_count"`
	ResponseTime map[string]time.Duration `json:"response_time"`
	ErrorCount   map[string]int64         `json:"error_count"`

	// 分配结果
	Granted      int64            `json:"granted"`
	Denied       int64            `json:"denied"`
	DeniedReason map[string]int64 `json:"denied_reason"`
	Rejected     int64            `json:"rejected"`
	Releases     int64            `json:"releases"`

	// 资源使用
	TotalResources     ResourceVector `json:"total_resources"`
	AvailableResources ResourceVector `json:"available_resources"`
}

// NewMetrics 创建新的指标实例
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:    time.Now(),
		RequestCount: make(map[string]int64),
		ResponseTime: make(map[string]time.Duration),
		ErrorCount:   make(map[string]int64),
		DeniedReason: make(map[string]int64),
	}
}

// IncrementRequestCount 增加请求计数
func (m *Metrics) IncrementRequestCount(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount[endpoint]++
}

// RecordResponseTime 记录响应时间
func (m *Metrics) RecordResponseTime(endpoint string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResponseTime[endpoint] = duration
}

// IncrementErrorCount 增加错误计数
func (m *Metrics) IncrementErrorCount(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCount[endpoint]++
}

// RecordGranted 记录一次授予
func (m *Metrics) RecordGranted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Granted++
}

// RecordDenied 记录一次拒绝及原因
func (m *Metrics) RecordDenied(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Denied++
	m.DeniedReason[reason]++
}

// RecordRejected 记录一次非法请求
func (m *Metrics) RecordRejected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rejected++
}

// RecordRelease 记录一次释放
func (m *Metrics) RecordRelease() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Releases++
}

// UpdateResourceMetrics 更新资源使用指标
func (m *Metrics) UpdateResourceMetrics(total, available ResourceVector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalResources = total.Clone()
	m.AvailableResources = available.Clone()
}

// GetSnapshot 获取指标快照
func (m *Metrics) GetSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":      time.Since(m.StartTime).Seconds(),
		"request_count":       copyCounts(m.RequestCount),
		"response_time_ms":    convertDurationToMs(m.ResponseTime),
		"error_count":         copyCounts(m.ErrorCount),
		"granted":             m.Granted,
		"denied":              m.Denied,
		"denied_reason":       copyCounts(m.DeniedReason),
		"rejected":            m.Rejected,
		"releases":            m.Releases,
		"total_resources":     m.TotalResources.Clone(),
		"available_resources": m.AvailableResources.Clone(),
		"goroutines":          runtime.NumGoroutine(),
	}
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// convertDurationToMs 将时间持续转换为毫秒
func convertDurationToMs(durations map[string]time.Duration) map[string]float64 {
	result := make(map[string]float64)
	for k, v := range durations {
		result[k] = float64(v.Nanoseconds()) / 1e6
	}
	return result
}
