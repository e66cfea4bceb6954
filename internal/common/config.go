package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config 全局配置
type Config struct {
	Cluster    ClusterConfig    `yaml:"cluster"`
	Resources  ResourcesConfig  `yaml:"resources"`
	Nodes      []NodeConfig     `yaml:"nodes"`
	Server     ServerConfig     `yaml:"server"`
	Simulation SimulationConfig `yaml:"simulation"`
	Events     EventsConfig     `yaml:"events"`
	Log        LogConfig        `yaml:"log"`
}

// ClusterConfig 集群信息
type ClusterConfig struct {
	Name string `yaml:"name"`
}

// ResourcesConfig 资源池配置
type ResourcesConfig struct {
	Names []string `yaml:"names"`
	Total []int64  `yaml:"total"`
}

// NodeConfig 节点配置，Allocation 为初始分配（可选）
type NodeConfig struct {
	Name       string  `yaml:"name"`
	Maximum    []int64 `yaml:"maximum"`
	Allocation []int64 `yaml:"allocation,omitempty"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SimulationConfig 演示驱动配置
type SimulationConfig struct {
	Rounds            int           `yaml:"rounds"`
	Seed              int64         `yaml:"seed"`
	Delay             time.Duration `yaml:"delay"`
	ReleaseAfterGrant bool          `yaml:"release_after_grant"`
}

// EventsConfig 事件输出配置
type EventsConfig struct {
	Log   bool        `yaml:"log"`
	Kafka KafkaConfig `yaml:"kafka"`
}

// KafkaConfig Kafka 事件发布配置
type KafkaConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Development bool   `yaml:"development"`
	Level       string `yaml:"level"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
}

// GetDefaultConfig 获取默认配置（三种资源、三个节点的示例场景）
func GetDefaultConfig() *Config {
	return &Config{
		Cluster: ClusterConfig{Name: "banker"},
		Resources: ResourcesConfig{
			Total: []int64{10, 5, 7},
		},
		Nodes: []NodeConfig{
			{Name: "validator-0", Maximum: []int64{7, 5, 3}},
			{Name: "validator-1", Maximum: []int64{3, 2, 2}},
			{Name: "validator-2", Maximum: []int64{9, 3, 6}},
		},
		Server: ServerConfig{
			Port:         getEnvIntOrDefault("BANKER_PORT", 8090),
			Address:      "0.0.0.0",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Simulation: SimulationConfig{
			Rounds:            5,
			Delay:             500 * time.Millisecond,
			ReleaseAfterGrant: true,
		},
		Events: EventsConfig{
			Log: true,
			Kafka: KafkaConfig{
				Brokers:      getEnvListOrDefault("BANKER_KAFKA_BROKERS", []string{"localhost:9092"}),
				Topic:        "banker-events",
				BatchTimeout: 10 * time.Millisecond,
			},
		},
		Log: LogConfig{
			Development: true,
			Level:       "info",
			MaxSizeMB:   100,
			MaxBackups:  3,
			MaxAgeDays:  28,
		},
	}
}

// LoadConfig 从 YAML 文件加载配置，未设置的字段使用默认值
func LoadConfig(path string) (*Config, error) {
	config := GetDefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := ParseConfig(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

// ParseConfig 将 YAML 内容解析到 config 上并校验
func ParseConfig(data []byte, config *Config) error {
	if err := yaml.Unmarshal(data, config); err != nil {
		return err
	}
	return config.Validate()
}

// Validate 校验配置，汇总所有问题
func (c *Config) Validate() error {
	var err error
	r := len(c.Resources.Total)
	if r == 0 {
		err = multierr.Append(err, NewValidationError(ErrInvalidConfiguration, "resources.total", "cannot be empty", nil))
	}
	if len(c.Resources.Names) != 0 && len(c.Resources.Names) != r {
		err = multierr.Append(err, NewValidationError(ErrInvalidConfiguration, "resources.names",
			fmt.Sprintf("expected %d names, got %d", r, len(c.Resources.Names)), c.Resources.Names))
	}
	if verr := ValidateVector(ErrInvalidConfiguration, "resources.total", c.Resources.Total, r); verr != nil {
		err = multierr.Append(err, verr)
	}
	if len(c.Nodes) == 0 {
		err = multierr.Append(err, NewValidationError(ErrInvalidConfiguration, "nodes", "cannot be empty", nil))
	}
	for i, node := range c.Nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		if verr := ValidateVector(ErrInvalidConfiguration, field+".maximum", node.Maximum, r); verr != nil {
			err = multierr.Append(err, verr)
		}
		if node.Allocation != nil {
			if verr := ValidateVector(ErrInvalidConfiguration, field+".allocation", node.Allocation, r); verr != nil {
				err = multierr.Append(err, verr)
			}
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		err = multierr.Append(err, NewValidationError(ErrInvalidConfiguration, "server.port", "must be between 0 and 65535", c.Server.Port))
	}
	if c.Simulation.Rounds < 0 {
		err = multierr.Append(err, NewValidationError(ErrInvalidConfiguration, "simulation.rounds", "must not be negative", c.Simulation.Rounds))
	}
	if c.Events.Kafka.Enabled {
		if len(c.Events.Kafka.Brokers) == 0 {
			err = multierr.Append(err, NewValidationError(ErrInvalidConfiguration, "events.kafka.brokers", "cannot be empty", nil))
		}
		if c.Events.Kafka.Topic == "" {
			err = multierr.Append(err, NewValidationError(ErrInvalidConfiguration, "events.kafka.topic", "cannot be empty", nil))
		}
	}
	return err
}

// Maximum 最大需求矩阵
func (c *Config) Maximum() [][]int64 {
	m := make([][]int64, len(c.Nodes))
	for i, node := range c.Nodes {
		m[i] = append([]int64(nil), node.Maximum...)
	}
	return m
}

// InitialAllocation 初始分配矩阵；所有节点都未配置时返回 nil
func (c *Config) InitialAllocation() [][]int64 {
	seeded := false
	m := make([][]int64, len(c.Nodes))
	for i, node := range c.Nodes {
		if node.Allocation != nil {
			seeded = true
			m[i] = append([]int64(nil), node.Allocation...)
		} else {
			m[i] = make([]int64, len(c.Resources.Total))
		}
	}
	if !seeded {
		return nil
	}
	return m
}

// ResourceNames 资源名称，未配置时使用 resource-<j>
func (c *Config) ResourceNames() []string {
	if len(c.Resources.Names) == len(c.Resources.Total) {
		return append([]string(nil), c.Resources.Names...)
	}
	names := make([]string, len(c.Resources.Total))
	for j := range names {
		names[j] = fmt.Sprintf("resource-%d", j)
	}
	return names
}

// NodeNames 节点名称，未配置的使用 node-<i>
func (c *Config) NodeNames() []string {
	names := make([]string, len(c.Nodes))
	for i, node := range c.Nodes {
		names[i] = node.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("node-%d", i)
		}
	}
	return names
}

// getEnvIntOrDefault 获取环境变量整数值或使用默认值
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvListOrDefault 获取逗号分隔的环境变量或使用默认值
func getEnvListOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
