package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const exampleConfig = `
cluster:
  name: chain
resources:
  names: [cpu, memory, storage]
  total: [10, 5, 7]
nodes:
  - name: validator-0
    maximum: [7, 5, 3]
    allocation: [2, 1, 1]
  - name: validator-1
    maximum: [3, 2, 2]
    allocation: [2, 1, 1]
  - maximum: [9, 3, 6]
    allocation: [3, 2, 2]
server:
  port: 9000
simulation:
  rounds: 2
  seed: 7
  delay: 250ms
events:
  kafka:
    enabled: true
    brokers: [kafka-1:9092, kafka-2:9092]
    topic: allocations
`

func TestGetDefaultConfig(t *testing.T) {
	config := GetDefaultConfig()

	require.NoError(t, config.Validate())
	assert.Equal(t, []int64{10, 5, 7}, config.Resources.Total)
	assert.Len(t, config.Nodes, 3)
	assert.Nil(t, config.InitialAllocation())
	assert.Equal(t, [][]int64{{7, 5, 3}, {3, 2, 2}, {9, 3, 6}}, config.Maximum())
	assert.Equal(t, 5, config.Simulation.Rounds)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleConfig), 0o644))

	config, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "chain", config.Cluster.Name)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, 250*time.Millisecond, config.Simulation.Delay)
	assert.Equal(t, int64(7), config.Simulation.Seed)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, config.Events.Kafka.Brokers)
	assert.Equal(t, [][]int64{{2, 1, 1}, {2, 1, 1}, {3, 2, 2}}, config.InitialAllocation())
	assert.Equal(t, []string{"validator-0", "validator-1", "node-2"}, config.NodeNames())
	// 未设置的字段保留默认值
	assert.Equal(t, 15*time.Second, config.Server.ReadTimeout)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig().Resources, config.Resources)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestInitialAllocationPartiallySeeded(t *testing.T) {
	config := GetDefaultConfig()
	config.Nodes[1].Allocation = []int64{1, 1, 1}

	assert.Equal(t, [][]int64{{0, 0, 0}, {1, 1, 1}, {0, 0, 0}}, config.InitialAllocation())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	config := GetDefaultConfig()
	config.Resources.Total = []int64{-1, 5, 7}
	config.Nodes[0].Maximum = []int64{1, 2}
	config.Nodes[2].Allocation = []int64{0, -3, 0}
	config.Server.Port = 70000
	config.Events.Kafka.Enabled = true
	config.Events.Kafka.Topic = ""

	err := config.Validate()

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestParseConfigTwoResourcesWithoutNames(t *testing.T) {
	config := GetDefaultConfig()
	err := ParseConfig([]byte("resources:\n  total: [4, 4]\nnodes:\n  - maximum: [2, 2]\n  - maximum: [3, 1]\n"), config)

	require.NoError(t, err)
	assert.Equal(t, []int64{4, 4}, config.Resources.Total)
	assert.Equal(t, [][]int64{{2, 2}, {3, 1}}, config.Maximum())
	assert.Equal(t, []string{"resource-0", "resource-1"}, config.ResourceNames())
}

func TestParseConfigRejectsMismatchedNames(t *testing.T) {
	config := GetDefaultConfig()
	err := ParseConfig([]byte("resources:\n  names: [cpu, memory, storage]\n  total: [1, 2]\nnodes:\n  - maximum: [1, 1]\n"), config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "resources.names")
}

func TestResourceNames(t *testing.T) {
	config := GetDefaultConfig()
	assert.Equal(t, []string{"resource-0", "resource-1", "resource-2"}, config.ResourceNames())

	config.Resources.Names = []string{"cpu", "memory", "storage"}
	assert.Equal(t, []string{"cpu", "memory", "storage"}, config.ResourceNames())
}
