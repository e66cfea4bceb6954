package allocator

import (
	"context"
	"sync"
	"testing"

	"banker/internal/banker"
	"banker/internal/common"
	"banker/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *events.Recorder) {
	t.Helper()
	config := common.GetDefaultConfig()
	recorder := events.NewRecorder()
	handler := events.NewDefaultHandler(zap.NewNop())
	handler.RegisterProcessor(events.TypeAll, recorder.Process)

	svc, err := NewServiceFromConfig(config,
		WithLogger(zap.NewNop()),
		WithEventHandler(handler))
	require.NoError(t, err)
	return svc, recorder
}

func TestNewServiceFromConfig(t *testing.T) {
	svc, _ := newTestService(t)

	assert.Equal(t, 3, svc.Nodes())
	assert.Equal(t, "validator-1", svc.NodeName(1))
	assert.Equal(t, "node-9", svc.NodeName(9))
	idx, ok := svc.NodeIndex("validator-2")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.True(t, svc.IsSafe())
}

func TestNewServiceFromConfigWithAllocation(t *testing.T) {
	config := common.GetDefaultConfig()
	config.Nodes[0].Allocation = []int64{2, 1, 1}
	config.Nodes[1].Allocation = []int64{2, 1, 1}
	config.Nodes[2].Allocation = []int64{3, 2, 2}

	svc, err := NewServiceFromConfig(config, WithLogger(zap.NewNop()))

	require.NoError(t, err)
	assert.Equal(t, common.ResourceVector{3, 1, 3}, svc.Snapshot().Available)
	assert.False(t, svc.IsSafe())
}

func TestNewServiceFromSeededConfigFile(t *testing.T) {
	config, err := common.LoadConfig("../../configs/banker-seeded.yaml")
	require.NoError(t, err)

	svc, err := NewServiceFromConfig(config, WithLogger(zap.NewNop()))

	require.NoError(t, err)
	snap := svc.Snapshot()
	assert.Equal(t, common.ResourceVector{3, 1, 3}, snap.Available)
	assert.Equal(t, [][]int64{{5, 4, 2}, {1, 1, 1}, {6, 1, 4}}, snap.Need)
	assert.False(t, svc.IsSafe())

	d, err := svc.Request(context.Background(), 0, common.ResourceVector{1, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, banker.ReasonUnsafe, d.Reason)
}

func TestNewServiceFromConfigInvalid(t *testing.T) {
	config := common.GetDefaultConfig()
	config.Resources.Total = []int64{-1, 0, 0}

	svc, err := NewServiceFromConfig(config, WithLogger(zap.NewNop()))

	assert.Nil(t, svc)
	assert.ErrorIs(t, err, common.ErrInvalidConfiguration)
}

func TestServiceRequestGrantedAndDenied(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := context.Background()

	d, err := svc.Request(ctx, 0, common.ResourceVector{2, 1, 1})
	require.NoError(t, err)
	assert.True(t, d.Granted())

	d, err = svc.Request(ctx, 1, common.ResourceVector{2, 1, 1})
	require.NoError(t, err)
	assert.True(t, d.Granted())

	d, err = svc.Request(ctx, 2, common.ResourceVector{3, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, banker.ReasonUnsafe, d.Reason)

	evts := recorder.Events()
	require.Len(t, evts, 3)
	assert.Equal(t, events.TypeGranted, evts[0].Type)
	assert.Equal(t, "validator-0", evts[0].NodeName)
	assert.Equal(t, events.TypeDenied, evts[2].Type)
	assert.Equal(t, "unsafe", evts[2].Reason)
	assert.Equal(t, common.ResourceVector{6, 3, 5}, evts[2].Available)

	snap := svc.Metrics().GetSnapshot()
	assert.Equal(t, int64(2), snap["granted"])
	assert.Equal(t, int64(1), snap["denied"])
	assert.Equal(t, map[string]int64{"unsafe": 1}, snap["denied_reason"])
	assert.Equal(t, common.ResourceVector{6, 3, 5}, snap["available_resources"])
}

func TestServiceRequestInvalid(t *testing.T) {
	svc, recorder := newTestService(t)

	_, err := svc.Request(context.Background(), 5, common.ResourceVector{0, 0, 0})

	assert.ErrorIs(t, err, common.ErrUnknownNode)
	evts := recorder.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, events.TypeRejected, evts[0].Type)
	assert.NotEmpty(t, evts[0].Error)
	assert.Equal(t, int64(1), svc.Metrics().GetSnapshot()["rejected"])
}

func TestServiceRelease(t *testing.T) {
	svc, recorder := newTestService(t)
	ctx := context.Background()

	_, err := svc.Request(ctx, 1, common.ResourceVector{2, 1, 1})
	require.NoError(t, err)

	released, err := svc.Release(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, common.ResourceVector{2, 1, 1}, released)

	evts := recorder.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, events.TypeReleased, evts[1].Type)
	assert.Equal(t, common.ResourceVector{2, 1, 1}, evts[1].Released)
	assert.Equal(t, common.ResourceVector{10, 5, 7}, evts[1].Available)

	_, err = svc.Release(ctx, -1)
	assert.ErrorIs(t, err, common.ErrUnknownNode)
	assert.Len(t, recorder.Events(), 2)
}

func TestServiceReleaseEventAvailableMatchesRelease(t *testing.T) {
	state, err := banker.New(common.ResourceVector{4}, [][]int64{{4}, {4}})
	require.NoError(t, err)
	recorder := events.NewRecorder()
	handler := events.NewDefaultHandler(zap.NewNop())
	handler.RegisterProcessor(events.TypeReleased, recorder.Process)
	svc := NewService(state, WithLogger(zap.NewNop()), WithEventHandler(handler))
	ctx := context.Background()

	// 两个节点轮流占满全部资源；归还事件中的 available 必须包含刚归还的量
	var wg sync.WaitGroup
	for node := 0; node < 2; node++ {
		wg.Add(1)
		go func(node int) {
			defer wg.Done()
			for k := 0; k < 300; k++ {
				_, _ = svc.Request(ctx, node, common.ResourceVector{4})
				_, _ = svc.Release(ctx, node)
			}
		}(node)
	}
	wg.Wait()

	evts := recorder.Events()
	require.Len(t, evts, 600)
	for _, e := range evts {
		assert.True(t, e.Released.LessOrEqual(e.Available),
			"node %d released %s but event reports available %s", e.Node, e.Released, e.Available)
	}
}
