package main

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/looptalk/flowgraph/graph"
	"github.com/looptalk/flowgraph/internal/metrics"
	"github.com/looptalk/flowgraph/store"
)

func TestMeasuredStore_RecordsOperations(t *testing.T) {
	inner := store.NewMemoryStore()
	t.Cleanup(func() { _ = inner.Close() })

	collector := metrics.NewCollector("flowgraphd_store_test", zap.NewNop())
	st := newMeasuredStore(inner, "memory", collector)

	ctx := context.Background()
	persisted, err := st.Save(ctx, "wf-1", graph.DefaultTemplate())
	require.NoError(t, err)
	require.NotNil(t, persisted)

	fetched, err := st.Fetch(ctx, "wf-1")
	require.NoError(t, err)
	assert.Len(t, fetched.Nodes, 2)

	require.NoError(t, st.Ping(ctx))

	// save / fetch / ping 三个操作各自出现在直方图里
	count, err := testutil.GatherAndCount(prometheus.DefaultGatherer,
		"flowgraphd_store_test_store_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMeasuredStore_ErrorsPassThrough(t *testing.T) {
	inner := store.NewMemoryStore()
	t.Cleanup(func() { _ = inner.Close() })

	collector := metrics.NewCollector("flowgraphd_store_err_test", zap.NewNop())
	st := newMeasuredStore(inner, "memory", collector)

	_, err := st.Fetch(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNewMeasuredStore_NilCollector(t *testing.T) {
	inner := store.NewMemoryStore()
	t.Cleanup(func() { _ = inner.Close() })

	// collector 为 nil 时不包装
	assert.Equal(t, store.Store(inner), newMeasuredStore(inner, "memory", nil))
}
