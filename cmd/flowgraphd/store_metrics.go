package main

import (
	"context"
	"time"

	"github.com/looptalk/flowgraph/graph"
	"github.com/looptalk/flowgraph/internal/metrics"
	"github.com/looptalk/flowgraph/store"
)

// =============================================================================
// 📊 存储指标装饰器
// =============================================================================

// measuredStore 包装一个 store.Store，按后端与操作记录耗时直方图。
// collector 为 nil 时只做透传。
type measuredStore struct {
	inner     store.Store
	backend   string
	collector *metrics.Collector
}

// newMeasuredStore 创建存储指标装饰器
func newMeasuredStore(inner store.Store, backend string, collector *metrics.Collector) store.Store {
	if collector == nil {
		return inner
	}
	return &measuredStore{inner: inner, backend: backend, collector: collector}
}

func (m *measuredStore) Fetch(ctx context.Context, workflowID string) (*graph.Graph, error) {
	start := time.Now()
	g, err := m.inner.Fetch(ctx, workflowID)
	m.collector.RecordStoreOperation(m.backend, "fetch", time.Since(start))
	return g, err
}

func (m *measuredStore) Save(ctx context.Context, workflowID string, g *graph.Graph) (*graph.Graph, error) {
	start := time.Now()
	persisted, err := m.inner.Save(ctx, workflowID, g)
	m.collector.RecordStoreOperation(m.backend, "save", time.Since(start))
	return persisted, err
}

func (m *measuredStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := m.inner.Ping(ctx)
	m.collector.RecordStoreOperation(m.backend, "ping", time.Since(start))
	return err
}

func (m *measuredStore) Close() error {
	return m.inner.Close()
}
