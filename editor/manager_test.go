package editor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looptalk/flowgraph/graph"
)

func TestManager_Get(t *testing.T) {
	store := newFakeStore()
	store.graphs["wf-1"] = graph.DefaultTemplate()
	m := NewManager(store, nil)

	s1, err := m.Get(context.Background(), "wf-1")
	require.NoError(t, err)
	s2, err := m.Get(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Same(t, s1, s2, "one session per workflow id")

	_, err = m.Get(context.Background(), "missing")
	assert.Error(t, err)
}

func TestManager_Get_Concurrent(t *testing.T) {
	store := newFakeStore()
	store.graphs["wf-1"] = graph.DefaultTemplate()
	m := NewManager(store, nil)

	sessions := make([]*Session, 8)
	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Get(context.Background(), "wf-1")
			require.NoError(t, err)
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range sessions[1:] {
		assert.Same(t, sessions[0], s)
	}
}

func TestManager_Create(t *testing.T) {
	m := NewManager(newFakeStore(), nil)

	s := m.Create("wf-new")
	assert.Equal(t, StateDirty, s.State())
	assert.Same(t, s, m.Create("wf-new"), "create on an open id returns the open session")
	got, err := m.Get(context.Background(), "wf-new")
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestManager_Close(t *testing.T) {
	store := newFakeStore()
	store.graphs["wf-1"] = graph.DefaultTemplate()
	m := NewManager(store, nil)

	s1, err := m.Get(context.Background(), "wf-1")
	require.NoError(t, err)

	m.Close("wf-1")
	// Closing an unopened id is harmless.
	m.Close("never-opened")

	s2, err := m.Get(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.NotSame(t, s1, s2, "close must drop the session")
}

func TestManager_Count(t *testing.T) {
	store := newFakeStore()
	store.graphs["wf-1"] = graph.DefaultTemplate()

	m := NewManager(store, nil)
	assert.Zero(t, m.Count())

	m.Create("wf-new")
	_, err := m.Get(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Count())

	m.Close("wf-new")
	assert.Equal(t, 1, m.Count())
}

func TestManager_SessionOptionsPropagate(t *testing.T) {
	store := newFakeStore()
	store.graphs["wf-1"] = graph.DefaultTemplate()

	v := graph.NewValidator(graph.WithPromptTokenBudget(countEveryCall{}, 1))
	m := NewManager(store, nil, WithValidator(v))

	s, err := m.Get(context.Background(), "wf-1")
	require.NoError(t, err)

	violations := s.Violations()
	require.NotEmpty(t, violations)
	assert.Equal(t, graph.SeverityWarning, violations[0].Severity)
}

// countEveryCall reports every prompt as over any positive budget.
type countEveryCall struct{}

func (countEveryCall) Count(string) int { return 1 << 20 }
