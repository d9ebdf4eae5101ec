package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_AddNode(t *testing.T) {
	m := NewModel(nil)

	node := m.AddNode(KindAgent, Position{X: 10, Y: 20})
	require.NotNil(t, node)
	assert.NotEmpty(t, node.ID)
	assert.Equal(t, KindAgent, node.Kind)
	assert.Equal(t, Position{X: 10, Y: 20}, node.Position)
	assert.Equal(t, "Agent", node.Config.Name)
	assert.True(t, node.Config.AddGlobalPrompt)

	got, ok := m.Graph().NodeByID(node.ID)
	require.True(t, ok)
	assert.Equal(t, node.ID, got.ID)
}

func TestModel_AddNode_UnknownKind(t *testing.T) {
	m := NewModel(nil)
	assert.Nil(t, m.AddNode(NodeKind("bogus"), Position{}))
	assert.Empty(t, m.Graph().Nodes)
}

func TestModel_ChangeHook(t *testing.T) {
	changes := 0
	m := NewModel(nil, WithChangeHook(func() { changes++ }))

	n := m.AddNode(KindAgent, Position{})
	require.NotNil(t, n)
	assert.Equal(t, 1, changes)

	// No-op mutations must not fire the hook.
	m.DeleteNode("missing")
	m.Disconnect("missing")
	m.MoveNode("missing", Position{X: 1})
	assert.Equal(t, 1, changes)

	m.MoveNode(n.ID, Position{X: 5, Y: 5})
	assert.Equal(t, 2, changes)

	m.SetViewport(Viewport{Zoom: 2})
	assert.Equal(t, 3, changes)

	// Setting the identical viewport again is a no-op.
	m.SetViewport(Viewport{Zoom: 2})
	assert.Equal(t, 3, changes)
}

func TestModel_DeleteNode_CascadesEdges(t *testing.T) {
	m := NewModel(nil)
	a := m.AddNode(KindStart, Position{})
	b := m.AddNode(KindAgent, Position{})
	c := m.AddNode(KindEnd, Position{})

	require.NotNil(t, m.Connect(a.ID, b.ID, "caller wants support"))
	require.NotNil(t, m.Connect(b.ID, c.ID, "issue resolved"))
	keep := m.Connect(a.ID, c.ID, "caller hangs up")
	require.NotNil(t, keep)
	require.Len(t, m.Graph().Edges, 3)

	require.True(t, m.DeleteNode(b.ID))

	g := m.Graph()
	assert.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, keep.ID, g.Edges[0].ID)

	for _, e := range g.Edges {
		_, srcOK := g.NodeByID(e.Source)
		_, dstOK := g.NodeByID(e.Target)
		assert.True(t, srcOK, "edge %s has dangling source", e.ID)
		assert.True(t, dstOK, "edge %s has dangling target", e.ID)
	}
}

func TestModel_AddThenDeleteRoundTrip(t *testing.T) {
	m := NewModel(DefaultTemplate())
	before := m.Graph().Clone()

	n := m.AddNode(KindAgent, Position{X: 40, Y: 80})
	require.NotNil(t, n)
	require.NotNil(t, m.Connect("start", n.ID, "caller needs help"))
	require.False(t, before.Equal(m.Graph()))

	require.True(t, m.DeleteNode(n.ID))
	assert.True(t, before.Equal(m.Graph()))
}

func TestModel_Connect_Preconditions(t *testing.T) {
	m := NewModel(nil)
	a := m.AddNode(KindStart, Position{})
	b := m.AddNode(KindEnd, Position{})

	t.Run("self loop rejected", func(t *testing.T) {
		assert.Nil(t, m.Connect(a.ID, a.ID, "loop"))
	})

	t.Run("unknown endpoints rejected", func(t *testing.T) {
		assert.Nil(t, m.Connect(a.ID, "ghost", "x"))
		assert.Nil(t, m.Connect("ghost", b.ID, "x"))
	})

	t.Run("duplicate with identical condition rejected", func(t *testing.T) {
		first := m.Connect(a.ID, b.ID, "always")
		require.NotNil(t, first)
		assert.Nil(t, m.Connect(a.ID, b.ID, "always"))
		// A different condition between the same pair is a distinct transition.
		assert.NotNil(t, m.Connect(a.ID, b.ID, "caller is silent"))
	})
}

func TestModel_Connect_LabelDefaultsToCondition(t *testing.T) {
	m := NewModel(nil)
	a := m.AddNode(KindStart, Position{})
	b := m.AddNode(KindEnd, Position{})

	e := m.Connect(a.ID, b.ID, "call finished")
	require.NotNil(t, e)
	assert.Equal(t, "call finished", e.Label)
	assert.Equal(t, "call finished", e.Condition)
}

func TestModel_UpdateNodeConfig(t *testing.T) {
	m := NewModel(nil)
	n := m.AddNode(KindAgent, Position{})

	ok := m.UpdateNodeConfig(n.ID, func(c *NodeConfig) {
		c.Prompt = "Ask for the account number."
		c.ExtractionEnabled = true
		c.ExtractionVariables = []ExtractionVariable{{Name: "account", Type: VarString}}
	})
	require.True(t, ok)

	got, _ := m.Graph().NodeByID(n.ID)
	assert.Equal(t, "Ask for the account number.", got.Config.Prompt)
	assert.True(t, got.Config.ExtractionEnabled)

	assert.False(t, m.UpdateNodeConfig("missing", func(c *NodeConfig) {}))
	assert.False(t, m.UpdateNodeConfig(n.ID, nil))
}

func TestModel_Disconnect(t *testing.T) {
	m := NewModel(nil)
	a := m.AddNode(KindStart, Position{})
	b := m.AddNode(KindEnd, Position{})
	e := m.Connect(a.ID, b.ID, "done")
	require.NotNil(t, e)

	assert.True(t, m.Disconnect(e.ID))
	assert.Empty(t, m.Graph().Edges)
	assert.False(t, m.Disconnect(e.ID))
}

func TestGraph_Clone_Isolation(t *testing.T) {
	m := NewModel(nil)
	n := m.AddNode(KindWebhook, Position{})
	m.UpdateNodeConfig(n.ID, func(c *NodeConfig) {
		c.URL = "https://api.example.com/hook"
		c.CustomHeaders = []Header{{Key: "X-Token", Value: "abc"}}
		c.PayloadTemplate = map[string]any{"call": map[string]any{"id": "{{call_id}}"}}
	})

	snapshot := m.Graph().Clone()
	m.UpdateNodeConfig(n.ID, func(c *NodeConfig) {
		c.CustomHeaders[0].Value = "changed"
		c.PayloadTemplate["call"].(map[string]any)["id"] = "changed"
		c.URL = "https://changed.example.com"
	})

	snapNode, ok := snapshot.NodeByID(n.ID)
	require.True(t, ok)
	assert.Equal(t, "abc", snapNode.Config.CustomHeaders[0].Value)
	assert.Equal(t, "{{call_id}}", snapNode.Config.PayloadTemplate["call"].(map[string]any)["id"])
	assert.Equal(t, "https://api.example.com/hook", snapNode.Config.URL)
}

func TestGraph_Equal(t *testing.T) {
	g1 := DefaultTemplate()
	g2 := DefaultTemplate()
	assert.True(t, g1.Equal(g2))

	g2.Nodes[0].Config.Prompt = "different"
	assert.False(t, g1.Equal(g2))

	// nil vs empty slices do not differ
	a := &Graph{Viewport: Viewport{Zoom: 1}}
	b := NewGraph()
	assert.True(t, a.Equal(b))
}
