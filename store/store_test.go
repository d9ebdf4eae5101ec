package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looptalk/flowgraph/graph"
)

// runStoreContract exercises the behavior every backend must share.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("fetch missing", func(t *testing.T) {
		_, err := s.Fetch(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save and fetch round trip", func(t *testing.T) {
		in := graph.DefaultTemplate()
		in.Nodes[0].Config.Prompt = "Welcome to support."

		echoed, err := s.Save(ctx, "wf-1", in)
		require.NoError(t, err)
		require.NotNil(t, echoed)

		got, err := s.Fetch(ctx, "wf-1")
		require.NoError(t, err)
		assert.True(t, echoed.Equal(got))
		assert.Equal(t, "Welcome to support.", got.Nodes[0].Config.Prompt)
	})

	t.Run("save assigns uuids to placeholder ids", func(t *testing.T) {
		echoed, err := s.Save(ctx, "wf-ids", graph.DefaultTemplate())
		require.NoError(t, err)

		ids := make(map[string]bool)
		for _, n := range echoed.Nodes {
			_, parseErr := uuid.Parse(n.ID)
			assert.NoError(t, parseErr, "node id %q is not a uuid", n.ID)
			ids[n.ID] = true
		}
		for _, e := range echoed.Edges {
			_, parseErr := uuid.Parse(e.ID)
			assert.NoError(t, parseErr, "edge id %q is not a uuid", e.ID)
			assert.True(t, ids[e.Source], "edge source not remapped")
			assert.True(t, ids[e.Target], "edge target not remapped")
		}
	})

	t.Run("save preserves server-assigned ids", func(t *testing.T) {
		first, err := s.Save(ctx, "wf-stable", graph.DefaultTemplate())
		require.NoError(t, err)
		second, err := s.Save(ctx, "wf-stable", first)
		require.NoError(t, err)
		assert.True(t, first.Equal(second))
	})

	t.Run("save replaces wholesale", func(t *testing.T) {
		_, err := s.Save(ctx, "wf-replace", graph.DefaultTemplate())
		require.NoError(t, err)

		small := graph.NewGraph()
		echoed, err := s.Save(ctx, "wf-replace", small)
		require.NoError(t, err)
		assert.Empty(t, echoed.Nodes)

		got, err := s.Fetch(ctx, "wf-replace")
		require.NoError(t, err)
		assert.Empty(t, got.Nodes)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := s.Save(ctx, "", graph.DefaultTemplate())
		assert.Error(t, err)
		_, err = s.Save(ctx, "wf-x", nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	runStoreContract(t, s)

	t.Run("fetch returns isolated copies", func(t *testing.T) {
		ctx := context.Background()
		_, err := s.Save(ctx, "wf-iso", graph.DefaultTemplate())
		require.NoError(t, err)

		a, err := s.Fetch(ctx, "wf-iso")
		require.NoError(t, err)
		a.Nodes[0].Config.Prompt = "mutated"

		b, err := s.Fetch(ctx, "wf-iso")
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", b.Nodes[0].Config.Prompt)
	})

	t.Run("closed store rejects everything", func(t *testing.T) {
		closed := NewMemoryStore()
		require.NoError(t, closed.Close())
		_, err := closed.Fetch(context.Background(), "x")
		assert.ErrorIs(t, err, ErrStoreClosed)
		_, err = closed.Save(context.Background(), "x", graph.NewGraph())
		assert.ErrorIs(t, err, ErrStoreClosed)
		assert.ErrorIs(t, closed.Ping(context.Background()), ErrStoreClosed)
	})
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	runStoreContract(t, s)

	t.Run("rejects empty base dir", func(t *testing.T) {
		_, err := NewFileStore("")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("rejects path traversal ids", func(t *testing.T) {
		ctx := context.Background()
		for _, id := range []string{"../escape", "a/b", `a\b`, ".."} {
			_, err := s.Fetch(ctx, id)
			assert.ErrorIs(t, err, ErrInvalidInput, "id %q", id)
			_, err = s.Save(ctx, id, graph.NewGraph())
			assert.ErrorIs(t, err, ErrInvalidInput, "id %q", id)
		}
	})

	t.Run("survives reopen", func(t *testing.T) {
		dir := t.TempDir()
		first, err := NewFileStore(dir)
		require.NoError(t, err)
		echoed, err := first.Save(context.Background(), "wf-1", graph.DefaultTemplate())
		require.NoError(t, err)
		require.NoError(t, first.Close())

		second, err := NewFileStore(dir)
		require.NoError(t, err)
		got, err := second.Fetch(context.Background(), "wf-1")
		require.NoError(t, err)
		assert.True(t, echoed.Equal(got))
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		dir := t.TempDir()
		fs, err := NewFileStore(dir)
		require.NoError(t, err)
		_, err = fs.Save(context.Background(), "wf-1", graph.DefaultTemplate())
		require.NoError(t, err)

		leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, "test:", nil)
	t.Cleanup(func() { _ = s.Close() })

	runStoreContract(t, s)

	t.Run("keys carry the prefix", func(t *testing.T) {
		_, err := s.Save(context.Background(), "wf-key", graph.DefaultTemplate())
		require.NoError(t, err)
		assert.True(t, mr.Exists("test:workflow:wf-key"))
	})

	t.Run("server down maps to transient", func(t *testing.T) {
		mr.Close()
		_, err := s.Fetch(context.Background(), "wf-key")
		assert.ErrorIs(t, err, ErrTransient)
		assert.ErrorIs(t, s.Ping(context.Background()), ErrTransient)
	})
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "flowgraph.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	runStoreContract(t, s)

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := NewSQLiteStore(SQLiteConfig{}, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reopen.db")
		first, err := NewSQLiteStore(SQLiteConfig{Path: path}, nil)
		require.NoError(t, err)
		echoed, err := first.Save(context.Background(), "wf-1", graph.DefaultTemplate())
		require.NoError(t, err)
		require.NoError(t, first.Close())

		second, err := NewSQLiteStore(SQLiteConfig{Path: path}, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = second.Close() })
		got, err := second.Fetch(context.Background(), "wf-1")
		require.NoError(t, err)
		assert.True(t, echoed.Equal(got))
	})
}

func TestNew_Factory(t *testing.T) {
	ctx := context.Background()

	t.Run("memory by default", func(t *testing.T) {
		s, err := New(ctx, Config{}, nil)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("file", func(t *testing.T) {
		s, err := New(ctx, Config{Type: TypeFile, BaseDir: t.TempDir()}, nil)
		require.NoError(t, err)
		assert.IsType(t, &FileStore{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := Config{Type: TypeSQLite, SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "f.db")}}
		s, err := New(ctx, cfg, nil)
		require.NoError(t, err)
		assert.IsType(t, &SQLiteStore{}, s)
		require.NoError(t, s.Close())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := New(ctx, Config{Type: Type("cassandra")}, nil)
		assert.Error(t, err)
	})
}

func TestNormalize(t *testing.T) {
	t.Run("keeps uuid ids", func(t *testing.T) {
		nodeID := uuid.New().String()
		g := &graph.Graph{Nodes: []graph.Node{{ID: nodeID, Kind: graph.KindStart}}}
		out := normalize(g)
		assert.Equal(t, nodeID, out.Nodes[0].ID)
	})

	t.Run("remaps edge endpoints with node ids", func(t *testing.T) {
		g := graph.DefaultTemplate()
		out := normalize(g)

		require.Len(t, out.Edges, 1)
		assert.Equal(t, out.Nodes[0].ID, out.Edges[0].Source)
		assert.Equal(t, out.Nodes[1].ID, out.Edges[0].Target)
		assert.NotEqual(t, "start-end", out.Edges[0].ID)

		// Input graph untouched.
		assert.Equal(t, "start", g.Nodes[0].ID)
	})

	t.Run("condition and config survive", func(t *testing.T) {
		g := graph.DefaultTemplate()
		out := normalize(g)
		assert.Equal(t, g.Edges[0].Condition, out.Edges[0].Condition)
		assert.Equal(t, g.Nodes[0].Config, out.Nodes[0].Config)
	})
}
