package graph

import "sort"

// LayoutConfig holds the fixed spacing constants of the layered
// layout. Spacing is configuration, not computed per call.
type LayoutConfig struct {
	// OriginX, OriginY anchor the center of the first layer
	OriginX float64
	OriginY float64
	// LayerGapY is the vertical distance between layers
	LayerGapY float64
	// NodeGapX is the horizontal distance between siblings in a layer
	NodeGapX float64
	// AmbientGapX offsets the ambient column left of the origin
	AmbientGapX float64
}

// DefaultLayoutConfig returns the canvas spacing used by the editor.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		OriginX:     0,
		OriginY:     0,
		LayerGapY:   160,
		NodeGapX:    280,
		AmbientGapX: 360,
	}
}

// Layout arranges the graph top to bottom in layers by longest-path
// distance from the start node, using the default spacing. See
// LayoutWithConfig.
func Layout(g *Graph) *Graph {
	return LayoutWithConfig(g, DefaultLayoutConfig())
}

// LayoutWithConfig returns a copy of the graph with every node
// assigned a new position:
//
//   - reachable nodes sit in horizontal layers by longest-path
//     distance from the start node, siblings spread around the origin
//     and ordered by node id;
//   - nodes unreachable from start land in an overflow layer below all
//     reachable layers instead of failing the layout;
//   - ambient nodes (global fallback) are pinned in a column left of
//     the origin.
//
// The result depends only on graph structure, so identical input
// yields identical positions and the layout is idempotent on its own
// output. Node and edge identity and config are never modified.
func LayoutWithConfig(g *Graph, cfg LayoutConfig) *Graph {
	out := g.Clone()
	if len(out.Nodes) == 0 {
		return out
	}

	ambient := make(map[string]bool)
	for _, n := range out.Nodes {
		if spec, ok := Spec(n.Kind); ok && spec.IsAmbient {
			ambient[n.ID] = true
		}
	}

	layers := assignLayers(out, ambient)

	// Group nodes by layer; unplaced non-ambient nodes overflow below.
	maxLayer := -1
	for _, layer := range layers {
		if layer > maxLayer {
			maxLayer = layer
		}
	}
	overflow := maxLayer + 1

	byLayer := make(map[int][]string)
	var ambientIDs []string
	for _, n := range out.Nodes {
		if ambient[n.ID] {
			ambientIDs = append(ambientIDs, n.ID)
			continue
		}
		layer, placed := layers[n.ID]
		if !placed {
			layer = overflow
		}
		byLayer[layer] = append(byLayer[layer], n.ID)
	}

	positions := make(map[string]Position, len(out.Nodes))
	for layer, ids := range byLayer {
		sort.Strings(ids)
		for i, id := range ids {
			positions[id] = Position{
				X: cfg.OriginX + (float64(i)-float64(len(ids)-1)/2)*cfg.NodeGapX,
				Y: cfg.OriginY + float64(layer)*cfg.LayerGapY,
			}
		}
	}

	sort.Strings(ambientIDs)
	for i, id := range ambientIDs {
		positions[id] = Position{
			X: cfg.OriginX - cfg.AmbientGapX,
			Y: cfg.OriginY + float64(i)*cfg.LayerGapY,
		}
	}

	for i := range out.Nodes {
		out.Nodes[i].Position = positions[out.Nodes[i].ID]
	}
	return out
}

// assignLayers computes the longest-path layer of every node reachable
// from the start node. Edges touching ambient nodes or missing
// endpoints are ignored, and back edges that would close a cycle are
// skipped so authored loops cannot stall the layout.
func assignLayers(g *Graph, ambient map[string]bool) map[string]int {
	start, ok := g.StartNode()
	if !ok {
		return nil
	}

	ids := g.nodeIDSet()
	adj := make(map[string][]string)
	for _, e := range g.Edges {
		if !ids[e.Source] || !ids[e.Target] || ambient[e.Source] || ambient[e.Target] {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	for _, targets := range adj {
		sort.Strings(targets)
	}

	layers := map[string]int{start.ID: 0}
	onStack := make(map[string]bool)

	var visit func(id string)
	visit = func(id string) {
		onStack[id] = true
		for _, next := range adj[id] {
			if onStack[next] {
				continue
			}
			if depth := layers[id] + 1; depth > layers[next] {
				layers[next] = depth
				visit(next)
			}
		}
		onStack[id] = false
	}
	visit(start.ID)

	return layers
}
