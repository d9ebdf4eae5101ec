package graph

import "reflect"

// Clone returns a deep copy of the graph. The copy shares no mutable
// state with the original, so a snapshot taken at save time is immune
// to edits made while the save is in flight.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes:    make([]Node, len(g.Nodes)),
		Edges:    make([]Edge, len(g.Edges)),
		Viewport: g.Viewport,
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n
		out.Nodes[i].Config = n.Config.clone()
	}
	copy(out.Edges, g.Edges)
	return out
}

func (c NodeConfig) clone() NodeConfig {
	out := c
	if c.ExtractionVariables != nil {
		out.ExtractionVariables = make([]ExtractionVariable, len(c.ExtractionVariables))
		copy(out.ExtractionVariables, c.ExtractionVariables)
	}
	if c.ToolUUIDs != nil {
		out.ToolUUIDs = append([]string(nil), c.ToolUUIDs...)
	}
	if c.DocumentUUIDs != nil {
		out.DocumentUUIDs = append([]string(nil), c.DocumentUUIDs...)
	}
	if c.CustomHeaders != nil {
		out.CustomHeaders = make([]Header, len(c.CustomHeaders))
		copy(out.CustomHeaders, c.CustomHeaders)
	}
	if c.PayloadTemplate != nil {
		out.PayloadTemplate = cloneAnyMap(c.PayloadTemplate)
	}
	if c.RetryConfig != nil {
		rc := *c.RetryConfig
		out.RetryConfig = &rc
	}
	return out
}

func cloneAnyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = cloneAnyMap(vv)
		case []any:
			s := make([]any, len(vv))
			for i, e := range vv {
				if em, ok := e.(map[string]any); ok {
					s[i] = cloneAnyMap(em)
				} else {
					s[i] = e
				}
			}
			out[k] = s
		default:
			out[k] = v
		}
	}
	return out
}

// Equal reports whether two graphs are deeply equal, ignoring the
// distinction between nil and empty node/edge slices.
func (g *Graph) Equal(other *Graph) bool {
	if g == nil || other == nil {
		return g == other
	}
	if len(g.Nodes) != len(other.Nodes) || len(g.Edges) != len(other.Edges) {
		return false
	}
	if g.Viewport != other.Viewport {
		return false
	}
	for i := range g.Nodes {
		if !reflect.DeepEqual(g.Nodes[i], other.Nodes[i]) {
			return false
		}
	}
	for i := range g.Edges {
		if g.Edges[i] != other.Edges[i] {
			return false
		}
	}
	return true
}
