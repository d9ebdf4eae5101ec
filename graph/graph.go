package graph

import "sort"

// NodeKind defines the structural category of a workflow node.
// The values match the persisted wire form used by the call engine.
type NodeKind string

const (
	// KindStart is the entry stage of a call; exactly one per workflow
	KindStart NodeKind = "startCall"
	// KindAgent is a conversational agent turn
	KindAgent NodeKind = "agentNode"
	// KindEnd terminates the call; at least one per workflow
	KindEnd NodeKind = "endCall"
	// KindGlobal is the ambient fallback node; it has no structural edges
	KindGlobal NodeKind = "globalNode"
	// KindTrigger exposes the workflow on an inbound route path
	KindTrigger NodeKind = "trigger"
	// KindWebhook calls an external HTTP endpoint mid-call
	KindWebhook NodeKind = "webhook"
)

// VariableType defines the type of an extraction variable.
type VariableType string

const (
	VarString  VariableType = "string"
	VarNumber  VariableType = "number"
	VarBoolean VariableType = "boolean"
)

// Position represents a node position on the editor canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport represents the canvas pan/zoom state.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// ExtractionVariable is a value the agent extracts from the conversation.
type ExtractionVariable struct {
	Name   string       `json:"name"`
	Type   VariableType `json:"type"`
	Prompt string       `json:"prompt,omitempty"`
}

// Header is a custom HTTP header attached to a webhook call.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RetryPolicy controls webhook retry behavior.
type RetryPolicy struct {
	Enabled           bool `json:"enabled"`
	MaxRetries        int  `json:"max_retries"`
	RetryDelaySeconds int  `json:"retry_delay_seconds"`
}

// NodeConfig contains kind-specific node configuration. Fields not
// relevant to a node's kind are left at their zero value and omitted
// from the persisted form.
type NodeConfig struct {
	Name string `json:"name,omitempty"`

	// Conversational node config (start, agent, end, global)
	Prompt                     string               `json:"prompt,omitempty"`
	IsStatic                   bool                 `json:"is_static,omitempty"`
	AllowInterrupt             bool                 `json:"allow_interrupt,omitempty"`
	AddGlobalPrompt            bool                 `json:"add_global_prompt,omitempty"`
	WaitForUserResponse        bool                 `json:"wait_for_user_response,omitempty"`
	WaitForUserResponseTimeout float64              `json:"wait_for_user_response_timeout,omitempty"`
	DetectVoicemail            bool                 `json:"detect_voicemail,omitempty"`
	DelayedStart               bool                 `json:"delayed_start,omitempty"`
	DelayedStartDuration       float64              `json:"delayed_start_duration,omitempty"`
	ExtractionEnabled          bool                 `json:"extraction_enabled,omitempty"`
	ExtractionPrompt           string               `json:"extraction_prompt,omitempty"`
	ExtractionVariables        []ExtractionVariable `json:"extraction_variables,omitempty"`
	CallTagsEnabled            bool                 `json:"call_tags_enabled,omitempty"`
	CallTagsPrompt             string               `json:"call_tags_prompt,omitempty"`
	ToolUUIDs                  []string             `json:"tool_uuids,omitempty"`
	DocumentUUIDs              []string             `json:"document_uuids,omitempty"`

	// Trigger node config
	TriggerPath string `json:"trigger_path,omitempty"`

	// Webhook node config
	Enabled         bool           `json:"enabled,omitempty"`
	HTTPMethod      string         `json:"http_method,omitempty"`
	URL             string         `json:"url,omitempty"`
	CredentialUUID  string         `json:"credential_uuid,omitempty"`
	CustomHeaders   []Header       `json:"custom_headers,omitempty"`
	PayloadTemplate map[string]any `json:"payload_template,omitempty"`
	RetryConfig     *RetryPolicy   `json:"retry_config,omitempty"`
}

// Node represents a single call stage on the canvas.
type Node struct {
	ID       string     `json:"id"`
	Kind     NodeKind   `json:"kind"`
	Position Position   `json:"position"`
	Config   NodeConfig `json:"config"`
}

// Edge represents a transition between two stages. Condition is the
// natural-language condition the call engine evaluates to follow it.
type Edge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Condition string `json:"condition"`
	Label     string `json:"label"`
}

// Graph is the full workflow definition and the unit of persistence.
type Graph struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Viewport Viewport `json:"viewport"`
}

// NewGraph creates an empty graph with a neutral viewport.
func NewGraph() *Graph {
	return &Graph{
		Nodes:    []Node{},
		Edges:    []Edge{},
		Viewport: Viewport{Zoom: 1},
	}
}

// NodeByID retrieves a node by its id.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// EdgeByID retrieves an edge by its id.
func (g *Graph) EdgeByID(id string) (*Edge, bool) {
	for i := range g.Edges {
		if g.Edges[i].ID == id {
			return &g.Edges[i], true
		}
	}
	return nil, false
}

// OutEdges returns the edges leaving the given node, sorted by edge id.
func (g *Graph) OutEdges(nodeID string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == nodeID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InDegree returns the number of edges entering the given node.
func (g *Graph) InDegree(nodeID string) int {
	n := 0
	for _, e := range g.Edges {
		if e.Target == nodeID {
			n++
		}
	}
	return n
}

// OutDegree returns the number of edges leaving the given node.
func (g *Graph) OutDegree(nodeID string) int {
	n := 0
	for _, e := range g.Edges {
		if e.Source == nodeID {
			n++
		}
	}
	return n
}

// NodesOfKind returns the nodes of the given kind in declaration order.
func (g *Graph) NodesOfKind(kind NodeKind) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// StartNode returns the start node if the graph has exactly one.
func (g *Graph) StartNode() (*Node, bool) {
	starts := g.NodesOfKind(KindStart)
	if len(starts) != 1 {
		return nil, false
	}
	return &starts[0], true
}

// nodeIDSet returns the set of node ids present in the graph.
func (g *Graph) nodeIDSet() map[string]bool {
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	return ids
}
