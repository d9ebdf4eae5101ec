package graph

import "sort"

// KindSpec describes the schema of one node kind: its structural role
// in the workflow and the configuration fields it requires. Adding a
// new kind means adding one entry to the registry; validation and
// node creation pick it up without further changes.
type KindSpec struct {
	// Kind is the wire tag for this node kind
	Kind NodeKind
	// Label is the human-readable name shown on the canvas
	Label string
	// IsStart marks the unique call entry stage
	IsStart bool
	// IsEnd marks a call-terminating stage
	IsEnd bool
	// IsSingleton limits the workflow to at most one node of this kind
	IsSingleton bool
	// IsAmbient excludes the node from structural edges and reachability
	IsAmbient bool
	// RequiresPrompt requires a non-blank prompt unless the node is static
	RequiresPrompt bool
	// RequiresTriggerPath requires a non-blank inbound route path
	RequiresTriggerPath bool
	// RequiresEndpoint requires an HTTP method and an absolute URL
	RequiresEndpoint bool
	// MinIncoming is the minimum number of incoming edges
	MinIncoming int
	// MaxOutgoing caps outgoing edges; -1 means unlimited
	MaxOutgoing int
	// Defaults seeds the config of a freshly created node
	Defaults func() NodeConfig
}

// registry is the fixed kind table. It is read-only after init.
var registry = map[NodeKind]KindSpec{
	KindStart: {
		Kind:           KindStart,
		Label:          "Start Call",
		IsStart:        true,
		IsSingleton:    true,
		RequiresPrompt: true,
		MaxOutgoing:    -1,
		Defaults: func() NodeConfig {
			return NodeConfig{
				Name:            "Start Call",
				Prompt:          "Greet the caller and ask how you can help.",
				AddGlobalPrompt: true,
			}
		},
	},
	KindAgent: {
		Kind:           KindAgent,
		Label:          "Agent",
		RequiresPrompt: true,
		MinIncoming:    1,
		MaxOutgoing:    -1,
		Defaults: func() NodeConfig {
			return NodeConfig{
				Name:            "Agent",
				AddGlobalPrompt: true,
				AllowInterrupt:  true,
			}
		},
	},
	KindEnd: {
		Kind:           KindEnd,
		Label:          "End Call",
		IsEnd:          true,
		RequiresPrompt: true,
		MinIncoming:    1,
		MaxOutgoing:    0,
		Defaults: func() NodeConfig {
			return NodeConfig{
				Name:   "End Call",
				Prompt: "Thank the caller and say goodbye.",
			}
		},
	},
	KindGlobal: {
		Kind:           KindGlobal,
		Label:          "Global",
		IsSingleton:    true,
		IsAmbient:      true,
		RequiresPrompt: true,
		MaxOutgoing:    0,
		Defaults: func() NodeConfig {
			return NodeConfig{Name: "Global"}
		},
	},
	KindTrigger: {
		Kind:                KindTrigger,
		Label:               "Trigger",
		RequiresTriggerPath: true,
		MaxOutgoing:         -1,
		Defaults: func() NodeConfig {
			return NodeConfig{Name: "Trigger"}
		},
	},
	KindWebhook: {
		Kind:             KindWebhook,
		Label:            "Webhook",
		RequiresEndpoint: true,
		MaxOutgoing:      -1,
		Defaults: func() NodeConfig {
			return NodeConfig{
				Name:       "Webhook",
				Enabled:    true,
				HTTPMethod: "POST",
				RetryConfig: &RetryPolicy{
					Enabled:           false,
					MaxRetries:        3,
					RetryDelaySeconds: 5,
				},
			}
		},
	},
}

// Spec retrieves the schema for a node kind.
func Spec(kind NodeKind) (KindSpec, bool) {
	spec, ok := registry[kind]
	return spec, ok
}

// Kinds returns all registered node kinds in stable order.
func Kinds() []NodeKind {
	out := make([]NodeKind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultConfig returns the seeded config for a kind, or a zero config
// for unknown kinds.
func DefaultConfig(kind NodeKind) NodeConfig {
	if spec, ok := registry[kind]; ok {
		return spec.Defaults()
	}
	return NodeConfig{}
}

// DefaultTemplate returns the "new workflow" starting graph: a start
// stage wired to an end stage. Node ids are fixed so a fresh template
// is deterministic; the persistence layer replaces them on first save.
func DefaultTemplate() *Graph {
	g := NewGraph()
	g.Nodes = []Node{
		{ID: "start", Kind: KindStart, Position: Position{X: 0, Y: 0}, Config: DefaultConfig(KindStart)},
		{ID: "end", Kind: KindEnd, Position: Position{X: 0, Y: 160}, Config: DefaultConfig(KindEnd)},
	}
	g.Edges = []Edge{
		{ID: "start-end", Source: "start", Target: "end", Condition: "the conversation is complete", Label: "done"},
	}
	return g
}
