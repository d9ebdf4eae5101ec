package graph

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Scope identifies what a violation is attached to.
type Scope string

const (
	ScopeWorkflow Scope = "workflow"
	ScopeNode     Scope = "node"
	ScopeEdge     Scope = "edge"
)

// Severity classifies a violation. Errors block the run action;
// warnings are advisory and never block anything.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation is a report of one validation failure. Validation never
// raises; an invalid graph stays editable and saveable, and only the
// run action is gated on error-severity violations.
type Violation struct {
	Scope    Scope    `json:"scope"`
	TargetID string   `json:"target_id,omitempty"`
	Field    string   `json:"field,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// TokenCounter counts tokens in prompt text for the prompt-budget
// advisory. Implementations must be safe for concurrent use.
type TokenCounter interface {
	Count(text string) int
}

// allowedMethods is the HTTP method set accepted on webhook nodes.
var allowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// Validator computes the full violation list for a graph. Validate is
// a pure function: it has no side effects and identical input yields
// an identical, identically ordered violation list.
type Validator struct {
	tokens      TokenCounter
	tokenBudget int
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithPromptTokenBudget enables the prompt token-budget advisory:
// prompts counted above budget are flagged with a warning violation.
func WithPromptTokenBudget(counter TokenCounter, budget int) ValidatorOption {
	return func(v *Validator) {
		v.tokens = counter
		v.tokenBudget = budget
	}
}

// NewValidator creates a validator.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns every violation in the graph, ordered workflow
// scope first, then node scope by node id ascending, then edge scope
// by edge id ascending.
func (v *Validator) Validate(g *Graph) []Violation {
	out := v.validateWorkflow(g)
	out = append(out, v.validateNodes(g)...)
	out = append(out, v.validateEdges(g)...)
	return out
}

// IsRunnable reports whether the run action is allowed: the graph must
// be persisted (not dirty) and free of error-severity violations.
func IsRunnable(violations []Violation, dirty bool) bool {
	if dirty {
		return false
	}
	for _, viol := range violations {
		if viol.Severity == SeverityError {
			return false
		}
	}
	return true
}

func workflowViolation(targetID, message string) Violation {
	return Violation{Scope: ScopeWorkflow, TargetID: targetID, Severity: SeverityError, Message: message}
}

func nodeViolation(nodeID, field, message string) Violation {
	return Violation{Scope: ScopeNode, TargetID: nodeID, Field: field, Severity: SeverityError, Message: message}
}

func (v *Validator) validateWorkflow(g *Graph) []Violation {
	var out []Violation

	seen := make(map[string]int)
	for _, n := range g.Nodes {
		seen[n.ID]++
	}
	var dups []string
	for id, count := range seen {
		if count > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	for _, id := range dups {
		out = append(out, workflowViolation(id, fmt.Sprintf("duplicate node id: %s", id)))
	}

	switch starts := len(g.NodesOfKind(KindStart)); {
	case starts == 0:
		out = append(out, workflowViolation("", "no start node"))
	case starts > 1:
		out = append(out, workflowViolation("", "multiple start nodes"))
	}

	if len(g.NodesOfKind(KindEnd)) == 0 {
		out = append(out, workflowViolation("", "no end node"))
	}

	if len(g.NodesOfKind(KindGlobal)) > 1 {
		out = append(out, workflowViolation("", "multiple global nodes"))
	}

	return out
}

// reachable computes the node ids reachable from the start node by a
// breadth-first traversal over edges. It returns nil when the graph
// does not have exactly one start node.
func reachable(g *Graph) map[string]bool {
	start, ok := g.StartNode()
	if !ok {
		return nil
	}
	ids := g.nodeIDSet()
	visited := map[string]bool{start.ID: true}
	queue := []string{start.ID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range g.Edges {
			if e.Source != cur || visited[e.Target] || !ids[e.Target] {
				continue
			}
			visited[e.Target] = true
			queue = append(queue, e.Target)
		}
	}
	return visited
}

func (v *Validator) validateNodes(g *Graph) []Violation {
	visited := reachable(g)

	nodes := make([]Node, len(g.Nodes))
	copy(nodes, g.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	var out []Violation
	for _, n := range nodes {
		out = append(out, v.validateNode(g, n, visited)...)
	}
	return out
}

func (v *Validator) validateNode(g *Graph, n Node, visited map[string]bool) []Violation {
	spec, known := Spec(n.Kind)
	if !known {
		return []Violation{nodeViolation(n.ID, "kind", fmt.Sprintf("unknown node kind: %s", n.Kind))}
	}

	var out []Violation

	// Structural per-node rules. Ambient nodes sit outside the edge
	// structure entirely, so they skip reachability and degree checks.
	if spec.IsAmbient {
		if g.InDegree(n.ID) > 0 || g.OutDegree(n.ID) > 0 {
			out = append(out, nodeViolation(n.ID, "", fmt.Sprintf("%s node cannot have structural edges", spec.Label)))
		}
	} else {
		if visited != nil && !spec.IsStart && !visited[n.ID] {
			out = append(out, nodeViolation(n.ID, "", "node is not reachable from the start node"))
		}
		if in := g.InDegree(n.ID); in < spec.MinIncoming {
			out = append(out, nodeViolation(n.ID, "", fmt.Sprintf("%s node must have at least %d incoming edge(s)", spec.Label, spec.MinIncoming)))
		}
		if spec.MaxOutgoing == 0 && g.OutDegree(n.ID) > 0 {
			out = append(out, nodeViolation(n.ID, "", fmt.Sprintf("%s node must not have outgoing edges", spec.Label)))
		}
	}

	// Field rules, registry-driven.
	if strings.TrimSpace(n.Config.Name) == "" {
		out = append(out, nodeViolation(n.ID, "name", "name is required"))
	}

	if spec.RequiresPrompt && !n.Config.IsStatic && strings.TrimSpace(n.Config.Prompt) == "" {
		out = append(out, nodeViolation(n.ID, "prompt", "prompt is required"))
	} else if v.tokens != nil && v.tokenBudget > 0 && strings.TrimSpace(n.Config.Prompt) != "" {
		if count := v.tokens.Count(n.Config.Prompt); count > v.tokenBudget {
			out = append(out, Violation{
				Scope:    ScopeNode,
				TargetID: n.ID,
				Field:    "prompt",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("prompt is %d tokens, above the budget of %d", count, v.tokenBudget),
			})
		}
	}

	if n.Config.ExtractionEnabled {
		for i, ev := range n.Config.ExtractionVariables {
			if strings.TrimSpace(ev.Name) == "" {
				out = append(out, nodeViolation(n.ID,
					fmt.Sprintf("extraction_variables[%d].name", i),
					"extraction variable name is required"))
			}
			switch ev.Type {
			case VarString, VarNumber, VarBoolean:
			default:
				out = append(out, nodeViolation(n.ID,
					fmt.Sprintf("extraction_variables[%d].type", i),
					fmt.Sprintf("extraction variable type must be one of string, number, boolean; got %q", ev.Type)))
			}
		}
	}

	if spec.RequiresTriggerPath && strings.TrimSpace(n.Config.TriggerPath) == "" {
		out = append(out, nodeViolation(n.ID, "trigger_path", "trigger path is required"))
	}

	if spec.RequiresEndpoint {
		out = append(out, v.validateEndpoint(n)...)
	}

	return out
}

func (v *Validator) validateEndpoint(n Node) []Violation {
	var out []Violation

	method := strings.ToUpper(strings.TrimSpace(n.Config.HTTPMethod))
	if method == "" {
		out = append(out, nodeViolation(n.ID, "http_method", "HTTP method is required"))
	} else if !allowedMethods[method] {
		out = append(out, nodeViolation(n.ID, "http_method", fmt.Sprintf("unsupported HTTP method: %s", n.Config.HTTPMethod)))
	}

	raw := strings.TrimSpace(n.Config.URL)
	if raw == "" {
		out = append(out, nodeViolation(n.ID, "url", "endpoint URL is required"))
	} else if !isAbsoluteURL(raw) {
		out = append(out, nodeViolation(n.ID, "url", fmt.Sprintf("endpoint URL must be a valid absolute URL: %s", raw)))
	}

	for i, h := range n.Config.CustomHeaders {
		if strings.TrimSpace(h.Key) == "" {
			out = append(out, nodeViolation(n.ID,
				fmt.Sprintf("custom_headers[%d].key", i),
				"header name is required"))
		}
	}

	if rc := n.Config.RetryConfig; rc != nil && rc.Enabled {
		if rc.MaxRetries < 0 {
			out = append(out, nodeViolation(n.ID, "retry_config.max_retries", "max retries cannot be negative"))
		}
		if rc.RetryDelaySeconds < 0 {
			out = append(out, nodeViolation(n.ID, "retry_config.retry_delay_seconds", "retry delay cannot be negative"))
		}
	}

	return out
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (v *Validator) validateEdges(g *Graph) []Violation {
	ids := g.nodeIDSet()
	outDeg := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		outDeg[e.Source]++
	}

	edges := make([]Edge, len(g.Edges))
	copy(edges, g.Edges)
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })

	var out []Violation
	for _, e := range edges {
		if !ids[e.Source] {
			out = append(out, Violation{
				Scope: ScopeEdge, TargetID: e.ID, Field: "source",
				Severity: SeverityError,
				Message:  fmt.Sprintf("edge references missing source node: %s", e.Source),
			})
		}
		if !ids[e.Target] {
			out = append(out, Violation{
				Scope: ScopeEdge, TargetID: e.ID, Field: "target",
				Severity: SeverityError,
				Message:  fmt.Sprintf("edge references missing target node: %s", e.Target),
			})
		}
		// Unconditioned branching is ambiguous for the call engine when
		// the source has more than one way out. Advisory only.
		if strings.TrimSpace(e.Condition) == "" && outDeg[e.Source] > 1 {
			out = append(out, Violation{
				Scope: ScopeEdge, TargetID: e.ID, Field: "condition",
				Severity: SeverityWarning,
				Message:  "transition condition should not be empty when the source node has multiple outgoing edges",
			})
		}
	}
	return out
}
