package workflow

import (
	"context"
	"fmt"
)

// End is the terminal sink label.
const End = "__end__"

// Node is one unit of work. Run mutates and returns the state; failures are
// appended to state.Errors, never returned as Go errors.
type Node interface {
	Name() string
	StepGroup() string
	Run(ctx context.Context, st *State) *State
}

// ChooseFunc picks the label of the next node after a conditional edge.
type ChooseFunc func(st *State) string

// RetryPolicy designates the node pair whose retryable failures loop back:
// when Target records a retryable error, execution returns to Source up to
// Max additional times.
type RetryPolicy struct {
	Source string
	Target string
	Max    int
}

// Graph is a compiled workflow: named nodes, one entry, unconditional and
// conditional edges, and an optional retry policy.
type Graph struct {
	entry       string
	nodes       map[string]Node
	edges       map[string]string
	conditional map[string]ChooseFunc
	retry       *RetryPolicy

	// stepNumbers assigns each node its 1-based display position; steps is
	// the path length used for progress math.
	stepNumbers map[string]int
	steps       int
}

// Builder accumulates graph parts before validation.
type Builder struct {
	graph *Graph
	errs  []error
}

// NewBuilder starts a graph with the given entry node name.
func NewBuilder(entry string) *Builder {
	return &Builder{graph: &Graph{
		entry:       entry,
		nodes:       map[string]Node{},
		edges:       map[string]string{},
		conditional: map[string]ChooseFunc{},
		stepNumbers: map[string]int{},
	}}
}

// AddNode registers a node under its own name.
func (b *Builder) AddNode(n Node) *Builder {
	name := n.Name()
	if _, exists := b.graph.nodes[name]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate node %q", name))
		return b
	}
	b.graph.nodes[name] = n
	return b
}

// AddEdge wires an unconditional edge from → to. to may be End.
func (b *Builder) AddEdge(from, to string) *Builder {
	if _, exists := b.graph.edges[from]; exists {
		b.errs = append(b.errs, fmt.Errorf("node %q already has an edge", from))
		return b
	}
	b.graph.edges[from] = to
	return b
}

// AddConditionalEdge wires a decision function evaluated after from runs.
func (b *Builder) AddConditionalEdge(from string, choose ChooseFunc) *Builder {
	b.graph.conditional[from] = choose
	return b
}

// WithRetry installs the retry policy.
func (b *Builder) WithRetry(source, target string, max int) *Builder {
	b.graph.retry = &RetryPolicy{Source: source, Target: target, Max: max}
	return b
}

// WithSteps assigns display step numbers in path order. Nodes not listed
// get step 0 (hidden from progress math).
func (b *Builder) WithSteps(names ...string) *Builder {
	for i, name := range names {
		b.graph.stepNumbers[name] = i + 1
	}
	b.graph.steps = len(names)
	return b
}

// Compile validates the graph: entry exists, every edge target is a node or
// End, every non-terminal node has an outgoing edge.
func (b *Builder) Compile() (*Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	g := b.graph

	if _, ok := g.nodes[g.entry]; !ok {
		return nil, fmt.Errorf("entry node %q not registered", g.entry)
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("edge source %q not registered", from)
		}
		if to != End {
			if _, ok := g.nodes[to]; !ok {
				return nil, fmt.Errorf("edge target %q not registered", to)
			}
		}
	}
	for name := range g.nodes {
		_, hasEdge := g.edges[name]
		_, hasCond := g.conditional[name]
		if !hasEdge && !hasCond {
			return nil, fmt.Errorf("node %q has no outgoing edge", name)
		}
	}
	if g.retry != nil {
		if _, ok := g.nodes[g.retry.Source]; !ok {
			return nil, fmt.Errorf("retry source %q not registered", g.retry.Source)
		}
		if _, ok := g.nodes[g.retry.Target]; !ok {
			return nil, fmt.Errorf("retry target %q not registered", g.retry.Target)
		}
	}
	if g.steps == 0 {
		g.steps = len(g.nodes)
	}
	return g, nil
}

// next resolves the node following cur. Conditional edges win over
// unconditional ones.
func (g *Graph) next(cur string, st *State) (string, error) {
	if choose, ok := g.conditional[cur]; ok {
		label := choose(st)
		if label == End {
			return End, nil
		}
		if _, ok := g.nodes[label]; !ok {
			return "", fmt.Errorf("conditional edge from %q chose unknown node %q", cur, label)
		}
		return label, nil
	}
	if to, ok := g.edges[cur]; ok {
		return to, nil
	}
	return End, nil
}

// StepNumber returns a node's 1-based display position, honoring a
// state-level override set by an embedding wrapper.
func (g *Graph) StepNumber(name string, st *State) int {
	if st != nil {
		if overrides, ok := st.Metadata["step_numbers"].(map[string]int); ok {
			if n, ok := overrides[name]; ok {
				return n
			}
		}
	}
	return g.stepNumbers[name]
}

// TotalSteps returns the progress denominator for this graph.
func (g *Graph) TotalSteps() int { return g.steps }
