// Package workflow implements the flow graph and branch scheduler (spec
// §4.6, §4.7): the barrier-synchronized, branch-parallel pipeline that
// drives one generation of a genetic algorithm.
package workflow

import (
	"fmt"
	"sync"

	"github.com/aram/genflow/gaerr"
)

// NodeID identifies a step within a Graph.
type NodeID int

// noTarget marks an unset edge.
const noTarget NodeID = -1

type nodeKind int

const (
	// KindSequential executes its run function exactly once per branch
	// group invocation (spec §4.6), wrapped in a single-executor region.
	KindSequential nodeKind = iota
	// KindDecision evaluates its predicate exactly once and routes every
	// branch down the true or false edge accordingly.
	KindDecision
	// KindOperation invokes its run function once per branch, per
	// invocation (spec §4.5's "call operator").
	KindOperation
	// KindNop is the identity step, kept so a stub can preserve edge
	// identity while swapping behavior underneath it.
	KindNop
)

type edge struct {
	target  NodeID
	onClear func()
}

func (e *edge) clear() {
	if e.onClear != nil {
		e.onClear()
	}
	e.target = noTarget
	e.onClear = nil
}

type node struct {
	id        NodeID
	kind      nodeKind
	run       func(br *Branch) error
	predicate func(br *Branch) (bool, error)

	// primary is the sole outgoing edge for Sequential/Operation/Nop nodes
	// and the "true" edge for Decision nodes.
	primary edge
	// alt is only used by Decision nodes, as the "false" edge.
	alt edge
}

// Graph is a directed graph of steps connected by edges resolved at
// connect time and mutable between generations (spec §4.6). A Graph models
// a single active path per walk: from its start node, each node names its
// successor(s), and a Decision node picks between two.
type Graph struct {
	mu     sync.Mutex
	nodes  map[NodeID]*node
	nextID NodeID
	start  NodeID
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[NodeID]*node), start: noTarget}
}

func (g *Graph) addNode(n *node) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	n.id = id
	n.primary = edge{target: noTarget}
	n.alt = edge{target: noTarget}
	g.nodes[id] = n
	return id
}

// AddSequential adds a step that runs exactly once per invocation,
// regardless of branch count.
func (g *Graph) AddSequential(run func(br *Branch) error) NodeID {
	return g.addNode(&node{kind: KindSequential, run: run})
}

// AddOperation adds a step whose run function is invoked once per branch.
func (g *Graph) AddOperation(run func(br *Branch) error) NodeID {
	return g.addNode(&node{kind: KindOperation, run: run})
}

// AddNop adds an identity step.
func (g *Graph) AddNop() NodeID {
	return g.addNode(&node{kind: KindNop, run: func(*Branch) error { return nil }})
}

// AddDecision adds a step whose predicate is evaluated exactly once and
// whose result is broadcast to every branch to choose the next edge.
func (g *Graph) AddDecision(predicate func(br *Branch) (bool, error)) NodeID {
	return g.addNode(&node{kind: KindDecision, predicate: predicate})
}

// SetStart marks id as the graph's entry node.
func (g *Graph) SetStart(id NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.start = id
}

func (g *Graph) get(id NodeID) (*node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("workflow: node %d: %w", id, gaerr.ErrNotFound)
	}
	return n, nil
}

// Connect wires from's sole outgoing edge to to. onClear, if non-nil, runs
// when this edge is later removed by Disconnect (spec §4.6: "removing an
// edge also triggers clear on any operator dangling from it"). Connect
// fails on a Decision node; use ConnectDecision instead.
func (g *Graph) Connect(from, to NodeID, onClear func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.get(from)
	if err != nil {
		return err
	}
	if n.kind == KindDecision {
		return fmt.Errorf("workflow: connect: node %d is a decision node, use ConnectDecision: %w", from, gaerr.ErrInvalidOperation)
	}
	if _, err := g.get(to); err != nil {
		return err
	}
	n.primary = edge{target: to, onClear: onClear}
	return nil
}

// ConnectDecision wires a Decision node's true and false edges.
func (g *Graph) ConnectDecision(from NodeID, whenTrue, whenFalse NodeID, onClearTrue, onClearFalse func()) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.get(from)
	if err != nil {
		return err
	}
	if n.kind != KindDecision {
		return fmt.Errorf("workflow: connectdecision: node %d is not a decision node: %w", from, gaerr.ErrInvalidOperation)
	}
	if _, err := g.get(whenTrue); err != nil {
		return err
	}
	if _, err := g.get(whenFalse); err != nil {
		return err
	}
	n.primary = edge{target: whenTrue, onClear: onClearTrue}
	n.alt = edge{target: whenFalse, onClear: onClearFalse}
	return nil
}

// Disconnect removes from's primary (or, for a Decision node, both) outgoing
// edge, invoking any registered onClear callback.
func (g *Graph) Disconnect(from NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.get(from)
	if err != nil {
		return err
	}
	n.primary.clear()
	if n.kind == KindDecision {
		n.alt.clear()
	}
	return nil
}

// nodeAt returns the node for id; it is only called from within a running
// walk, after the graph has been validated, so a missing id is a caller bug.
func (g *Graph) nodeAt(id NodeID) *node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nodes[id]
}

// edgeTarget returns id's primary edge target, or its alt edge target when
// useAlt is true. It locks the same mutex Connect/Disconnect use to mutate
// edges, so a running walk never observes a torn read of an edge a
// topology-changing Set* call is repointing concurrently (spec §4.9 item 2).
func (g *Graph) edgeTarget(id NodeID, useAlt bool) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return noTarget
	}
	if useAlt {
		return n.alt.target
	}
	return n.primary.target
}
