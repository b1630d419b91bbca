// Package graph provides a small directed workflow graph: named nodes that
// transform a shared state through returned patches, routers that pick the
// next node from the current state, and a sequential driver that merges
// patches and checkpoints every step.
package graph

import (
	"context"
	"errors"
	"fmt"
)

// End is the reserved node name that terminates a workflow run.
const End = "__end__"

// Graph construction errors.
var (
	ErrEmptyNodeName    = errors.New("node name cannot be empty")
	ErrReservedNodeName = errors.New("node name is reserved")
	ErrDuplicateNode    = errors.New("duplicate node name")
	ErrNodeNotFound     = errors.New("node not found")
	ErrNoEntryPoint     = errors.New("no entry point specified")
	ErrDanglingEdge     = errors.New("edge target not found")
	ErrMissingEdge      = errors.New("node has no outgoing edge")
)

// Node is the unit of workflow execution. Execute must treat state as
// read-only and return a patch describing its changes; the driver merges the
// patch before the next node runs.
type Node[S, P any] interface {
	Name() string
	Execute(ctx context.Context, state S) (P, error)
}

// Router selects the next node's name from the current state. Routers never
// mutate state and never fail: a missing or falsy condition routes to the
// configured negative branch.
type Router[S any] interface {
	Name() string
	Route(ctx context.Context, state S) string
}

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc[S, P any] struct {
	NodeName string
	Fn       func(ctx context.Context, state S) (P, error)
}

func (n NodeFunc[S, P]) Name() string { return n.NodeName }

func (n NodeFunc[S, P]) Execute(ctx context.Context, state S) (P, error) {
	return n.Fn(ctx, state)
}

// RouterFunc adapts a plain function to the Router interface.
type RouterFunc[S any] struct {
	RouterName string
	Fn         func(ctx context.Context, state S) string
}

func (r RouterFunc[S]) Name() string { return r.RouterName }

func (r RouterFunc[S]) Route(ctx context.Context, state S) string {
	return r.Fn(ctx, state)
}

// Graph is a compiled, immutable workflow graph. Build one with a Builder.
type Graph[S, P any] struct {
	nodes   map[string]Node[S, P]
	routers map[string]Router[S]
	edges   map[string]string
	entry   string
}

// EntryPoint returns the name of the graph's entry node.
func (g *Graph[S, P]) EntryPoint() string { return g.entry }

// HasNode reports whether a node with the given name exists.
func (g *Graph[S, P]) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Builder accumulates nodes, routers, and edges, then compiles them into a
// validated Graph. Wiring is static: all nodes and edges are declared before
// Compile and never change afterwards.
type Builder[S, P any] struct {
	nodes   map[string]Node[S, P]
	routers map[string]Router[S]
	edges   map[string]string
	entry   string
	err     error
}

// NewBuilder creates an empty graph builder.
func NewBuilder[S, P any]() *Builder[S, P] {
	return &Builder[S, P]{
		nodes:   make(map[string]Node[S, P]),
		routers: make(map[string]Router[S]),
		edges:   make(map[string]string),
	}
}

// AddNode registers a node. The first error encountered during building is
// kept and returned by Compile.
func (b *Builder[S, P]) AddNode(n Node[S, P]) *Builder[S, P] {
	name := n.Name()
	if !b.checkName(name) {
		return b
	}
	b.nodes[name] = n
	return b
}

// AddRouter registers a router. Router names share the node namespace so an
// edge can target either.
func (b *Builder[S, P]) AddRouter(r Router[S]) *Builder[S, P] {
	name := r.Name()
	if !b.checkName(name) {
		return b
	}
	b.routers[name] = r
	return b
}

func (b *Builder[S, P]) checkName(name string) bool {
	if b.err != nil {
		return false
	}
	if name == "" {
		b.err = ErrEmptyNodeName
		return false
	}
	if name == End {
		b.err = fmt.Errorf("%w: %s", ErrReservedNodeName, name)
		return false
	}
	if _, dup := b.nodes[name]; dup {
		b.err = fmt.Errorf("%w: %s", ErrDuplicateNode, name)
		return false
	}
	if _, dup := b.routers[name]; dup {
		b.err = fmt.Errorf("%w: %s", ErrDuplicateNode, name)
		return false
	}
	return true
}

// AddEdge wires the outgoing edge of a node to another node, a router, or
// End. Each node has exactly one outgoing edge; branching happens in routers.
func (b *Builder[S, P]) AddEdge(from, to string) *Builder[S, P] {
	if b.err != nil {
		return b
	}
	b.edges[from] = to
	return b
}

// SetEntryPoint designates the node execution starts from.
func (b *Builder[S, P]) SetEntryPoint(name string) *Builder[S, P] {
	if b.err != nil {
		return b
	}
	b.entry = name
	return b
}

// Compile validates the wiring and returns the immutable graph. Every node
// must have an outgoing edge, every edge must land on a known node, router,
// or End, and the entry point must be a node.
func (b *Builder[S, P]) Compile() (*Graph[S, P], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.entry == "" {
		return nil, ErrNoEntryPoint
	}
	if _, ok := b.nodes[b.entry]; !ok {
		return nil, fmt.Errorf("%w: entry point %q", ErrNodeNotFound, b.entry)
	}
	for from, to := range b.edges {
		if !b.known(from) {
			return nil, fmt.Errorf("%w: edge source %q", ErrNodeNotFound, from)
		}
		if to != End && !b.known(to) {
			return nil, fmt.Errorf("%w: %q -> %q", ErrDanglingEdge, from, to)
		}
	}
	for name := range b.nodes {
		if _, ok := b.edges[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingEdge, name)
		}
	}
	return &Graph[S, P]{
		nodes:   b.nodes,
		routers: b.routers,
		edges:   b.edges,
		entry:   b.entry,
	}, nil
}

func (b *Builder[S, P]) known(name string) bool {
	if _, ok := b.nodes[name]; ok {
		return true
	}
	_, ok := b.routers[name]
	return ok
}
