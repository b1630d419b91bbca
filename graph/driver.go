package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forcedotcom/magen/checkpoint"
)

// Driver errors.
var (
	ErrMaxStepsExceeded = errors.New("maximum workflow steps exceeded")
	ErrNoCheckpoint     = errors.New("no checkpoint to resume from")
)

// DefaultMaxSteps caps runaway workflows; build-retry loops are expected to
// terminate well before this.
const DefaultMaxSteps = 100

// Runner drives a compiled graph sequentially: execute the current node,
// merge its patch into the state, resolve the next node through the outgoing
// edge (and router, if one is wired), checkpoint, repeat. A node's patch is
// always fully merged before the next node or router observes the state.
type Runner[S, P any] struct {
	graph    *Graph[S, P]
	merge    func(S, P) S
	saver    checkpoint.Saver
	logger   *slog.Logger
	maxSteps int
	keep     bool
}

// RunnerOption configures a Runner.
type RunnerOption[S, P any] func(*Runner[S, P])

// WithSaver enables checkpoint persistence after every step.
func WithSaver[S, P any](saver checkpoint.Saver) RunnerOption[S, P] {
	return func(r *Runner[S, P]) { r.saver = saver }
}

// WithLogger sets the runner's logger.
func WithLogger[S, P any](l *slog.Logger) RunnerOption[S, P] {
	return func(r *Runner[S, P]) { r.logger = l }
}

// WithMaxSteps overrides the step ceiling.
func WithMaxSteps[S, P any](n int) RunnerOption[S, P] {
	return func(r *Runner[S, P]) { r.maxSteps = n }
}

// KeepCheckpoints retains the thread's checkpoints after a terminal step
// instead of clearing them.
func KeepCheckpoints[S, P any]() RunnerOption[S, P] {
	return func(r *Runner[S, P]) { r.keep = true }
}

// NewRunner creates a runner for the graph. merge applies a node's patch to
// the state and returns the result; it must not modify its input.
func NewRunner[S, P any](g *Graph[S, P], merge func(S, P) S, opts ...RunnerOption[S, P]) *Runner[S, P] {
	r := &Runner[S, P]{
		graph:    g,
		merge:    merge,
		logger:   slog.Default(),
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the graph from its entry point with the given initial state.
func (r *Runner[S, P]) Run(ctx context.Context, threadID string, initial S) (S, error) {
	seedID, err := r.saveSeed(ctx, threadID, initial)
	if err != nil {
		return initial, err
	}
	return r.loop(ctx, threadID, initial, r.graph.entry, 1, seedID)
}

// Resume continues a previously checkpointed run from its latest step.
// Returns ErrNoCheckpoint when the thread has no saved state.
func (r *Runner[S, P]) Resume(ctx context.Context, threadID string) (S, error) {
	var state S
	if r.saver == nil {
		return state, ErrNoCheckpoint
	}
	tup, err := r.saver.Latest(ctx, threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return state, ErrNoCheckpoint
		}
		return state, fmt.Errorf("load checkpoint: %w", err)
	}
	if err := json.Unmarshal(tup.Checkpoint.State, &state); err != nil {
		return state, fmt.Errorf("decode checkpointed state: %w", err)
	}
	if tup.Checkpoint.NextNode == End {
		return state, nil
	}
	r.logger.Info("resuming workflow",
		"thread", threadID, "node", tup.Checkpoint.NextNode, "step", tup.Metadata.Step+1)
	return r.loop(ctx, threadID, state, tup.Checkpoint.NextNode, tup.Metadata.Step+1, tup.Checkpoint.ID)
}

// LatestState returns the state recorded in the thread's most recent
// checkpoint. The second return is false when the thread has none (or no
// saver is configured).
func (r *Runner[S, P]) LatestState(ctx context.Context, threadID string) (S, bool, error) {
	var state S
	if r.saver == nil {
		return state, false, nil
	}
	tup, err := r.saver.Latest(ctx, threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return state, false, nil
		}
		return state, false, fmt.Errorf("load checkpoint: %w", err)
	}
	if err := json.Unmarshal(tup.Checkpoint.State, &state); err != nil {
		return state, false, fmt.Errorf("decode checkpointed state: %w", err)
	}
	return state, true, nil
}

func (r *Runner[S, P]) loop(ctx context.Context, threadID string, state S, current string, step int, parentID string) (S, error) {
	for current != End {
		if err := ctx.Err(); err != nil {
			return state, err
		}
		if step > r.maxSteps {
			return state, fmt.Errorf("%w: %d", ErrMaxStepsExceeded, r.maxSteps)
		}
		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		r.logger.Debug("executing node", "thread", threadID, "node", current, "step", step)
		patch, err := node.Execute(ctx, state)
		if err != nil {
			return state, fmt.Errorf("node %s: %w", current, err)
		}
		merged := r.merge(state, patch)

		next, err := r.next(ctx, current, merged)
		if err != nil {
			return merged, err
		}

		cpID, err := r.saveStep(ctx, threadID, parentID, current, next, step, merged, patch)
		if err != nil {
			return merged, err
		}

		state = merged
		parentID = cpID
		current = next
		step++
	}

	if r.saver != nil && !r.keep {
		if err := r.saver.DeleteThread(ctx, threadID); err != nil {
			return state, fmt.Errorf("clear checkpoints: %w", err)
		}
	}
	r.logger.Info("workflow complete", "thread", threadID, "steps", step-1)
	return state, nil
}

// next resolves the node to run after current: the static outgoing edge, or
// the router it points at. Router results must name a node or End.
func (r *Runner[S, P]) next(ctx context.Context, current string, state S) (string, error) {
	target, ok := r.graph.edges[current]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingEdge, current)
	}
	if router, isRouter := r.graph.routers[target]; isRouter {
		routed := router.Route(ctx, state)
		if routed != End && !r.graph.HasNode(routed) {
			return "", fmt.Errorf("%w: router %s routed to %q", ErrNodeNotFound, target, routed)
		}
		r.logger.Debug("routed", "router", target, "next", routed)
		return routed, nil
	}
	return target, nil
}

func (r *Runner[S, P]) saveSeed(ctx context.Context, threadID string, initial S) (string, error) {
	if r.saver == nil {
		return "", nil
	}
	raw, err := json.Marshal(initial)
	if err != nil {
		return "", fmt.Errorf("encode initial state: %w", err)
	}
	cp := &checkpoint.Checkpoint{
		ID:        checkpoint.NewID(),
		ThreadID:  threadID,
		State:     raw,
		NextNode:  r.graph.entry,
		CreatedAt: time.Now().UTC(),
	}
	md := checkpoint.Metadata{Source: "input", Step: 0}
	if err := r.saver.Put(ctx, cp, md); err != nil {
		return "", fmt.Errorf("save seed checkpoint: %w", err)
	}
	return cp.ID, nil
}

func (r *Runner[S, P]) saveStep(ctx context.Context, threadID, parentID, nodeName, next string, step int, merged S, patch P) (string, error) {
	if r.saver == nil {
		return "", nil
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	cp := &checkpoint.Checkpoint{
		ID:        checkpoint.NewID(),
		ThreadID:  threadID,
		ParentID:  parentID,
		State:     raw,
		NextNode:  next,
		CreatedAt: time.Now().UTC(),
	}
	md := checkpoint.Metadata{Source: "loop", Step: step, NodeName: nodeName}
	if err := r.saver.Put(ctx, cp, md); err != nil {
		return "", fmt.Errorf("save checkpoint: %w", err)
	}
	patchRaw, err := json.Marshal(patch)
	if err != nil {
		return "", fmt.Errorf("encode patch: %w", err)
	}
	writes := []checkpoint.PendingWrite{{NodeName: nodeName, Data: patchRaw}}
	if err := r.saver.PutWrites(ctx, threadID, cp.ID, writes); err != nil {
		return "", fmt.Errorf("save pending writes: %w", err)
	}
	return cp.ID, nil
}
