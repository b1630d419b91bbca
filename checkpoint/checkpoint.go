// Package checkpoint persists workflow run state so long-running,
// human-in-the-loop workflows survive process restarts. A checkpoint is a
// snapshot of the merged state after one graph step; savers keep an ordered
// chain of checkpoints per thread plus the pending node writes that produced
// each one.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Persistence errors.
var (
	ErrInvalidJSON  = errors.New("state is not valid JSON")
	ErrNotFound     = errors.New("checkpoint not found")
	ErrNilSnapshot  = errors.New("checkpoint cannot be nil")
	ErrEmptyThread  = errors.New("thread ID cannot be empty")
	ErrBadEnvelope  = errors.New("malformed checkpoint envelope")
	ErrBadBlob      = errors.New("malformed checkpoint blob")
)

// EnvelopeVersion is the schema version of the persisted envelope.
const EnvelopeVersion = 1

// Checkpoint is one saved step of a workflow run.
type Checkpoint struct {
	ID        string          `json:"id"`
	ThreadID  string          `json:"threadId"`
	ParentID  string          `json:"parentId,omitempty"`
	State     json.RawMessage `json:"state"`
	NextNode  string          `json:"nextNode"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Metadata records how a checkpoint came to be.
type Metadata struct {
	Source   string `json:"source"` // "input" for the seed state, "loop" for steps
	Step     int    `json:"step"`
	NodeName string `json:"nodeName,omitempty"`
}

// PendingWrite is a node's patch recorded against the checkpoint it was
// merged into.
type PendingWrite struct {
	NodeName string          `json:"nodeName"`
	Data     json.RawMessage `json:"data"`
}

// Tuple pairs a checkpoint with its metadata, as stored and listed.
type Tuple struct {
	Checkpoint *Checkpoint
	Metadata   Metadata
}

// Saver is the persistence interface the graph driver writes through.
// Implementations must tolerate concurrent readers but may assume a single
// writer per thread.
type Saver interface {
	// Put appends a checkpoint (with metadata) to the thread's chain.
	Put(ctx context.Context, cp *Checkpoint, md Metadata) error

	// PutWrites records the pending node writes that produced a checkpoint.
	PutWrites(ctx context.Context, threadID, checkpointID string, writes []PendingWrite) error

	// Latest returns the most recent checkpoint for a thread, or ErrNotFound.
	Latest(ctx context.Context, threadID string) (*Tuple, error)

	// List returns the thread's checkpoints in insertion order.
	List(ctx context.Context, threadID string) ([]*Tuple, error)

	// DeleteThread removes all checkpoints and writes for a thread. Deleting
	// an unknown thread is not an error.
	DeleteThread(ctx context.Context, threadID string) error
}

// NewID returns a fresh checkpoint identifier.
func NewID() string {
	return uuid.NewString()
}

// WriteKey builds the composite key that indexes pending writes.
func WriteKey(threadID, checkpointID string) string {
	return threadID + ":" + checkpointID
}
