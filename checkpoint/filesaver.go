package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// envelope is the persisted JSON document: checkpoint tuples per thread and
// pending writes keyed by "threadID:checkpointID". Payloads are opaque blob
// strings produced by the Codec.
type envelope struct {
	Version int                           `json:"version"`
	Storage map[string][]storedCheckpoint `json:"storage"`
	Writes  map[string]string             `json:"writes"`
}

type storedCheckpoint struct {
	Checkpoint string `json:"checkpoint"`
	Metadata   string `json:"metadata"`
	ParentID   string `json:"parentId,omitempty"`
}

func newEnvelope() *envelope {
	return &envelope{
		Version: EnvelopeVersion,
		Storage: make(map[string][]storedCheckpoint),
		Writes:  make(map[string]string),
	}
}

// FileSaver is a Saver backed by a FileStore. Every mutation rewrites the
// whole envelope through the store's atomic write, so a crash mid-save never
// corrupts previously committed checkpoints.
type FileSaver struct {
	store *FileStore
	codec *Codec

	mu sync.Mutex
}

// NewFileSaver creates a saver persisting to the given store.
func NewFileSaver(store *FileStore, codec *Codec) *FileSaver {
	return &FileSaver{store: store, codec: codec}
}

// Put appends a checkpoint to the thread's chain.
func (s *FileSaver) Put(ctx context.Context, cp *Checkpoint, md Metadata) error {
	if cp == nil {
		return ErrNilSnapshot
	}
	if cp.ThreadID == "" {
		return ErrEmptyThread
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return err
	}
	cpBlob, err := s.codec.Encode(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	mdBlob, err := s.codec.Encode(md)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	env.Storage[cp.ThreadID] = append(env.Storage[cp.ThreadID], storedCheckpoint{
		Checkpoint: cpBlob,
		Metadata:   mdBlob,
		ParentID:   cp.ParentID,
	})
	return s.save(env)
}

// PutWrites records pending node writes against a checkpoint.
func (s *FileSaver) PutWrites(ctx context.Context, threadID, checkpointID string, writes []PendingWrite) error {
	if threadID == "" {
		return ErrEmptyThread
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return err
	}
	blob, err := s.codec.Encode(writes)
	if err != nil {
		return fmt.Errorf("encode writes: %w", err)
	}
	env.Writes[WriteKey(threadID, checkpointID)] = blob
	return s.save(env)
}

// Latest returns the most recent checkpoint for a thread.
func (s *FileSaver) Latest(ctx context.Context, threadID string) (*Tuple, error) {
	tuples, err := s.List(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if len(tuples) == 0 {
		return nil, ErrNotFound
	}
	return tuples[len(tuples)-1], nil
}

// List returns the thread's checkpoints in insertion order.
func (s *FileSaver) List(ctx context.Context, threadID string) ([]*Tuple, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return nil, err
	}
	stored := env.Storage[threadID]
	tuples := make([]*Tuple, 0, len(stored))
	for _, sc := range stored {
		var cp Checkpoint
		if err := s.codec.Decode(sc.Checkpoint, &cp); err != nil {
			return nil, err
		}
		var md Metadata
		if err := s.codec.Decode(sc.Metadata, &md); err != nil {
			return nil, err
		}
		tuples = append(tuples, &Tuple{Checkpoint: &cp, Metadata: md})
	}
	return tuples, nil
}

// DeleteThread removes a thread's checkpoints and writes. When the envelope
// becomes empty the backing file is cleared entirely.
func (s *FileSaver) DeleteThread(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.load()
	if err != nil {
		return err
	}
	stored, ok := env.Storage[threadID]
	if !ok {
		return nil
	}
	delete(env.Storage, threadID)
	for _, sc := range stored {
		var cp Checkpoint
		if err := s.codec.Decode(sc.Checkpoint, &cp); err == nil {
			delete(env.Writes, WriteKey(threadID, cp.ID))
		}
	}
	if len(env.Storage) == 0 && len(env.Writes) == 0 {
		return s.store.ClearState()
	}
	return s.save(env)
}

// load reads the envelope from disk, returning a fresh one when no usable
// state exists.
func (s *FileSaver) load() (*envelope, error) {
	raw, ok := s.store.ReadState()
	if !ok {
		return newEnvelope(), nil
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if env.Storage == nil {
		env.Storage = make(map[string][]storedCheckpoint)
	}
	if env.Writes == nil {
		env.Writes = make(map[string]string)
	}
	env.Version = EnvelopeVersion
	return &env, nil
}

func (s *FileSaver) save(env *envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return s.store.WriteState(string(data))
}
