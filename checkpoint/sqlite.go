package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSaver is a Saver backed by a SQLite database. It suits deployments
// where many threads checkpoint against one store and rewriting a whole JSON
// envelope per step would be wasteful.
type SQLiteSaver struct {
	db    *sql.DB
	codec *Codec
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	thread_id     TEXT NOT NULL,
	checkpoint_id TEXT NOT NULL,
	parent_id     TEXT,
	seq           INTEGER NOT NULL,
	checkpoint    TEXT NOT NULL,
	metadata      TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (thread_id, checkpoint_id)
);
CREATE INDEX IF NOT EXISTS idx_checkpoints_thread_seq ON checkpoints (thread_id, seq);
CREATE TABLE IF NOT EXISTS checkpoint_writes (
	write_key TEXT PRIMARY KEY,
	thread_id TEXT NOT NULL,
	writes    TEXT NOT NULL
);
`

// OpenSQLiteSaver opens (and if needed initializes) a SQLite-backed saver at
// the given database path. Use ":memory:" for an in-memory store.
func OpenSQLiteSaver(path string, codec *Codec) (*SQLiteSaver, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLiteSaver{db: db, codec: codec}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteSaver) Close() error {
	return s.db.Close()
}

// Put appends a checkpoint to the thread's chain.
func (s *SQLiteSaver) Put(ctx context.Context, cp *Checkpoint, md Metadata) error {
	if cp == nil {
		return ErrNilSnapshot
	}
	if cp.ThreadID == "" {
		return ErrEmptyThread
	}
	cpBlob, err := s.codec.Encode(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	mdBlob, err := s.codec.Encode(md)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, checkpoint_id, parent_id, seq, checkpoint, metadata, created_at)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM checkpoints WHERE thread_id = ?), ?, ?, ?)`,
		cp.ThreadID, cp.ID, cp.ParentID, cp.ThreadID, cpBlob, mdBlob, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

// PutWrites records pending node writes against a checkpoint.
func (s *SQLiteSaver) PutWrites(ctx context.Context, threadID, checkpointID string, writes []PendingWrite) error {
	if threadID == "" {
		return ErrEmptyThread
	}
	blob, err := s.codec.Encode(writes)
	if err != nil {
		return fmt.Errorf("encode writes: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoint_writes (write_key, thread_id, writes) VALUES (?, ?, ?)
		ON CONFLICT(write_key) DO UPDATE SET writes = excluded.writes`,
		WriteKey(threadID, checkpointID), threadID, blob)
	if err != nil {
		return fmt.Errorf("insert writes: %w", err)
	}
	return nil
}

// Latest returns the most recent checkpoint for a thread.
func (s *SQLiteSaver) Latest(ctx context.Context, threadID string) (*Tuple, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT checkpoint, metadata FROM checkpoints
		WHERE thread_id = ? ORDER BY seq DESC LIMIT 1`, threadID)
	var cpBlob, mdBlob string
	if err := row.Scan(&cpBlob, &mdBlob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query latest checkpoint: %w", err)
	}
	return s.decodeTuple(cpBlob, mdBlob)
}

// List returns the thread's checkpoints in insertion order.
func (s *SQLiteSaver) List(ctx context.Context, threadID string) ([]*Tuple, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT checkpoint, metadata FROM checkpoints
		WHERE thread_id = ? ORDER BY seq ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	var tuples []*Tuple
	for rows.Next() {
		var cpBlob, mdBlob string
		if err := rows.Scan(&cpBlob, &mdBlob); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		t, err := s.decodeTuple(cpBlob, mdBlob)
		if err != nil {
			return nil, err
		}
		tuples = append(tuples, t)
	}
	return tuples, rows.Err()
}

// DeleteThread removes a thread's checkpoints and writes.
func (s *SQLiteSaver) DeleteThread(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoints WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("delete checkpoints: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM checkpoint_writes WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("delete writes: %w", err)
	}
	return nil
}

func (s *SQLiteSaver) decodeTuple(cpBlob, mdBlob string) (*Tuple, error) {
	var cp Checkpoint
	if err := s.codec.Decode(cpBlob, &cp); err != nil {
		return nil, err
	}
	var md Metadata
	if err := s.codec.Decode(mdBlob, &md); err != nil {
		return nil, err
	}
	return &Tuple{Checkpoint: &cp, Metadata: md}, nil
}
