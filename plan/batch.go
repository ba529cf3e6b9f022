/*
batch.go - Chunked commits against a write-size-limited store

PURPOSE:
  The underlying document store accepts at most BatchCeiling mutations per
  atomic commit. The ChunkedWriter accumulates staged plan mutations and
  commits a full chunk every time the ceiling is reached, then a trailing
  partial chunk on Flush.

FAILURE MODEL:
  Commits are atomic per chunk only. When a chunk fails, the error is
  wrapped in a WriteError carrying the chunk index and no further chunks
  are attempted; chunks already committed stand. There is no cross-chunk
  rollback and no retry here. Re-running the whole operation is the
  recovery path, safe because merges are idempotent.
*/
package plan

import "context"

// BatchCeiling is the hard per-commit mutation limit of the store.
const BatchCeiling = 500

// ChunkedWriter accumulates plan mutations and commits them in chunks of
// at most BatchCeiling. Not safe for concurrent use; the propagation loop
// is sequential.
type ChunkedWriter struct {
	writer  BatchWriter
	ceiling int
	pending []PlanMutation
	commits int
	staged  int
}

// NewChunkedWriter creates a writer with the standard ceiling.
func NewChunkedWriter(w BatchWriter) *ChunkedWriter {
	return &ChunkedWriter{writer: w, ceiling: BatchCeiling}
}

// Add stages one mutation, committing the accumulated chunk when the
// ceiling is reached.
func (c *ChunkedWriter) Add(ctx context.Context, m PlanMutation) error {
	c.pending = append(c.pending, m)
	c.staged++
	if len(c.pending) >= c.ceiling {
		return c.commit(ctx)
	}
	return nil
}

// Flush commits any trailing partial chunk. Must be called once after the
// last Add.
func (c *ChunkedWriter) Flush(ctx context.Context) error {
	if len(c.pending) == 0 {
		return nil
	}
	return c.commit(ctx)
}

func (c *ChunkedWriter) commit(ctx context.Context) error {
	if err := c.writer.CommitPlans(ctx, c.pending); err != nil {
		return &WriteError{Chunk: c.commits, Err: err}
	}
	c.commits++
	c.pending = c.pending[:0]
	return nil
}

// Commits returns the number of chunks committed so far.
func (c *ChunkedWriter) Commits() int { return c.commits }

// Staged returns the total number of mutations staged so far.
func (c *ChunkedWriter) Staged() int { return c.staged }
