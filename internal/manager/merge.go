package manager

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/event"
)

// MergeFuture is the pending result of MergeBlocks.
type MergeFuture struct {
	done  chan struct{}
	block *block.Block
	err   error
}

func newMergeFuture() *MergeFuture {
	return &MergeFuture{done: make(chan struct{})}
}

func (f *MergeFuture) resolve(b *block.Block, err error) {
	f.block = b
	f.err = err
	close(f.done)
}

// Done is closed once the merge has completed or failed.
func (f *MergeFuture) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the merge completes and returns the surviving block.
// ctx bounds the wait only; the merge itself keeps running.
func (f *MergeFuture) Wait(ctx context.Context) (*block.Block, error) {
	select {
	case <-f.done:
		return f.block, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// MergeBlocks appends the content of source to target and removes source.
//
// Both blocks must be in the collection, share a tool, and the tool must be
// mergeable; otherwise the returned future fails with InvalidOperationError
// or NotFoundError and nothing changes. The tool merge runs asynchronously.
// When it completes, source is removed and target becomes current under a
// single lock, and the future resolves with target.
//
// Callers must not start another structural edit on either block until the
// future resolves.
func (m *Manager) MergeBlocks(ctx context.Context, target, source *block.Block) *MergeFuture {
	f := newMergeFuture()
	if err := m.checkMerge(target, source); err != nil {
		f.resolve(nil, err)
		return f
	}

	data := source.Data()
	skip := source.IsEmpty() || len(data) == 0
	go m.completeMerge(context.WithoutCancel(ctx), f, target, source, data, skip)
	return f
}

func (m *Manager) checkMerge(target, source *block.Block) error {
	if target == nil || source == nil {
		return &InvalidOperationError{Op: "merge", Reason: "nil block"}
	}
	if target == source {
		return &InvalidOperationError{Op: "merge", Reason: "cannot merge a block into itself"}
	}

	m.mu.RLock()
	ti, si := m.indexOfLocked(target), m.indexOfLocked(source)
	m.mu.RUnlock()
	if ti < 0 {
		return notFoundID(target.ID())
	}
	if si < 0 {
		return notFoundID(source.ID())
	}

	if target.Name() != source.Name() {
		return &InvalidOperationError{
			Op:     "merge",
			Reason: fmt.Sprintf("cannot merge %s block into %s block", source.Name(), target.Name()),
		}
	}
	if !target.Mergeable() {
		return &InvalidOperationError{
			Op:     "merge",
			Reason: fmt.Sprintf("%s blocks are not mergeable", target.Name()),
		}
	}
	return nil
}

func (m *Manager) completeMerge(ctx context.Context, f *MergeFuture, target, source *block.Block, data block.Data, skip bool) {
	start := time.Now()

	if !skip {
		if err := target.MergeWith(ctx, data); err != nil {
			m.logger.Warn("merge failed",
				zap.String("target", target.ID()),
				zap.String("source", source.ID()),
				zap.Error(err),
			)
			f.resolve(nil, fmt.Errorf("merge %s into %s: %w", source.ID(), target.ID(), err))
			return
		}
	}

	m.mu.Lock()
	si := m.indexOfLocked(source)
	if si < 0 {
		m.mu.Unlock()
		f.resolve(nil, notFoundID(source.ID()))
		return
	}
	changes, err := m.removeLocked(si)
	ti := m.indexOfLocked(target)
	m.current = ti

	merged := m.changeLocked(event.TopicBlockMerged, target, ti)
	merged.payload.SourceID = source.ID()
	merged.payload.Elapsed = time.Since(start)
	m.mu.Unlock()

	m.publish(append([]change{merged}, changes...)...)
	if ti < 0 {
		f.resolve(nil, notFoundID(target.ID()))
		return
	}
	f.resolve(target, err)
}
