package editing

import (
	"context"

	"github.com/dshills/blockstorm/internal/block"
)

// Pending is an in-flight merge gesture. It resolves after the manager has
// merged the blocks and the caret has been restored into the target.
type Pending struct {
	done  chan struct{}
	block *block.Block
	err   error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(b *block.Block, err error) {
	p.block = b
	p.err = err
	close(p.done)
}

// Done is closed when the merge gesture has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the merge gesture finishes or ctx is done, and returns
// the merged block.
func (p *Pending) Wait(ctx context.Context) (*block.Block, error) {
	select {
	case <-p.done:
		return p.block, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Wait resolves r. Synchronous results return immediately.
func (r Result) Wait(ctx context.Context) (*block.Block, error) {
	if r.Pending == nil {
		return r.Block, r.Err
	}
	return r.Pending.Wait(ctx)
}
