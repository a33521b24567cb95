package caret

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/surface"
)

// ErrNoBlock is returned when the caret has no block to operate on.
var ErrNoBlock = errors.New("caret has no block")

// ErrNoInput is returned when the caret's block has no inputs.
var ErrNoInput = errors.New("block has no inputs")

// Tracker exposes the current block of a collection. *manager.Manager
// satisfies it.
type Tracker interface {
	CurrentBlock() *block.Block
	SetCurrentBlock(b *block.Block) error
	PreviousBlock() *block.Block
	NextBlock() *block.Block
}

// Option configures a Caret.
type Option func(*Caret)

// WithPublisher sets the publisher that receives caret.moved events.
func WithPublisher(pub event.Publisher) Option {
	return func(c *Caret) {
		c.pub = pub
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Caret) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// shadow remembers the content of a block's inputs so that the caret can
// be put back at the junction after that block absorbs new content.
type shadow struct {
	block *block.Block
	texts []string
}

// Caret is the logical cursor. It is safe for concurrent use.
type Caret struct {
	mu      sync.Mutex
	blocks  Tracker
	block   *block.Block
	input   int
	anchor  int
	head    int
	shadows map[string]shadow

	pub    event.Publisher
	logger *zap.Logger
}

// New creates a caret that follows blocks.
func New(blocks Tracker, opts ...Option) *Caret {
	c := &Caret{
		blocks:  blocks,
		shadows: make(map[string]shadow),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ============================================================================
// Placement
// ============================================================================

// SetToBlock places the caret in b and makes b current. For Default the
// caret goes into b's current input at offset, for Start at the start of the
// first input, for End at the end of the last input. Offsets are clamped.
func (c *Caret) SetToBlock(b *block.Block, pos Position, offset int) error {
	if b == nil {
		return ErrNoBlock
	}
	input := b.CurrentInputIndex()
	switch pos {
	case Start:
		input, offset = 0, 0
	case End:
		input = len(b.Inputs()) - 1
		offset = -1
	}
	return c.SetToInput(b, input, offset)
}

// SetToInput places a collapsed caret in input of b at offset. A negative
// offset means the end of the input.
func (c *Caret) SetToInput(b *block.Block, input, offset int) error {
	if b == nil {
		return ErrNoBlock
	}
	if c.blocks != nil {
		if err := c.blocks.SetCurrentBlock(b); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.placeLocked(b, input, offset)
	payload := c.payloadLocked()
	c.mu.Unlock()

	c.publish(payload)
	return nil
}

func (c *Caret) placeLocked(b *block.Block, input, offset int) {
	inputs := b.Inputs()
	switch {
	case len(inputs) == 0:
		input, offset = 0, 0
	case input < 0:
		input = 0
	case input >= len(inputs):
		input = len(inputs) - 1
	}
	if len(inputs) > 0 {
		n := inputs[input].Len()
		if offset < 0 || offset > n {
			offset = n
		}
	}

	b.SetCurrentInput(input)
	c.block = b
	c.input = input
	c.anchor = offset
	c.head = offset
}

// Select sets a selection within the caret's current input. Offsets are
// clamped to the input.
func (c *Caret) Select(anchor, head int) error {
	c.mu.Lock()
	in, err := c.inputLocked()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	n := in.Len()
	c.anchor = clamp(anchor, n)
	c.head = clamp(head, n)
	payload := c.payloadLocked()
	c.mu.Unlock()

	c.publish(payload)
	return nil
}

// MoveBy moves a collapsed caret delta graphemes within its input. It
// reports false when the caret is already at the input boundary in that
// direction.
func (c *Caret) MoveBy(delta int) bool {
	c.mu.Lock()
	in, err := c.inputLocked()
	if err != nil {
		c.mu.Unlock()
		return false
	}
	from := c.head
	to := clamp(from+delta, in.Len())
	c.anchor, c.head = to, to
	payload := c.payloadLocked()
	c.mu.Unlock()

	if to == from {
		return false
	}
	c.publish(payload)
	return true
}

// NavigateNext moves the caret forward across input and block boundaries.
// It only acts when the caret is at the end of its input: it moves to the
// start of the next input, or to the start of the next block. It reports
// whether the caret moved.
func (c *Caret) NavigateNext() bool {
	c.mu.Lock()
	b := c.blockLocked()
	if b == nil {
		c.mu.Unlock()
		return false
	}
	inputs := b.Inputs()
	if len(inputs) > 0 && c.head < inputs[c.input].Len() {
		c.mu.Unlock()
		return false
	}
	if c.input+1 < len(inputs) {
		c.placeLocked(b, c.input+1, 0)
		payload := c.payloadLocked()
		c.mu.Unlock()
		c.publish(payload)
		return true
	}
	c.mu.Unlock()

	if c.blocks == nil {
		return false
	}
	next := c.blocks.NextBlock()
	if next == nil {
		return false
	}
	return c.SetToBlock(next, Start, 0) == nil
}

// NavigatePrevious moves the caret backward across input and block
// boundaries. It only acts when the caret is at the start of its input: it
// moves to the end of the previous input, or to the end of the previous
// block. It reports whether the caret moved.
func (c *Caret) NavigatePrevious() bool {
	c.mu.Lock()
	b := c.blockLocked()
	if b == nil {
		c.mu.Unlock()
		return false
	}
	if c.head > 0 {
		c.mu.Unlock()
		return false
	}
	if c.input > 0 {
		c.placeLocked(b, c.input-1, -1)
		payload := c.payloadLocked()
		c.mu.Unlock()
		c.publish(payload)
		return true
	}
	c.mu.Unlock()

	if c.blocks == nil {
		return false
	}
	prev := c.blocks.PreviousBlock()
	if prev == nil {
		return false
	}
	return c.SetToBlock(prev, End, 0) == nil
}

// ============================================================================
// Queries
// ============================================================================

// Block returns the block the caret is in, or nil.
func (c *Caret) Block() *block.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blockLocked()
}

// InputIndex returns the index of the caret's input within its block.
func (c *Caret) InputIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockLocked()
	return c.input
}

// Offset returns the head offset in graphemes.
func (c *Caret) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockLocked()
	return c.head
}

// Selection returns the anchor and head offsets.
func (c *Caret) Selection() (anchor, head int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockLocked()
	return c.anchor, c.head
}

// IsCollapsed reports whether the selection is empty.
func (c *Caret) IsCollapsed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blockLocked()
	return c.anchor == c.head
}

// IsAtStart reports whether the caret is at the start of its input. A block
// without inputs counts as at start.
func (c *Caret) IsAtStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blockLocked() == nil {
		return false
	}
	return min(c.anchor, c.head) == 0
}

// IsAtEnd reports whether the caret is at the end of its input. A block
// without inputs counts as at end.
func (c *Caret) IsAtEnd() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.blockLocked()
	if b == nil {
		return false
	}
	in, err := c.inputLocked()
	if err != nil {
		return true
	}
	return max(c.anchor, c.head) >= in.Len()
}

// InFirstInput reports whether the caret is in its block's first input.
func (c *Caret) InFirstInput() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blockLocked() != nil && c.input == 0
}

// InLastInput reports whether the caret is in its block's last input.
func (c *Caret) InLastInput() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.blockLocked()
	return b != nil && c.input >= len(b.Inputs())-1
}

// ============================================================================
// Content
// ============================================================================

// ExtractFragmentFromCaretPosition removes and returns the content of the
// caret's input after the caret. A selection is deleted first. The caret is
// left collapsed at the cut. A block without inputs yields "".
func (c *Caret) ExtractFragmentFromCaretPosition() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.blockLocked()
	if b == nil {
		return "", ErrNoBlock
	}
	if len(b.Inputs()) == 0 {
		return "", nil
	}
	if err := c.deleteSelectionLocked(b); err != nil {
		return "", err
	}
	return b.Surface().ExtractAfter(c.input, c.head)
}

// InsertText replaces the selection with text and leaves the caret after it.
func (c *Caret) InsertText(text string) error {
	c.mu.Lock()
	b := c.blockLocked()
	if b == nil {
		c.mu.Unlock()
		return ErrNoBlock
	}
	if len(b.Inputs()) == 0 {
		c.mu.Unlock()
		return ErrNoInput
	}
	if err := c.deleteSelectionLocked(b); err != nil {
		c.mu.Unlock()
		return err
	}
	prefix, _ := surface.Split(b.Inputs()[c.input].Text(), c.head)
	if err := b.Surface().InsertAt(c.input, c.head, text); err != nil {
		c.mu.Unlock()
		return err
	}
	// Combining marks in text may join the grapheme before the caret.
	c.head = surface.Count(prefix + text)
	c.anchor = c.head
	payload := c.payloadLocked()
	c.mu.Unlock()

	c.publish(payload)
	return nil
}

// DeleteBackward deletes the selection, or the grapheme before a collapsed
// caret. It reports false when there was nothing to delete.
func (c *Caret) DeleteBackward() (bool, error) {
	c.mu.Lock()
	b := c.blockLocked()
	if b == nil {
		c.mu.Unlock()
		return false, ErrNoBlock
	}
	if len(b.Inputs()) == 0 {
		c.mu.Unlock()
		return false, nil
	}
	if c.anchor != c.head {
		err := c.deleteSelectionLocked(b)
		payload := c.payloadLocked()
		c.mu.Unlock()
		c.publish(payload)
		return err == nil, err
	}
	if c.head == 0 {
		c.mu.Unlock()
		return false, nil
	}
	if err := b.Surface().DeleteRange(c.input, c.head-1, c.head); err != nil {
		c.mu.Unlock()
		return false, err
	}
	c.head--
	c.anchor = c.head
	payload := c.payloadLocked()
	c.mu.Unlock()

	c.publish(payload)
	return true, nil
}

func (c *Caret) deleteSelectionLocked(b *block.Block) error {
	if c.anchor == c.head {
		return nil
	}
	start, end := min(c.anchor, c.head), max(c.anchor, c.head)
	if err := b.Surface().DeleteRange(c.input, start, end); err != nil {
		return err
	}
	c.anchor, c.head = start, start
	return nil
}

// ============================================================================
// Shadow caret
// ============================================================================

// CreateShadow records the content of b so that RestoreCaret can find the
// junction after b absorbs merged content.
func (c *Caret) CreateShadow(b *block.Block) {
	if b == nil {
		return
	}
	inputs := b.Inputs()
	texts := make([]string, len(inputs))
	for i, in := range inputs {
		texts[i] = in.Text()
	}

	c.mu.Lock()
	c.shadows[b.ID()] = shadow{block: b, texts: texts}
	c.mu.Unlock()
}

// RestoreCaret places the caret in b where its shadow was taken: at the
// start of the first input whose content changed since, or at the end of
// the last recorded input when nothing changed. Without a shadow the caret
// goes to the end of b.
func (c *Caret) RestoreCaret(b *block.Block) error {
	if b == nil {
		return ErrNoBlock
	}
	c.mu.Lock()
	sh, ok := c.shadows[b.ID()]
	delete(c.shadows, b.ID())
	c.mu.Unlock()

	if !ok || sh.block != b {
		return c.SetToBlock(b, End, 0)
	}

	input, offset := junction(sh.texts, b.Inputs())
	return c.SetToInput(b, input, offset)
}

// junction finds where new content starts in inputs relative to before.
func junction(before []string, inputs []block.Input) (input, offset int) {
	for i, in := range inputs {
		if i >= len(before) {
			return i, 0
		}
		if in.Text() != before[i] {
			return i, surface.Count(before[i])
		}
	}
	if len(before) == 0 {
		return 0, 0
	}
	last := len(before) - 1
	return last, surface.Count(before[last])
}

// ============================================================================
// Helpers
// ============================================================================

// blockLocked returns the caret's block, snapping to the tracker's current
// block when the caret's block is gone or no longer current.
func (c *Caret) blockLocked() *block.Block {
	var cur *block.Block
	if c.blocks != nil {
		cur = c.blocks.CurrentBlock()
	}
	if c.block != nil && !c.block.Destroyed() && (c.blocks == nil || c.block == cur) {
		c.clampLocked()
		return c.block
	}
	if cur == nil {
		c.block = nil
		c.input, c.anchor, c.head = 0, 0, 0
		return nil
	}
	c.placeLocked(cur, cur.CurrentInputIndex(), -1)
	return cur
}

// clampLocked keeps the position inside the block after its content was
// edited elsewhere.
func (c *Caret) clampLocked() {
	inputs := c.block.Inputs()
	if len(inputs) == 0 {
		c.input, c.anchor, c.head = 0, 0, 0
		return
	}
	if c.input >= len(inputs) {
		c.input = len(inputs) - 1
	}
	n := inputs[c.input].Len()
	c.anchor = clamp(c.anchor, n)
	c.head = clamp(c.head, n)
}

func (c *Caret) inputLocked() (block.Input, error) {
	b := c.blockLocked()
	if b == nil {
		return nil, ErrNoBlock
	}
	inputs := b.Inputs()
	if len(inputs) == 0 {
		return nil, ErrNoInput
	}
	return inputs[c.input], nil
}

func (c *Caret) payloadLocked() event.CaretPayload {
	p := event.CaretPayload{Input: c.input, Offset: c.head}
	if c.block != nil {
		p.BlockID = c.block.ID()
	}
	return p
}

func (c *Caret) publish(p event.CaretPayload) {
	if c.pub == nil {
		return
	}
	ev := event.NewEvent(event.TopicCaretMoved, p, "caret")
	if err := c.pub.PublishAsync(context.Background(), ev); err != nil {
		c.logger.Debug("caret event dropped", zap.Error(err))
	}
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
