package manager

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/event/topic"
)

// Tools resolves tool names to tools. *tool.Registry satisfies it.
type Tools interface {
	Get(name string) (block.Tool, error)
	Default() (block.Tool, error)
	IsDefault(name string) bool
}

// Manager owns the block collection and the current block pointer.
type Manager struct {
	mu      sync.RWMutex
	blocks  []*block.Block
	current int

	tools  Tools
	pub    event.Publisher
	logger *zap.Logger
	newID  func() string
}

// change is a collection event waiting to be published.
type change struct {
	topic   topic.Topic
	payload event.BlockPayload
}

// New creates an empty manager. The collection is initialized by the first
// Insert, Clear(true) or removal.
func New(tools Tools, opts ...Option) *Manager {
	m := &Manager{
		current: -1,
		tools:   tools,
		logger:  zap.NewNop(),
		newID:   defaultIDGenerator,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tools returns the tool set the manager resolves names against.
func (m *Manager) Tools() Tools {
	return m.tools
}

// ============================================================================
// Insertion
// ============================================================================

// Insert creates a block and inserts it into the collection.
//
// Without AtIndex the block goes after the current block, or into the
// current slot when replacing. With Replace and the id of an existing block,
// that block's tool and payload are overwritten in place. Inserting a
// duplicate id without Replace fails with InvalidOperationError.
func (m *Manager) Insert(opts ...InsertOption) (*block.Block, error) {
	cfg := defaultInsertConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m.mu.Lock()
	b, c, err := m.insertLocked(cfg)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	m.publish(c)
	return b, nil
}

// InsertDefaultAt inserts an empty block of the default tool at index.
func (m *Manager) InsertDefaultAt(index int, focus bool) (*block.Block, error) {
	return m.Insert(AtIndex(index), Focus(focus))
}

func (m *Manager) insertLocked(cfg insertConfig) (*block.Block, change, error) {
	t, err := m.resolveTool(cfg.tool)
	if err != nil {
		return nil, change{}, err
	}

	if cfg.id != "" {
		if i := m.indexOfIDLocked(cfg.id); i >= 0 {
			if !cfg.replace {
				return nil, change{}, &InvalidOperationError{
					Op:     "insert",
					Reason: fmt.Sprintf("duplicate block id %q", cfg.id),
				}
			}
			return m.replaceInPlaceLocked(i, t, cfg)
		}
	}

	index := cfg.index
	if !cfg.hasIndex {
		index = m.current + 1
		if cfg.replace {
			index = m.current
		}
		if index < 0 {
			index = 0
		}
	}
	if index < 0 || index > len(m.blocks) {
		return nil, change{}, &RangeError{Op: "insert", Index: index, Len: len(m.blocks) + 1}
	}

	id := cfg.id
	if id == "" {
		id = m.uniqueIDLocked()
	}
	b, err := block.New(id, t, cfg.data)
	if err != nil {
		return nil, change{}, err
	}
	if cfg.fill != "" {
		if err := fillFirstInput(b, cfg.fill); err != nil {
			b.Destroy()
			return nil, change{}, err
		}
	}
	if cfg.disabled != nil {
		b.SetDisabled(*cfg.disabled)
	}

	replacing := cfg.replace && index < len(m.blocks)
	if replacing {
		m.blocks[index].Destroy()
		m.blocks[index] = b
	} else {
		m.blocks = slices.Insert(m.blocks, index, b)
	}

	switch {
	case cfg.focus:
		m.current = index
	case !replacing && index <= m.current:
		m.current++
	}

	tp := event.TopicBlockInserted
	if replacing {
		tp = event.TopicBlockReplaced
	}
	return b, m.changeLocked(tp, b, index), nil
}

func (m *Manager) replaceInPlaceLocked(index int, t block.Tool, cfg insertConfig) (*block.Block, change, error) {
	b := m.blocks[index]
	if err := b.Replace(t, cfg.data); err != nil {
		return nil, change{}, err
	}
	if cfg.disabled != nil {
		b.SetDisabled(*cfg.disabled)
	}
	if cfg.focus {
		m.current = index
	}
	return b, m.changeLocked(event.TopicBlockReplaced, b, index), nil
}

// Split inserts a block of the default tool after the current block with
// fragment in its first input, and makes it current. The fragment is the
// content already extracted from the current block at the caret. A default
// tool without inputs cannot hold a non-empty fragment; Split then fails
// with InvalidOperationError and the collection is unchanged.
func (m *Manager) Split(fragment string) (*block.Block, error) {
	m.mu.Lock()
	var sourceID string
	if cur := m.currentLocked(); cur != nil {
		sourceID = cur.ID()
	}
	b, c, err := m.insertLocked(insertConfig{
		fill:  fragment,
		focus: true,
	})
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.topic = event.TopicBlockSplit
	c.payload.SourceID = sourceID
	m.publish(c)
	return b, nil
}

func fillFirstInput(b *block.Block, text string) error {
	if len(b.Inputs()) == 0 {
		return &InvalidOperationError{
			Op:     "split",
			Reason: fmt.Sprintf("%s blocks have no input for split content", b.Name()),
		}
	}
	return b.Surface().InsertAt(0, 0, text)
}

// Update re-renders the block with id from data, keeping its tool.
func (m *Manager) Update(id string, data block.Data) (*block.Block, error) {
	m.mu.Lock()
	i := m.indexOfIDLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return nil, notFoundID(id)
	}
	b := m.blocks[i]
	if err := b.SetData(data); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	c := m.changeLocked(event.TopicBlockUpdated, b, i)
	m.mu.Unlock()

	m.publish(c)
	return b, nil
}

// ============================================================================
// Removal
// ============================================================================

// RemoveBlock removes the block at index. It fails with NotFoundError when
// index is out of range.
//
// The current index keeps pointing into the collection: it moves back by one
// when it was at or after the removed slot, and becomes 0 when the first
// block is removed. Removing the last block inserts a focused default block.
func (m *Manager) RemoveBlock(index int) error {
	m.mu.Lock()
	changes, err := m.removeLocked(index)
	m.mu.Unlock()

	m.publish(changes...)
	return err
}

// RemoveCurrentBlock removes the current block.
func (m *Manager) RemoveCurrentBlock() error {
	m.mu.Lock()
	changes, err := m.removeLocked(m.current)
	m.mu.Unlock()

	m.publish(changes...)
	return err
}

func (m *Manager) removeLocked(index int) ([]change, error) {
	if index < 0 || index >= len(m.blocks) {
		return nil, notFoundIndex(index)
	}

	b := m.blocks[index]
	b.Destroy()
	m.blocks = slices.Delete(m.blocks, index, index+1)

	removed := m.changeLocked(event.TopicBlockRemoved, b, -1)
	removed.payload.FromIndex = index
	changes := []change{removed}

	if m.current >= index {
		m.current--
	}

	switch {
	case len(m.blocks) == 0:
		m.current = -1
		_, c, err := m.insertLocked(defaultInsertConfig())
		if err != nil {
			return changes, fmt.Errorf("refill empty collection: %w", err)
		}
		changes = append(changes, c)
	case index == 0:
		m.current = 0
	}
	return changes, nil
}

// Clear removes every block. With keepOne a focused default block is
// inserted afterwards; otherwise the collection is left empty and
// uninitialized.
func (m *Manager) Clear(keepOne bool) error {
	m.mu.Lock()
	removed := len(m.blocks)
	for _, b := range m.blocks {
		b.Destroy()
	}
	m.blocks = nil
	m.current = -1

	changes := []change{{
		topic:   event.TopicBlocksCleared,
		payload: event.BlockPayload{Index: -1, FromIndex: removed},
	}}
	var err error
	if keepOne {
		var c change
		if _, c, err = m.insertLocked(defaultInsertConfig()); err == nil {
			changes = append(changes, c)
		}
	}
	m.mu.Unlock()

	m.publish(changes...)
	return err
}

// ============================================================================
// Reordering
// ============================================================================

// Move relocates the block at from to index to, shifting the blocks in
// between. The moved block becomes current.
func (m *Manager) Move(to, from int) error {
	m.mu.Lock()
	c, err := m.moveLocked(to, from)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.publish(c)
	return nil
}

// MoveCurrent moves the current block to index to.
func (m *Manager) MoveCurrent(to int) error {
	m.mu.Lock()
	c, err := m.moveLocked(to, m.current)
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.publish(c)
	return nil
}

func (m *Manager) moveLocked(to, from int) (change, error) {
	if err := m.checkIndexLocked("move", from); err != nil {
		return change{}, err
	}
	if err := m.checkIndexLocked("move", to); err != nil {
		return change{}, err
	}

	b := m.blocks[from]
	m.blocks = slices.Delete(m.blocks, from, from+1)
	m.blocks = slices.Insert(m.blocks, to, b)
	m.current = to

	c := m.changeLocked(event.TopicBlockMoved, b, to)
	c.payload.FromIndex = from
	return c, nil
}

// Swap exchanges the blocks at from and to, and makes to current.
//
// Deprecated: use Move.
func (m *Manager) Swap(from, to int) error {
	m.mu.Lock()
	if err := m.checkIndexLocked("swap", from); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := m.checkIndexLocked("swap", to); err != nil {
		m.mu.Unlock()
		return err
	}
	m.blocks[from], m.blocks[to] = m.blocks[to], m.blocks[from]
	m.current = to

	c := m.changeLocked(event.TopicBlockSwapped, m.blocks[to], to)
	c.payload.FromIndex = from
	m.mu.Unlock()

	m.publish(c)
	return nil
}

// ============================================================================
// Lookups
// ============================================================================

// BlockByIndex returns the block at index, or nil when out of range. Index
// -1 addresses the last block.
func (m *Manager) BlockByIndex(index int) *block.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index == -1 {
		index = len(m.blocks) - 1
	}
	if index < 0 || index >= len(m.blocks) {
		return nil
	}
	return m.blocks[index]
}

// BlockByID returns the block with id, or NotFoundError.
func (m *Manager) BlockByID(id string) (*block.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOfIDLocked(id)
	if i < 0 {
		return nil, notFoundID(id)
	}
	return m.blocks[i], nil
}

// IndexByID returns the index of the block with id, or NotFoundError.
func (m *Manager) IndexByID(id string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOfIDLocked(id)
	if i < 0 {
		return -1, notFoundID(id)
	}
	return i, nil
}

// IndexOf returns the index of b, or -1 when b is not in the collection.
func (m *Manager) IndexOf(b *block.Block) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.indexOfLocked(b)
}

// CurrentIndex returns the current block index, or -1 before first focus.
func (m *Manager) CurrentIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CurrentBlock returns the current block, or nil.
func (m *Manager) CurrentBlock() *block.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentLocked()
}

// SetCurrentIndex points the current index at index. -1 clears it.
func (m *Manager) SetCurrentIndex(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index != -1 {
		if err := m.checkIndexLocked("set current", index); err != nil {
			return err
		}
	}
	m.current = index
	return nil
}

// SetCurrentBlock makes b current. It fails with NotFoundError when b is
// not in the collection.
func (m *Manager) SetCurrentBlock(b *block.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOfLocked(b)
	if i < 0 {
		if b == nil {
			return notFoundIndex(-1)
		}
		return notFoundID(b.ID())
	}
	m.current = i
	return nil
}

// PreviousBlock returns the block before the current one, or nil.
func (m *Manager) PreviousBlock() *block.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current <= 0 || m.current > len(m.blocks) {
		return nil
	}
	return m.blocks[m.current-1]
}

// NextBlock returns the block after the current one, or nil.
func (m *Manager) NextBlock() *block.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current < 0 || m.current+1 >= len(m.blocks) {
		return nil
	}
	return m.blocks[m.current+1]
}

// Blocks returns a snapshot of the collection in order.
func (m *Manager) Blocks() []*block.Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.blocks)
}

// Len returns the number of blocks.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blocks)
}

// IsDefault reports whether b belongs to the default tool.
func (m *Manager) IsDefault(b *block.Block) bool {
	return b != nil && m.tools != nil && m.tools.IsDefault(b.Name())
}

// ============================================================================
// Helpers
// ============================================================================

func (m *Manager) resolveTool(name string) (block.Tool, error) {
	if m.tools == nil {
		return nil, &InvalidOperationError{Op: "insert", Reason: "no tools configured"}
	}
	if name == "" {
		return m.tools.Default()
	}
	return m.tools.Get(name)
}

func (m *Manager) currentLocked() *block.Block {
	if m.current < 0 || m.current >= len(m.blocks) {
		return nil
	}
	return m.blocks[m.current]
}

func (m *Manager) checkIndexLocked(op string, index int) error {
	if index < 0 || index >= len(m.blocks) {
		return &RangeError{Op: op, Index: index, Len: len(m.blocks)}
	}
	return nil
}

func (m *Manager) indexOfLocked(b *block.Block) int {
	if b == nil {
		return -1
	}
	return slices.Index(m.blocks, b)
}

func (m *Manager) indexOfIDLocked(id string) int {
	return slices.IndexFunc(m.blocks, func(b *block.Block) bool {
		return b.ID() == id
	})
}

func (m *Manager) uniqueIDLocked() string {
	for {
		id := m.newID()
		if id != "" && m.indexOfIDLocked(id) < 0 {
			return id
		}
	}
}

func (m *Manager) changeLocked(tp topic.Topic, b *block.Block, index int) change {
	return change{
		topic: tp,
		payload: event.BlockPayload{
			ID:        b.ID(),
			Tool:      b.Name(),
			Index:     index,
			FromIndex: index,
			Count:     len(m.blocks),
		},
	}
}

// publish announces changes. It must be called without holding m.mu so that
// sync subscribers may call back into the manager.
func (m *Manager) publish(changes ...change) {
	if m.pub == nil {
		return
	}
	for _, c := range changes {
		ev := event.NewEvent(c.topic, c.payload, "manager")
		if err := m.pub.PublishAsync(context.Background(), ev); err != nil {
			m.logger.Debug("collection event dropped",
				zap.String("topic", c.topic.String()),
				zap.Error(err),
			)
		}
	}
}
