package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/event/topic"
	"github.com/dshills/blockstorm/internal/tool"
)

type recorder struct {
	mu     sync.Mutex
	topics []topic.Topic
}

func (r *recorder) PublishSync(ctx context.Context, ev any) error {
	return r.PublishAsync(ctx, ev)
}

func (r *recorder) PublishAsync(_ context.Context, ev any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, ev.(event.TopicProvider).EventTopic())
	return nil
}

func (r *recorder) last() topic.Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.topics) == 0 {
		return ""
	}
	return r.topics[len(r.topics)-1]
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}
}

func newManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	return New(tool.NewBuiltinRegistry(), opts...)
}

// seed inserts one paragraph per text, in order, and focuses the last one.
func seed(t *testing.T, m *Manager, texts ...string) []*block.Block {
	t.Helper()
	out := make([]*block.Block, len(texts))
	for i, text := range texts {
		b, err := m.Insert(WithData(block.Data{"text": text}))
		if err != nil {
			t.Fatalf("insert %q: %v", text, err)
		}
		out[i] = b
	}
	return out
}

func ids(m *Manager) []string {
	var out []string
	for _, b := range m.Blocks() {
		out = append(out, b.ID())
	}
	return out
}

func checkInvariants(t *testing.T, m *Manager) {
	t.Helper()
	blocks := m.Blocks()
	if len(blocks) == 0 {
		t.Fatal("collection is empty")
	}
	seen := make(map[string]bool)
	for _, b := range blocks {
		if seen[b.ID()] {
			t.Fatalf("duplicate id %q", b.ID())
		}
		seen[b.ID()] = true
	}
	if cur := m.CurrentIndex(); cur < -1 || cur >= len(blocks) {
		t.Fatalf("current index %d out of range for %d blocks", cur, len(blocks))
	}
}

// ============================================================================
// Insert
// ============================================================================

func TestInsertDefaults(t *testing.T) {
	m := newManager(t)
	if m.CurrentIndex() != -1 || m.Len() != 0 {
		t.Fatal("new manager should be empty and unfocused")
	}

	b, err := m.Insert()
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if b.Name() != tool.ParagraphName {
		t.Errorf("expected default tool, got %q", b.Name())
	}
	if m.CurrentIndex() != 0 || m.CurrentBlock() != b {
		t.Errorf("expected new block to be current")
	}

	seed(t, m, "a", "b")
	if got := ids(m); fmt.Sprint(got) != "[b1 b2 b3]" {
		t.Errorf("expected blocks appended after current, got %v", got)
	}
	if m.CurrentIndex() != 2 {
		t.Errorf("expected current 2, got %d", m.CurrentIndex())
	}
}

func TestInsertWithoutFocusBeforeCurrent(t *testing.T) {
	m := newManager(t)
	blocks := seed(t, m, "a", "b", "c")

	if _, err := m.Insert(AtIndex(0), Focus(false)); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if m.CurrentBlock() != blocks[2] {
		t.Errorf("current block changed: got %v", m.CurrentBlock())
	}
	if m.CurrentIndex() != 3 {
		t.Errorf("expected current 3, got %d", m.CurrentIndex())
	}
}

func TestInsertOptions(t *testing.T) {
	m := newManager(t)
	b, err := m.Insert(WithTool(tool.HeaderName), WithData(block.Data{"text": "T", "level": 2}), WithID("h"), Disabled(true))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if b.ID() != "h" || b.Name() != tool.HeaderName || !b.Disabled() {
		t.Errorf("unexpected block %s disabled=%v", b, b.Disabled())
	}
}

func TestInsertErrors(t *testing.T) {
	m := newManager(t)
	seed(t, m, "a")

	_, err := m.Insert(WithTool("nope"))
	if !errors.Is(err, tool.ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}

	_, err = m.Insert(AtIndex(5))
	var rerr *RangeError
	if !errors.As(err, &rerr) || rerr.Index != 5 {
		t.Errorf("expected RangeError, got %v", err)
	}

	_, err = m.Insert(WithID("b1"))
	var ierr *InvalidOperationError
	if !errors.As(err, &ierr) || !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("expected InvalidOperationError for duplicate id, got %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("failed inserts changed the collection: %v", ids(m))
	}
}

func TestReplaceByID(t *testing.T) {
	rec := &recorder{}
	m := newManager(t, WithPublisher(rec))
	blocks := seed(t, m, "a", "b", "c")
	blocks[1].SetDisabled(true)

	b, err := m.Insert(WithID("b2"), Replace(), WithTool(tool.QuoteName), WithData(block.Data{"text": "q"}), Focus(false))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if b != blocks[1] {
		t.Error("expected block to be updated in place")
	}
	if b.Name() != tool.QuoteName || !b.Disabled() {
		t.Errorf("unexpected block after replace: %s disabled=%v", b, b.Disabled())
	}
	if fmt.Sprint(ids(m)) != "[b1 b2 b3]" {
		t.Errorf("order changed: %v", ids(m))
	}
	if rec.last() != event.TopicBlockReplaced {
		t.Errorf("expected replaced event, got %q", rec.last())
	}
}

func TestReplaceIdempotent(t *testing.T) {
	m := newManager(t)
	seed(t, m, "a", "b", "c")
	before := ids(m)

	for i := 0; i < 2; i++ {
		b, _ := m.BlockByID("b2")
		if _, err := m.Insert(WithID("b2"), Replace(), WithTool(b.Name()), WithData(b.Data())); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if fmt.Sprint(ids(m)) != fmt.Sprint(before) {
		t.Errorf("expected %v, got %v", before, ids(m))
	}
	b, _ := m.BlockByID("b2")
	if b.Data().String("text") != "b" {
		t.Errorf("data changed: %v", b.Data())
	}
}

func TestReplaceAtCurrentIndex(t *testing.T) {
	m := newManager(t)
	blocks := seed(t, m, "a", "b")
	_ = m.SetCurrentIndex(0)

	b, err := m.Insert(Replace(), WithData(block.Data{"text": "new"}))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if m.Len() != 2 || m.BlockByIndex(0) != b {
		t.Errorf("expected block 0 replaced, got %v", ids(m))
	}
	if !blocks[0].Destroyed() {
		t.Error("replaced block should be destroyed")
	}
}

// ============================================================================
// Remove
// ============================================================================

func TestRemoveLastBlockRefills(t *testing.T) {
	m := newManager(t)
	seed(t, m, "only")

	if err := m.RemoveBlock(0); err != nil {
		t.Fatalf("RemoveBlock: %v", err)
	}
	checkInvariants(t, m)
	if m.Len() != 1 || m.BlockByIndex(0).ID() == "b1" {
		t.Errorf("expected fresh default block, got %v", ids(m))
	}
	if !m.BlockByIndex(0).IsEmpty() || m.CurrentIndex() != 0 {
		t.Error("fresh block should be empty and current")
	}
}

func TestRemoveAdjustsCurrent(t *testing.T) {
	tests := []struct {
		name        string
		current     int
		remove      int
		wantCurrent int
	}{
		{"before current", 2, 0, 0},
		{"at current", 2, 2, 1},
		{"after current", 1, 3, 1},
		{"first block", 0, 0, 0},
		{"middle before", 3, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(t)
			seed(t, m, "a", "b", "c", "d")
			_ = m.SetCurrentIndex(tt.current)

			if err := m.RemoveBlock(tt.remove); err != nil {
				t.Fatalf("RemoveBlock: %v", err)
			}
			if m.CurrentIndex() != tt.wantCurrent {
				t.Errorf("current = %d, want %d", m.CurrentIndex(), tt.wantCurrent)
			}
			checkInvariants(t, m)
		})
	}
}

func TestRemoveOutOfRange(t *testing.T) {
	m := newManager(t)
	seed(t, m, "a")

	for _, index := range []int{-1, 1, 10} {
		err := m.RemoveBlock(index)
		var nerr *NotFoundError
		if !errors.As(err, &nerr) || nerr.Index != index {
			t.Errorf("RemoveBlock(%d): expected NotFoundError, got %v", index, err)
		}
	}
	if m.Len() != 1 {
		t.Errorf("collection changed: %v", ids(m))
	}
}

func TestRandomInsertRemoveKeepsInvariants(t *testing.T) {
	m := newManager(t)
	seed(t, m, "a")

	ops := []func(){
		func() { _, _ = m.Insert() },
		func() { _ = m.RemoveCurrentBlock() },
		func() { _ = m.RemoveBlock(0) },
		func() { _, _ = m.Insert(AtIndex(0), Focus(false)) },
		func() { _ = m.RemoveBlock(m.Len() - 1) },
	}
	for i := 0; i < 200; i++ {
		ops[(i*7+i/3)%len(ops)]()
		checkInvariants(t, m)
	}
}

func TestClear(t *testing.T) {
	rec := &recorder{}
	m := newManager(t, WithPublisher(rec))
	blocks := seed(t, m, "a", "b")

	if err := m.Clear(false); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if m.Len() != 0 || m.CurrentIndex() != -1 {
		t.Errorf("expected empty collection, got %v", ids(m))
	}
	if !blocks[0].Destroyed() || !blocks[1].Destroyed() {
		t.Error("cleared blocks should be destroyed")
	}

	if err := m.Clear(true); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	checkInvariants(t, m)
	if m.Len() != 1 || m.CurrentIndex() != 0 {
		t.Errorf("expected one focused block, got %v", ids(m))
	}
}

// ============================================================================
// Move and swap
// ============================================================================

func TestMove(t *testing.T) {
	m := newManager(t)
	seed(t, m, "0", "1", "2", "3", "4")

	if err := m.Move(3, 0); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got := fmt.Sprint(ids(m)); got != "[b2 b3 b4 b1 b5]" {
		t.Errorf("expected [1,2,3,0,4], got %s", got)
	}
	if m.CurrentIndex() != 3 {
		t.Errorf("expected current 3, got %d", m.CurrentIndex())
	}

	if err := m.Move(0, 3); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if got := fmt.Sprint(ids(m)); got != "[b1 b2 b3 b4 b5]" {
		t.Errorf("expected original order, got %s", got)
	}
}

func TestMoveCurrentAndRange(t *testing.T) {
	m := newManager(t)
	blocks := seed(t, m, "a", "b", "c")

	if err := m.MoveCurrent(0); err != nil {
		t.Fatalf("MoveCurrent: %v", err)
	}
	if m.BlockByIndex(0) != blocks[2] {
		t.Errorf("expected last block first, got %v", ids(m))
	}

	for _, tc := range [][2]int{{3, 0}, {0, -1}, {-1, 0}} {
		err := m.Move(tc[0], tc[1])
		if !errors.Is(err, ErrRange) {
			t.Errorf("Move(%d, %d): expected ErrRange, got %v", tc[0], tc[1], err)
		}
	}
}

func TestSwap(t *testing.T) {
	rec := &recorder{}
	m := newManager(t, WithPublisher(rec))
	seed(t, m, "a", "b", "c")

	if err := m.Swap(0, 2); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if got := fmt.Sprint(ids(m)); got != "[b3 b2 b1]" {
		t.Errorf("unexpected order %s", got)
	}
	if m.CurrentIndex() != 2 || rec.last() != event.TopicBlockSwapped {
		t.Errorf("unexpected current %d / event %q", m.CurrentIndex(), rec.last())
	}
	if err := m.Swap(0, 3); !errors.Is(err, ErrRange) {
		t.Errorf("expected ErrRange, got %v", err)
	}
}

// ============================================================================
// Split and merge
// ============================================================================

func TestSplit(t *testing.T) {
	rec := &recorder{}
	m := newManager(t, WithPublisher(rec))
	seed(t, m, "a", "b")
	_ = m.SetCurrentIndex(0)

	b, err := m.Split(" world")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if m.IndexOf(b) != 1 || m.CurrentBlock() != b {
		t.Errorf("expected split block after current and focused")
	}
	if b.Data().String("text") != " world" {
		t.Errorf("unexpected text %q", b.Data().String("text"))
	}
	if rec.last() != event.TopicBlockSplit {
		t.Errorf("expected split event, got %q", rec.last())
	}
}

func TestSplitUsesDefaultToolInput(t *testing.T) {
	reg := tool.NewBuiltinRegistry()
	m := New(reg, WithIDGenerator(sequentialIDs()))
	seed(t, m, "a")

	if err := reg.SetDefault(tool.ListName); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	b, err := m.Split("tail")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if b.Name() != tool.ListName {
		t.Errorf("split block tool = %q, want list", b.Name())
	}
	if got := fmt.Sprint(b.Data().Strings("items")); got != "[tail]" {
		t.Errorf("items = %s, want [tail]", got)
	}

	if err := reg.SetDefault(tool.DelimiterName); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	_, err = m.Split("lost")
	var ioe *InvalidOperationError
	if !errors.As(err, &ioe) {
		t.Fatalf("expected InvalidOperationError, got %v", err)
	}
	if m.Len() != 2 || m.CurrentBlock() != b {
		t.Errorf("failed split changed the collection: len %d", m.Len())
	}
}

func TestMergeBlocks(t *testing.T) {
	rec := &recorder{}
	m := newManager(t, WithPublisher(rec))
	blocks := seed(t, m, "foo", "bar")

	f := m.MergeBlocks(context.Background(), blocks[0], blocks[1])
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := f.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got != blocks[0] {
		t.Error("expected target block")
	}
	if m.Len() != 1 || m.CurrentIndex() != 0 {
		t.Fatalf("expected one focused block, got %v", ids(m))
	}
	if text := m.BlockByIndex(0).Data().String("text"); text != "foobar" {
		t.Errorf("expected foobar, got %q", text)
	}
	if _, err := m.BlockByID(blocks[1].ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("source should be gone, got %v", err)
	}
	select {
	case <-f.Done():
	default:
		t.Error("Done should be closed")
	}
}

func TestMergeEmptySource(t *testing.T) {
	m := newManager(t)
	blocks := seed(t, m, "foo", "")

	got, err := m.MergeBlocks(context.Background(), blocks[0], blocks[1]).Wait(context.Background())
	if err != nil || got.Data().String("text") != "foo" || m.Len() != 1 {
		t.Errorf("unexpected merge result %v %v %v", got, err, ids(m))
	}
}

func TestMergePreconditions(t *testing.T) {
	m := newManager(t)
	blocks := seed(t, m, "a", "b")
	code, _ := m.Insert(WithTool(tool.CodeName))
	code2, _ := m.Insert(WithTool(tool.CodeName))
	outsider, _ := block.New("x", tool.Paragraph(), nil)

	tests := []struct {
		name           string
		target, source *block.Block
		want           error
	}{
		{"different tools", blocks[1], code, ErrInvalidOperation},
		{"not mergeable", code, code2, ErrInvalidOperation},
		{"same block", blocks[0], blocks[0], ErrInvalidOperation},
		{"nil source", blocks[0], nil, ErrInvalidOperation},
		{"source outside collection", blocks[0], outsider, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := ids(m)
			_, err := m.MergeBlocks(context.Background(), tt.target, tt.source).Wait(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if fmt.Sprint(ids(m)) != fmt.Sprint(before) {
				t.Errorf("collection changed: %v", ids(m))
			}
		})
	}
}

func TestMergeWaitCancelled(t *testing.T) {
	f := newMergeFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// ============================================================================
// Lookups
// ============================================================================

func TestLookups(t *testing.T) {
	m := newManager(t)
	blocks := seed(t, m, "a", "b", "c")

	if m.BlockByIndex(-1) != blocks[2] {
		t.Error("index -1 should address the last block")
	}
	if m.BlockByIndex(3) != nil || m.BlockByIndex(-2) != nil {
		t.Error("out of range index should return nil")
	}

	i, err := m.IndexByID("b2")
	if err != nil || i != 1 {
		t.Errorf("IndexByID = %d, %v", i, err)
	}
	_, err = m.IndexByID("missing")
	var nerr *NotFoundError
	if !errors.As(err, &nerr) || nerr.ID != "missing" {
		t.Errorf("expected NotFoundError, got %v", err)
	}

	if err := m.SetCurrentBlock(blocks[1]); err != nil {
		t.Fatalf("SetCurrentBlock: %v", err)
	}
	if m.PreviousBlock() != blocks[0] || m.NextBlock() != blocks[2] {
		t.Error("unexpected neighbours")
	}
	_ = m.SetCurrentIndex(0)
	if m.PreviousBlock() != nil {
		t.Error("first block has no previous block")
	}
	if err := m.SetCurrentIndex(7); !errors.Is(err, ErrRange) {
		t.Errorf("expected ErrRange, got %v", err)
	}
	if !m.IsDefault(blocks[0]) {
		t.Error("paragraph should be the default tool")
	}
}

func TestUpdate(t *testing.T) {
	m := newManager(t)
	seed(t, m, "a")

	b, err := m.Update("b1", block.Data{"text": "z"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if b.Data().String("text") != "z" {
		t.Errorf("unexpected data %v", b.Data())
	}
	if _, err := m.Update("nope", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
