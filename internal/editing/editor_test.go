package editing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/manager"
	"github.com/dshills/blockstorm/internal/tool"
)

type fakeToolbar struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeToolbar) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeToolbar) Open(hide bool)  { f.record(fmt.Sprintf("open(%v)", hide)) }
func (f *fakeToolbar) Close()          { f.record("close") }
func (f *fakeToolbar) Move()           { f.record("move") }
func (f *fakeToolbar) ShowPlusButton() { f.record("plus") }

func (f *fakeToolbar) has(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

type seed struct {
	tool string
	data block.Data
}

func para(text string) seed {
	return seed{tool.ParagraphName, block.Data{"text": text}}
}

type fixture struct {
	m       *manager.Manager
	c       *caret.Caret
	e       *Editor
	toolbar *fakeToolbar
	blocks  []*block.Block
}

func newFixture(t *testing.T, seeds []seed, opts ...Option) *fixture {
	t.Helper()
	n := 0
	m := manager.New(tool.NewBuiltinRegistry(), manager.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}))
	f := &fixture{m: m, c: caret.New(m), toolbar: &fakeToolbar{}}
	for _, s := range seeds {
		b, err := m.Insert(manager.WithTool(s.tool), manager.WithData(s.data))
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		f.blocks = append(f.blocks, b)
	}
	f.e = New(m, f.c, append([]Option{WithToolbar(f.toolbar)}, opts...)...)
	return f
}

func (f *fixture) texts() []string {
	var out []string
	for _, b := range f.m.Blocks() {
		out = append(out, b.Data().String("text"))
	}
	return out
}

func wait(t *testing.T, r Result) *block.Block {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	b, err := r.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return b
}

// ============================================================================
// Backspace
// ============================================================================

func TestBackspaceAtStartOfFirstBlock(t *testing.T) {
	f := newFixture(t, []seed{para("first"), para("second")})
	_ = f.c.SetToBlock(f.blocks[0], caret.Start, 0)

	r := f.e.Backspace(context.Background(), false)
	if r.Status != StatusNoOp {
		t.Errorf("expected no-op, got %s", r.Status)
	}
	if f.m.Len() != 2 || fmt.Sprint(f.texts()) != "[first second]" {
		t.Errorf("collection changed: %v", f.texts())
	}
}

func TestBackspaceMergesIntoPrevious(t *testing.T) {
	f := newFixture(t, []seed{para("foo"), para("bar")})
	_ = f.c.SetToBlock(f.blocks[1], caret.Start, 0)

	r := f.e.Backspace(context.Background(), false)
	if r.Status != StatusAsync || r.Pending == nil {
		t.Fatalf("expected async merge, got %s (%v)", r.Status, r.Err)
	}
	b := wait(t, r)

	if b != f.blocks[0] || f.m.Len() != 1 {
		t.Fatalf("expected single surviving block, got %v", f.texts())
	}
	if b.Data().String("text") != "foobar" {
		t.Errorf("expected foobar, got %q", b.Data().String("text"))
	}
	if f.c.Block() != b || f.c.Offset() != 3 {
		t.Errorf("expected caret at junction, got %v@%d", f.c.Block(), f.c.Offset())
	}
	if !f.toolbar.has("close") {
		t.Error("expected toolbar close")
	}
}

func TestBackspaceDeletesText(t *testing.T) {
	f := newFixture(t, []seed{para("ab"), para("cd")})
	_ = f.c.SetToBlock(f.blocks[1], caret.End, 0)

	r := f.e.Backspace(context.Background(), false)
	if !r.IsOK() || f.blocks[1].Data().String("text") != "c" {
		t.Errorf("expected text deletion, got %s %q", r.Status, f.blocks[1].Data().String("text"))
	}
}

func TestBackspaceRemovesEmptyBlock(t *testing.T) {
	f := newFixture(t, []seed{para("keep"), para("")})
	_ = f.c.SetToBlock(f.blocks[1], caret.Start, 0)

	r := f.e.Backspace(context.Background(), false)
	if !r.IsOK() || f.m.Len() != 1 {
		t.Fatalf("expected removal, got %s %v", r.Status, f.texts())
	}
	if f.c.Block() != f.blocks[0] || f.c.Offset() != 4 {
		t.Errorf("expected caret at end of previous block, got %v@%d", f.c.Block(), f.c.Offset())
	}
}

func TestBackspaceRemovesInputlessPrevious(t *testing.T) {
	tests := []struct {
		name     string
		skip     bool
		wantKept string
	}{
		{"skip enabled removes image", true, tool.ParagraphName},
		{"skip disabled removes current", false, tool.ImageName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []seed{
				para("top"),
				{tool.ImageName, block.Data{"url": "a.png"}},
				para(""),
			}, WithSkipEmptyInputBlocks(tt.skip))
			_ = f.c.SetToBlock(f.blocks[2], caret.Start, 0)

			f.e.Backspace(context.Background(), false)
			if f.m.Len() != 2 {
				t.Fatalf("expected 2 blocks, got %d", f.m.Len())
			}
			if got := f.m.BlockByIndex(1).Name(); got != tt.wantKept {
				t.Errorf("expected %s at index 1, got %s", tt.wantKept, got)
			}
		})
	}
}

func TestBackspaceDisabled(t *testing.T) {
	tests := []struct {
		name  string
		force bool
		want  string
	}{
		{"ignored without force", false, "[foo bar]"},
		{"force merges", true, "[foobar]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []seed{para("foo"), para("bar")})
			_ = f.c.SetToBlock(f.blocks[1], caret.End, 0)
			f.blocks[1].SetDisabled(true)

			r := f.e.Backspace(context.Background(), tt.force)
			if tt.force {
				wait(t, r)
			} else if r.Status != StatusNoOp {
				t.Errorf("expected no-op, got %s", r.Status)
			}
			if got := fmt.Sprint(f.texts()); got != tt.want {
				t.Errorf("texts = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBackspaceSoleEmptyBlock(t *testing.T) {
	f := newFixture(t, []seed{para("")})
	_ = f.c.SetToBlock(f.blocks[0], caret.Start, 0)

	if r := f.e.Backspace(context.Background(), false); r.Status != StatusNoOp {
		t.Errorf("expected no-op, got %s", r.Status)
	}
	if f.m.BlockByIndex(0) != f.blocks[0] {
		t.Error("sole block should be kept")
	}
}

func TestBackspaceSelectedBlock(t *testing.T) {
	f := newFixture(t, []seed{para("a"), para("b"), para("c")})
	_ = f.c.SetToBlock(f.blocks[1], caret.Default, 1)
	f.blocks[1].SetSelected(true)

	f.e.Backspace(context.Background(), false)
	if fmt.Sprint(f.texts()) != "[a c]" {
		t.Errorf("expected selected block removed, got %v", f.texts())
	}
}

func TestBackspaceDifferentTools(t *testing.T) {
	f := newFixture(t, []seed{{tool.HeaderName, block.Data{"text": "Title", "level": 2}}, para("body")})
	_ = f.c.SetToBlock(f.blocks[1], caret.Start, 0)

	r := f.e.Backspace(context.Background(), false)
	if !r.IsOK() || f.m.Len() != 2 {
		t.Fatalf("expected no structural change, got %s %v", r.Status, f.texts())
	}
	if f.c.Block() != f.blocks[0] || !f.c.IsAtEnd() {
		t.Errorf("expected caret at end of header, got %v@%d", f.c.Block(), f.c.Offset())
	}
}

func TestBackspaceRemovesEmptyTargetOfOtherTool(t *testing.T) {
	f := newFixture(t, []seed{{tool.HeaderName, block.Data{"text": ""}}, para("body")})
	_ = f.c.SetToBlock(f.blocks[1], caret.Start, 0)

	f.e.Backspace(context.Background(), false)
	if f.m.Len() != 1 || f.m.BlockByIndex(0) != f.blocks[1] {
		t.Errorf("expected empty header removed, got %v", f.texts())
	}
	if f.m.CurrentBlock() != f.blocks[1] {
		t.Error("body should stay current")
	}
}

func TestBackspaceCodeKeepsLineBreaks(t *testing.T) {
	f := newFixture(t, []seed{para("p"), {tool.CodeName, block.Data{"code": "x\n"}}})
	_ = f.c.SetToBlock(f.blocks[1], caret.End, 0)

	f.e.Backspace(context.Background(), false)
	if got := f.blocks[1].Data().String("code"); got != "x" {
		t.Errorf("expected newline deleted, got %q", got)
	}
	if f.m.Len() != 2 {
		t.Error("code backspace must not merge")
	}
}

func TestBackspaceForce(t *testing.T) {
	f := newFixture(t, []seed{para("foo"), para("bar")})
	_ = f.c.SetToBlock(f.blocks[1], caret.End, 0)

	b := wait(t, f.e.Backspace(context.Background(), true))
	if b.Data().String("text") != "foobar" || f.m.Len() != 1 {
		t.Errorf("expected forced merge, got %v", f.texts())
	}
}

// ============================================================================
// Enter and split
// ============================================================================

func TestEnterSplits(t *testing.T) {
	f := newFixture(t, []seed{para("hello world")})
	_ = f.c.SetToBlock(f.blocks[0], caret.Default, 5)

	r := f.e.Enter(context.Background())
	if !r.IsOK() {
		t.Fatalf("Enter: %s %v", r.Status, r.Err)
	}
	if fmt.Sprint(f.texts()) != "[hello  world]" {
		t.Errorf("expected [hello, ' world'], got %q", f.texts())
	}
	if f.m.CurrentIndex() != 1 || f.c.Block() != r.Block || f.c.Offset() != 0 {
		t.Errorf("expected caret at start of new block")
	}
}

func TestEnterAtStartInsertsAbove(t *testing.T) {
	f := newFixture(t, []seed{para("text")})
	_ = f.c.SetToBlock(f.blocks[0], caret.Start, 0)

	r := f.e.Enter(context.Background())
	if r.Block != f.blocks[0] {
		t.Errorf("caret should stay in the original block")
	}
	if fmt.Sprint(f.texts()) != "[ text]" {
		t.Errorf("expected empty block above, got %q", f.texts())
	}
	if f.m.CurrentIndex() != 1 {
		t.Errorf("expected current 1, got %d", f.m.CurrentIndex())
	}
}

func TestEnterAtEndOpensToolbar(t *testing.T) {
	f := newFixture(t, []seed{para("text")})
	_ = f.c.SetToBlock(f.blocks[0], caret.End, 0)

	r := f.e.Enter(context.Background())
	if !r.Block.IsEmpty() || !f.m.IsDefault(r.Block) {
		t.Fatalf("expected empty default block, got %v", r.Block.Data())
	}
	if !f.toolbar.has("open(false)") || !f.toolbar.has("plus") {
		t.Errorf("expected toolbar open and plus button, got %v", f.toolbar.calls)
	}
}

func TestEnterOnMediaSplits(t *testing.T) {
	f := newFixture(t, []seed{{tool.ImageName, block.Data{"url": "a.png"}}})
	_ = f.c.SetToBlock(f.blocks[0], caret.Start, 0)

	r := f.e.Enter(context.Background())
	if f.m.Len() != 2 || f.m.IndexOf(r.Block) != 1 {
		t.Errorf("expected new block after image, got %d blocks", f.m.Len())
	}
}

func TestEnterInCodeInsertsNewline(t *testing.T) {
	f := newFixture(t, []seed{{tool.CodeName, block.Data{"code": "ab"}}})
	_ = f.c.SetToBlock(f.blocks[0], caret.Default, 1)

	f.e.Enter(context.Background())
	if got := f.blocks[0].Data().String("code"); got != "a\nb" || f.m.Len() != 1 {
		t.Errorf("expected newline in code, got %q", got)
	}
}

func TestSplitBlankFragment(t *testing.T) {
	f := newFixture(t, []seed{para("word   ")})
	_ = f.c.SetToBlock(f.blocks[0], caret.Default, 4)

	b, err := f.e.SplitBlock(context.Background())
	if err != nil {
		t.Fatalf("SplitBlock: %v", err)
	}
	if b.Data().String("text") != "" {
		t.Errorf("expected empty text, got %q", b.Data().String("text"))
	}
}

func TestSplitIntoNonTextDefaultTool(t *testing.T) {
	tests := []struct {
		name      string
		def       string
		wantErr   bool
		wantLen   int
		wantItems string
	}{
		{"list takes fragment as first item", tool.ListName, false, 2, "[ world]"},
		{"delimiter rejects fragment", tool.DelimiterName, true, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := tool.NewBuiltinRegistry()
			m := manager.New(reg)
			first, err := m.Insert(manager.WithData(block.Data{"text": "hello world"}))
			if err != nil {
				t.Fatalf("Insert: %v", err)
			}
			if err := reg.SetDefault(tt.def); err != nil {
				t.Fatalf("SetDefault: %v", err)
			}
			c := caret.New(m)
			e := New(m, c)
			_ = c.SetToBlock(first, caret.Default, 5)

			b, err := e.SplitBlock(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitBlock err = %v, wantErr %v", err, tt.wantErr)
			}
			if m.Len() != tt.wantLen {
				t.Fatalf("Len = %d, want %d", m.Len(), tt.wantLen)
			}
			if tt.wantErr {
				var ioe *manager.InvalidOperationError
				if !errors.As(err, &ioe) {
					t.Errorf("err = %T, want *InvalidOperationError", err)
				}
				if got := first.Data().String("text"); got != "hello world" {
					t.Errorf("source text = %q, want content restored", got)
				}
				return
			}
			if got := fmt.Sprint(b.Data().Strings("items")); got != tt.wantItems {
				t.Errorf("items = %s, want %s", got, tt.wantItems)
			}
			if got := first.Data().String("text"); got != "hello" {
				t.Errorf("source text = %q, want hello", got)
			}
		})
	}
}

// ============================================================================
// Replace and move
// ============================================================================

func TestReplaceBlockByID(t *testing.T) {
	f := newFixture(t, []seed{para("a"), para("b")})

	b, err := f.e.ReplaceBlockByID("b1", tool.HeaderName, block.Data{"text": "H"}, false)
	if err != nil {
		t.Fatalf("ReplaceBlockByID: %v", err)
	}
	if b.ID() != "b1" || b.Name() != tool.HeaderName || f.m.IndexOf(b) != 0 {
		t.Errorf("unexpected replacement %s", b)
	}

	_, err = f.e.ReplaceBlockByID("zzz", "", nil, false)
	var nerr *manager.NotFoundError
	if !errors.As(err, &nerr) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestReplaceBlockByIndex(t *testing.T) {
	f := newFixture(t, []seed{para("a"), para("b")})

	b, err := f.e.ReplaceBlockByIndex(1, "", block.Data{"text": "z"}, "", false)
	if err != nil {
		t.Fatalf("ReplaceBlockByIndex: %v", err)
	}
	if b.ID() == "b2" || b.Name() != tool.ParagraphName || f.m.Len() != 2 {
		t.Errorf("expected fresh block at index 1, got %s", b)
	}
	if _, err := f.e.ReplaceBlockByIndex(2, "", nil, "", false); !errors.Is(err, manager.ErrRange) {
		t.Errorf("expected ErrRange, got %v", err)
	}
}

func TestMoveBlockToIndexByID(t *testing.T) {
	f := newFixture(t, []seed{para("a"), para("b"), para("c")})
	_ = f.m.SetCurrentIndex(1)

	b, err := f.e.MoveBlockToIndexByID("b1", 2, block.Data{"text": "a"})
	if err != nil {
		t.Fatalf("MoveBlockToIndexByID: %v", err)
	}
	if b != f.blocks[0] || fmt.Sprint(f.texts()) != "[b c a]" {
		t.Errorf("unexpected order %v", f.texts())
	}
	if f.m.CurrentBlock() != f.blocks[1] {
		t.Error("current block should be preserved")
	}

	b, err = f.e.MoveBlockToIndexByID("b2", 0, block.Data{"text": "B"})
	if err != nil {
		t.Fatalf("MoveBlockToIndexByID: %v", err)
	}
	if b.Data().String("text") != "B" || f.m.CurrentBlock() != b {
		t.Errorf("expected data replaced and current kept, got %v", b.Data())
	}

	if _, err := f.e.MoveBlockToIndexByID("missing", 0, nil); !errors.Is(err, manager.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================================
// Tunes
// ============================================================================

func TestAddAbove(t *testing.T) {
	f := newFixture(t, []seed{para("a"), para("b")})
	_ = f.m.SetCurrentIndex(1)

	r := f.e.AddAbove()
	if !r.IsOK() || f.m.IndexOf(r.Block) != 1 || f.m.CurrentBlock() != r.Block {
		t.Fatalf("expected focused block at 1")
	}
	if fmt.Sprint(f.texts()) != "[a  b]" {
		t.Errorf("unexpected texts %q", f.texts())
	}
	if !f.toolbar.has("open(false)") {
		t.Error("expected toolbar open")
	}
}

func TestToggleDisabled(t *testing.T) {
	f := newFixture(t, []seed{para("a")})
	f.e.ToggleDisabled()
	if !f.blocks[0].Disabled() {
		t.Error("expected disabled")
	}
	f.e.ToggleDisabled()
	if f.blocks[0].Disabled() {
		t.Error("expected enabled")
	}
}
