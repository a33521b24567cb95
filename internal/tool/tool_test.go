package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/blockstorm/internal/block"
)

// ============================================================================
// Registry
// ============================================================================

func TestBuiltinRegistry(t *testing.T) {
	r := NewBuiltinRegistry()

	if r.DefaultName() != ParagraphName {
		t.Errorf("expected default %q, got %q", ParagraphName, r.DefaultName())
	}
	for _, name := range []string{ParagraphName, HeaderName, QuoteName, ListName, CodeName, ImageName, DelimiterName, StubName} {
		if !r.Has(name) {
			t.Errorf("expected builtin %q to be registered", name)
		}
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(Paragraph()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(Paragraph()); !errors.Is(err, ErrDuplicateTool) {
		t.Errorf("expected ErrDuplicateTool, got %v", err)
	}
}

func TestRegistryFirstIsDefault(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Default(); !errors.Is(err, ErrNoDefault) {
		t.Errorf("expected ErrNoDefault on empty registry, got %v", err)
	}

	_ = r.Register(Header())
	_ = r.Register(Paragraph())
	if !r.IsDefault(HeaderName) {
		t.Errorf("expected first registered tool to be default")
	}

	if err := r.SetDefault(ParagraphName); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.SetDefault("missing"); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
	if _, err := r.Get("missing"); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

// ============================================================================
// Built-in tools
// ============================================================================

func TestParagraphRoundTrip(t *testing.T) {
	p := Paragraph()
	s, err := p.Render(block.Data{"text": "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Inputs()) != 1 {
		t.Fatalf("expected 1 input, got %d", len(s.Inputs()))
	}
	got := p.Save(s, block.Data{})
	if got.String("text") != "hello" {
		t.Errorf("expected text %q, got %q", "hello", got.String("text"))
	}
}

func TestParagraphMerge(t *testing.T) {
	p := Paragraph()
	s, _ := p.Render(block.Data{"text": "foo"})

	if err := p.Merge(context.Background(), s, block.Data{"text": "bar"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.Save(s, nil).String("text"); got != "foobar" {
		t.Errorf("expected %q, got %q", "foobar", got)
	}
}

func TestHeaderKeepsLevel(t *testing.T) {
	h := Header()
	s, _ := h.Render(block.Data{"text": "Title", "level": 2})

	got := h.Save(s, block.Data{"text": "Title", "level": 2})
	if got.Int("level", 0) != 2 {
		t.Errorf("expected level 2, got %v", got["level"])
	}
}

func TestQuoteMergeTargetsText(t *testing.T) {
	q := Quote()
	s, _ := q.Render(block.Data{"text": "to be", "caption": "Hamlet"})

	if err := q.Merge(context.Background(), s, block.Data{"text": " or not"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := q.Save(s, nil)
	if got.String("text") != "to be or not" {
		t.Errorf("expected merged text, got %q", got.String("text"))
	}
	if got.String("caption") != "Hamlet" {
		t.Errorf("expected caption untouched, got %q", got.String("caption"))
	}
}

func TestCodeNotMergeable(t *testing.T) {
	c := Code()
	if c.Capabilities().Mergeable {
		t.Error("code must not be mergeable")
	}
	if !c.Capabilities().PreserveLineBreaks {
		t.Error("code must preserve line breaks")
	}
	s, _ := c.Render(block.Data{"code": "x"})
	if err := c.Merge(context.Background(), s, block.Data{"code": "y"}); err == nil {
		t.Error("expected merge error")
	}
}

func TestListItems(t *testing.T) {
	l := List()
	s, _ := l.Render(block.Data{"items": []any{"one", "two"}})
	if len(s.Inputs()) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(s.Inputs()))
	}

	if err := l.Merge(context.Background(), s, block.Data{"items": []any{"three", " "}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := l.Save(s, block.Data{})
	items := got.Strings("items")
	if len(items) != 3 || items[2] != "three" {
		t.Errorf("expected 3 items ending in three, got %v", items)
	}
	if got.String("style") != "unordered" {
		t.Errorf("expected default style, got %q", got.String("style"))
	}
	if l.Validate(block.Data{"style": "zigzag"}) {
		t.Error("expected invalid style to fail validation")
	}
}

func TestEmptyList(t *testing.T) {
	l := List()
	s, _ := l.Render(block.Data{})
	if len(s.Inputs()) != 1 {
		t.Errorf("expected one blank item, got %d", len(s.Inputs()))
	}
	if !l.IsEmpty(l.Save(s, block.Data{})) {
		t.Error("expected list with blank item to be empty")
	}
}

func TestStaticTools(t *testing.T) {
	tests := []struct {
		name      string
		tool      *Static
		data      block.Data
		wantEmpty bool
		wantMedia bool
	}{
		{"image without url", Image(), block.Data{}, true, true},
		{"image with url", Image(), block.Data{"url": "a.png"}, false, true},
		{"delimiter", Delimiter(), block.Data{}, true, false},
		{"stub", Stub(), block.Data{"title": "table"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.tool.Render(tt.data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(s.Inputs()) != 0 {
				t.Errorf("expected no inputs, got %d", len(s.Inputs()))
			}
			if s.HasMedia() != tt.wantMedia {
				t.Errorf("HasMedia = %v, want %v", s.HasMedia(), tt.wantMedia)
			}
			if got := tt.tool.IsEmpty(tt.data); got != tt.wantEmpty {
				t.Errorf("IsEmpty = %v, want %v", got, tt.wantEmpty)
			}
		})
	}
}
