package lua

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/blockstorm/internal/block"
)

const calloutScript = `
return {
    name = "callout",
    mergeable = true,
    fields = {"title", "text"},
    merge_into = "text",
    is_empty = function(data)
        return data.text == ""
    end,
    merge = function(target, source)
        target.text = target.text .. " | " .. source.text
        return target
    end,
    validate = function(data)
        return data.title ~= nil and data.title ~= ""
    end,
}
`

func TestLoadTool(t *testing.T) {
	tool, err := Load(calloutScript, "callout.lua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tool.Close()

	if tool.Name() != "callout" {
		t.Errorf("expected name callout, got %q", tool.Name())
	}
	if !tool.Capabilities().Mergeable {
		t.Error("expected mergeable")
	}
	if got := tool.Fields(); len(got) != 2 || got[0] != "title" {
		t.Errorf("unexpected fields %v", got)
	}
}

func TestToolHooks(t *testing.T) {
	tool, err := Load(calloutScript, "callout.lua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tool.Close()

	if !tool.IsEmpty(block.Data{"title": "x", "text": ""}) {
		t.Error("expected is_empty hook to report empty")
	}
	if tool.IsEmpty(block.Data{"text": "body"}) {
		t.Error("expected is_empty hook to report content")
	}
	if tool.Validate(block.Data{"text": "no title"}) {
		t.Error("expected validate hook to reject missing title")
	}
	if !tool.Validate(block.Data{"title": "Note"}) {
		t.Error("expected validate hook to accept title")
	}
}

func TestToolMergeHook(t *testing.T) {
	tool, err := Load(calloutScript, "callout.lua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tool.Close()

	s, err := tool.Render(block.Data{"title": "Note", "text": "foo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tool.Merge(context.Background(), s, block.Data{"text": "bar"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := tool.Save(s, block.Data{})
	if got.String("text") != "foo | bar" {
		t.Errorf("expected merged text, got %q", got.String("text"))
	}
	if got.String("title") != "Note" {
		t.Errorf("expected title kept, got %q", got.String("title"))
	}
}

func TestDefaultMerge(t *testing.T) {
	tool, err := Load(`return { name = "note", mergeable = true }`, "note.lua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tool.Close()

	s, _ := tool.Render(block.Data{"text": "a"})
	if err := tool.Merge(context.Background(), s, block.Data{"text": "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tool.Save(s, nil).String("text"); got != "ab" {
		t.Errorf("expected %q, got %q", "ab", got)
	}
}

func TestInvalidScripts(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"not a table", `return 42`, ErrInvalidScript},
		{"no name", `return { mergeable = true }`, ErrMissingName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.code, tt.name)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := Load(`return {`, "broken.lua"); err == nil {
		t.Error("expected compile error")
	}
}

func TestSandbox(t *testing.T) {
	_, err := Load(`os.exit(1) return { name = "x" }`, "escape.lua")
	if err == nil {
		t.Error("expected os library to be unavailable")
	}
}

func TestCallTimeout(t *testing.T) {
	code := `
return {
    name = "spin",
    is_empty = function(data)
        while true do end
    end,
}
`
	tool, err := Load(code, "spin.lua", WithCallTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer tool.Close()

	// A timed-out hook falls back to the blank-field check.
	if !tool.IsEmpty(block.Data{"text": ""}) {
		t.Error("expected fallback to report empty")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`return { name = "beta" }`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`return { name = "alpha", media = true }`), 0o600); err != nil {
		t.Fatal(err)
	}

	tools, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tools) != 2 || tools[0].Name() != "alpha" || tools[1].Name() != "beta" {
		t.Fatalf("unexpected tools %v", tools)
	}
	for _, tool := range tools {
		tool.Close()
	}

	s, _ := tools[0].Render(block.Data{})
	if !s.HasMedia() || len(s.Inputs()) != 0 {
		t.Error("expected media tool without inputs")
	}

	none, err := LoadDir(filepath.Join(dir, "missing"))
	if err != nil || len(none) != 0 {
		t.Errorf("expected no tools for missing dir, got %v, %v", none, err)
	}
}
