package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/blockstorm/internal/block"
	"github.com/dshills/blockstorm/internal/surface"
)

// Built-in tool names.
const (
	ParagraphName = "paragraph"
	HeaderName    = "header"
	QuoteName     = "quote"
	ListName      = "list"
	CodeName      = "code"
	ImageName     = "image"
	DelimiterName = "delimiter"
	StubName      = "stub"
)

// Builtins returns a fresh instance of every built-in tool.
func Builtins() []block.Tool {
	return []block.Tool{
		Paragraph(),
		Header(),
		Quote(),
		List(),
		Code(),
		Image(),
		Delimiter(),
		Stub(),
	}
}

// Text is a tool whose payload is a fixed set of string fields, each
// rendered as one input. Merging appends the source's first field to the
// target field named by MergeInto.
type Text struct {
	ToolName  string
	Caps      block.Capabilities
	Fields    []string
	MergeInto string
}

var _ block.Tool = (*Text)(nil)

// Paragraph is the default text tool.
func Paragraph() *Text {
	return &Text{
		ToolName:  ParagraphName,
		Caps:      block.Capabilities{Mergeable: true},
		Fields:    []string{"text"},
		MergeInto: "text",
	}
}

// Header is a heading with a level field carried in the stored payload.
func Header() *Text {
	return &Text{
		ToolName:  HeaderName,
		Caps:      block.Capabilities{Mergeable: true},
		Fields:    []string{"text"},
		MergeInto: "text",
	}
}

// Quote holds a quotation and its caption.
func Quote() *Text {
	return &Text{
		ToolName:  QuoteName,
		Caps:      block.Capabilities{Mergeable: true},
		Fields:    []string{"text", "caption"},
		MergeInto: "text",
	}
}

// Code holds preformatted text. Line breaks stay inside the block.
func Code() *Text {
	return &Text{
		ToolName: CodeName,
		Caps:     block.Capabilities{PreserveLineBreaks: true},
		Fields:   []string{"code"},
	}
}

// Name implements block.Tool.
func (t *Text) Name() string { return t.ToolName }

// Capabilities implements block.Tool.
func (t *Text) Capabilities() block.Capabilities { return t.Caps }

// Render implements block.Tool.
func (t *Text) Render(data block.Data) (block.Surface, error) {
	fields := make([]*surface.Field, len(t.Fields))
	for i, name := range t.Fields {
		fields[i] = surface.NewField(name, data.String(name))
	}
	return surface.New(fields...), nil
}

// Save implements block.Tool.
func (t *Text) Save(s block.Surface, stored block.Data) block.Data {
	out := stored.Clone()
	for _, in := range s.Inputs() {
		out[in.Name()] = in.Text()
	}
	return out
}

// IsEmpty implements block.Tool.
func (t *Text) IsEmpty(data block.Data) bool {
	return data.IsBlank(t.Fields...)
}

// Merge implements block.Tool.
func (t *Text) Merge(_ context.Context, target block.Surface, source block.Data) error {
	if !t.Caps.Mergeable {
		return fmt.Errorf("%s: merge not supported", t.ToolName)
	}
	ts, ok := target.(*surface.Text)
	if !ok {
		return target.Append(source.String(t.Fields[0]))
	}
	f := ts.Field(t.MergeInto)
	if f == nil {
		return fmt.Errorf("%s: no field %q", t.ToolName, t.MergeInto)
	}
	f.SetText(f.Text() + source.String(t.Fields[0]))
	return nil
}

// ListTool renders each list item as its own input.
type ListTool struct{}

// List returns the list tool. Data: {"style": "ordered"|"unordered", "items": [...]}.
func List() *ListTool { return &ListTool{} }

// Name implements block.Tool.
func (*ListTool) Name() string { return ListName }

// Capabilities implements block.Tool.
func (*ListTool) Capabilities() block.Capabilities {
	return block.Capabilities{Mergeable: true}
}

// Render implements block.Tool.
func (*ListTool) Render(data block.Data) (block.Surface, error) {
	items := data.Strings("items")
	if len(items) == 0 {
		items = []string{""}
	}
	s := surface.New()
	for _, item := range items {
		s.AddField("item", item)
	}
	return s, nil
}

// Save implements block.Tool.
func (*ListTool) Save(s block.Surface, stored block.Data) block.Data {
	out := stored.Clone()
	inputs := s.Inputs()
	items := make([]any, len(inputs))
	for i, in := range inputs {
		items[i] = in.Text()
	}
	out["items"] = items
	if out.String("style") == "" {
		out["style"] = "unordered"
	}
	return out
}

// IsEmpty implements block.Tool.
func (*ListTool) IsEmpty(data block.Data) bool {
	return data.IsBlank("items")
}

// Merge implements block.Tool. Source items are appended as new entries.
func (*ListTool) Merge(_ context.Context, target block.Surface, source block.Data) error {
	ts, ok := target.(*surface.Text)
	if !ok {
		return target.Append(strings.Join(source.Strings("items"), ""))
	}
	for _, item := range source.Strings("items") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		ts.AddField("item", item)
	}
	return nil
}

// Validate implements block.Validator.
func (*ListTool) Validate(data block.Data) bool {
	style := data.String("style")
	return style == "" || style == "ordered" || style == "unordered"
}

// Static is a tool with no inputs: images, delimiters and stubs.
type Static struct {
	ToolName string
	Caps     block.Capabilities
	// Content lists the payload keys whose presence makes the block non-empty.
	Content []string
}

var _ block.Tool = (*Static)(nil)

// Image returns the image tool. Data: {"url": ..., "caption": ...}.
func Image() *Static {
	return &Static{
		ToolName: ImageName,
		Caps:     block.Capabilities{Media: true},
		Content:  []string{"url"},
	}
}

// Delimiter returns the delimiter tool. It has no payload and is always empty.
func Delimiter() *Static {
	return &Static{ToolName: DelimiterName}
}

// Stub returns the placeholder used for records whose tool is not
// registered. Data: {"title": <original tool>, "savedData": <original record>}.
func Stub() *Static {
	return &Static{ToolName: StubName, Content: []string{"title"}}
}

// Name implements block.Tool.
func (t *Static) Name() string { return t.ToolName }

// Capabilities implements block.Tool.
func (t *Static) Capabilities() block.Capabilities { return t.Caps }

// Render implements block.Tool.
func (t *Static) Render(block.Data) (block.Surface, error) {
	if t.Caps.Media {
		return surface.NewMedia(), nil
	}
	return surface.New(), nil
}

// Save implements block.Tool.
func (t *Static) Save(_ block.Surface, stored block.Data) block.Data {
	return stored.Clone()
}

// IsEmpty implements block.Tool.
func (t *Static) IsEmpty(data block.Data) bool {
	if len(t.Content) == 0 {
		return true
	}
	return data.IsBlank(t.Content...)
}

// Merge implements block.Tool.
func (t *Static) Merge(context.Context, block.Surface, block.Data) error {
	return fmt.Errorf("%s: merge not supported", t.ToolName)
}
