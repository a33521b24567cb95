package block

import "context"

// Capabilities are the tool-declared flags the editing core consults.
type Capabilities struct {
	// Mergeable permits two adjacent blocks of this tool to be combined.
	Mergeable bool

	// PreserveLineBreaks makes Enter and Backspace fall through to plain
	// text editing instead of splitting or merging blocks.
	PreserveLineBreaks bool

	// Media marks tools whose content is not text (images, embeds).
	Media bool
}

// Tool is a pluggable content type.
type Tool interface {
	// Name is the stable key the tool is registered under.
	Name() string

	// Capabilities returns the tool's editing capabilities.
	Capabilities() Capabilities

	// Render builds the editable surface for data.
	Render(data Data) (Surface, error)

	// Save extracts the payload from a surface. stored holds the last
	// payload the block was rendered from, for fields the surface does not
	// carry.
	Save(s Surface, stored Data) Data

	// IsEmpty reports whether data has no content.
	IsEmpty(data Data) bool

	// Merge absorbs source into the target surface. It is only called when
	// both blocks belong to this tool.
	Merge(ctx context.Context, target Surface, source Data) error
}

// Destroyer is implemented by tools that hold resources per rendered block.
type Destroyer interface {
	Destroy(s Surface)
}

// Input is a focusable region within a surface.
type Input interface {
	// Name identifies the input within its surface (e.g. "text", "caption").
	Name() string

	// Text returns the input content.
	Text() string

	// SetText replaces the input content.
	SetText(text string)

	// Len returns the content length in grapheme clusters.
	Len() int
}

// Surface is the rendered, editable representation of a block. Offsets are
// grapheme cluster offsets within a single input.
type Surface interface {
	// Inputs returns the focusable regions in document order.
	Inputs() []Input

	// HasMedia reports whether the surface carries non-text content.
	HasMedia() bool

	// ExtractAfter removes and returns the content of input following offset.
	ExtractAfter(input, offset int) (string, error)

	// InsertAt inserts text into input at offset.
	InsertAt(input, offset int, text string) error

	// DeleteRange removes [start, end) from input.
	DeleteRange(input, start, end int) error

	// Append appends a content fragment to the last input.
	Append(fragment string) error

	// Normalize canonicalizes the content of every input.
	Normalize()
}

// Validator is implemented by tools that reject malformed payloads on save.
type Validator interface {
	Validate(data Data) bool
}
