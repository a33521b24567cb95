package surface

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/blockstorm/internal/block"
)

// ErrInputOutOfRange is returned when an input index does not exist.
var ErrInputOutOfRange = errors.New("input out of range")

// ErrNoInputs is returned when content is appended to a surface with no
// inputs.
var ErrNoInputs = errors.New("surface has no inputs")

// Field is a single plain-text input.
type Field struct {
	mu   sync.RWMutex
	name string
	text string
}

// NewField creates a field holding text.
func NewField(name, text string) *Field {
	return &Field{name: name, text: text}
}

// Name returns the field name.
func (f *Field) Name() string {
	return f.name
}

// Text returns the field content.
func (f *Field) Text() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.text
}

// SetText replaces the field content.
func (f *Field) SetText(text string) {
	f.mu.Lock()
	f.text = text
	f.mu.Unlock()
}

// Len returns the content length in grapheme clusters.
func (f *Field) Len() int {
	return Count(f.Text())
}

// Text is a surface made of plain-text fields. A Text with no fields and the
// media flag set models images and embeds; with no fields and no media it
// models separators.
type Text struct {
	fields []*Field
	media  bool
}

var _ block.Surface = (*Text)(nil)

// New creates a text surface from fields.
func New(fields ...*Field) *Text {
	return &Text{fields: fields}
}

// NewMedia creates an input-less surface that carries media.
func NewMedia() *Text {
	return &Text{media: true}
}

// Field returns the field called name, or nil.
func (t *Text) Field(name string) *Field {
	for _, f := range t.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

// Fields returns the fields in order.
func (t *Text) Fields() []*Field {
	out := make([]*Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// AddField appends a field and returns it.
func (t *Text) AddField(name, text string) *Field {
	f := NewField(name, text)
	t.fields = append(t.fields, f)
	return f
}

// Inputs implements block.Surface.
func (t *Text) Inputs() []block.Input {
	out := make([]block.Input, len(t.fields))
	for i, f := range t.fields {
		out[i] = f
	}
	return out
}

// HasMedia implements block.Surface.
func (t *Text) HasMedia() bool {
	return t.media
}

// ExtractAfter implements block.Surface.
func (t *Text) ExtractAfter(input, offset int) (string, error) {
	f, err := t.field(input)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	head, tail := Split(f.text, offset)
	f.text = head
	return tail, nil
}

// InsertAt implements block.Surface.
func (t *Text) InsertAt(input, offset int, text string) error {
	f, err := t.field(input)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	head, tail := Split(f.text, offset)
	f.text = head + text + tail
	return nil
}

// DeleteRange implements block.Surface.
func (t *Text) DeleteRange(input, start, end int) error {
	f, err := t.field(input)
	if err != nil {
		return err
	}
	if end < start {
		start, end = end, start
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	from := ByteOffset(f.text, start)
	to := ByteOffset(f.text, end)
	f.text = f.text[:from] + f.text[to:]
	return nil
}

// Append implements block.Surface.
func (t *Text) Append(fragment string) error {
	if len(t.fields) == 0 {
		return ErrNoInputs
	}
	f := t.fields[len(t.fields)-1]
	f.mu.Lock()
	f.text += fragment
	f.mu.Unlock()
	return nil
}

// Normalize implements block.Surface by bringing every field to Unicode NFC.
func (t *Text) Normalize() {
	for _, f := range t.fields {
		f.mu.Lock()
		f.text = norm.NFC.String(f.text)
		f.mu.Unlock()
	}
}

func (t *Text) field(input int) (*Field, error) {
	if input < 0 || input >= len(t.fields) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInputOutOfRange, input, len(t.fields))
	}
	return t.fields[input], nil
}
