package caret

// Position selects where in a block the caret is placed.
type Position int

const (
	// Default places the caret in the block's current input at the given
	// offset.
	Default Position = iota

	// Start places the caret at the start of the first input.
	Start

	// End places the caret at the end of the last input.
	End
)

// String returns the position name.
func (p Position) String() string {
	switch p {
	case Default:
		return "default"
	case Start:
		return "start"
	case End:
		return "end"
	default:
		return "unknown"
	}
}
