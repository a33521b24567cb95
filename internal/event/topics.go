package event

import (
	"time"

	"github.com/dshills/blockstorm/internal/event/topic"
)

// Block collection topics.
const (
	TopicBlockInserted topic.Topic = "blocks.inserted"
	TopicBlockReplaced topic.Topic = "blocks.replaced"
	TopicBlockRemoved  topic.Topic = "blocks.removed"
	TopicBlockMoved    topic.Topic = "blocks.moved"
	TopicBlockSwapped  topic.Topic = "blocks.swapped"
	TopicBlockSplit    topic.Topic = "blocks.split"
	TopicBlockMerged   topic.Topic = "blocks.merged"
	TopicBlocksCleared topic.Topic = "blocks.cleared"
	TopicBlockUpdated  topic.Topic = "blocks.updated"
)

// Toolbar topics.
const (
	TopicToolbarOpen       topic.Topic = "toolbar.open"
	TopicToolbarClose      topic.Topic = "toolbar.close"
	TopicToolbarMove       topic.Topic = "toolbar.move"
	TopicToolbarPlusButton topic.Topic = "toolbar.plus"
)

// TopicCaretMoved is published whenever the caret is placed in a block.
const TopicCaretMoved topic.Topic = "caret.moved"

// BlockPayload describes a change to one block.
type BlockPayload struct {
	// ID of the affected block.
	ID string

	// Tool name of the affected block.
	Tool string

	// Index of the block after the change, or -1 when it was removed.
	Index int

	// FromIndex is the previous index for moves and swaps.
	FromIndex int

	// SourceID is the id of the absorbed block for merges.
	SourceID string

	// Count is the collection length after the change.
	Count int

	// Elapsed is the time a merge took to complete.
	Elapsed time.Duration
}

// ToolbarPayload describes a toolbar request.
type ToolbarPayload struct {
	// HideBlockActions asks the toolbar to open without block settings.
	HideBlockActions bool

	// BlockID is the current block when the request was made, if any.
	BlockID string
}

// CaretPayload describes a caret placement.
type CaretPayload struct {
	BlockID string
	Input   int
	Offset  int
}
