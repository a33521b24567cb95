// Package editing turns editing gestures into block manager and caret
// operations.
//
// The manager performs structural edits without judging whether they make
// sense; the decisions live here. Backspace chooses between deleting a block,
// merging into the previous block, and plain text deletion. Enter chooses
// between inserting a block above and splitting at the caret.
//
// Gestures must be serialized by the caller. A merge is asynchronous: the
// Result carries a Pending value that resolves after the caret has been
// restored into the merged block. No other structural edit should start
// before it resolves.
package editing
