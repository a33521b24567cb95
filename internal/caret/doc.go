// Package caret tracks the logical text cursor.
//
// A caret lives in one block, in one of its inputs, at a grapheme offset
// within that input. A selection is an anchor and a head in the same input;
// the caret is collapsed when they are equal.
//
// The caret follows the block tracker's current block. Placing the caret in
// a block makes that block current. When the tracker's current block moves
// elsewhere, or the block the caret was in is destroyed, the caret snaps to
// the end of the current block's current input on next use.
package caret
