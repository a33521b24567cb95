// Package terminal is a tcell front end for an editing session.
//
// Blocks are drawn one input per line with a tool marker in a gutter. Keys
// map onto the session's gestures:
//
//	printable   insert text at the caret
//	Enter       split the block (newline in code blocks)
//	Backspace   delete text, merge or remove blocks
//	Left/Right  move within an input, crossing into neighbours at the edges
//	Up/Down     move to the previous or next block
//	Ctrl-O      insert an empty block above
//	Ctrl-T      cycle the block between paragraph, header and quote
//	Ctrl-D      toggle the block's disabled flag
//	Ctrl-S      save
//	Ctrl-Q      quit
package terminal
