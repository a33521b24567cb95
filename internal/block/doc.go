// Package block defines the unit of document content: a Block wraps one
// tool, its data payload and its rendered surface.
//
// The package also declares the capability contracts a block relies on:
//
//   - Tool: a pluggable content type (paragraph, image, list, ...)
//   - Surface: the rendered, editable representation of a block
//   - Input: a focusable region inside a surface
//
// Blocks are created and destroyed by the manager package; nothing outside
// the collection should hold a Block after it has been removed.
package block
