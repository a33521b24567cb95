// Package surface provides the in-memory rendered surface used by the
// built-in tools.
//
// A Text surface is an ordered list of named Fields. Each Field is one
// focusable input holding plain text. Offsets passed to a surface are counted
// in grapheme clusters so that a caret never lands inside a combined
// character sequence.
package surface
