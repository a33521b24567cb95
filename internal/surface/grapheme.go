package surface

import "github.com/rivo/uniseg"

// Count returns the number of grapheme clusters in text.
func Count(text string) int {
	if text == "" {
		return 0
	}
	return uniseg.GraphemeClusterCount(text)
}

// ByteOffset converts a grapheme offset into a byte offset within text.
// Offsets past the end map to len(text).
func ByteOffset(text string, offset int) int {
	if offset <= 0 || text == "" {
		return 0
	}
	g := uniseg.NewGraphemes(text)
	n := 0
	for g.Next() {
		if n == offset {
			start, _ := g.Positions()
			return start
		}
		n++
	}
	return len(text)
}

// Split returns text divided at the grapheme offset.
func Split(text string, offset int) (string, string) {
	at := ByteOffset(text, offset)
	return text[:at], text[at:]
}
