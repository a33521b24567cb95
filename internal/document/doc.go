// Package document defines the saved document shape and its codecs.
//
// A document is an ordered list of block records:
//
//	{"time": 1700000000000, "version": "1", "blocks": [
//	    {"id": "...", "tool": "paragraph", "data": {"text": "..."}, "disabled": false, "time": 1700000000000}
//	]}
//
// Times are Unix milliseconds. Documents are read and written as JSON or
// YAML; Decode and Encode pick the format from a file extension.
package document
