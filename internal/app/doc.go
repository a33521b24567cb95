// Package app wires the blockstorm components into one editing session.
//
// An Application owns the event bus, the tool registry (built-in and Lua
// tools), the block manager, the caret, the editing facade, the public
// block api and the metrics collector. Front ends (the HTTP server and the
// terminal UI) drive it through Do, which serializes gestures the way a
// single UI thread would.
package app
