// Package api is the public block API exposed to tools and front ends.
//
// Blocks wraps the editing facade with the behavior callers rely on:
// lenient deletion, deprecated aliases that still run, rendering from saved
// documents or foreign markup, and saving. Calls are expected from a single
// logical editing thread; the only asynchronous work is a merge, whose
// completion is reported through editing.Result.
package api
