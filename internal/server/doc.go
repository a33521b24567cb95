// Package server exposes an editing session over HTTP.
//
// Routes live under /api/v1/blocks and mirror the public block api: listing,
// insertion, removal, reordering, id addressed updates, rendering from saved
// data, HTML or Markdown, and the keyboard gestures. Every handler goes
// through the application's session lock, so HTTP clients and a terminal
// front end can share one session.
//
// /metrics serves the Prometheus registry and /health reports liveness.
package server
