// Package serve implements the live-preview server.
//
// It serves the previously built output directory over HTTP and pushes
// a reload notification to connected browser tabs whenever the sources
// change and a rebuild succeeds.
//
// # Architecture
//
//   - Bus: bounded multi-subscriber broadcast of reload notifications
//   - Trigger: bridges watcher change batches to rebuilds and the bus
//   - Router: livereload upgrade > locale redirect > static > 404
//   - liveReload: one-shot websocket state machine per connection
//   - Supervisor: serving context, initial build, fatal hook, topology
//
// # Concurrency
//
// Two lines of execution run after startup. The watch-and-rebuild line
// handles change batches serially and may block for the duration of a
// rebuild. The serving line handles connections concurrently; a
// livereload connection only ever blocks on its own bus subscriber.
// The bus producer handle is the only state shared between the lines;
// the ServingContext is immutable after startup and every subscriber
// is exclusively owned by its connection.
//
// # Livereload Protocol
//
// The rendered pages connect to /__livereload. After a successful
// rebuild the server sends a single text frame, "reload", and closes
// the connection; the reloading page establishes a fresh connection
// with a fresh subscriber.
package serve
