// Package watch monitors the document source tree for changes.
//
// The watcher is recursive (new subdirectories are picked up as they
// appear), debounced (a burst of events becomes one ChangeSet), and
// serial: the change callback runs synchronously on the watch loop,
// so the rebuild triggered by one batch always completes before the
// next batch is delivered.
package watch
