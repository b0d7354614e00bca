// Package build invokes the external renderer that turns the document
// sources into the static output directory.
//
// Rendering itself is a black box to docsmith: the builder runs the
// configured build.command with the source, output, and livereload
// settings exported through DOCSMITH_* environment variables, and
// reports success or failure with the captured output.
package build
