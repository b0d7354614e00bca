// Package config loads and validates the docsmith.json project file.
//
// Configuration is resolved in three layers: defaults, docsmith.json,
// then DOCSMITH_* environment variables. The loaded Config is treated
// as immutable by the rest of the tool; the serve supervisor derives
// its own ServingContext from it once at startup.
package config
