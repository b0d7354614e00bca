// Package errors provides structured, coded error messages for docsmith.
//
// Each error has a stable code (e.g., "E201") that maps to a category,
// a short message, an optional detailed explanation and fix suggestion,
// and a documentation URL. Codes group by concern:
//
//   - E0xx: configuration
//   - E1xx: building
//   - E2xx: serving
//   - E3xx: watching
//   - E4xx: deploying
//
// # Usage
//
//	return errors.New("E201").
//	    WithDetail("no address found for %q", address)
//
// Wrapped errors participate in errors.Is/errors.As via Unwrap.
package errors
