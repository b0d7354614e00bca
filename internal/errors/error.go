package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryBuild  Category = "build"
	CategoryServe  Category = "serve"
	CategoryWatch  Category = "watch"
	CategoryDeploy Category = "deploy"
	CategoryCLI    Category = "cli"
)

// DocsmithError is a structured error with a stable code, a category,
// and an optional fix suggestion.
type DocsmithError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type (config, build, serve, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *DocsmithError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *DocsmithError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *DocsmithError) WithDetail(format string, args ...any) *DocsmithError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *DocsmithError) WithSuggestion(s string) *DocsmithError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *DocsmithError) Wrap(err error) *DocsmithError {
	e.Wrapped = err
	return e
}

// New creates a DocsmithError from a registered error code.
func New(code string) *DocsmithError {
	template, ok := registry[code]
	if !ok {
		return &DocsmithError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &DocsmithError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new DocsmithError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *DocsmithError {
	return &DocsmithError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a DocsmithError.
func FromError(err error, code string) *DocsmithError {
	if err == nil {
		return nil
	}
	if de, ok := err.(*DocsmithError); ok {
		return de
	}
	return New(code).Wrap(err)
}
