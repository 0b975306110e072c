// Package errors provides structured error types for agentry.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Code represents a unique error code.
type Code string

// Error codes for agentry.
const (
	// Request errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"

	// Store errors
	CodeLoadError Code = "LOAD_ERROR"

	// Startup errors
	CodeIndexBuild Code = "INDEX_BUILD_ERROR"
)

// Category groups error codes for HTTP status mapping.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNotFound
	CategoryBadRequest
	CategoryInternal
	CategoryUnavailable
)

// codeCategories maps error codes to their categories.
var codeCategories = map[Code]Category{
	CodeInvalidArgument: CategoryBadRequest,
	CodeNotFound:        CategoryNotFound,
	CodeLoadError:       CategoryInternal,
	CodeIndexBuild:      CategoryUnavailable,
}

// HTTPStatus returns the HTTP status code for a category.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryNotFound:
		return 404
	case CategoryBadRequest:
		return 400
	case CategoryUnavailable:
		return 503
	default:
		return 500
	}
}

// RegistryError is the structured error type for agentry.
type RegistryError struct {
	Code  Code   `json:"code"`
	What  string `json:"what"`
	Why   string `json:"why,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Cause error  `json:"-"`
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString(": ")
		b.WriteString(e.Why)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *RegistryError) Unwrap() error {
	return e.Cause
}

// Category returns the error category for HTTP status mapping.
func (e *RegistryError) Category() Category {
	if cat, ok := codeCategories[e.Code]; ok {
		return cat
	}
	return CategoryUnknown
}

// HTTPStatus returns the appropriate HTTP status code for this error.
func (e *RegistryError) HTTPStatus() int {
	return e.Category().HTTPStatus()
}

// RPCCode returns the JSON-RPC 2.0 error code for this error.
// Invalid arguments map to -32602 (invalid params); everything else is
// -32603 (internal error). NotFound keeps -32002 per the MCP convention
// for unknown resources.
func (e *RegistryError) RPCCode() int {
	switch e.Code {
	case CodeInvalidArgument:
		return -32602
	case CodeNotFound:
		return -32002
	default:
		return -32603
	}
}

// MarshalJSON implements json.Marshaler.
func (e *RegistryError) MarshalJSON() ([]byte, error) {
	type alias RegistryError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// Is reports whether target is a RegistryError with the same code.
func (e *RegistryError) Is(target error) bool {
	t, ok := target.(*RegistryError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause.
func (e *RegistryError) WithCause(err error) *RegistryError {
	return &RegistryError{
		Code:  e.Code,
		What:  e.What,
		Why:   e.Why,
		Fix:   e.Fix,
		Cause: err,
	}
}

// --- Error constructors ---

// ErrInvalidArgument returns an error for a malformed request.
func ErrInvalidArgument(what string) *RegistryError {
	return &RegistryError{
		Code: CodeInvalidArgument,
		What: what,
		Why:  "The request failed validation before any work was done",
	}
}

// ErrNotFound returns an error when a definition name is not in the index.
func ErrNotFound(name string) *RegistryError {
	return &RegistryError{
		Code: CodeNotFound,
		What: fmt.Sprintf("definition %q not found", name),
		Why:  "No definition with this name exists in the metadata index",
		Fix:  "Call listDefinitions to see available names",
	}
}

// ErrLoadFailed returns an error when a known definition cannot be read
// from the store. Retryable.
func ErrLoadFailed(name string, cause error) *RegistryError {
	return &RegistryError{
		Code:  CodeLoadError,
		What:  fmt.Sprintf("failed to load definition %q", name),
		Why:   "The definition is indexed but its backing content could not be read",
		Fix:   "Retry the request; if it persists, check the definition store",
		Cause: cause,
	}
}

// ErrIndexQuery returns an error when a query against the metadata index
// itself fails. Retryable.
func ErrIndexQuery(cause error) *RegistryError {
	return &RegistryError{
		Code:  CodeLoadError,
		What:  "metadata index query failed",
		Why:   "The index database rejected the query",
		Fix:   "Retry the request; if it persists, restart the service to rebuild the index",
		Cause: cause,
	}
}

// ErrIndexBuild returns a fatal error when the startup scan cannot access
// the definition store at all.
func ErrIndexBuild(cause error) *RegistryError {
	return &RegistryError{
		Code:  CodeIndexBuild,
		What:  "failed to build metadata index",
		Why:   "The definition store was inaccessible during the startup scan",
		Fix:   "Check that the agents directory exists and is readable",
		Cause: cause,
	}
}
