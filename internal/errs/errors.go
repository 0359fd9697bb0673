// Package errs provides the unified error type used across dsql_dump.
//
// Every subsystem (database, catalog, render, filestore, …) wraps its native
// errors into *errs.Error before returning them to callers. The command layer
// uses the Is* predicates to decide how a failure is reported without
// importing driver-specific packages.
//
// Usage:
//
//	// In a reader, wrap the failed catalog query:
//	return errs.Wrap(errs.ErrKindCatalogQuery, "read tables of schema public", err)
//
//	// In the data copier, a recoverable per-table failure:
//	if errs.IsRowEncoding(err) {
//	    log.WarnWith("skipping rows", err, nil)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// The postgres driver, the catalog readers and the object store all map
// their failures to one of these kinds.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no object, no bucket
	ErrKindConnectionFailed         // cannot reach or authenticate to the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL or storage operation error
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied / auth failure
	ErrKindCatalogQuery             // a metadata query failed; the dump is aborted
	ErrKindRowEncoding              // one table's rows could not be read or encoded
	ErrKindStream                   // the native COPY stream failed mid-transfer
	ErrKindValidation               // mutually exclusive or malformed options
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindCatalogQuery:
		return "catalog_query"
	case ErrKindRowEncoding:
		return "row_encoding"
	case ErrKindStream:
		return "stream"
	case ErrKindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all dsql_dump subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsCatalogQuery reports whether err came from a failed metadata query.
func IsCatalogQuery(err error) bool {
	return KindOf(err) == ErrKindCatalogQuery
}

// IsRowEncoding reports whether err is a recoverable per-table data failure.
func IsRowEncoding(err error) bool {
	return KindOf(err) == ErrKindRowEncoding
}

// IsStream reports whether err is a COPY stream failure.
func IsStream(err error) bool {
	return KindOf(err) == ErrKindStream
}

// IsValidation reports whether err is an option validation failure.
func IsValidation(err error) bool {
	return KindOf(err) == ErrKindValidation
}

// KindOf extracts the ErrKind of the outermost *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
