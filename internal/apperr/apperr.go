// Package apperr defines the coded error taxonomy shared by the resolver,
// cache and installer.
//
// Every failure that crosses a package boundary carries one of the codes
// below so the CLI can tell a broken manifest from a network outage or a
// tampered download without string matching:
//
//	err := apperr.Wrap(apperr.CodeNetwork, cause, "fetch %s", url)
//	if apperr.Is(err, apperr.CodeNetwork) { ... }
package apperr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error category.
type Code string

const (
	// CodeManifestParse marks a document that is neither an index manifest
	// nor a package manifest.
	CodeManifestParse Code = "MANIFEST_PARSE"
	// CodeManifestValidation marks a manifest with an empty or malformed field.
	CodeManifestValidation Code = "MANIFEST_VALIDATION"
	// CodeNetwork marks a transport failure or non-2xx response.
	CodeNetwork Code = "NETWORK"
	// CodeHashMismatch marks a downloaded artifact whose SHA-256 differs
	// from the manifest.
	CodeHashMismatch Code = "HASH_MISMATCH"
	// CodeNotFound marks a package name that matches nothing.
	CodeNotFound Code = "NOT_FOUND"
	// CodeFilesystem marks an I/O failure while installing or removing.
	CodeFilesystem Code = "FILESYSTEM"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether any *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// CodeOf returns the outermost code in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
