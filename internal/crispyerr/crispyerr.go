// Package crispyerr defines the error taxonomy shared by the indexing and
// query pipelines. Errors are tagged with a Kind so the CLI layer can decide
// on an exit path without string-matching messages, while still chaining
// human-readable context the way the original CRISPyR driver did.
package crispyerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Unknown is the zero value; used for errors that were not classified
	// at the point they were wrapped.
	Unknown Kind = iota
	// InputNotFound means a named input file does not exist or could not be opened.
	InputNotFound
	// FormatInvalid means a file's magic number, structure or a record inside it was malformed.
	FormatInvalid
	// VersionMismatch means an index file is older or newer than this build supports.
	VersionMismatch
	// UnknownEnzyme means an enzyme name did not resolve to a known Enzyme record.
	UnknownEnzyme
	// MissingCapability means an operation needs Positions mode but the index is Counts mode.
	MissingCapability
	// ReferenceMissing means a BED chromosome was not found among the FASTA's reference sequences.
	ReferenceMissing
	// IoFailure covers I/O errors not otherwise classified (disk full, permission denied, ...).
	IoFailure
	// UsageError means the command line itself was invalid.
	UsageError
)

func (k Kind) String() string {
	switch k {
	case InputNotFound:
		return "input not found"
	case FormatInvalid:
		return "invalid format"
	case VersionMismatch:
		return "version mismatch"
	case UnknownEnzyme:
		return "unknown enzyme"
	case MissingCapability:
		return "missing capability"
	case ReferenceMissing:
		return "reference missing"
	case IoFailure:
		return "I/O failure"
	case UsageError:
		return "usage error"
	default:
		return "error"
	}
}

// Error is a classified, chainable error. Its Error() string already
// includes the full context chain, mirroring the original Rust driver's
// error_chain "failed to X" -> "failed to Y" rendering.
type Error struct {
	kind  Kind
	cause error
}

// New creates a classified error from a message.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, cause: errors.New(message)}
}

// Wrap attaches context to an existing error without discarding its kind,
// if it already has one.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, context)
}

// WrapKind attaches context to an existing error and (re)classifies it.
func WrapKind(kind Kind, err error, context string) *Error {
	return &Error{kind: kind, cause: errors.Wrap(err, context)}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.kind.String()
	}
	return e.cause.Error()
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the error's classification. Errors not constructed via this
// package report Unknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.kind
	}
	return Unknown
}

// Fmt is a convenience constructor mirroring fmt.Errorf but tagging a Kind.
func Fmt(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, cause: fmt.Errorf(format, args...)}
}
