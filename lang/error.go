package lang

import (
	"errors"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
//
// The two families are disjoint: a failure while turning markup into an AST
// matches [ErrParsing], a failure while evaluating an AST matches
// [ErrProcessing], and never both.
var (
	ErrParsing          = NewError("parsing error")
	ErrSyntax           = ErrParsing.Fork("syntax error")
	ErrTokenValidation  = ErrParsing.Fork("token validation error")
	ErrStructValidation = ErrParsing.Fork("structure validation error")

	ErrProcessing      = NewError("processing error")
	ErrVarNotFound     = ErrProcessing.Fork("variable not found")
	ErrImportFailed    = ErrProcessing.Fork("import failed")
	ErrSymbolNotFound  = ErrProcessing.Fork("symbol not found")
	ErrLoopNotIterable = ErrProcessing.Fork("loop source not iterable")
	ErrNoMatchingCase  = ErrProcessing.Fork("no switch case matched")
	ErrMergeType       = ErrProcessing.Fork("incompatible branch value types")
	ErrCommandFailed   = ErrProcessing.Fork("command execution failed")
	ErrTempDirFailed   = ErrProcessing.Fork("temporary directory creation failed")
	ErrSampling        = ErrProcessing.Fork("sampling failed")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg    string
	parent error       // Sentinel family (for errors.Is)
	err    error       // Wrapped cause (for errors.Unwrap)
	attrs  []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// Fork creates a new sentinel that matches both itself and the receiver
// under errors.Is.
func (e *Error) Fork(msg string) *Error {
	return &Error{msg: msg, parent: e}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap exposes the sentinel family and the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)

	if e.parent != nil {
		out = append(out, e.parent)
	}

	if e.err != nil {
		out = append(out, e.err)
	}

	return out
}

// Is reports whether target is the same sentinel.
// Copies produced by [Error.Wrap] and [Error.With] keep matching their
// sentinel of origin.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:    e.msg,
		parent: e.parent,
		err:    err,
		attrs:  e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:    e.msg,
		parent: e.parent,
		err:    e.err,
		attrs:  newAttrs,
	}
}
