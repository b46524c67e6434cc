// Package cerrors defines the error taxonomy shared by every cstruct
// package. It is a leaf package (no dependencies beyond fmt/errors) so
// that the tokenizer, parser, type engine, and facade can all return
// distinguishable errors without import cycles.
package cerrors

import (
	"errors"
	"fmt"
)

// Kind identifies which of the documented failure categories an Error
// belongs to.
type Kind int

const (
	// ParseError indicates malformed definition text.
	ParseError Kind = iota + 1
	// UnknownType indicates a reference to an undeclared type at use.
	UnknownType
	// Redefinition indicates an incompatible redefinition of an existing name.
	Redefinition
	// DuplicateField indicates two fields (including promoted anonymous
	// fields) sharing a name.
	DuplicateField
	// BadExpression indicates division by zero, an oversized shift, an
	// unknown identifier, or a non-integer result during expression
	// evaluation.
	BadExpression
	// Truncated indicates the cursor was exhausted during a read.
	Truncated
	// InvalidBitfield indicates a bitfield width greater than its storage
	// width, or a non-integer storage type.
	InvalidBitfield
	// ValueOutOfRange indicates a write of an integer/flag value that
	// doesn't fit its declared width.
	ValueOutOfRange
	// NullDereference indicates a pointer dereferenced without a resolver.
	NullDereference
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case UnknownType:
		return "UnknownType"
	case Redefinition:
		return "Redefinition"
	case DuplicateField:
		return "DuplicateField"
	case BadExpression:
		return "BadExpression"
	case Truncated:
		return "Truncated"
	case InvalidBitfield:
		return "InvalidBitfield"
	case ValueOutOfRange:
		return "ValueOutOfRange"
	case NullDereference:
		return "NullDereference"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the common shape for every error this module returns. Callers
// distinguish error categories with errors.As and the Kind field, rather
// than comparing against a menagerie of sentinel values.
type Error struct {
	Kind    Kind
	Message string
	Line    int    // 1-based; 0 if not applicable
	Column  int    // 1-based; 0 if not applicable
	Field   string // dotted field path, for codec errors; "" if not applicable
	Err     error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Line > 0 {
		msg = fmt.Sprintf("%d:%d: %s", e.Line, e.Column, msg)
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	msg = fmt.Sprintf("%s: %s", e.Kind, msg)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// AtPos attaches a source position to the error and returns it for
// chaining at the call site.
func (e *Error) AtPos(line, col int) *Error {
	e.Line = line
	e.Column = col
	return e
}

// AtField attaches a field path to the error and returns it for chaining.
func (e *Error) AtField(path string) *Error {
	if e.Field == "" {
		e.Field = path
	} else {
		e.Field = path + "." + e.Field
	}
	return e
}

// Is reports whether err is (or wraps) a cerrors.Error of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var ce *Error
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Kind == kind {
			return true
		}
		err = ce.Err
	}
	return false
}
