package expr

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrUnexpectedToken   = errors.New("expr: unexpected token")
	ErrUnbalancedParens  = errors.New("expr: unbalanced parentheses")
	ErrEmptyExpression   = errors.New("expr: empty expression")
	ErrTrailingInput     = errors.New("expr: trailing input after expression")
	ErrInvalidNumber     = errors.New("expr: invalid number literal")
	ErrTooDeep           = errors.New("expr: expression nested too deeply")
	ErrUnknownIdentifier = errors.New("expr: unknown identifier")
	ErrUnknownFunction   = errors.New("expr: unknown function")
	ErrArity             = errors.New("expr: wrong argument count")
)

// Error is a parse or validation failure. Offset is the character (rune)
// offset into the source, or -1 when the error has no position. Name is the
// offending identifier or function for validation errors.
type Error struct {
	Kind    error
	Offset  int
	Name    string
	Message string
}

func newError(kind error, offset int, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d", e.Message, e.Offset)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}
