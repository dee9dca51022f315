package problem

import (
	"fmt"
	"maps"
)

// Kind classifies an Error into one of the closed set of failure classes
// the service can raise. Transports map each kind to their own wire shape.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBadRequest
	KindValidationFailed
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInternal
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindValidationFailed:
		return "VALIDATION_FAILED"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Error represents a classified failure raised by the domain layers.
type Error struct {
	parent error
	kind   Kind
	code   string
	msg    string
	fields map[string]string
}

// New initializes an Error instance.
//
// code example: PRODUCT_NOT_FOUND
func New(kind Kind, code, msg string) Error {
	return Error{
		kind: kind,
		code: code,
		msg:  msg,
	}
}

// Error returns the error message for the Error.
func (e Error) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("Kind=%s, Code=%s, Msg=%s, Parent=(%v)", e.kind, e.code, e.msg, e.parent)
	}
	return fmt.Sprintf("Kind=%s, Code=%s, Msg=%s", e.kind, e.code, e.msg)
}

// WrapParent attaches an underlying error to an existing predefined Error.
func (e Error) WrapParent(parent error) Error {
	if parent == nil {
		return e
	}
	e.parent = parent
	return e
}

// WithMsgf replaces the message with a per-instance detail.
func (e Error) WithMsgf(format string, args ...any) Error {
	e.msg = fmt.Sprintf(format, args...)
	return e
}

// WithFields attaches per-field messages. Only meaningful for
// validation failures.
func (e Error) WithFields(fields map[string]string) Error {
	e.fields = maps.Clone(fields)
	return e
}

// Unwrap returns the underlying error for the Error.
func (e Error) Unwrap() error {
	return e.parent
}

// Kind returns the kind of the Error.
func (e Error) Kind() Kind {
	return e.kind
}

// Code returns the code of the Error.
func (e Error) Code() string {
	return e.code
}

// Msg returns the message of the Error.
func (e Error) Msg() string {
	return e.msg
}

// Fields returns the per-field messages of the Error, nil unless set.
func (e Error) Fields() map[string]string {
	return e.fields
}

// Parent returns the underlying error for the Error.
func (e Error) Parent() error {
	return e.parent
}

func NewBadRequest(code, msg string) Error {
	return New(KindBadRequest, code, msg)
}

func NewValidationFailed(code, msg string) Error {
	return New(KindValidationFailed, code, msg)
}

func NewUnauthorized(code, msg string) Error {
	return New(KindUnauthorized, code, msg)
}

func NewForbidden(code, msg string) Error {
	return New(KindForbidden, code, msg)
}

func NewNotFound(code, msg string) Error {
	return New(KindNotFound, code, msg)
}

func NewConflict(code, msg string) Error {
	return New(KindConflict, code, msg)
}

func NewInternal(code, msg string) Error {
	return New(KindInternal, code, msg)
}
