package wire

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes a codec error.
type Kind int

const (
	KindTruncatedInput Kind = iota + 1
	KindTagOutOfOrder
	KindUnknownCriticalField
	KindUnexpectedWireType
	KindSizeOutOfBounds
	KindTrailingData
	KindInvalidEncoding
	KindMissingField
	KindUnknownTag
	KindDepthExceeded
	KindDigestUnavailable
)

var kindNames = map[Kind]string{
	KindTruncatedInput:       "truncated input",
	KindTagOutOfOrder:        "tag out of order",
	KindUnknownCriticalField: "unknown critical field",
	KindUnexpectedWireType:   "unexpected wire type",
	KindSizeOutOfBounds:      "size out of bounds",
	KindTrailingData:         "trailing data",
	KindInvalidEncoding:      "invalid encoding",
	KindMissingField:         "missing field",
	KindUnknownTag:           "unknown tag",
	KindDepthExceeded:        "maximum nesting depth exceeded",
	KindDigestUnavailable:    "digest unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Decode errors. Compare with errors.Is; the concrete value is always an
// *Error carrying the tag and element involved.
var (
	ErrTruncatedInput       = &Error{Kind: KindTruncatedInput}
	ErrTagOutOfOrder        = &Error{Kind: KindTagOutOfOrder}
	ErrUnknownCriticalField = &Error{Kind: KindUnknownCriticalField}
	ErrUnexpectedWireType   = &Error{Kind: KindUnexpectedWireType}
	ErrSizeOutOfBounds      = &Error{Kind: KindSizeOutOfBounds}
	ErrTrailingData         = &Error{Kind: KindTrailingData}
	ErrInvalidEncoding      = &Error{Kind: KindInvalidEncoding}
	ErrMissingField         = &Error{Kind: KindMissingField}
	ErrUnknownTag           = &Error{Kind: KindUnknownTag}
	ErrDepthExceeded        = &Error{Kind: KindDepthExceeded}
	ErrDigestUnavailable    = &Error{Kind: KindDigestUnavailable}
)

// Encode-time and definition-time errors.
var (
	ErrBufferTooSmall       = errors.New("buffer too small")
	ErrUnrecognizedWireType = errors.New("unrecognized wire type")
	ErrTagTooLarge          = errors.New("tag exceeds maximum")
)

// Error is a decode error with its position in the message.
type Error struct {
	Kind    Kind
	Tag     uint64
	Element Element
	Detail  string
	Err     error // underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Tag != 0 || e.Element != ElementTag {
		fmt.Fprintf(&b, " (tag %d, %s)", e.Tag, e.Element)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, tag uint64, element Element, detail string) *Error {
	return &Error{Kind: kind, Tag: tag, Element: element, Detail: detail}
}

// UnknownTagError reports a variant tag no alternative matches.
func UnknownTagError(tag uint64) error {
	return newError(KindUnknownTag, tag, ElementTag, "")
}

// FieldError attaches the path of nested fields to an error.
type FieldError struct {
	FieldPath []string // outermost first, e.g. ["outputs", "2", "amount"]
	Err       error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if len(e.FieldPath) == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("error at field path %s: %v", strings.Join(e.FieldPath, "."), e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// WrapWithField prefixes the error's field path with fieldName.
func WrapWithField(err error, fieldName string) error {
	if err == nil {
		return nil
	}

	if fe, ok := err.(*FieldError); ok {
		return &FieldError{
			FieldPath: append([]string{fieldName}, fe.FieldPath...),
			Err:       fe.Err,
		}
	}

	return &FieldError{
		FieldPath: []string{fieldName},
		Err:       err,
	}
}
