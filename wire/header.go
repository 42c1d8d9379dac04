package wire

import "fmt"

// MaxTag is the largest tag that fits in a field header.
const MaxTag = 1<<60 - 1

const criticalFlag = 1 << 3

// Header is the prefix of every field: its tag, wire type and critical flag.
type Header struct {
	Tag      uint64
	WireType WireType
	Critical bool

	code uint64
}

// NewHeader builds a header for a non-bool wire type.
func NewHeader(tag uint64, critical bool, wireType WireType) Header {
	return Header{Tag: tag, WireType: wireType, Critical: critical, code: wireType.code()}
}

// NewBoolHeader builds the header of a bool field, which also carries its value.
func NewBoolHeader(tag uint64, critical bool, value bool) Header {
	code := codeFalse
	if value {
		code = codeTrue
	}
	return Header{Tag: tag, WireType: WireBool, Critical: critical, code: code}
}

// Bool returns the value of a bool field header.
func (h Header) Bool() bool {
	return h.code == codeTrue
}

func (h Header) raw() uint64 {
	raw := h.Tag<<4 | h.code
	if h.Critical {
		raw |= criticalFlag
	}
	return raw
}

// String formats the header for diagnostics.
func (h Header) String() string {
	crit := ""
	if h.Critical {
		crit = ", critical"
	}
	return fmt.Sprintf("%d:%s%s", h.Tag, h.WireType, crit)
}

// HeaderLen returns the encoded size of a header with the given tag. The low
// flag bits never change the size of the varint.
func HeaderLen(tag uint64) int {
	return VarintSize(tag << 4)
}

// PutHeader encodes h into dst, returning the number of bytes written.
func PutHeader(dst []byte, h Header) (int, error) {
	if h.Tag > MaxTag {
		return 0, fmt.Errorf("%w: %d", ErrTagTooLarge, h.Tag)
	}
	return PutVarint(dst, h.raw()), nil
}

// ConsumeHeader decodes a field header from the front of src.
func ConsumeHeader(src []byte) (Header, int, error) {
	raw, n, err := ConsumeVarint(src)
	if err != nil {
		return Header{}, 0, varintError(err, 0, ElementTag)
	}
	code := raw & 0x7
	h := Header{
		Tag:      raw >> 4,
		WireType: wireTypeFromCode(code),
		Critical: raw&criticalFlag != 0,
		code:     code,
	}
	return h, n, nil
}

// PeekTag returns the tag of the field at the front of src without
// consuming it.
func PeekTag(src []byte) (uint64, error) {
	h, _, err := ConsumeHeader(src)
	if err != nil {
		return 0, err
	}
	return h.Tag, nil
}

// varintError maps a varint failure onto the decode error taxonomy.
func varintError(err error, tag uint64, element Element) error {
	kind := KindInvalidEncoding
	if err == ErrVarintTruncated {
		kind = KindTruncatedInput
	}
	return &Error{Kind: kind, Tag: tag, Element: element, Err: err}
}
