package wire

import (
	"fmt"
)

// ===== WIRE FORMAT TYPES =====

// WireType is the kind of value a field carries.
type WireType int

const (
	WireBool     WireType = iota // true/false, stored in the header
	WireUInt64                   // vint64
	WireSInt64                   // zigzag vint64
	WireBytes                    // length-delimited binary data
	WireString                   // length-delimited UTF-8
	WireMessage                  // length-delimited nested message
	WireSequence                 // sequence header + elements
)

// On-wire codes stored in the low 3 bits of a field header. Bool occupies two
// codes so its value needs no extra bytes.
const (
	codeFalse    uint64 = 0
	codeTrue     uint64 = 1
	codeUInt64   uint64 = 2
	codeSInt64   uint64 = 3
	codeBytes    uint64 = 4
	codeString   uint64 = 5
	codeMessage  uint64 = 6
	codeSequence uint64 = 7
)

var wireTypeNames = map[WireType]string{
	WireBool:     "bool",
	WireUInt64:   "uint64",
	WireSInt64:   "sint64",
	WireBytes:    "bytes",
	WireString:   "string",
	WireMessage:  "message",
	WireSequence: "sequence",
}

// ParseWireType resolves a type-name token such as "uint64" or "sequence".
// Any other token is a definition error.
func ParseWireType(token string) (WireType, error) {
	for wt, name := range wireTypeNames {
		if name == token {
			return wt, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnrecognizedWireType, token)
}

// String returns the type-name token for the wire type.
func (wt WireType) String() string {
	if name, ok := wireTypeNames[wt]; ok {
		return name
	}
	return fmt.Sprintf("WireType(%d)", int(wt))
}

// GoType returns the name of the Go type values of this wire type decode to,
// or "" for the recursive types whose values are messages.
func (wt WireType) GoType() string {
	switch wt {
	case WireBool:
		return "bool"
	case WireUInt64:
		return "uint64"
	case WireSInt64:
		return "int64"
	case WireBytes:
		return "[]byte"
	case WireString:
		return "string"
	default:
		return ""
	}
}

// IsRefType reports whether values of this type are length-delimited and can
// be decoded as a borrowed view of the input.
func (wt WireType) IsRefType() bool {
	return wt == WireBytes || wt == WireString
}

// IsRecursive reports whether values of this type are themselves messages.
func (wt WireType) IsRecursive() bool {
	return wt == WireMessage || wt == WireSequence
}

// IsLengthDelimited reports whether the value is preceded by a length.
func (wt WireType) IsLengthDelimited() bool {
	return wt == WireBytes || wt == WireString || wt == WireMessage || wt == WireSequence
}

// code returns the on-wire code. Bool is resolved by the caller.
func (wt WireType) code() uint64 {
	switch wt {
	case WireUInt64:
		return codeUInt64
	case WireSInt64:
		return codeSInt64
	case WireBytes:
		return codeBytes
	case WireString:
		return codeString
	case WireMessage:
		return codeMessage
	case WireSequence:
		return codeSequence
	default:
		return codeFalse
	}
}

// wireTypeFromCode maps an on-wire code back to its wire type.
func wireTypeFromCode(code uint64) WireType {
	switch code {
	case codeFalse, codeTrue:
		return WireBool
	case codeUInt64:
		return WireUInt64
	case codeSInt64:
		return WireSInt64
	case codeBytes:
		return WireBytes
	case codeString:
		return WireString
	case codeMessage:
		return WireMessage
	default:
		return WireSequence
	}
}

// Element identifies the part of a field an error refers to.
type Element int

const (
	ElementTag Element = iota
	ElementLengthDelimiter
	ElementSequenceHeader
	ElementValue
)

func (e Element) String() string {
	switch e {
	case ElementTag:
		return "tag"
	case ElementLengthDelimiter:
		return "length delimiter"
	case ElementSequenceHeader:
		return "sequence header"
	default:
		return "value"
	}
}
