package main

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// The harness speaks the protobuf conformance runner's framing: a 4-byte
// little-endian length, then a protobuf-encoded request or response. The
// messages are small enough to code by hand with protowire.

// OutputFormat selects what the harness returns for a request.
type OutputFormat uint64

const (
	OutputUnspecified OutputFormat = iota
	OutputBinary
	OutputJSON
	OutputDigest
)

// Request field numbers.
const (
	reqMessageType   protowire.Number = 1
	reqBinaryPayload protowire.Number = 2
	reqJSONPayload   protowire.Number = 3
	reqOutputFormat  protowire.Number = 4
)

// Response field numbers. Exactly one is set.
const (
	respParseError     protowire.Number = 1
	respSerializeError protowire.Number = 2
	respRuntimeError   protowire.Number = 3
	respBinaryPayload  protowire.Number = 4
	respJSONPayload    protowire.Number = 5
	respDigest         protowire.Number = 6
	respSkipped        protowire.Number = 7
)

// Request is one conformance test case.
type Request struct {
	MessageType   string
	BinaryPayload []byte // set when the input is an encoded message
	JSONPayload   string // set when the input is JSON values
	IsJSON        bool
	Output        OutputFormat
}

// Response is the harness's answer to a Request.
type Response struct {
	ParseError     string
	SerializeError string
	RuntimeError   string
	BinaryPayload  []byte
	JSONPayload    string
	Digest         string
	Skipped        string
}

// Marshal encodes the request.
func (r *Request) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, reqMessageType, protowire.BytesType)
	b = protowire.AppendString(b, r.MessageType)
	if r.IsJSON {
		b = protowire.AppendTag(b, reqJSONPayload, protowire.BytesType)
		b = protowire.AppendString(b, r.JSONPayload)
	} else {
		b = protowire.AppendTag(b, reqBinaryPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, r.BinaryPayload)
	}
	b = protowire.AppendTag(b, reqOutputFormat, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Output))
	return b
}

// Unmarshal decodes a request, skipping unknown fields.
func (r *Request) Unmarshal(b []byte) error {
	*r = Request{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("request tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == reqMessageType && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("message_type: %w", protowire.ParseError(n))
			}
			r.MessageType, b = v, b[n:]
		case num == reqBinaryPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("binary_payload: %w", protowire.ParseError(n))
			}
			r.BinaryPayload, r.IsJSON, b = append([]byte{}, v...), false, b[n:]
		case num == reqJSONPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("json_payload: %w", protowire.ParseError(n))
			}
			r.JSONPayload, r.IsJSON, b = v, true, b[n:]
		case num == reqOutputFormat && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("output_format: %w", protowire.ParseError(n))
			}
			r.Output, b = OutputFormat(v), b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

// Marshal encodes the response.
func (r *Response) Marshal() []byte {
	var b []byte
	appendString := func(num protowire.Number, s string) {
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	switch {
	case r.ParseError != "":
		appendString(respParseError, r.ParseError)
	case r.SerializeError != "":
		appendString(respSerializeError, r.SerializeError)
	case r.RuntimeError != "":
		appendString(respRuntimeError, r.RuntimeError)
	case r.Skipped != "":
		appendString(respSkipped, r.Skipped)
	case r.Digest != "":
		appendString(respDigest, r.Digest)
	case r.JSONPayload != "":
		appendString(respJSONPayload, r.JSONPayload)
	default:
		b = protowire.AppendTag(b, respBinaryPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, r.BinaryPayload)
	}
	return b
}

// Unmarshal decodes a response.
func (r *Response) Unmarshal(b []byte) error {
	*r = Response{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("response tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case respParseError:
			r.ParseError = string(v)
		case respSerializeError:
			r.SerializeError = string(v)
		case respRuntimeError:
			r.RuntimeError = string(v)
		case respBinaryPayload:
			r.BinaryPayload = append([]byte{}, v...)
		case respJSONPayload:
			r.JSONPayload = string(v)
		case respDigest:
			r.Digest = string(v)
		case respSkipped:
			r.Skipped = string(v)
		}
	}
	return nil
}
