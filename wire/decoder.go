package wire

import (
	"errors"
	"fmt"
	"hash"
	"strconv"
	"unicode/utf8"
	"unsafe"
)

// Decoder reads the fields of one message in ascending tag order. Each field
// it consumes, including unknown fields it skips, is folded into a running
// hash so the message digest covers every byte of the input.
//
// A Decoder is not safe for concurrent use. After any error the decoder
// discards its hash state and keeps returning that error.
type Decoder struct {
	buf          []byte
	pos          int
	lastTag      uint64
	lastCritical bool
	seen         bool

	newHash HashFunc
	hasher  hash.Hash

	depth  int
	config Config
	err    error
}

// NewDecoder creates a decoder over data. newHash may be nil, in which case
// no digest is computed.
func NewDecoder(data []byte, newHash HashFunc) *Decoder {
	return NewDecoderWithConfig(data, newHash, config)
}

// NewDecoderWithConfig creates a decoder with explicit limits.
func NewDecoderWithConfig(data []byte, newHash HashFunc, cfg Config) *Decoder {
	d := &Decoder{
		buf:     data,
		newHash: newHash,
		config:  cfg.withDefaults(),
	}
	if newHash != nil {
		d.hasher = newHash()
	}
	return d
}

// child creates a decoder for a nested message with a fresh hash.
func (d *Decoder) child(data []byte, tag uint64) (*Decoder, error) {
	if d.depth+1 > d.config.MaxDepth {
		return nil, newError(KindDepthExceeded, tag, ElementValue, fmt.Sprintf("limit is %d", d.config.MaxDepth))
	}
	c := &Decoder{
		buf:     data,
		newHash: d.newHash,
		depth:   d.depth + 1,
		config:  d.config,
	}
	if d.newHash != nil {
		c.hasher = d.newHash()
	}
	return c, nil
}

// Remaining returns the input not yet consumed.
func (d *Decoder) Remaining() []byte {
	return d.buf[d.pos:]
}

// Hashing reports whether the decoder computes a digest.
func (d *Decoder) Hashing() bool {
	return d.hasher != nil
}

// Depth returns how deeply the decoder is nested below the top-level
// message.
func (d *Decoder) Depth() int {
	return d.depth
}

// Err returns the error that stopped the decoder, if any.
func (d *Decoder) Err() error {
	return d.err
}

func (d *Decoder) fail(err error) error {
	if d.err == nil {
		d.err = err
		d.hasher = nil
	}
	return d.err
}

func (d *Decoder) fold(p []byte) {
	if d.hasher != nil {
		d.hasher.Write(p)
	}
}

// consume folds the next n bytes, which hold the field described by h, and
// advances past them.
func (d *Decoder) consume(h Header, n int) {
	d.fold(d.buf[d.pos : d.pos+n])
	d.pos += n
	d.lastTag, d.lastCritical, d.seen = h.Tag, h.Critical, true
}

// ===== FIELD LOOKUP =====

// seek skips unknown fields preceding tag and returns the header of the next
// field, reporting whether it carries tag. The returned field is not
// consumed.
func (d *Decoder) seek(tag uint64) (Header, int, bool, error) {
	for d.pos < len(d.buf) {
		h, n, err := ConsumeHeader(d.buf[d.pos:])
		if err != nil {
			return Header{}, 0, false, err
		}
		if d.seen && h.Tag <= d.lastTag {
			return Header{}, 0, false, outOfOrder(h.Tag, d.lastTag)
		}
		if h.Tag >= tag {
			return h, n, h.Tag == tag, nil
		}
		if h.Critical {
			return Header{}, 0, false, newError(KindUnknownCriticalField, h.Tag, ElementTag, "")
		}
		if err := d.skip(h, n); err != nil {
			return Header{}, 0, false, err
		}
	}
	return Header{}, 0, false, nil
}

// field positions the decoder at the field with the given tag and checks its
// wire type.
func (d *Decoder) field(tag uint64, want WireType) (Header, int, error) {
	if d.err != nil {
		return Header{}, 0, d.err
	}
	h, n, found, err := d.seek(tag)
	if err != nil {
		return Header{}, 0, d.fail(err)
	}
	if !found {
		return Header{}, 0, d.fail(d.missing(tag))
	}
	if h.WireType != want {
		return Header{}, 0, d.fail(newError(KindUnexpectedWireType, tag, ElementTag,
			fmt.Sprintf("got %s, want %s", h.WireType, want)))
	}
	return h, n, nil
}

// missing explains why a required field is absent. A later field that
// breaks the ascending tag order is the more precise diagnosis, so the rest
// of the input is scanned for one before reporting the field as missing.
func (d *Decoder) missing(tag uint64) error {
	last, seen := d.lastTag, d.seen
	for pos := d.pos; pos < len(d.buf); {
		h, n, err := ConsumeHeader(d.buf[pos:])
		if err != nil {
			break
		}
		if seen && h.Tag <= last {
			return outOfOrder(h.Tag, last)
		}
		vn, err := valueLen(h, d.buf[pos+n:])
		if err != nil {
			break
		}
		last, seen = h.Tag, true
		pos += n + vn
	}
	return newError(KindMissingField, tag, ElementTag, "")
}

func outOfOrder(tag, last uint64) error {
	return newError(KindTagOutOfOrder, tag, ElementTag, fmt.Sprintf("follows tag %d", last))
}

// CheckCritical fails with InvalidEncoding unless the field just decoded
// at tag carried the given critical flag. The flag is part of the encoding,
// so a decoder that knows a field's definition calls this to reject input
// that would not re-encode byte for byte.
func (d *Decoder) CheckCritical(tag uint64, critical bool) error {
	if d.err != nil {
		return d.err
	}
	if !d.seen || d.lastTag != tag {
		return fmt.Errorf("wire: CheckCritical(%d) must follow the decode of field %d", tag, tag)
	}
	if d.lastCritical != critical {
		return d.fail(newError(KindInvalidEncoding, tag, ElementTag,
			fmt.Sprintf("critical flag is %t, definition says %t", d.lastCritical, critical)))
	}
	return nil
}

// Has reports whether the next field the decoder would read carries tag,
// skipping unknown fields before it. It is how optional fields are decoded.
func (d *Decoder) Has(tag uint64) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	_, _, found, err := d.seek(tag)
	if err != nil {
		return false, d.fail(err)
	}
	return found, nil
}

// PeekTag returns the tag of the next field without consuming it. Variant
// messages use it to select an alternative.
func (d *Decoder) PeekTag() (uint64, error) {
	if d.err != nil {
		return 0, d.err
	}
	h, _, err := ConsumeHeader(d.buf[d.pos:])
	if err != nil {
		return 0, d.fail(err)
	}
	return h.Tag, nil
}

// ===== SCALAR DECODERS =====

// DecodeBool decodes the bool field with the given tag.
func (d *Decoder) DecodeBool(tag uint64) (bool, error) {
	h, n, err := d.field(tag, WireBool)
	if err != nil {
		return false, err
	}
	d.consume(h, n)
	return h.Bool(), nil
}

// DecodeUint64 decodes the uint64 field with the given tag.
func (d *Decoder) DecodeUint64(tag uint64) (uint64, error) {
	h, n, err := d.field(tag, WireUInt64)
	if err != nil {
		return 0, err
	}
	v, vn, err := ConsumeVarint(d.buf[d.pos+n:])
	if err != nil {
		return 0, d.fail(varintError(err, tag, ElementValue))
	}
	d.consume(h, n+vn)
	return v, nil
}

// DecodeSint64 decodes the zigzag-encoded sint64 field with the given tag.
func (d *Decoder) DecodeSint64(tag uint64) (int64, error) {
	h, n, err := d.field(tag, WireSInt64)
	if err != nil {
		return 0, err
	}
	v, vn, err := ConsumeVarint(d.buf[d.pos+n:])
	if err != nil {
		return 0, d.fail(varintError(err, tag, ElementValue))
	}
	d.consume(h, n+vn)
	return DecodeZigZag(v), nil
}

// ===== LENGTH-DELIMITED DECODERS =====

func (d *Decoder) delimited(tag uint64, want WireType, b Bounds) (Header, []byte, int, error) {
	h, n, err := d.field(tag, want)
	if err != nil {
		return Header{}, nil, 0, err
	}
	length, ln, err := readLength(d.buf[d.pos+n:], tag)
	if err != nil {
		return Header{}, nil, 0, d.fail(err)
	}
	if err := b.check(tag, length); err != nil {
		return Header{}, nil, 0, d.fail(err)
	}
	start := d.pos + n + ln
	return h, d.buf[start : start+length], n + ln + length, nil
}

// DecodeBytesRef decodes a bytes field without copying. The result aliases
// the decoder's input.
func (d *Decoder) DecodeBytesRef(tag uint64, b Bounds) ([]byte, error) {
	h, value, n, err := d.delimited(tag, WireBytes, b)
	if err != nil {
		return nil, err
	}
	d.consume(h, n)
	return value, nil
}

// DecodeBytes decodes a bytes field into a freshly allocated slice.
func (d *Decoder) DecodeBytes(tag uint64, b Bounds) ([]byte, error) {
	value, err := d.DecodeBytesRef(tag, b)
	if err != nil {
		return nil, err
	}
	data := make([]byte, len(value))
	copy(data, value)
	return data, nil
}

// DecodeStringRef decodes a string field without copying. The result shares
// memory with the decoder's input, which must not be modified while the
// string is in use.
func (d *Decoder) DecodeStringRef(tag uint64, b Bounds) (string, error) {
	h, value, n, err := d.delimited(tag, WireString, b)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(value) {
		return "", d.fail(newError(KindInvalidEncoding, tag, ElementValue, "string is not valid UTF-8"))
	}
	d.consume(h, n)
	if len(value) == 0 {
		return "", nil
	}
	return unsafe.String(unsafe.SliceData(value), len(value)), nil
}

// DecodeString decodes a string field into a freshly allocated string.
func (d *Decoder) DecodeString(tag uint64, b Bounds) (string, error) {
	h, value, n, err := d.delimited(tag, WireString, b)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(value) {
		return "", d.fail(newError(KindInvalidEncoding, tag, ElementValue, "string is not valid UTF-8"))
	}
	d.consume(h, n)
	return string(value), nil
}

// ===== MESSAGE DECODERS =====

// DecodeMessage decodes the nested message field with the given tag into m.
// The nested message is hashed by its own decoder; this decoder folds the
// field's raw bytes.
func (d *Decoder) DecodeMessage(tag uint64, m Message) error {
	h, body, n, err := d.delimited(tag, WireMessage, Unbounded)
	if err != nil {
		return err
	}
	c, err := d.child(body, tag)
	if err != nil {
		return d.fail(err)
	}
	if err := m.DecodeFields(c); err != nil {
		return d.fail(err)
	}
	if err := c.Finish(); err != nil {
		return d.fail(err)
	}
	d.consume(h, n)
	return nil
}

// ===== COMPLETION =====

// drain skips every remaining field. Critical fields are errors unless
// ignoreCritical is set, which is the case when walking the contents of a
// field that is itself unknown.
func (d *Decoder) drain(ignoreCritical bool) error {
	for d.pos < len(d.buf) {
		h, n, err := ConsumeHeader(d.buf[d.pos:])
		if err != nil {
			return err
		}
		if d.seen && h.Tag <= d.lastTag {
			return outOfOrder(h.Tag, d.lastTag)
		}
		if h.Critical && !ignoreCritical {
			return newError(KindUnknownCriticalField, h.Tag, ElementTag, "")
		}
		if err := d.skip(h, n); err != nil {
			return err
		}
	}
	return nil
}

// Finish skips trailing unknown fields and checks that the input has been
// fully consumed. Bytes that do not form a well-formed field are reported as
// TrailingData.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if err := d.drain(false); err != nil {
		var e *Error
		if errors.As(err, &e) && (e.Kind == KindTruncatedInput || e.Kind == KindInvalidEncoding) {
			err = &Error{Kind: KindTrailingData, Tag: e.Tag, Element: e.Element, Err: err}
		}
		return d.fail(err)
	}
	return nil
}

// ExpectEnd fails with TrailingData if any input remains. Unlike Finish it
// does not skip unknown fields; variant messages, which hold exactly one
// field, use it.
func (d *Decoder) ExpectEnd() error {
	if d.err != nil {
		return d.err
	}
	if d.pos < len(d.buf) {
		return d.fail(newError(KindTrailingData, d.lastTag, ElementValue,
			fmt.Sprintf("%d unconsumed bytes", len(d.buf)-d.pos)))
	}
	return nil
}

// FillDigest finishes the message and returns the digest of every field
// consumed. The digest is the last member of a message, so trailing unknown
// fields are drained into the hash first.
func (d *Decoder) FillDigest() (Digest, error) {
	if d.err != nil {
		return Digest{}, d.err
	}
	if d.hasher == nil {
		return Digest{}, d.fail(newError(KindDigestUnavailable, 0, ElementValue, "decoder has no hash function"))
	}
	if err := d.Finish(); err != nil {
		return Digest{}, err
	}
	dg, err := sumDigest(d.hasher)
	if err != nil {
		return Digest{}, d.fail(err)
	}
	return dg, nil
}

// ===== SKIPPING =====

// skip consumes the unknown field at the decoder's position, folding exactly
// what a decoder that knows the field would fold.
func (d *Decoder) skip(h Header, n int) error {
	if h.WireType == WireSequence {
		return d.skipSequence(h, n)
	}
	vn, err := valueLen(h, d.buf[d.pos+n:])
	if err != nil {
		return err
	}
	d.consume(h, n+vn)
	return nil
}

func (d *Decoder) skipSequence(h Header, n int) error {
	start := d.pos
	code, bodyLen, sn, err := readSequenceHeader(d.buf[start+n:], h.Tag)
	if err != nil {
		return err
	}
	bodyStart := start + n + sn
	end := bodyStart + bodyLen

	if code != codeMessage {
		// Sequences of non-message values have no element digests; their
		// raw bytes stand for them.
		if err := checkValueSequence(code, d.buf[bodyStart:end], h.Tag); err != nil {
			return err
		}
		d.consume(h, end-start)
		return nil
	}

	digests, err := d.eachElement(d.buf[bodyStart:end], h.Tag, nil)
	if err != nil {
		return err
	}
	d.foldSequence(d.buf[start:start+n], code, digests)
	d.pos = end
	d.lastTag, d.lastCritical, d.seen = h.Tag, h.Critical, true
	return nil
}

// eachElement decodes every message element of a sequence body with its own
// child decoder, returning the element digests when hashing. A nil decode
// function walks elements structurally.
func (d *Decoder) eachElement(body []byte, tag uint64, decode func(i int, c *Decoder) error) ([]Digest, error) {
	var digests []Digest
	for off, i := 0, 0; off < len(body); i++ {
		length, ln, err := readLength(body[off:], tag)
		if err != nil {
			return nil, err
		}
		elem := body[off+ln : off+ln+length]
		c, err := d.child(elem, tag)
		if err != nil {
			return nil, err
		}
		if decode != nil {
			if err := decode(i, c); err != nil {
				return nil, WrapWithField(err, strconv.Itoa(i))
			}
			if err := c.Finish(); err != nil {
				return nil, WrapWithField(err, strconv.Itoa(i))
			}
		} else if err := c.drain(true); err != nil {
			return nil, err
		}
		if c.hasher != nil {
			dg, err := sumDigest(c.hasher)
			if err != nil {
				return nil, err
			}
			digests = append(digests, dg)
		}
		off += ln + length
	}
	return digests, nil
}

// foldSequence folds a message sequence into the running hash: the field
// header, the element count and type, then each element digest in order.
func (d *Decoder) foldSequence(header []byte, code uint64, digests []Digest) {
	if d.hasher == nil {
		return
	}
	d.hasher.Write(header)
	d.hasher.Write(AppendVarint(nil, uint64(len(digests))<<4|code))
	for i := range digests {
		d.hasher.Write(digests[i][:])
	}
}

// ===== LOW-LEVEL READERS =====

// readLength reads a length delimiter and checks it against the input that
// remains after it, before anything is allocated.
func readLength(src []byte, tag uint64) (int, int, error) {
	length, n, err := ConsumeVarint(src)
	if err != nil {
		return 0, 0, varintError(err, tag, ElementLengthDelimiter)
	}
	if length > uint64(len(src)-n) {
		return 0, 0, newError(KindTruncatedInput, tag, ElementLengthDelimiter,
			fmt.Sprintf("declared %d bytes, %d remain", length, len(src)-n))
	}
	return int(length), n, nil
}

// readSequenceHeader reads (bodyLen << 4 | elementCode).
func readSequenceHeader(src []byte, tag uint64) (uint64, int, int, error) {
	raw, n, err := ConsumeVarint(src)
	if err != nil {
		return 0, 0, 0, varintError(err, tag, ElementSequenceHeader)
	}
	code := raw & 0xf
	if code <= codeTrue || code > codeSequence {
		return 0, 0, 0, newError(KindInvalidEncoding, tag, ElementSequenceHeader,
			fmt.Sprintf("invalid element type code %d", code))
	}
	bodyLen := raw >> 4
	if bodyLen > uint64(len(src)-n) {
		return 0, 0, 0, newError(KindTruncatedInput, tag, ElementSequenceHeader,
			fmt.Sprintf("declared %d bytes, %d remain", bodyLen, len(src)-n))
	}
	return code, int(bodyLen), n, nil
}

// valueLen returns the size of the value that follows header h in rest.
func valueLen(h Header, rest []byte) (int, error) {
	switch h.WireType {
	case WireBool:
		return 0, nil
	case WireUInt64, WireSInt64:
		_, n, err := ConsumeVarint(rest)
		if err != nil {
			return 0, varintError(err, h.Tag, ElementValue)
		}
		return n, nil
	case WireSequence:
		_, bodyLen, n, err := readSequenceHeader(rest, h.Tag)
		if err != nil {
			return 0, err
		}
		return n + bodyLen, nil
	default:
		length, n, err := readLength(rest, h.Tag)
		if err != nil {
			return 0, err
		}
		return n + length, nil
	}
}

// checkValueSequence verifies that a body of non-message elements is a
// well-formed run of values of the given code.
func checkValueSequence(code uint64, body []byte, tag uint64) error {
	for off := 0; off < len(body); {
		var (
			n   int
			err error
		)
		switch code {
		case codeUInt64, codeSInt64:
			_, n, err = ConsumeVarint(body[off:])
			if err != nil {
				err = varintError(err, tag, ElementValue)
			}
		default:
			var length, ln int
			length, ln, err = readLength(body[off:], tag)
			n = ln + length
		}
		if err != nil {
			return err
		}
		off += n
	}
	return nil
}
