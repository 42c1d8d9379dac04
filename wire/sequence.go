package wire

import (
	"fmt"
	"strconv"
)

// Sequences of messages are written as one field: the header, a sequence
// header holding (bodyLen << 4 | element type), then each element as a
// length-prefixed message body. A sequence contributes the digests of its
// elements to the parent rather than their bytes, so a signer can prove
// membership of one element without revealing the others.

// EncodeMessages writes a sequence of messages.
func (e *Encoder) EncodeMessages(tag uint64, critical bool, elems []Message) error {
	lens := make([]int, len(elems))
	bodyLen := 0
	for i, m := range elems {
		lens[i] = m.EncodedLen()
		bodyLen += ElementLen(lens[i])
	}
	if err := e.begin(tag, SequenceLen(tag, bodyLen)); err != nil {
		return err
	}
	e.putHeader(NewHeader(tag, critical, WireSequence))
	e.putVarint(uint64(bodyLen)<<4 | codeMessage)
	for i, m := range elems {
		if err := e.putMessage(m, lens[i]); err != nil {
			return WrapWithField(err, strconv.Itoa(i))
		}
	}
	return nil
}

// DecodeMessages decodes a sequence of messages, calling decode once per
// element with a decoder positioned at the element's first field.
func (d *Decoder) DecodeMessages(tag uint64, decode func(i int, elem *Decoder) error) error {
	h, n, err := d.field(tag, WireSequence)
	if err != nil {
		return err
	}
	start := d.pos
	code, bodyLen, sn, err := readSequenceHeader(d.buf[start+n:], tag)
	if err != nil {
		return d.fail(err)
	}
	if code != codeMessage {
		return d.fail(newError(KindUnexpectedWireType, tag, ElementSequenceHeader,
			fmt.Sprintf("sequence of %s, want message", wireTypeFromCode(code))))
	}
	bodyStart := start + n + sn
	digests, err := d.eachElement(d.buf[bodyStart:bodyStart+bodyLen], tag, decode)
	if err != nil {
		return d.fail(err)
	}
	d.foldSequence(d.buf[start:start+n], code, digests)
	d.pos = bodyStart + bodyLen
	d.lastTag, d.lastCritical, d.seen = h.Tag, h.Critical, true
	return nil
}

// EncodeSequence writes elems as a sequence field.
func EncodeSequence[T any, PT interface {
	*T
	Message
}](e *Encoder, tag uint64, critical bool, elems []T) error {
	msgs := make([]Message, len(elems))
	for i := range elems {
		msgs[i] = PT(&elems[i])
	}
	return e.EncodeMessages(tag, critical, msgs)
}

// DecodeSequence decodes a sequence field into a slice of T. An empty
// sequence decodes as an empty, non-nil slice.
func DecodeSequence[T any, PT interface {
	*T
	Message
}](d *Decoder, tag uint64) ([]T, error) {
	out := []T{}
	err := d.DecodeMessages(tag, func(_ int, elem *Decoder) error {
		var v T
		if err := PT(&v).DecodeFields(elem); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SequenceBodyLen returns the total size of the elements of a sequence.
func SequenceBodyLen[T any, PT interface {
	*T
	Message
}](elems []T) int {
	n := 0
	for i := range elems {
		n += ElementLen(PT(&elems[i]).EncodedLen())
	}
	return n
}

// MessageSequenceLen returns the size of a sequence field holding elems.
func MessageSequenceLen[T any, PT interface {
	*T
	Message
}](tag uint64, elems []T) int {
	return SequenceLen(tag, SequenceBodyLen[T, PT](elems))
}
