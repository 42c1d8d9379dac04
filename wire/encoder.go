package wire

import (
	"fmt"
	"unicode/utf8"
)

// Encoder writes the fields of one message into a caller-provided buffer.
// Fields must be written in strictly ascending tag order. The buffer is
// never grown; size it with the length functions or Message.EncodedLen.
type Encoder struct {
	buf     []byte
	pos     int
	lastTag uint64
	seen    bool
}

// NewEncoder creates an encoder that writes into buf.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return e.pos
}

// Available returns the space left in the buffer.
func (e *Encoder) Available() int {
	return len(e.buf) - e.pos
}

// Bytes returns the bytes written so far.
func (e *Encoder) Bytes() []byte {
	return e.buf[:e.pos]
}

// Finish returns the encoded message.
func (e *Encoder) Finish() []byte {
	return e.Bytes()
}

// Reset rewinds the encoder to the start of its buffer.
func (e *Encoder) Reset() {
	e.pos = 0
	e.lastTag, e.seen = 0, false
}

// begin checks that a field of size n with the given tag may be written next.
// Nothing is written when it fails.
func (e *Encoder) begin(tag uint64, n int) error {
	if tag > MaxTag {
		return fmt.Errorf("%w: %d", ErrTagTooLarge, tag)
	}
	if e.seen && tag <= e.lastTag {
		return fmt.Errorf("%w: tag %d written after tag %d", ErrTagOutOfOrder, tag, e.lastTag)
	}
	if n > len(e.buf)-e.pos {
		return fmt.Errorf("%w: field %d needs %d bytes, %d available", ErrBufferTooSmall, tag, n, len(e.buf)-e.pos)
	}
	return nil
}

func (e *Encoder) putHeader(h Header) {
	e.pos += PutVarint(e.buf[e.pos:], h.raw())
	e.lastTag, e.seen = h.Tag, true
}

func (e *Encoder) putVarint(v uint64) {
	e.pos += PutVarint(e.buf[e.pos:], v)
}

func (e *Encoder) putBytes(p []byte) {
	e.putVarint(uint64(len(p)))
	e.pos += copy(e.buf[e.pos:], p)
}

// ===== SCALAR ENCODERS =====

// EncodeBool writes a bool field. The value lives in the header.
func (e *Encoder) EncodeBool(tag uint64, critical bool, v bool) error {
	if err := e.begin(tag, BoolLen(tag)); err != nil {
		return err
	}
	e.putHeader(NewBoolHeader(tag, critical, v))
	return nil
}

// EncodeUint64 writes a uint64 field.
func (e *Encoder) EncodeUint64(tag uint64, critical bool, v uint64) error {
	if err := e.begin(tag, Uint64Len(tag, v)); err != nil {
		return err
	}
	e.putHeader(NewHeader(tag, critical, WireUInt64))
	e.putVarint(v)
	return nil
}

// EncodeSint64 writes a zigzag-encoded sint64 field.
func (e *Encoder) EncodeSint64(tag uint64, critical bool, v int64) error {
	if err := e.begin(tag, Sint64Len(tag, v)); err != nil {
		return err
	}
	e.putHeader(NewHeader(tag, critical, WireSInt64))
	e.putVarint(EncodeZigZag(v))
	return nil
}

// ===== LENGTH-DELIMITED ENCODERS =====

// EncodeBytes writes a bytes field whose length must satisfy b.
func (e *Encoder) EncodeBytes(tag uint64, critical bool, v []byte, b Bounds) error {
	if err := b.check(tag, len(v)); err != nil {
		return err
	}
	if err := e.begin(tag, BytesLen(tag, len(v))); err != nil {
		return err
	}
	e.putHeader(NewHeader(tag, critical, WireBytes))
	e.putBytes(v)
	return nil
}

// EncodeString writes a string field whose byte length must satisfy b.
func (e *Encoder) EncodeString(tag uint64, critical bool, v string, b Bounds) error {
	if err := b.check(tag, len(v)); err != nil {
		return err
	}
	if !utf8.ValidString(v) {
		return newError(KindInvalidEncoding, tag, ElementValue, "string is not valid UTF-8")
	}
	if err := e.begin(tag, StringLen(tag, v)); err != nil {
		return err
	}
	e.putHeader(NewHeader(tag, critical, WireString))
	e.putVarint(uint64(len(v)))
	e.pos += copy(e.buf[e.pos:], v)
	return nil
}

// ===== MESSAGE ENCODERS =====

// EncodeMessage writes a nested message field.
func (e *Encoder) EncodeMessage(tag uint64, critical bool, m Message) error {
	body := m.EncodedLen()
	if err := e.begin(tag, MessageLen(tag, body)); err != nil {
		return err
	}
	e.putHeader(NewHeader(tag, critical, WireMessage))
	return e.putMessage(m, body)
}

// putMessage writes a length-delimited message body of the given size. The
// body is written in place, so m's EncodedLen must be exact.
func (e *Encoder) putMessage(m Message, body int) error {
	e.putVarint(uint64(body))
	sub := NewEncoder(e.buf[e.pos : e.pos+body])
	if err := m.EncodeFields(sub); err != nil {
		return err
	}
	e.pos += body
	return nil
}
