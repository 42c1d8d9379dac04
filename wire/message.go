package wire

import "fmt"

// Message is implemented by every type that can be encoded as a message
// body: hand-written bindings, generated code and dynamic messages alike.
type Message interface {
	// EncodedLen returns the exact size of the message body.
	EncodedLen() int
	// EncodeFields writes the message's fields in ascending tag order.
	EncodeFields(e *Encoder) error
	// DecodeFields reads the message's fields from d. Implementations that
	// carry a digest member call d.FillDigest after their last field.
	DecodeFields(d *Decoder) error
}

// Encode encodes m into a newly allocated buffer of exactly EncodedLen bytes.
func Encode(m Message) ([]byte, error) {
	buf := make([]byte, m.EncodedLen())
	n, err := EncodeTo(buf, m)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// EncodeTo encodes m into buf and returns the number of bytes written. The
// result is only well formed when m's EncodedLen is exact.
func EncodeTo(buf []byte, m Message) (int, error) {
	n := m.EncodedLen()
	if n > len(buf) {
		return 0, fmt.Errorf("%w: message needs %d bytes, %d available", ErrBufferTooSmall, n, len(buf))
	}
	e := NewEncoder(buf[:n])
	if err := m.EncodeFields(e); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// Decode decodes input into m. Trailing unknown fields are skipped unless
// they are critical. newHash may be nil.
func Decode(m Message, input []byte, newHash HashFunc) error {
	d := NewDecoder(input, newHash)
	if err := m.DecodeFields(d); err != nil {
		return err
	}
	return d.Finish()
}

// DecodeDigest decodes input into m and returns the message digest.
func DecodeDigest(m Message, input []byte, newHash HashFunc) (Digest, error) {
	if newHash == nil {
		return Digest{}, newError(KindDigestUnavailable, 0, ElementValue, "no hash function")
	}
	d := NewDecoder(input, newHash)
	if err := m.DecodeFields(d); err != nil {
		return Digest{}, err
	}
	return d.FillDigest()
}
