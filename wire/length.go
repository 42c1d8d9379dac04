package wire

// Encoded sizes of whole fields, header included. Message.EncodedLen sums
// these over the fields a message writes.

// BoolLen returns the size of a bool field.
func BoolLen(tag uint64) int {
	return HeaderLen(tag)
}

// Uint64Len returns the size of a uint64 field holding v.
func Uint64Len(tag uint64, v uint64) int {
	return HeaderLen(tag) + VarintSize(v)
}

// Sint64Len returns the size of a sint64 field holding v.
func Sint64Len(tag uint64, v int64) int {
	return HeaderLen(tag) + VarintSize(EncodeZigZag(v))
}

// BytesLen returns the size of a bytes field holding n bytes.
func BytesLen(tag uint64, n int) int {
	return HeaderLen(tag) + VarintSize(uint64(n)) + n
}

// StringLen returns the size of a string field holding s.
func StringLen(tag uint64, s string) int {
	return BytesLen(tag, len(s))
}

// MessageLen returns the size of a message field whose body is n bytes.
func MessageLen(tag uint64, n int) int {
	return BytesLen(tag, n)
}

// ElementLen returns the size of one length-prefixed sequence element whose
// body is n bytes.
func ElementLen(n int) int {
	return VarintSize(uint64(n)) + n
}

// SequenceLen returns the size of a message sequence field whose elements
// occupy bodyLen bytes in total, length prefixes included.
func SequenceLen(tag uint64, bodyLen int) int {
	return HeaderLen(tag) + VarintSize(uint64(bodyLen)<<4|codeMessage) + bodyLen
}
