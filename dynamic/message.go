// Package dynamic encodes and decodes messages described by schema
// definitions at runtime, with values held in map[string]any.
package dynamic

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/anirudhraja/verilite/schema"
	"github.com/anirudhraja/verilite/wire"
)

var (
	// ErrMissingValue is returned when a required field has no value.
	ErrMissingValue = errors.New("missing value for required field")
	// ErrUnknownField is returned for a value whose key names no field.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidValue is returned when a value cannot be converted to its
	// field's type.
	ErrInvalidValue = errors.New("invalid value")
	// ErrVariant is returned when a variant value does not hold exactly one
	// alternative.
	ErrVariant = errors.New("variant must hold exactly one alternative")
)

// Resolver looks up message definitions by name. *registry.Registry
// implements it.
type Resolver interface {
	GetMessage(name string) (*schema.Message, error)
}

// Message is a message whose layout comes from a schema definition. It
// implements wire.Message, so it nests inside generated and hand-written
// messages and they nest inside it.
type Message struct {
	def      *schema.Message
	resolver Resolver
	values   []value // parallel to def.Fields

	digest    wire.Digest
	hasDigest bool
}

type value struct {
	set bool
	v   any // bool, uint64, int64, []byte, string, *Message or []*Message
}

// New returns an empty message of type def, ready to decode into.
func New(resolver Resolver, def *schema.Message) *Message {
	return &Message{
		def:      def,
		resolver: resolver,
		values:   make([]value, len(def.Fields)),
	}
}

// Build converts values into a message of type def. Keys are field names or
// their lowerCamelCase JSON form. The digest field of a previously decoded
// message is accepted and ignored.
func Build(resolver Resolver, def *schema.Message, values map[string]any) (*Message, error) {
	return build(resolver, def, values, wire.DefaultConfig().MaxDepth)
}

// build is Build with an explicit nesting limit.
func build(resolver Resolver, def *schema.Message, values map[string]any, maxDepth int) (*Message, error) {
	if maxDepth <= 0 {
		maxDepth = wire.DefaultMaxDepth
	}
	m := New(resolver, def)
	if err := m.set(values, 0, maxDepth); err != nil {
		return nil, err
	}
	return m, nil
}

// Definition returns the message's schema definition.
func (m *Message) Definition() *schema.Message {
	return m.def
}

// Digest returns the digest computed while decoding, if the definition
// declares one and the decoder was hashing.
func (m *Message) Digest() (wire.Digest, bool) {
	return m.digest, m.hasDigest
}

// Get returns the value of the named field.
func (m *Message) Get(name string) (any, bool) {
	for i, f := range m.def.Fields {
		if f.Name == name && m.values[i].set {
			return m.values[i].v, true
		}
	}
	return nil, false
}

// Which returns the name of the alternative a variant holds.
func (m *Message) Which() string {
	for i, f := range m.def.Fields {
		if m.values[i].set {
			return f.Name
		}
	}
	return ""
}

// Values returns the message as a map. Nested messages are maps, sequences
// are []map[string]any and a decoded digest appears under the definition's
// digest field.
func (m *Message) Values() map[string]any {
	out := make(map[string]any, len(m.values)+1)
	for i, f := range m.def.Fields {
		if !m.values[i].set {
			continue
		}
		switch v := m.values[i].v.(type) {
		case *Message:
			out[f.Name] = v.Values()
		case []*Message:
			list := make([]map[string]any, len(v))
			for j, elem := range v {
				list[j] = elem.Values()
			}
			out[f.Name] = list
		default:
			out[f.Name] = v
		}
	}
	if m.hasDigest {
		out[m.def.DigestField] = m.digest
	}
	return out
}

func lookup(values map[string]any, name string) (any, string, bool) {
	if v, ok := values[name]; ok {
		return v, name, true
	}
	alias := toLowerCamel(name)
	v, ok := values[alias]
	return v, alias, ok
}

func (m *Message) set(values map[string]any, depth, maxDepth int) error {
	if depth > maxDepth {
		return fmt.Errorf("%w: %s", wire.ErrDepthExceeded, m.def.FullName)
	}

	used := make(map[string]struct{}, len(values))
	count := 0
	for i, f := range m.def.Fields {
		raw, key, ok := lookup(values, f.Name)
		if ok {
			used[key] = struct{}{}
		}
		if !ok || raw == nil {
			if f.Optional || m.def.IsVariant() {
				continue
			}
			return wire.WrapWithField(ErrMissingValue, f.Name)
		}
		v, err := m.convert(f, raw, depth, maxDepth)
		if err != nil {
			return wire.WrapWithField(err, f.Name)
		}
		m.values[i] = value{set: true, v: v}
		count++
	}

	for key := range values {
		if _, ok := used[key]; !ok && key != m.def.DigestField {
			return fmt.Errorf("%w: %s has no field %q", ErrUnknownField, m.def.FullName, key)
		}
	}
	if m.def.IsVariant() && count != 1 {
		return fmt.Errorf("%w: %s has %d", ErrVariant, m.def.FullName, count)
	}
	return nil
}

func (m *Message) convert(f *schema.Field, raw any, depth, maxDepth int) (any, error) {
	var (
		v   any
		err error
	)
	switch f.Type.WireType {
	case wire.WireBool:
		v, err = coerceToBool(raw)
	case wire.WireUInt64:
		v, err = coerceToUint64(raw)
	case wire.WireSInt64:
		v, err = coerceToInt64(raw)
	case wire.WireBytes:
		v, err = coerceToBytes(raw)
	case wire.WireString:
		v, err = coerceToString(raw)
	case wire.WireMessage:
		return m.buildChild(f, raw, depth, maxDepth)
	case wire.WireSequence:
		return m.buildList(f, raw, depth, maxDepth)
	default:
		return nil, fmt.Errorf("%w: %s", wire.ErrUnrecognizedWireType, f.Type.WireType)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return v, nil
}

func (m *Message) child(f *schema.Field) (*Message, error) {
	def, err := m.resolver.GetMessage(f.Type.MessageType)
	if err != nil {
		return nil, err
	}
	return New(m.resolver, def), nil
}

func (m *Message) buildChild(f *schema.Field, raw any, depth, maxDepth int) (*Message, error) {
	values, err := coerceToMap(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	c, err := m.child(f)
	if err != nil {
		return nil, err
	}
	if err := c.set(values, depth+1, maxDepth); err != nil {
		return nil, err
	}
	return c, nil
}

func (m *Message) buildList(f *schema.Field, raw any, depth, maxDepth int) ([]*Message, error) {
	items, err := coerceToList(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	out := make([]*Message, len(items))
	for i, item := range items {
		elem, err := m.buildChild(f, item, depth, maxDepth)
		if err != nil {
			return nil, wire.WrapWithField(err, strconv.Itoa(i))
		}
		out[i] = elem
	}
	return out, nil
}

// ===== wire.Message =====

// EncodedLen returns the size of the encoded message body.
func (m *Message) EncodedLen() int {
	n := 0
	for i, f := range m.def.Fields {
		val := m.values[i]
		if !val.set {
			continue
		}
		switch f.Type.WireType {
		case wire.WireBool:
			n += wire.BoolLen(f.Tag)
		case wire.WireUInt64:
			n += wire.Uint64Len(f.Tag, val.v.(uint64))
		case wire.WireSInt64:
			n += wire.Sint64Len(f.Tag, val.v.(int64))
		case wire.WireBytes:
			n += wire.BytesLen(f.Tag, len(val.v.([]byte)))
		case wire.WireString:
			n += wire.StringLen(f.Tag, val.v.(string))
		case wire.WireMessage:
			n += wire.MessageLen(f.Tag, val.v.(*Message).EncodedLen())
		case wire.WireSequence:
			body := 0
			for _, elem := range val.v.([]*Message) {
				body += wire.ElementLen(elem.EncodedLen())
			}
			n += wire.SequenceLen(f.Tag, body)
		}
	}
	return n
}

// EncodeFields writes the fields that hold a value, in tag order.
func (m *Message) EncodeFields(e *wire.Encoder) error {
	for i, f := range m.def.Fields {
		val := m.values[i]
		if !val.set {
			continue
		}
		var err error
		switch f.Type.WireType {
		case wire.WireBool:
			err = e.EncodeBool(f.Tag, f.Critical, val.v.(bool))
		case wire.WireUInt64:
			err = e.EncodeUint64(f.Tag, f.Critical, val.v.(uint64))
		case wire.WireSInt64:
			err = e.EncodeSint64(f.Tag, f.Critical, val.v.(int64))
		case wire.WireBytes:
			err = e.EncodeBytes(f.Tag, f.Critical, val.v.([]byte), f.Bounds())
		case wire.WireString:
			err = e.EncodeString(f.Tag, f.Critical, val.v.(string), f.Bounds())
		case wire.WireMessage:
			err = e.EncodeMessage(f.Tag, f.Critical, val.v.(*Message))
		case wire.WireSequence:
			list := val.v.([]*Message)
			elems := make([]wire.Message, len(list))
			for j := range list {
				elems[j] = list[j]
			}
			err = e.EncodeMessages(f.Tag, f.Critical, elems)
		}
		if err != nil {
			return wire.WrapWithField(err, f.Name)
		}
	}
	return nil
}

// DecodeFields reads the message's fields. When the definition declares a
// digest and the decoder is hashing, the digest is computed after the last
// field.
func (m *Message) DecodeFields(d *wire.Decoder) error {
	m.values = make([]value, len(m.def.Fields))
	m.digest, m.hasDigest = wire.Digest{}, false

	var err error
	if m.def.IsVariant() {
		err = m.decodeVariant(d)
	} else {
		err = m.decodeStruct(d)
	}
	if err != nil {
		return err
	}

	if m.def.Digest != "" && d.Hashing() {
		dg, err := d.FillDigest()
		if err != nil {
			return err
		}
		m.digest, m.hasDigest = dg, true
	}
	return nil
}

func (m *Message) decodeStruct(d *wire.Decoder) error {
	for i, f := range m.def.Fields {
		if f.Optional {
			ok, err := d.Has(f.Tag)
			if err != nil {
				return wire.WrapWithField(err, f.Name)
			}
			if !ok {
				continue
			}
		}
		v, err := m.decodeField(d, f)
		if err == nil {
			err = d.CheckCritical(f.Tag, f.Critical)
		}
		if err != nil {
			return wire.WrapWithField(err, f.Name)
		}
		m.values[i] = value{set: true, v: v}
	}
	return nil
}

func (m *Message) decodeVariant(d *wire.Decoder) error {
	if len(d.Remaining()) == 0 {
		return fmt.Errorf("%w: variant %s holds no alternative", wire.ErrMissingField, m.def.FullName)
	}
	tag, err := d.PeekTag()
	if err != nil {
		return err
	}
	for i, f := range m.def.Fields {
		if f.Tag != tag {
			continue
		}
		v, err := m.decodeField(d, f)
		if err == nil {
			err = d.CheckCritical(f.Tag, f.Critical)
		}
		if err != nil {
			return wire.WrapWithField(err, f.Name)
		}
		m.values[i] = value{set: true, v: v}
		return d.ExpectEnd()
	}
	return wire.UnknownTagError(tag)
}

func (m *Message) decodeField(d *wire.Decoder, f *schema.Field) (any, error) {
	switch f.Type.WireType {
	case wire.WireBool:
		return d.DecodeBool(f.Tag)
	case wire.WireUInt64:
		return d.DecodeUint64(f.Tag)
	case wire.WireSInt64:
		return d.DecodeSint64(f.Tag)
	case wire.WireBytes:
		return d.DecodeBytes(f.Tag, f.Bounds())
	case wire.WireString:
		return d.DecodeString(f.Tag, f.Bounds())
	case wire.WireMessage:
		c, err := m.child(f)
		if err != nil {
			return nil, err
		}
		if err := d.DecodeMessage(f.Tag, c); err != nil {
			return nil, err
		}
		return c, nil
	case wire.WireSequence:
		def, err := m.resolver.GetMessage(f.Type.MessageType)
		if err != nil {
			return nil, err
		}
		list := []*Message{}
		err = d.DecodeMessages(f.Tag, func(_ int, elem *wire.Decoder) error {
			c := New(m.resolver, def)
			if err := c.DecodeFields(elem); err != nil {
				return err
			}
			list = append(list, c)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return list, nil
	}
	return nil, fmt.Errorf("%w: %s", wire.ErrUnrecognizedWireType, f.Type.WireType)
}
