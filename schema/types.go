package schema

import "github.com/anirudhraja/verilite/wire"

// Repo represents a collection of schema files and their definitions.
type Repo struct {
	Files map[string]*File `json:"files"`
}

// File represents a single schema file
type File struct {
	Name     string     `json:"name"`     // ledger.proto
	Package  string     `json:"package"`  // package name
	Imports  []*Import  `json:"imports"`  // imported files
	Messages []*Message `json:"messages"` // message definitions
}

// Import represents an import statement
type Import struct {
	Path string `json:"path"` // "common/coin.proto"
}

// MessageKind distinguishes structs from variants.
type MessageKind string

const (
	// KindStruct messages carry an ordered list of fields.
	KindStruct MessageKind = "struct"
	// KindVariant messages carry exactly one of their fields.
	KindVariant MessageKind = "variant"
)

// Message represents a message definition
type Message struct {
	Name        string      `json:"name"`                   // "Transfer"
	FullName    string      `json:"full_name"`              // "ledger.Transfer"
	Kind        MessageKind `json:"kind"`                   // struct or variant
	Fields      []*Field    `json:"fields"`                 // in ascending tag order
	Digest      string      `json:"digest,omitempty"`       // digest algorithm, empty if none
	DigestField string      `json:"digest_field,omitempty"` // name the decoded digest is exposed under
}

// IsVariant reports whether the message holds exactly one alternative.
func (m *Message) IsVariant() bool {
	return m.Kind == KindVariant
}

// FieldByName returns the field with the given name, or nil.
func (m *Message) FieldByName(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldByTag returns the field with the given tag, or nil.
func (m *Message) FieldByTag(tag uint64) *Field {
	for _, f := range m.Fields {
		if f.Tag == tag {
			return f
		}
	}
	return nil
}

// Field represents a message field
type Field struct {
	Name     string     `json:"name"`           // "amount"
	Tag      uint64     `json:"tag"`            // 1
	Type     FieldType  `json:"type"`           // wire type and referenced message
	Critical bool       `json:"critical"`       // unknown-field handling for old readers
	Optional bool       `json:"optional"`       // may be absent
	Size     *SizeLimit `json:"size,omitempty"` // bytes and string only
}

// Bounds converts the field's size limit into decoder bounds.
func (f *Field) Bounds() wire.Bounds {
	if f.Size == nil {
		return wire.Unbounded
	}
	if f.Size.Max < 0 {
		return wire.AtLeast(f.Size.Min)
	}
	return wire.Range(f.Size.Min, f.Size.Max)
}

// FieldType represents field type information
type FieldType struct {
	WireType    wire.WireType `json:"wire_type"`              // bool, uint64, ... sequence
	MessageType string        `json:"message_type,omitempty"` // for message and sequence: "ledger.Coin"
}

// SizeLimit bounds the byte length of a bytes or string value.
type SizeLimit struct {
	Min int `json:"min"`
	Max int `json:"max"` // -1 when there is no upper bound
}
