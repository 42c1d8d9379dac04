package registry

import (
	"fmt"

	"github.com/anirudhraja/verilite/digest"
	"github.com/anirudhraja/verilite/schema"
	"github.com/anirudhraja/verilite/wire"
)

// ValidateMessage checks the rules every definition must satisfy before a
// codec is built from it. References to other messages are checked by the
// registry, which knows the full set of names.
func ValidateMessage(msg *schema.Message) error {
	if msg.Name == "" {
		return fmt.Errorf("%w: message has no name", ErrInvalidDefinition)
	}
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidDefinition, msg.FullName, fmt.Sprintf(format, args...))
	}

	switch msg.Kind {
	case schema.KindStruct:
	case schema.KindVariant:
		if len(msg.Fields) == 0 {
			return invalid("a variant needs at least one alternative")
		}
	default:
		return invalid("unknown message kind %q", msg.Kind)
	}

	if msg.Digest != "" {
		if _, err := digest.Lookup(msg.Digest); err != nil {
			return invalid("%v", err)
		}
		if msg.DigestField == "" {
			return invalid("digest is set but digest_field is empty")
		}
	}

	names := make(map[string]struct{}, len(msg.Fields))
	for i, f := range msg.Fields {
		if f.Name == "" {
			return invalid("field %d has no name", i)
		}
		if _, dup := names[f.Name]; dup {
			return invalid("field %s is declared twice", f.Name)
		}
		names[f.Name] = struct{}{}

		if f.Tag > wire.MaxTag {
			return invalid("field %s: tag %d exceeds %d", f.Name, f.Tag, uint64(wire.MaxTag))
		}
		if i > 0 && f.Tag <= msg.Fields[i-1].Tag {
			return invalid("field %s: tag %d must be greater than %d; fields are declared in ascending tag order",
				f.Name, f.Tag, msg.Fields[i-1].Tag)
		}

		wt := f.Type.WireType
		if _, err := wire.ParseWireType(wt.String()); err != nil {
			return invalid("field %s: %v", f.Name, err)
		}
		if wt.IsRecursive() != (f.Type.MessageType != "") {
			return invalid("field %s: only message and sequence fields reference a message type", f.Name)
		}
		if f.Size != nil {
			if !wt.IsRefType() {
				return invalid("field %s: size limits apply only to bytes and string, not %s", f.Name, wt)
			}
			if f.Size.Min < 0 || (f.Size.Max >= 0 && f.Size.Max < f.Size.Min) {
				return invalid("field %s: invalid size limit %d..%d", f.Name, f.Size.Min, f.Size.Max)
			}
		}
		if msg.IsVariant() && f.Optional {
			return invalid("field %s: variant alternatives cannot be optional", f.Name)
		}
	}

	if msg.DigestField != "" {
		if _, clash := names[msg.DigestField]; clash {
			return invalid("digest field %s clashes with a declared field", msg.DigestField)
		}
	}
	return nil
}
