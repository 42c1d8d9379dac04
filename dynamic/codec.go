package dynamic

import (
	"fmt"

	"github.com/anirudhraja/verilite/digest"
	"github.com/anirudhraja/verilite/schema"
	"github.com/anirudhraja/verilite/wire"
)

// Codec encodes and decodes messages by type name.
type Codec struct {
	resolver Resolver
	config   wire.Config
}

// NewCodec returns a codec that resolves type names through resolver.
func NewCodec(resolver Resolver) *Codec {
	return &Codec{resolver: resolver, config: wire.DefaultConfig()}
}

// WithConfig returns a copy of the codec that decodes with cfg.
func (c *Codec) WithConfig(cfg wire.Config) *Codec {
	cp := *c
	cp.config = cfg
	return &cp
}

// Build converts values into a message of the named type.
func (c *Codec) Build(typeName string, values map[string]any) (*Message, error) {
	def, err := c.resolver.GetMessage(typeName)
	if err != nil {
		return nil, err
	}
	return build(c.resolver, def, values, c.config.MaxDepth)
}

// Marshal encodes values as a message of the named type.
func (c *Codec) Marshal(typeName string, values map[string]any) ([]byte, error) {
	m, err := c.Build(typeName, values)
	if err != nil {
		return nil, err
	}
	return wire.Encode(m)
}

// Unmarshal decodes data as a message of the named type. Every message in
// it whose definition declares a digest gets one.
func (c *Codec) Unmarshal(typeName string, data []byte) (*Message, error) {
	def, err := c.resolver.GetMessage(typeName)
	if err != nil {
		return nil, err
	}
	newHash, err := c.hashFor(def)
	if err != nil {
		return nil, err
	}
	m := New(c.resolver, def)
	d := wire.NewDecoderWithConfig(data, newHash, c.config)
	if err := m.DecodeFields(d); err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// Digest decodes data as a message of the named type and returns its digest.
// algorithm overrides the definition's; when both are empty the default
// algorithm is used.
func (c *Codec) Digest(typeName string, data []byte, algorithm string) (wire.Digest, error) {
	def, err := c.resolver.GetMessage(typeName)
	if err != nil {
		return wire.Digest{}, err
	}
	if algorithm == "" {
		algorithm = def.Digest
	}
	newHash, err := digest.Lookup(algorithm)
	if err != nil {
		return wire.Digest{}, err
	}
	m := New(c.resolver, def)
	d := wire.NewDecoderWithConfig(data, newHash, c.config)
	if err := m.DecodeFields(d); err != nil {
		return wire.Digest{}, err
	}
	dg, err := d.FillDigest()
	if err != nil {
		return wire.Digest{}, fmt.Errorf("%s: %w", def.FullName, err)
	}
	return dg, nil
}

// hashFor returns the hash function a decode of def runs with: the
// algorithm of def itself, else of the nearest message it contains that
// declares one. It returns nil when no reachable definition has a digest.
func (c *Codec) hashFor(def *schema.Message) (wire.HashFunc, error) {
	seen := map[string]bool{}
	queue := []*schema.Message{def}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		if seen[m.FullName] {
			continue
		}
		seen[m.FullName] = true
		if m.Digest != "" {
			return digest.Lookup(m.Digest)
		}
		for _, f := range m.Fields {
			if f.Type.MessageType == "" {
				continue
			}
			child, err := c.resolver.GetMessage(f.Type.MessageType)
			if err != nil {
				return nil, err
			}
			queue = append(queue, child)
		}
	}
	return nil, nil
}
