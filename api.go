package verilite

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/anirudhraja/verilite/digest"
	"github.com/anirudhraja/verilite/dynamic"
	"github.com/anirudhraja/verilite/registry"
	"github.com/anirudhraja/verilite/wire"
	"go.uber.org/zap"
)

// ===== SCHEMA-AWARE API =====

// Verilite provides schema-aware encoding, decoding and digests without
// generated code
type Verilite struct {
	registry  *registry.Registry
	codec     *dynamic.Codec
	algorithm string
}

// Option configures a Verilite instance.
type Option func(*options)

type options struct {
	dirs      []string
	algorithm string
	config    wire.Config
	logger    *zap.Logger
}

// WithProtoDirectories sets the directories searched for schema files and
// their imports.
func WithProtoDirectories(dirs ...string) Option {
	return func(o *options) { o.dirs = append(o.dirs, dirs...) }
}

// WithDigest sets the digest algorithm used for messages whose definition
// does not name one.
func WithDigest(algorithm string) Option {
	return func(o *options) { o.algorithm = algorithm }
}

// WithConfig sets the decoder limits.
func WithConfig(cfg wire.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithLogger sets the logger schema loading reports to.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a new Verilite instance
func New(opts ...Option) (*Verilite, error) {
	o := options{algorithm: digest.Default, config: wire.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if _, err := digest.Lookup(o.algorithm); err != nil {
		return nil, err
	}
	r := registry.NewRegistry(o.dirs...)
	r.SetLogger(o.logger)
	return &Verilite{
		registry:  r,
		codec:     dynamic.NewCodec(r).WithConfig(o.config),
		algorithm: o.algorithm,
	}, nil
}

// LoadSchema loads a schema file, or every schema file under a directory.
func (v *Verilite) LoadSchema(path string) error {
	return v.registry.LoadSchema(path)
}

// LoadSchemaFromFile loads a schema file found through the proto
// directories.
func (v *Verilite) LoadSchemaFromFile(protoFile string) error {
	return v.registry.LoadSchemaFromFile(protoFile)
}

// Parse decodes bytes using the named message definition. When the
// definition declares a digest, the result holds it under the digest field.
func (v *Verilite) Parse(data []byte, messageType string) (map[string]any, error) {
	m, err := v.codec.Unmarshal(messageType, data)
	if err != nil {
		return nil, err
	}
	return m.Values(), nil
}

// Marshal encodes a map using the named message definition
func (v *Verilite) Marshal(data map[string]any, messageType string) ([]byte, error) {
	return v.codec.Marshal(messageType, data)
}

// EncodedLen returns the size Marshal would produce for data.
func (v *Verilite) EncodedLen(data map[string]any, messageType string) (int, error) {
	m, err := v.codec.Build(messageType, data)
	if err != nil {
		return 0, err
	}
	return m.EncodedLen(), nil
}

// Digest decodes bytes using the named message definition and returns the
// message digest. The definition's algorithm is used if it names one, the
// instance default otherwise.
func (v *Verilite) Digest(data []byte, messageType string) (wire.Digest, error) {
	msg, err := v.registry.GetMessage(messageType)
	if err != nil {
		return wire.Digest{}, err
	}
	algorithm := msg.Digest
	if algorithm == "" {
		algorithm = v.algorithm
	}
	return v.codec.Digest(msg.FullName, data, algorithm)
}

// Unmarshal decodes bytes into a Go struct using reflection. The message
// type is the struct's type name.
func (v *Verilite) Unmarshal(data []byte, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct")
	}
	return v.UnmarshalAs(data, rv.Elem().Type().Name(), out)
}

// UnmarshalAs decodes bytes of the named message type into a Go struct.
func (v *Verilite) UnmarshalAs(data []byte, messageType string, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct")
	}

	result, err := v.Parse(data, messageType)
	if err != nil {
		return err
	}
	return v.mapToStruct(result, rv.Elem())
}

// mapToStruct maps parsed result to struct fields. A struct field takes the
// value named by its `verilite` tag, its `json` tag or its name in
// snake_case.
func (v *Verilite) mapToStruct(data map[string]any, rv reflect.Value) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		fieldValue := rv.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		if value, ok := lookupStructField(data, field); ok {
			if err := v.setFieldValue(fieldValue, value); err != nil {
				return fmt.Errorf("failed to set field %s: %w", field.Name, err)
			}
		}
	}
	return nil
}

func lookupStructField(data map[string]any, field reflect.StructField) (any, bool) {
	for _, key := range []string{"verilite", "json"} {
		if tag, ok := field.Tag.Lookup(key); ok {
			name, _, _ := strings.Cut(tag, ",")
			if name == "-" {
				return nil, false
			}
			if name != "" {
				value, ok := data[name]
				return value, ok
			}
		}
	}
	if value, ok := data[toSnakeCase(field.Name)]; ok {
		return value, true
	}
	value, ok := data[field.Name]
	return value, ok
}

// toSnakeCase converts CamelCase to snake_case, keeping acronyms together
func toSnakeCase(s string) string {
	isUpper := func(c byte) bool { return c >= 'A' && c <= 'Z' }
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUpper(c) {
			if i > 0 && (!isUpper(s[i-1]) || (i+1 < len(s) && !isUpper(s[i+1]) && s[i+1] != '_')) {
				b.WriteByte('_')
			}
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// setFieldValue sets a struct field with type conversion
func (v *Verilite) setFieldValue(fieldValue reflect.Value, value any) error {
	if value == nil {
		return nil
	}

	switch val := value.(type) {
	case map[string]any:
		if fieldValue.Kind() == reflect.Ptr {
			if fieldValue.IsNil() {
				fieldValue.Set(reflect.New(fieldValue.Type().Elem()))
			}
			fieldValue = fieldValue.Elem()
		}
		if fieldValue.Kind() != reflect.Struct {
			return fmt.Errorf("cannot convert message to %s", fieldValue.Type())
		}
		return v.mapToStruct(val, fieldValue)

	case []map[string]any:
		if fieldValue.Kind() != reflect.Slice {
			return fmt.Errorf("cannot convert sequence to %s", fieldValue.Type())
		}
		s := reflect.MakeSlice(fieldValue.Type(), len(val), len(val))
		for i := range val {
			if err := v.setFieldValue(s.Index(i), val[i]); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		fieldValue.Set(s)
		return nil
	}

	sourceValue := reflect.ValueOf(value)
	if sourceValue.Type().AssignableTo(fieldValue.Type()) {
		fieldValue.Set(sourceValue)
		return nil
	}

	// integers convert to strings as runes
	if fieldValue.Kind() == reflect.String && sourceValue.Kind() != reflect.String && sourceValue.Kind() != reflect.Slice {
		return fmt.Errorf("cannot convert %T to %s", value, fieldValue.Type())
	}

	if sourceValue.Type().ConvertibleTo(fieldValue.Type()) {
		converted := sourceValue.Convert(fieldValue.Type())
		if overflows(sourceValue, fieldValue) {
			return fmt.Errorf("value %v overflows %s", value, fieldValue.Type())
		}
		fieldValue.Set(converted)
		return nil
	}

	return fmt.Errorf("cannot convert %T to %s", value, fieldValue.Type())
}

// overflows reports whether an integer does not fit the target field.
func overflows(src, dst reflect.Value) bool {
	switch src.Kind() {
	case reflect.Uint64:
		u := src.Uint()
		switch dst.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return u > 1<<63-1 || dst.OverflowInt(int64(u))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return dst.OverflowUint(u)
		}
	case reflect.Int64:
		i := src.Int()
		switch dst.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return dst.OverflowInt(i)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return i < 0 || dst.OverflowUint(uint64(i))
		}
	}
	return false
}

// ===== REGISTRY ACCESS =====

func (v *Verilite) GetRegistry() *registry.Registry { return v.registry }
func (v *Verilite) ListMessages() []string          { return v.registry.ListMessages() }
func (v *Verilite) ListFiles() []string             { return v.registry.ListFiles() }
