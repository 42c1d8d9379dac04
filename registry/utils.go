package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anirudhraja/verilite/schema"
	"github.com/anirudhraja/verilite/wire"
	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"
	"go.uber.org/zap"
)

// defaultDigestField is where a decoded message exposes its digest when the
// definition does not choose a name.
const defaultDigestField = "digest"

// parsedFile is the parse result of one schema file.
type parsedFile struct {
	path            string
	pkg             string
	proto           *protoparserparser.Proto
	importLocations []string
	imports         []string // resolved paths
}

// parseAll parses files and, depth first, everything they import. Files are
// appended to the load order after their imports. The returned paths are
// the files parsed by this call, even on error.
func (r *Registry) parseAll(files []string) ([]string, error) {
	var added []string

	var dfs func(protoFile string) error
	dfs = func(protoFile string) error {
		// visited check, so import cycles terminate
		if _, ok := r.parsed[protoFile]; ok {
			return nil
		}
		pf, err := parseFile(protoFile, r.logger)
		if err != nil {
			return err
		}
		r.parsed[protoFile] = pf
		added = append(added, protoFile)

		for _, location := range pf.importLocations {
			fullImportPath, err := r.findIfProtoExists(location, filepath.Dir(protoFile))
			if err != nil {
				return fmt.Errorf("%s: %w", protoFile, err)
			}
			pf.imports = append(pf.imports, fullImportPath)
			if err := dfs(fullImportPath); err != nil {
				return err
			}
		}
		r.order = append(r.order, protoFile)
		return nil
	}

	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return added, err
		}
		if err := dfs(abs); err != nil {
			return added, err
		}
	}
	return added, nil
}

func parseFile(protoFile string, log *zap.Logger) (*parsedFile, error) {
	protoBytes, err := os.ReadFile(protoFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	parsedBody, err := protoparser.Parse(bytes.NewBuffer(protoBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", protoFile, err)
	}

	pf := &parsedFile{path: protoFile, proto: parsedBody}
	for _, body := range parsedBody.ProtoBody {
		switch b := body.(type) {
		case *protoparserparser.Package:
			pf.pkg = b.Name
		case *protoparserparser.Import:
			pf.importLocations = append(pf.importLocations, strings.Trim(b.Location, `"`))
		}
	}
	log.Debug("parsed schema file",
		zap.String("file", protoFile),
		zap.String("package", pf.pkg),
		zap.Int("imports", len(pf.importLocations)))
	return pf, nil
}

// findIfProtoExists locates an imported file next to the importing file,
// then in each of the ProtoDirectories, then as given.
func (r *Registry) findIfProtoExists(protoPath, relDir string) (string, error) {
	protoPath = strings.Trim(protoPath, `"`)
	if !strings.HasSuffix(protoPath, ".proto") {
		return "", fmt.Errorf("%s is not a .proto file", protoPath)
	}

	candidates := make([]string, 0, len(r.ProtoDirectories)+2)
	if relDir != "" && !filepath.IsAbs(protoPath) {
		candidates = append(candidates, filepath.Join(relDir, protoPath))
	}
	for _, dir := range r.ProtoDirectories {
		candidates = append(candidates, filepath.Join(dir, protoPath))
	}
	candidates = append(candidates, protoPath)

	var err error
	for _, candidate := range candidates {
		if _, err = os.Stat(candidate); err == nil {
			return filepath.Abs(candidate)
		}
	}
	return "", fmt.Errorf("path does not exist: %s: %w", protoPath, err)
}

// messageNames lists the fully qualified names of every message in the
// file, nested ones included.
func (pf *parsedFile) messageNames() []string {
	var names []string
	var walk func(scope string, body []protoparserparser.Visitee)
	walk = func(scope string, body []protoparserparser.Visitee) {
		for _, item := range body {
			if m, ok := item.(*protoparserparser.Message); ok {
				fullName := getFullName(scope, m.MessageName)
				names = append(names, fullName)
				walk(fullName, m.MessageBody)
			}
		}
	}
	walk(pf.pkg, pf.proto.ProtoBody)
	return names
}

// build converts the parse result into validated definitions.
func (pf *parsedFile) build(names map[string]struct{}, log *zap.Logger) (*schema.File, error) {
	file := &schema.File{
		Name:    filepath.Base(pf.path),
		Package: pf.pkg,
	}
	for _, imp := range pf.imports {
		file.Imports = append(file.Imports, &schema.Import{Path: imp})
	}

	for _, body := range pf.proto.ProtoBody {
		switch b := body.(type) {
		case *protoparserparser.Message:
			msgs, err := buildMessage(b, pf.pkg, names, log)
			if err != nil {
				return nil, err
			}
			file.Messages = append(file.Messages, msgs...)
		case *protoparserparser.Package, *protoparserparser.Import:
		default:
			log.Debug("ignoring declaration",
				zap.String("file", pf.path),
				zap.String("kind", fmt.Sprintf("%T", b)))
		}
	}
	return file, nil
}

// buildMessage builds a message and the messages nested in it.
func buildMessage(m *protoparserparser.Message, scope string, names map[string]struct{}, log *zap.Logger) ([]*schema.Message, error) {
	fullName := getFullName(scope, m.MessageName)
	msg := &schema.Message{
		Name:     m.MessageName,
		FullName: fullName,
		Kind:     schema.KindStruct,
	}
	var nested []*schema.Message

	for _, item := range m.MessageBody {
		switch b := item.(type) {
		case *protoparserparser.Field:
			if msg.IsVariant() {
				return nil, fmt.Errorf("%w: %s: a oneof must be the only member of its message", ErrInvalidDefinition, fullName)
			}
			f, err := buildField(b.FieldName, b.FieldNumber, b.Type, b.IsRepeated, b.IsOptional, b.FieldOptions, fullName, names, log)
			if err != nil {
				return nil, err
			}
			msg.Fields = append(msg.Fields, f)

		case *protoparserparser.Oneof:
			if msg.IsVariant() || len(msg.Fields) > 0 {
				return nil, fmt.Errorf("%w: %s: a oneof must be the only member of its message", ErrInvalidDefinition, fullName)
			}
			msg.Kind = schema.KindVariant
			for _, of := range b.OneofFields {
				f, err := buildField(of.FieldName, of.FieldNumber, of.Type, false, false, of.FieldOptions, fullName, names, log)
				if err != nil {
					return nil, err
				}
				msg.Fields = append(msg.Fields, f)
			}

		case *protoparserparser.Option:
			switch optionName(b.OptionName) {
			case "digest":
				msg.Digest = unquote(b.Constant)
			case "digest_field":
				msg.DigestField = unquote(b.Constant)
			default:
				log.Warn("ignoring unknown message option",
					zap.String("message", fullName),
					zap.String("option", b.OptionName))
			}

		case *protoparserparser.Message:
			inner, err := buildMessage(b, fullName, names, log)
			if err != nil {
				return nil, err
			}
			nested = append(nested, inner...)
		}
	}

	if msg.Digest != "" && msg.DigestField == "" {
		msg.DigestField = defaultDigestField
	}
	if err := ValidateMessage(msg); err != nil {
		return nil, err
	}
	return append([]*schema.Message{msg}, nested...), nil
}

// buildField resolves a field's type token and options.
func buildField(name, number, typeName string, repeated, optional bool, options []*protoparserparser.FieldOption, scope string, names map[string]struct{}, log *zap.Logger) (*schema.Field, error) {
	tag, err := strconv.ParseUint(number, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: invalid tag %q", ErrInvalidDefinition, scope, name, number)
	}
	f := &schema.Field{Name: name, Tag: tag, Optional: optional}

	wt, err := wire.ParseWireType(typeName)
	switch {
	case err == nil && wt.IsRecursive():
		return nil, fmt.Errorf("%w: %s.%s: %q must name a message type", ErrInvalidDefinition, scope, name, typeName)
	case err == nil:
		if repeated {
			return nil, fmt.Errorf("%w: %s.%s: only message types can repeat", ErrInvalidDefinition, scope, name)
		}
		f.Type.WireType = wt
	default:
		ref, rerr := getReferencedType(typeName, scope, names)
		if rerr != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrInvalidDefinition, scope, name, err)
		}
		f.Type = schema.FieldType{WireType: wire.WireMessage, MessageType: ref}
		if repeated {
			f.Type.WireType = wire.WireSequence
		}
	}

	minSize, maxSize := -1, -1
	for _, o := range options {
		key := optionName(o.OptionName)
		value := unquote(o.Constant)
		switch key {
		case "critical":
			if f.Critical, err = strconv.ParseBool(value); err != nil {
				return nil, fmt.Errorf("%w: %s.%s: critical must be true or false", ErrInvalidDefinition, scope, name)
			}
		case "size", "min", "max":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: %s.%s: %s must be a non-negative integer", ErrInvalidDefinition, scope, name, key)
			}
			switch key {
			case "size":
				minSize, maxSize = n, n
			case "min":
				minSize = n
			default:
				maxSize = n
			}
		default:
			log.Warn("ignoring unknown field option",
				zap.String("field", scope+"."+name),
				zap.String("option", o.OptionName))
		}
	}
	if minSize >= 0 || maxSize >= 0 {
		if minSize < 0 {
			minSize = 0
		}
		f.Size = &schema.SizeLimit{Min: minSize, Max: maxSize}
	}
	return f, nil
}

func optionName(name string) string {
	return strings.Trim(name, "()")
}

func unquote(constant string) string {
	return strings.Trim(constant, `"'`)
}

/*
getReferencedType returns the fully qualified name for a referenced type,
be it top level, nested or imported. If not found it returns an error.
*/
func getReferencedType(typeName, prefix string, allResolvedEntities map[string]struct{}) (string, error) {
	// check if fully qualifed prefixed by dot
	if strings.HasPrefix(typeName, ".") {
		return getFullyQualifiedType(typeName, allResolvedEntities)
	}
	// try resolving from inner entities up till the parent package
	if result, ok := splitNameAndCheck(typeName, prefix, allResolvedEntities); ok {
		return result, nil
	}
	//  check if the entity is referenced from another package by its full name
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve type name: %s", typeName)
}

// splitNameAndCheck splits the prefixName and tries to append the typeName and find the entity for resolution
// it also tries the find the entities defined using relative path
func splitNameAndCheck(typeName, prefix string, allResolvedEntities map[string]struct{}) (string, bool) {
	prefixSplit := strings.Split(prefix, ".")

	for len(prefixSplit) > 0 && prefixSplit[0] != "" {
		entityName := strings.Join(prefixSplit, ".") + "." + typeName
		if _, ok := allResolvedEntities[entityName]; ok {
			return entityName, true
		}
		// Omit the last element in each iteration as we go level above to outer entity
		prefixSplit = prefixSplit[:len(prefixSplit)-1]
	}
	return "", false
}

func getFullyQualifiedType(typeName string, allResolvedEntities map[string]struct{}) (string, error) {
	typeName = strings.TrimPrefix(typeName, ".")
	if _, ok := allResolvedEntities[typeName]; ok {
		return typeName, nil
	}
	return "", fmt.Errorf("unable to resolve fully qualified type name: .%s", typeName)
}
