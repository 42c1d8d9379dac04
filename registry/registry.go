package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anirudhraja/verilite/schema"
	"go.uber.org/zap"
)

var (
	// ErrMessageNotFound is returned when a type name resolves to nothing.
	ErrMessageNotFound = errors.New("message not found")
	// ErrInvalidDefinition wraps every definition-time validation failure.
	ErrInvalidDefinition = errors.New("invalid definition")
)

// Registry stores message definitions. We look them up when we need to
// parse, marshal or digest a message.
type Registry struct {
	// ProtoDirectories are searched, in order, for imported schema files.
	ProtoDirectories []string

	repo     *schema.Repo
	messages map[string]*schema.Message // fully qualified name -> message
	manual   map[string]*schema.Message // added with AddMessage
	parsed   map[string]*parsedFile     // file path -> parse result
	order    []string                   // file paths in load order

	logger *zap.Logger
}

// NewRegistry creates an empty registry that resolves imports against dirs.
func NewRegistry(dirs ...string) *Registry {
	return &Registry{
		ProtoDirectories: dirs,
		repo:             &schema.Repo{Files: make(map[string]*schema.File)},
		messages:         make(map[string]*schema.Message),
		manual:           make(map[string]*schema.Message),
		parsed:           make(map[string]*parsedFile),
		logger:           zap.NewNop(),
	}
}

// LoadSchema loads a .proto file, or recursively every .proto file in a
// directory, along with their imports.
func (r *Registry) LoadSchema(protoPath string) error {
	info, err := os.Stat(protoPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	var files []string
	if !info.IsDir() {
		if !strings.HasSuffix(protoPath, ".proto") {
			return fmt.Errorf("file %s is not a .proto file", protoPath)
		}
		files = append(files, protoPath)
	} else {
		err = filepath.WalkDir(protoPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".proto") {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to walk directory: %w", err)
		}
	}

	return r.load(files)
}

// LoadSchemaFromFile loads a schema file located through ProtoDirectories,
// following its imports.
func (r *Registry) LoadSchemaFromFile(protoFile string) error {
	path, err := r.findIfProtoExists(protoFile, "")
	if err != nil {
		return err
	}
	return r.load([]string{path})
}

// load parses files and their imports, then rebuilds the symbol table. A
// failed load leaves the registry as it was.
func (r *Registry) load(files []string) error {
	added, err := r.parseAll(files)
	if err != nil {
		r.forget(added)
		return err
	}

	repo, messages, err := r.buildSymbolTable()
	if err != nil {
		r.forget(added)
		return fmt.Errorf("failed to build symbol table: %w", err)
	}
	r.repo, r.messages = repo, messages

	r.logger.Info("schema loaded",
		zap.Int("files", len(added)),
		zap.Int("messages", len(messages)))
	return nil
}

func (r *Registry) forget(paths []string) {
	for _, p := range paths {
		delete(r.parsed, p)
	}
	kept := r.order[:0]
	for _, p := range r.order {
		if _, ok := r.parsed[p]; ok {
			kept = append(kept, p)
		}
	}
	r.order = kept
}

// buildSymbolTable builds definitions from every parsed file.
func (r *Registry) buildSymbolTable() (*schema.Repo, map[string]*schema.Message, error) {
	// Pass 1: register every message name so references resolve regardless
	// of declaration order.
	names := make(map[string]struct{})
	for name := range r.manual {
		names[name] = struct{}{}
	}
	for _, path := range r.order {
		for _, name := range r.parsed[path].messageNames() {
			if _, dup := names[name]; dup {
				return nil, nil, fmt.Errorf("%w: message %s is defined twice", ErrInvalidDefinition, name)
			}
			names[name] = struct{}{}
		}
	}

	// Pass 2: build and validate definitions.
	repo := &schema.Repo{Files: make(map[string]*schema.File)}
	messages := make(map[string]*schema.Message)
	for name, msg := range r.manual {
		messages[name] = msg
	}
	for _, path := range r.order {
		file, err := r.parsed[path].build(names, r.logger)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		repo.Files[path] = file
		for _, msg := range file.Messages {
			messages[msg.FullName] = msg
		}
	}

	// Pass 3: the referenced types must be known messages.
	for _, msg := range messages {
		for _, f := range msg.Fields {
			if f.Type.MessageType == "" {
				continue
			}
			if _, ok := messages[f.Type.MessageType]; !ok {
				return nil, nil, fmt.Errorf("%w: %s.%s references unknown message %s",
					ErrInvalidDefinition, msg.FullName, f.Name, f.Type.MessageType)
			}
		}
	}
	return repo, messages, nil
}

// AddMessage registers a definition built in code. It is validated the same
// way as a parsed one.
func (r *Registry) AddMessage(msg *schema.Message) error {
	if msg.FullName == "" {
		msg.FullName = msg.Name
	}
	if msg.Kind == "" {
		msg.Kind = schema.KindStruct
	}
	if err := ValidateMessage(msg); err != nil {
		return err
	}
	if _, dup := r.messages[msg.FullName]; dup {
		return fmt.Errorf("%w: message %s is defined twice", ErrInvalidDefinition, msg.FullName)
	}
	for _, f := range msg.Fields {
		if f.Type.MessageType == "" || f.Type.MessageType == msg.FullName {
			continue
		}
		if _, ok := r.messages[f.Type.MessageType]; !ok {
			return fmt.Errorf("%w: %s.%s references unknown message %s",
				ErrInvalidDefinition, msg.FullName, f.Name, f.Type.MessageType)
		}
	}
	r.messages[msg.FullName] = msg
	r.manual[msg.FullName] = msg
	return nil
}

func getFullName(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// GetMessage retrieves a message definition by name
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}

	// Try without package prefix
	var match *schema.Message
	for fullName, msg := range r.messages {
		if strings.HasSuffix(fullName, "."+name) {
			if match != nil {
				return nil, fmt.Errorf("%w: %s is ambiguous", ErrMessageNotFound, name)
			}
			match = msg
		}
	}
	if match != nil {
		return match, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, name)
}

// ListMessages returns all registered message names in sorted order
func (r *Registry) ListMessages() []string {
	names := make([]string, 0, len(r.messages))
	for name := range r.messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListFiles returns the loaded schema files in load order
func (r *Registry) ListFiles() []string {
	return append([]string(nil), r.order...)
}

// Repo returns the loaded files and their definitions.
func (r *Registry) Repo() *schema.Repo {
	return r.repo
}
