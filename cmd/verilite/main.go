// verilite encodes, decodes and digests messages described by schema files.
//
//	verilite -I schemas -s ledger.proto encode ledger.Transfer < transfer.json > transfer.bin
//	verilite -I schemas -s ledger.proto decode ledger.Transfer < transfer.bin
//	verilite -I schemas -s ledger.proto digest ledger.Transfer < transfer.bin
//	verilite -I schemas -s ledger.proto types
//
// Settings may also come from a TOML file named by --config or
// $VERILITE_CONFIG. Flags override the file.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/anirudhraja/verilite"
	"github.com/anirudhraja/verilite/wire"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

const usage = `usage: verilite [flags] <command> [TYPE]

commands:
  encode TYPE   read values (JSON or CBOR) on stdin, write the encoded message
  decode TYPE   read an encoded message on stdin, write its values
  digest TYPE   read an encoded message on stdin, write its digest
  types         list the loaded message types

flags:
`

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var configPath string

	flagSet := pflag.NewFlagSet("verilite", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.Usage = func() {
		fmt.Fprint(stderr, usage)
		flagSet.PrintDefaults()
	}
	flagSet.StringVar(&configPath, "config", os.Getenv("VERILITE_CONFIG"), "TOML configuration file")
	protoDirs := flagSet.StringSliceP("proto-dir", "I", nil, "directory searched for schema files and imports (repeatable)")
	schemas := flagSet.StringSliceP("schema", "s", nil, "schema file or directory to load (repeatable)")
	algorithm := flagSet.String("digest", "", "digest algorithm for messages that do not declare one")
	maxDepth := flagSet.Int("max-depth", 0, "maximum message nesting depth")
	format := flagSet.StringP("format", "f", "", "decode output format: json, cbor or diag")
	input := flagSet.String("input", "", "encode input format: json or cbor")
	hexIO := flagSet.Bool("hex", false, "read and write encoded messages as hex text")
	verbose := flagSet.BoolP("verbose", "v", false, "log schema loading to stderr")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := defaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = loadConfig(configPath); err != nil {
			return err
		}
	}
	cfg.ProtoDirs = append(cfg.ProtoDirs, *protoDirs...)
	cfg.Schemas = append(cfg.Schemas, *schemas...)
	if flagSet.Changed("digest") {
		cfg.Digest = *algorithm
	}
	if flagSet.Changed("max-depth") {
		cfg.MaxDepth = *maxDepth
	}
	if flagSet.Changed("format") {
		cfg.Format = *format
	}
	if flagSet.Changed("input") {
		cfg.Input = *input
	}
	if flagSet.Changed("hex") {
		cfg.Hex = *hexIO
	}
	if flagSet.Changed("verbose") {
		cfg.Verbose = *verbose
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		flagSet.Usage()
		return errors.New("missing command")
	}

	v, err := open(cfg, stderr)
	if err != nil {
		return err
	}

	command, rest := rest[0], rest[1:]
	if command == "types" {
		return listTypes(v, stdout)
	}
	if len(rest) != 1 {
		return fmt.Errorf("%s takes exactly one message type", command)
	}
	typeName := rest[0]

	switch command {
	case "encode":
		values, err := readValues(stdin, cfg.Input)
		if err != nil {
			return err
		}
		data, err := v.Marshal(values, typeName)
		if err != nil {
			return err
		}
		return writeMessage(stdout, data, cfg.Hex)

	case "decode":
		data, err := readMessage(stdin, cfg.Hex)
		if err != nil {
			return err
		}
		values, err := v.Parse(data, typeName)
		if err != nil {
			return err
		}
		return writeValues(stdout, values, cfg.Format, cfg.Hex)

	case "digest":
		data, err := readMessage(stdin, cfg.Hex)
		if err != nil {
			return err
		}
		dg, err := v.Digest(data, typeName)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, dg)
		return err

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// open builds a Verilite instance and loads the configured schemas.
func open(cfg config, stderr io.Writer) (*verilite.Verilite, error) {
	logger := zap.NewNop()
	if cfg.Verbose {
		logger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(stderr),
			zap.DebugLevel,
		))
	}

	opts := []verilite.Option{
		verilite.WithProtoDirectories(cfg.ProtoDirs...),
		verilite.WithLogger(logger),
	}
	if cfg.Digest != "" {
		opts = append(opts, verilite.WithDigest(cfg.Digest))
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, verilite.WithConfig(wire.Config{MaxDepth: cfg.MaxDepth}))
	}
	v, err := verilite.New(opts...)
	if err != nil {
		return nil, err
	}

	for _, s := range cfg.Schemas {
		if _, statErr := os.Stat(s); statErr == nil {
			err = v.LoadSchema(s)
		} else {
			err = v.LoadSchemaFromFile(s)
		}
		if err != nil {
			return nil, fmt.Errorf("load schema %s: %w", s, err)
		}
	}
	if len(v.ListMessages()) == 0 {
		return nil, errors.New("no message types loaded; pass --schema or set schemas in the config file")
	}
	return v, nil
}

func listTypes(v *verilite.Verilite, w io.Writer) error {
	for _, name := range v.ListMessages() {
		msg, err := v.GetRegistry().GetMessage(name)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s\t%s\t%d fields", name, msg.Kind, len(msg.Fields))
		if msg.Digest != "" {
			line += fmt.Sprintf("\tdigest=%s", msg.Digest)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
