package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// encMode writes CBOR with Core Deterministic Encoding. Digests render as
// hex text through their MarshalText method.
var encMode cbor.EncMode

// decMode reads CBOR input into map[string]any.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("verilite: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("verilite: CBOR decoder initialization failed: " + err.Error())
	}
}

// readValues reads the values of a message to encode.
func readValues(r io.Reader, format string) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty input: expected %s values on stdin", format)
	}

	var values map[string]any
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("parse JSON input: %w", err)
		}
	case "cbor":
		if err := decMode.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("parse CBOR input: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown input format %q (want json or cbor)", format)
	}
	return values, nil
}

// writeValues renders decoded values.
func writeValues(w io.Writer, values map[string]any, format string, hexOut bool) error {
	switch format {
	case "json":
		out, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case "cbor":
		out, err := encMode.Marshal(values)
		if err != nil {
			return err
		}
		return writeMessage(w, out, hexOut)
	case "diag":
		out, err := encMode.Marshal(values)
		if err != nil {
			return err
		}
		notation, err := cbor.Diagnose(out)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, notation)
		return err
	default:
		return fmt.Errorf("unknown output format %q (want json, cbor or diag)", format)
	}
}

// readMessage reads an encoded message, as hex text when hexIn is set.
func readMessage(r io.Reader, hexIn bool) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if !hexIn {
		return data, nil
	}
	decoded, err := hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
	if err != nil {
		return nil, fmt.Errorf("parse hex input: %w", err)
	}
	return decoded, nil
}

func writeMessage(w io.Writer, data []byte, hexOut bool) error {
	if hexOut {
		_, err := fmt.Fprintln(w, hex.EncodeToString(data))
		return err
	}
	_, err := w.Write(data)
	return err
}
