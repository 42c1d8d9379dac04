package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/anirudhraja/verilite"
)

type Harness struct {
	vl *verilite.Verilite
}

func main() {
	// Determine schemas root (default to the checked-in testdata)
	schemasRoot := os.Getenv("VERILITE_SCHEMA_DIR")
	if schemasRoot == "" {
		schemasRoot = "testdata"
	}
	h, err := NewHarness(schemasRoot, "ledger.proto")
	if err != nil {
		log.Fatalf("failed to load schema: %v", err)
	}
	totalRuns := 0

	for {
		done, err := h.ServeConformanceRequest(os.Stdin, os.Stdout)
		if err != nil {
			log.Fatalf("conformance-go: fatal error: %v", err)
		}
		if done {
			break
		}
		totalRuns++
	}

	log.Printf("conformance-go: received EOF after %d tests\n", totalRuns)
}

// NewHarness loads schema files from dir.
func NewHarness(dir string, files ...string) (*Harness, error) {
	vl, err := verilite.New(verilite.WithProtoDirectories(dir))
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if err := vl.LoadSchemaFromFile(f); err != nil {
			return nil, err
		}
	}
	return &Harness{vl: vl}, nil
}

func (h *Harness) ServeConformanceRequest(r io.Reader, w io.Writer) (bool, error) {
	var lenBuf [4]byte
	_, err := io.ReadFull(r, lenBuf[:])
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read length: %w", err)
	}

	inLen := binary.LittleEndian.Uint32(lenBuf[:])
	inBytes := make([]byte, inLen)
	if _, err := io.ReadFull(r, inBytes); err != nil {
		return false, fmt.Errorf("read request: %w", err)
	}

	var req Request
	if err := req.Unmarshal(inBytes); err != nil {
		return false, fmt.Errorf("parse request: %w", err)
	}

	resp := h.RunTest(&req)
	outBytes := resp.Marshal()

	var outLen [4]byte
	binary.LittleEndian.PutUint32(outLen[:], uint32(len(outBytes)))

	if _, err := w.Write(outLen[:]); err != nil {
		return false, fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(outBytes); err != nil {
		return false, fmt.Errorf("write response: %w", err)
	}
	return false, nil
}

func (h *Harness) RunTest(req *Request) *Response {
	resp := &Response{}

	if req.MessageType == "" {
		resp.ParseError = "no message type provided"
		return resp
	}

	// Everything downstream works from the encoded message.
	data := req.BinaryPayload
	if req.IsJSON {
		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader([]byte(req.JSONPayload)))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil {
			resp.ParseError = fmt.Sprintf("parse error: %v", err)
			return resp
		}
		encoded, err := h.vl.Marshal(obj, req.MessageType)
		if err != nil {
			resp.SerializeError = fmt.Sprintf("serialize error: %v", err)
			return resp
		}
		data = encoded
	}

	switch req.Output {
	case OutputBinary:
		if req.IsJSON {
			resp.BinaryPayload = data
			return resp
		}
		obj, err := h.vl.Parse(data, req.MessageType)
		if err != nil {
			resp.ParseError = fmt.Sprintf("parse error: %v", err)
			return resp
		}
		out, err := h.vl.Marshal(obj, req.MessageType)
		if err != nil {
			resp.SerializeError = fmt.Sprintf("serialize error: %v", err)
			return resp
		}
		resp.BinaryPayload = out

	case OutputJSON:
		obj, err := h.vl.Parse(data, req.MessageType)
		if err != nil {
			resp.ParseError = fmt.Sprintf("parse error: %v", err)
			return resp
		}
		out, err := json.Marshal(obj)
		if err != nil {
			resp.SerializeError = fmt.Sprintf("json serialize error: %v", err)
			return resp
		}
		resp.JSONPayload = string(out)

	case OutputDigest:
		dg, err := h.vl.Digest(data, req.MessageType)
		if err != nil {
			resp.ParseError = fmt.Sprintf("parse error: %v", err)
			return resp
		}
		resp.Digest = dg.String()

	default:
		resp.RuntimeError = fmt.Sprintf("unknown output format: %d", req.Output)
	}
	return resp
}
