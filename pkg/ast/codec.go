package ast

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// EncodeProgram serializes a resolved Program with encoding/gob — the
// hand-off format an external front end uses to pass this module a
// compilation unit (see gob.go).
func EncodeProgram(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, fmt.Errorf("ast: encoding program: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeProgram parses a Program gob-encoded by EncodeProgram.
func DecodeProgram(data []byte) (*Program, error) {
	var p Program
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, fmt.Errorf("ast: decoding program: %w", err)
	}
	return &p, nil
}
