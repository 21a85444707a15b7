package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeProgram parses a compiled program from its JSON form.
// Unknown fields are ignored so newer compilers stay loadable.
func DecodeProgram(data []byte) (*Program, error) {
	var p Program
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return &p, nil
}

// EncodeProgram serializes a program to its compiled JSON form.
func EncodeProgram(p *Program) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
