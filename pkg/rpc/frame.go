// Package rpc implements the host-callable RPC surface spec.md §6
// describes: "a request/response protocol over length-prefixed frames
// (varint size + protobuf body)". Methods are dispatched by name
// (ExecProgram, EvalCode, ResolveCode, GetSchemaType, ValidateCode,
// SpliceCode, ListDepFiles, plus Ping and ListMethod); every response
// carries either a typed result or a structured Error{message, filename?,
// line?}.
//
// No pack repo implements this protocol or even imports
// google.golang.org/protobuf directly (it arrives in go.mod only as an
// indirect dependency of other tooling); this package is the first to
// exercise it, using protowire — the low-level wire-encoding primitives
// underneath protoc-generated code — to hand-encode the frame and message
// bodies spec.md's wire format names, without running protoc to generate
// full message types. See DESIGN.md for why protowire specifically.
package rpc

import (
	"bufio"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// maxFrameSize bounds a single frame so a corrupt or hostile length prefix
// cannot force an unbounded allocation.
const maxFrameSize = 64 << 20

// WriteFrame writes msg prefixed with its length as a protobuf varint —
// the "length-prefixed frames (varint size + protobuf body)" wire format.
func WriteFrame(w io.Writer, msg []byte) error {
	var lenBuf []byte
	lenBuf = protowire.AppendVarint(lenBuf, uint64(len(msg)))
	if _, err := w.Write(lenBuf); err != nil {
		return fmt.Errorf("rpc: writing frame length: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("rpc: writing frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	size, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	if size > maxFrameSize {
		return nil, fmt.Errorf("rpc: frame size %d exceeds limit %d", size, maxFrameSize)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("rpc: reading frame body: %w", err)
	}
	return body, nil
}

// readVarint reads a protobuf varint byte-by-byte from a bufio.Reader,
// since protowire.ConsumeVarint needs the whole buffer up front and a
// network frame's length prefix arrives one byte at a time.
func readVarint(r *bufio.Reader) (uint64, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("rpc: reading frame length: %w", err)
		}
		buf = append(buf, b)
		if b&0x80 == 0 {
			break
		}
		if len(buf) > 10 {
			return 0, fmt.Errorf("rpc: frame length varint too long")
		}
	}
	v, n := protowire.ConsumeVarint(buf)
	if n < 0 {
		return 0, fmt.Errorf("rpc: malformed frame length varint")
	}
	return v, nil
}
