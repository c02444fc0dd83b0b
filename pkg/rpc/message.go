package rpc

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers for the hand-encoded Request/Response/Error messages.
const (
	reqFieldMethod  = 1
	reqFieldPayload = 2

	respFieldResult = 1
	respFieldError  = 2

	errFieldMessage  = 1
	errFieldFilename = 2
	errFieldLine     = 3
)

// Request is one RPC call: a method name (ExecProgram, EvalCode, ...) and
// an opaque, method-specific payload the registered Handler decodes.
type Request struct {
	Method  string
	Payload []byte
}

// Response carries either Result or Err, never both — spec.md §6's "each
// response carries either a typed result or a structured Error".
type Response struct {
	Result []byte
	Err    *Error
}

// Error is spec.md §6's Error{message, filename?, line?}.
type Error struct {
	Message  string
	Filename string
	Line     int32
}

func (e *Error) Error() string {
	if e.Filename == "" {
		return e.Message
	}
	return fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Message)
}

// EncodeRequest hand-encodes a Request using protowire's field primitives
// directly, the same way protoc-generated Marshal methods would for a
// message `{string method = 1; bytes payload = 2;}`.
func EncodeRequest(req *Request) []byte {
	var b []byte
	b = protowire.AppendTag(b, reqFieldMethod, protowire.BytesType)
	b = protowire.AppendString(b, req.Method)
	if len(req.Payload) > 0 {
		b = protowire.AppendTag(b, reqFieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, req.Payload)
	}
	return b
}

// DecodeRequest parses a frame body produced by EncodeRequest.
func DecodeRequest(data []byte) (*Request, error) {
	req := &Request{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("rpc: malformed request tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case reqFieldMethod:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("rpc: malformed request method: %w", protowire.ParseError(n))
			}
			req.Method = string(v)
			data = data[n:]
		case reqFieldPayload:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("rpc: malformed request payload: %w", protowire.ParseError(n))
			}
			req.Payload = append([]byte(nil), v...)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("rpc: malformed request field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return req, nil
}

// EncodeResponse hand-encodes a Response the same way, nesting an encoded
// Error message under field 2 when present.
func EncodeResponse(resp *Response) []byte {
	var b []byte
	if resp.Err != nil {
		b = protowire.AppendTag(b, respFieldError, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeError(resp.Err))
		return b
	}
	b = protowire.AppendTag(b, respFieldResult, protowire.BytesType)
	b = protowire.AppendBytes(b, resp.Result)
	return b
}

// DecodeResponse parses a frame body produced by EncodeResponse.
func DecodeResponse(data []byte) (*Response, error) {
	resp := &Response{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("rpc: malformed response tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case respFieldResult:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("rpc: malformed response result: %w", protowire.ParseError(n))
			}
			resp.Result = append([]byte(nil), v...)
			data = data[n:]
		case respFieldError:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("rpc: malformed response error: %w", protowire.ParseError(n))
			}
			e, err := decodeError(v)
			if err != nil {
				return nil, err
			}
			resp.Err = e
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("rpc: malformed response field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return resp, nil
}

func encodeError(e *Error) []byte {
	var b []byte
	b = protowire.AppendTag(b, errFieldMessage, protowire.BytesType)
	b = protowire.AppendString(b, e.Message)
	if e.Filename != "" {
		b = protowire.AppendTag(b, errFieldFilename, protowire.BytesType)
		b = protowire.AppendString(b, e.Filename)
		b = protowire.AppendTag(b, errFieldLine, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Line))
	}
	return b
}

func decodeError(data []byte) (*Error, error) {
	e := &Error{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("rpc: malformed error tag: %w", protowire.ParseError(n))
		}
		data = data[n:]
		switch num {
		case errFieldMessage:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("rpc: malformed error message: %w", protowire.ParseError(n))
			}
			e.Message = string(v)
			data = data[n:]
		case errFieldFilename:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, fmt.Errorf("rpc: malformed error filename: %w", protowire.ParseError(n))
			}
			e.Filename = string(v)
			data = data[n:]
		case errFieldLine:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, fmt.Errorf("rpc: malformed error line: %w", protowire.ParseError(n))
			}
			e.Line = int32(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, fmt.Errorf("rpc: malformed error field %d: %w", num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return e, nil
}
