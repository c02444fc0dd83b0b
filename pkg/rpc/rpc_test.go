package rpc

import (
	"bufio"
	"bytes"
	"testing"
)

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	req := &Request{Method: "ExecProgram", Payload: []byte(`{"files":["main.k"]}`)}
	decoded, err := DecodeRequest(EncodeRequest(req))
	if err != nil {
		t.Fatalf("DecodeRequest error: %v", err)
	}
	if decoded.Method != req.Method || string(decoded.Payload) != string(req.Payload) {
		t.Errorf("round trip mismatch: got %+v", decoded)
	}
}

func TestEncodeDecodeResponseResult(t *testing.T) {
	resp := &Response{Result: []byte("ok")}
	decoded, err := DecodeResponse(EncodeResponse(resp))
	if err != nil {
		t.Fatalf("DecodeResponse error: %v", err)
	}
	if decoded.Err != nil || string(decoded.Result) != "ok" {
		t.Errorf("unexpected response: %+v", decoded)
	}
}

func TestEncodeDecodeResponseError(t *testing.T) {
	resp := &Response{Err: &Error{Message: "boom", Filename: "main.k", Line: 7}}
	decoded, err := DecodeResponse(EncodeResponse(resp))
	if err != nil {
		t.Fatalf("DecodeResponse error: %v", err)
	}
	if decoded.Result != nil {
		t.Errorf("expected no result alongside an error")
	}
	if decoded.Err == nil || decoded.Err.Message != "boom" || decoded.Err.Filename != "main.k" || decoded.Err.Line != 7 {
		t.Errorf("unexpected error: %+v", decoded.Err)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("hello")); err != nil {
		t.Fatalf("WriteFrame error: %v", err)
	}
	if err := WriteFrame(&buf, []byte("world")); err != nil {
		t.Fatalf("WriteFrame error: %v", err)
	}
	r := bufio.NewReader(&buf)
	first, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame error: %v", err)
	}
	if string(first) != "hello" {
		t.Errorf("expected %q, got %q", "hello", first)
	}
	second, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame error: %v", err)
	}
	if string(second) != "world" {
		t.Errorf("expected %q, got %q", "world", second)
	}
}

type loopback struct {
	bytes.Buffer
}

func TestServerDispatchesRegisteredMethod(t *testing.T) {
	s := NewServer(nil)
	s.Register("EvalCode", func(payload []byte) ([]byte, error) {
		return append([]byte("echo:"), payload...), nil
	})

	var conn loopback
	req := EncodeRequest(&Request{Method: "EvalCode", Payload: []byte("1+1")})
	if err := WriteFrame(&conn, req); err != nil {
		t.Fatalf("WriteFrame error: %v", err)
	}

	resp := s.dispatch(mustReadFrame(t, &conn))
	if resp.Err != nil {
		t.Fatalf("unexpected error: %v", resp.Err)
	}
	if string(resp.Result) != "echo:1+1" {
		t.Errorf("expected echo:1+1, got %q", resp.Result)
	}
}

func TestServerPingAndListMethod(t *testing.T) {
	s := NewServer(nil)
	s.Register("EvalCode", func(payload []byte) ([]byte, error) { return nil, nil })

	ping := s.dispatch(EncodeRequest(&Request{Method: "Ping"}))
	if string(ping.Result) != "pong" {
		t.Errorf("expected pong, got %q", ping.Result)
	}

	list := s.dispatch(EncodeRequest(&Request{Method: "ListMethod"}))
	if !bytes.Contains(list.Result, []byte("EvalCode")) {
		t.Errorf("expected EvalCode listed, got %q", list.Result)
	}
}

func TestServerUnknownMethod(t *testing.T) {
	s := NewServer(nil)
	resp := s.dispatch(EncodeRequest(&Request{Method: "NoSuchMethod"}))
	if resp.Err == nil {
		t.Errorf("expected an error for an unknown method")
	}
}

func mustReadFrame(t *testing.T, buf *loopback) []byte {
	t.Helper()
	body, err := ReadFrame(bufio.NewReader(buf))
	if err != nil {
		t.Fatalf("ReadFrame error: %v", err)
	}
	return body
}
