package rpc

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Handler answers one RPC method call; the payload is whatever EncodeRequest
// packed (a method-specific encoding chosen by the caller registering it —
// ExecProgram's payload shape differs from GetSchemaType's).
type Handler func(payload []byte) (result []byte, err error)

// Server dispatches frames read from a connection to registered Handlers
// by method name. ExecProgram, EvalCode, ResolveCode, GetSchemaType,
// ValidateCode, SpliceCode, and ListDepFiles are the host-callable methods
// spec.md §6 names; Ping and ListMethod are always available.
type Server struct {
	log *logrus.Logger

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewServer builds an empty dispatch table; call Register for each method
// a caller supports before Serve.
func NewServer(log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	return &Server{log: log, handlers: make(map[string]Handler)}
}

// Register binds a method name to its handler. Re-registering a name
// overwrites the previous handler.
func (s *Server) Register(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// Serve reads frames from rw until it returns EOF or a frame-level
// protocol error (a malformed length prefix or message body); handler
// errors are reported as a Response.Err frame and do not end the loop.
func (s *Server) Serve(rw io.ReadWriter) error {
	r := bufio.NewReader(rw)
	for {
		body, err := ReadFrame(r)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		resp := s.dispatch(body)
		if err := WriteFrame(rw, EncodeResponse(resp)); err != nil {
			return err
		}
	}
}

func (s *Server) dispatch(body []byte) *Response {
	req, err := DecodeRequest(body)
	if err != nil {
		return &Response{Err: &Error{Message: err.Error()}}
	}

	switch req.Method {
	case "Ping":
		return &Response{Result: []byte("pong")}
	case "ListMethod":
		return &Response{Result: []byte(s.listMethods())}
	}

	s.mu.RLock()
	handler, ok := s.handlers[req.Method]
	s.mu.RUnlock()
	if !ok {
		return &Response{Err: &Error{Message: fmt.Sprintf("rpc: unknown method %q", req.Method)}}
	}

	result, err := handler(req.Payload)
	if err != nil {
		s.log.WithField("method", req.Method).WithError(err).Warn("rpc handler returned an error")
		if rpcErr, ok := err.(*Error); ok {
			return &Response{Err: rpcErr}
		}
		return &Response{Err: &Error{Message: err.Error()}}
	}
	return &Response{Result: result}
}

// listMethods renders every registered method name plus the two built-ins,
// one per line, sorted — the body of a ListMethod response.
func (s *Server) listMethods() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.handlers)+2)
	names = append(names, "Ping", "ListMethod")
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for i, name := range names {
		if i > 0 {
			out += "\n"
		}
		out += name
	}
	return out
}
