// Package gatewaytest provides a scripted HTTP server that imitates the LLM
// gateway for tests.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Response is one scripted reply.
type Response struct {
	StatusCode int

	// Body is written as is when it is a string or []byte and JSON-encoded
	// otherwise. A nil Body writes nothing.
	Body any

	// ContentType defaults to application/json, or text/event-stream when
	// StreamLines is set.
	ContentType string

	Headers map[string]string
	Delay   time.Duration

	// StreamLines are written one per line and flushed individually.
	// No terminator is added; include "data: [DONE]" when needed.
	StreamLines []string

	// LineDelay is waited before every stream line after the first.
	LineDelay time.Duration
}

// Request is a request received by the server.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Server replays queued responses per path. When a path's queue is empty its
// fallback response is used; paths with neither get 404.
type Server struct {
	server *httptest.Server

	mu        sync.Mutex
	queues    map[string][]Response
	fallbacks map[string]Response
	requests  []Request
}

// NewServer starts a scripted server. Call Close when done.
func NewServer() *Server {
	s := &Server{
		queues:    make(map[string][]Response),
		fallbacks: make(map[string]Response),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close shuts the server down.
func (s *Server) Close() {
	s.server.Close()
}

// Enqueue appends responses for path, served in order.
func (s *Server) Enqueue(path string, responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[path] = append(s.queues[path], responses...)
}

// SetFallback sets the response served for path once its queue is empty.
func (s *Server) SetFallback(path string, response Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallbacks[path] = response
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestCount returns the number of requests received.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastRequest returns the most recent request, or false if none was received.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) next(path string) (Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q := s.queues[path]; len(q) > 0 {
		s.queues[path] = q[1:]
		return q[0], true
	}
	resp, ok := s.fallbacks[path]
	return resp, ok
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	s.mu.Unlock()

	resp, ok := s.next(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	if len(resp.StreamLines) > 0 {
		s.stream(w, r, status, resp)
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)

	switch v := resp.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, v)
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "text/event-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	flusher, _ := w.(http.Flusher)
	for i, line := range resp.StreamLines {
		if i > 0 && resp.LineDelay > 0 {
			select {
			case <-time.After(resp.LineDelay):
			case <-r.Context().Done():
				return
			}
		}
		if r.Context().Err() != nil {
			return
		}
		fmt.Fprintf(w, "%s\n", line)
		if flusher != nil {
			flusher.Flush()
		}
	}
}
