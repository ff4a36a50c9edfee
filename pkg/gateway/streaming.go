package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
)

const (
	// sseDataPrefix marks a data frame.
	sseDataPrefix = "data: "

	// sseDone terminates the stream.
	sseDone = "[DONE]"

	// maxFrameSize bounds a single SSE line. Longer lines are skipped.
	maxFrameSize = 1 << 20

	// streamBufferSize is the read buffer of a stream.
	streamBufferSize = 64 << 10
)

var (
	// errMalformedFrame is returned by parseStreamLine for frames that are not valid chunks.
	errMalformedFrame = errors.New("malformed stream frame")

	// errFrameTooLarge is returned by readLine for lines over maxFrameSize.
	errFrameTooLarge = errors.New("stream frame exceeds size limit")
)

// StreamCompletion sends a streaming chat completion request. The stream flag
// is forced on. Streams are never retried: an interrupted stream cannot be
// resumed, and re-issuing the request is the caller's decision.
//
// The returned Stream must be closed by the caller. Example:
//
//	stream, err := client.StreamCompletion(ctx, req)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for stream.Next() {
//	    fmt.Print(stream.Chunk().Content())
//	}
//	return stream.Err()
func (c *Client) StreamCompletion(ctx context.Context, req *CompletionRequest) (*Stream, error) {
	if err := c.config.checkUsable(); err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	ctx, logger := c.requestScope(ctx)

	if err := c.admit(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req.streaming())
	if err != nil {
		return nil, &GatewayError{Message: "failed to marshal request", Cause: err}
	}

	logger.InfoContext(ctx, "opening chat completion stream",
		"model", req.Model,
		"mode", c.config.modeLabel(),
	)

	httpResp, err := c.post(ctx, c.stream, c.config.completionsURL(), body)
	if err != nil {
		c.metrics.ObserveError(req.Model, KindOf(err))
		return nil, err
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		err := c.classifyResponse(ctx, logger, httpResp)
		c.metrics.ObserveError(req.Model, KindOf(err))
		return nil, err
	}

	return newStream(ctx, httpResp.Body, req.Model, logger, c.metrics), nil
}

// Stream is a finite, non-restartable sequence of completion chunks read
// lazily from the response body. It is not safe for concurrent use.
type Stream struct {
	ctx     context.Context
	body    io.ReadCloser
	reader  *bufio.Reader
	model   string
	logger  *slog.Logger
	metrics Metrics

	current *CompletionChunk
	err     error
	done    bool

	closeOnce sync.Once
}

func newStream(ctx context.Context, body io.ReadCloser, model string, logger *slog.Logger, metrics Metrics) *Stream {
	return &Stream{
		ctx:     ctx,
		body:    body,
		reader:  bufio.NewReaderSize(body, streamBufferSize),
		model:   model,
		logger:  logger,
		metrics: metrics,
	}
}

// Next advances to the next chunk. It returns false when the stream ends,
// fails, or the context is cancelled; Err distinguishes these cases.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	for {
		if err := s.ctx.Err(); err != nil {
			s.fail(err)
			return false
		}

		line, err := s.readLine()
		switch {
		case errors.Is(err, io.EOF):
			// Body ended without a terminator.
			s.finish()
			return false

		case errors.Is(err, errFrameTooLarge):
			s.logger.WarnContext(s.ctx, "streaming frame exceeds size limit, skipping", "limit", maxFrameSize)
			s.metrics.ObserveSkippedFrame(s.model)
			continue

		case err != nil:
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				s.fail(ctxErr)
			} else {
				s.fail(&TransportError{Cause: err})
			}
			return false
		}

		chunk, done, err := parseStreamLine(line)
		switch {
		case done:
			s.finish()
			return false

		case err != nil:
			s.logger.WarnContext(s.ctx, "failed to parse streaming chunk, skipping",
				"data", truncate(line, maxLoggedBody),
				"error", err,
			)
			s.metrics.ObserveSkippedFrame(s.model)
			continue

		case chunk == nil:
			continue
		}

		s.current = chunk
		s.metrics.ObserveStreamChunk(s.model)
		return true
	}
}

// Chunk returns the chunk produced by the last successful call to Next.
func (s *Stream) Chunk() *CompletionChunk {
	return s.current
}

// Err returns the error that stopped the stream, or nil after a clean end.
func (s *Stream) Err() error {
	return s.err
}

// Close aborts the underlying HTTP exchange. It is safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.done = true
		err = s.body.Close()
	})
	return err
}

// All returns an iterator over the remaining chunks. A terminal error, if
// any, is yielded once as the last element. The stream is closed when the
// iteration ends.
func (s *Stream) All() iter.Seq2[*CompletionChunk, error] {
	return func(yield func(*CompletionChunk, error) bool) {
		defer s.Close()

		for s.Next() {
			if !yield(s.current, nil) {
				return
			}
		}
		if s.err != nil {
			yield(nil, s.err)
		}
	}
}

// readLine returns the next line without its newline. A line longer than
// maxFrameSize is consumed and reported as errFrameTooLarge. A final line
// without a newline is returned before io.EOF.
func (s *Stream) readLine() (string, error) {
	var (
		line     []byte
		oversize bool
	)
	for {
		frag, err := s.reader.ReadSlice('\n')
		if !oversize {
			if len(line)+len(bytes.TrimSuffix(frag, []byte("\n"))) > maxFrameSize {
				oversize = true
				line = nil
			} else {
				line = append(line, frag...)
			}
		}

		switch {
		case err == nil:
			if oversize {
				return "", errFrameTooLarge
			}
			return string(bytes.TrimSuffix(line, []byte("\n"))), nil

		case errors.Is(err, bufio.ErrBufferFull):
			continue

		case errors.Is(err, io.EOF):
			if oversize {
				return "", errFrameTooLarge
			}
			if len(line) > 0 {
				return string(line), nil
			}
			return "", io.EOF

		default:
			return "", err
		}
	}
}

func (s *Stream) finish() {
	s.current = nil
	_ = s.Close()
}

func (s *Stream) fail(err error) {
	s.err = err
	s.finish()
}

// parseStreamLine interprets one SSE line. Lines without the data prefix are
// ignored (nil chunk, nil error). The terminator returns done. Frames that do
// not decode return errMalformedFrame.
func parseStreamLine(line string) (chunk *CompletionChunk, done bool, err error) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" || !strings.HasPrefix(line, sseDataPrefix) {
		return nil, false, nil
	}

	data := strings.TrimSpace(strings.TrimPrefix(line, sseDataPrefix))
	if data == sseDone {
		return nil, true, nil
	}
	if data == "" || data == "null" {
		return nil, false, nil
	}

	var c CompletionChunk
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, false, errors.Join(errMalformedFrame, err)
	}
	return &c, false, nil
}
