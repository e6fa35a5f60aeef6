package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const chunkBufferSize = 4096

// Stream yields the decoded response body one chunk at a time. It is finite
// and cannot be restarted; once Next reports io.EOF or an error every later
// call reports the same.
type Stream struct {
	ctx     context.Context
	body    io.ReadCloser
	decoded io.Reader
	buf     []byte

	received int64
	err      error

	closeOnce sync.Once
	closeErr  error
}

func newStream(ctx context.Context, body io.ReadCloser) *Stream {
	return &Stream{
		ctx:     ctx,
		body:    body,
		decoded: transform.NewReader(body, unicode.UTF8.NewDecoder()),
		buf:     make([]byte, chunkBufferSize),
	}
}

// Next blocks until the next chunk is available and returns its text.
// Incomplete UTF-8 sequences at the end of a read are held back until the
// rest arrives. It returns io.EOF when the body ends and ErrAborted once the
// stream context is cancelled.
func (s *Stream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for {
		if err := s.ctx.Err(); err != nil {
			s.err = fmt.Errorf("%w: %w", ErrAborted, err)
			return "", s.err
		}
		n, err := s.decoded.Read(s.buf)
		if n > 0 {
			s.received += int64(n)
			if err != nil {
				s.err = s.classify(err)
			}
			return string(s.buf[:n]), nil
		}
		if err != nil {
			s.err = s.classify(err)
			return "", s.err
		}
	}
}

func (s *Stream) classify(err error) error {
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if ctxErr := s.ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrAborted, ctxErr)
	}
	return fmt.Errorf("convert: read response: %w", err)
}

// Received returns the number of decoded bytes handed out so far.
func (s *Stream) Received() int64 {
	return s.received
}

// Close releases the response body. It is safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
