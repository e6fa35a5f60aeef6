// Package convert posts text to the conversion endpoint and streams the
// converted response back chunk by chunk.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultEndpoint is the local conversion service the field talks to.
const DefaultEndpoint = "http://localhost:8080/api/convert"

const contentType = "text/plain"

// ErrAborted reports that the caller cancelled the transfer.
var ErrAborted = errors.New("convert: transfer aborted")

// TransferError is returned when the endpoint answers with a non-success status.
type TransferError struct {
	StatusCode int
	Status     string
}

func (e *TransferError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("convert: endpoint returned %s", e.Status)
	}
	return fmt.Sprintf("convert: endpoint returned status %d", e.StatusCode)
}

// IsAborted reports whether err stems from a cancelled transfer.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled)
}

// Config describes how to reach the conversion endpoint.
type Config struct {
	Endpoint   string
	HTTPClient *http.Client
}

// Client opens streamed conversions against a single endpoint.
type Client struct {
	endpoint string
	client   *http.Client
}

// New builds a client, falling back to DefaultEndpoint.
func New(cfg Config) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		client:   pickHTTPClient(cfg.HTTPClient),
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// No client timeout: a stalled stream is ended by cancelling the request context.
	return &http.Client{}
}

// Endpoint returns the URL conversions are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Open posts text to the endpoint and returns the response as a chunk stream.
// The caller owns the stream and must Close it. Cancelling ctx aborts the
// transfer; subsequent reads report ErrAborted.
func (c *Client) Open(ctx context.Context, text string) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("convert: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrAborted, ctx.Err())
		}
		return nil, fmt.Errorf("convert: post %s: %w", c.endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drainAndClose(resp.Body)
		return nil, &TransferError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return newStream(ctx, resp.Body), nil
}

// Convert streams the conversion of text into w, writing each chunk as soon as
// it is decoded. It returns the number of bytes written.
func (c *Client) Convert(ctx context.Context, text string, w io.Writer) (int64, error) {
	stream, err := c.Open(ctx, text)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	var written int64
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		n, err := io.WriteString(w, chunk)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("convert: write output: %w", err)
		}
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
