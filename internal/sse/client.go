package sse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/convert-progress/internal/progress"
	"github.com/JakeFAU/convert-progress/internal/tracker"
)

// ErrStreamClosed is reported when the server ends the stream before the
// subscriber closed it.
var ErrStreamClosed = progress.ErrStreamClosed

// ErrInvalidSession is returned for session ids that cannot form a single
// path segment under /progress/.
var ErrInvalidSession = errors.New("invalid session id")

// StatusError is reported for a non-200 stream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("progress stream: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("progress stream: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client opens progress streams at {BaseURL}/progress/{sessionID}.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

var _ tracker.Source = (*Client)(nil)

// NewClient constructs a Client. The HTTP client must not set a Timeout, as
// streams stay open for the whole job; nil selects a client without one.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{BaseURL: baseURL, HTTPClient: httpClient, Logger: logger}
}

// StreamURL returns the stream endpoint for sessionID. The id is escaped
// into exactly one segment, so slashes and query characters stay inside it.
func (c *Client) StreamURL(sessionID string) (string, error) {
	switch sessionID {
	case "", ".", "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}
	base, err := url.Parse(strings.TrimSuffix(c.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u := base.JoinPath("progress")
	u.RawPath = u.EscapedPath() + "/" + url.PathEscape(sessionID)
	u.Path += "/" + sessionID
	return u.String(), nil
}

// Subscribe returns immediately. Connecting happens on the stream
// goroutine, so connection failures arrive as the first Message.
func (c *Client) Subscribe(ctx context.Context, sessionID string) (tracker.Subscription, error) {
	target, err := c.StreamURL(sessionID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		msgs:   make(chan progress.Message),
		cancel: cancel,
		done:   make(chan struct{}),
		logger: c.logger().With(zap.String("session_id", sessionID)),
	}
	go s.run(ctx, c.httpClient(), target)
	return s, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Stream is one open subscription.
type Stream struct {
	msgs      chan progress.Message
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

// Messages delivers data payloads in stream order, then at most one error,
// then closes.
func (s *Stream) Messages() <-chan progress.Message {
	return s.msgs
}

// Close cancels the request and waits for the stream goroutine. Repeated
// calls are no-ops.
func (s *Stream) Close() error {
	s.closeOnce.Do(s.cancel)
	<-s.done
	return nil
}

func (s *Stream) run(ctx context.Context, client *http.Client, target string) {
	defer close(s.done)
	defer close(s.msgs)

	err := s.consume(ctx, client, target)
	if ctx.Err() != nil {
		return
	}
	s.logger.Debug("progress stream ended", zap.Error(err))
	s.deliver(ctx, progress.Message{Err: err})
}

func (s *Stream) consume(ctx context.Context, client *http.Client, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", ContentType)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("connect progress stream: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Debug("close stream body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	s.logger.Debug("progress stream connected", zap.String("url", target))

	reader := NewReader(resp.Body)
	for {
		evt, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return ErrStreamClosed
		}
		if err != nil {
			return fmt.Errorf("read progress stream: %w", err)
		}
		if !s.deliver(ctx, progress.Message{Data: evt.Data}) {
			return ctx.Err()
		}
	}
}

func (s *Stream) deliver(ctx context.Context, msg progress.Message) bool {
	select {
	case s.msgs <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}
