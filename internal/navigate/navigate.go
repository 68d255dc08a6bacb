// Package navigate hands a completed session off to its result view.
package navigate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HTTPNavigator resolves result targets against a base URL and fetches them.
type HTTPNavigator struct {
	BaseURL *url.URL
	Client  *http.Client
	// Out receives the resolved URL of every successful navigation.
	Out    io.Writer
	Logger *zap.Logger
}

// NewHTTPNavigator parses base and returns a navigator using client. A nil
// client gets a 10 second timeout.
func NewHTTPNavigator(base string, client *http.Client, out io.Writer, logger *zap.Logger) (*HTTPNavigator, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", base)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPNavigator{BaseURL: u, Client: client, Out: out, Logger: logger}, nil
}

// Navigate issues GET on target resolved against BaseURL. Non-2xx responses
// are errors.
func (n *HTTPNavigator) Navigate(ctx context.Context, target string) error {
	ref, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("parse target: %w", err)
	}
	resolved := n.BaseURL.ResolveReference(ref)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", resolved, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			n.logger().Debug("close result body", zap.Error(cerr))
		}
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("get %s: unexpected status %d", resolved, resp.StatusCode)
	}
	if n.Out != nil {
		if _, err := fmt.Fprintln(n.Out, resolved.String()); err != nil {
			return fmt.Errorf("write result url: %w", err)
		}
	}
	return nil
}

func (n *HTTPNavigator) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}

// ErrRecorderClosed is returned by a Recorder after Close.
var ErrRecorderClosed = errors.New("recorder closed")

// Recorder is a Navigator that only records targets.
type Recorder struct {
	mu      sync.Mutex
	targets []string
	closed  bool
	// Err, when set, is returned from every Navigate call after recording.
	Err error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Navigate records target.
func (r *Recorder) Navigate(_ context.Context, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRecorderClosed
	}
	r.targets = append(r.targets, target)
	return r.Err
}

// Targets returns a copy of the recorded targets.
func (r *Recorder) Targets() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.targets...)
}

// Close makes further Navigate calls fail.
func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}
