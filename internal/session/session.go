// Package session provides the HTTP session a simulated user talks through.
//
// A Session is bound to a base URL and a stats.Recorder. Every request made
// through it is timed and reported as a success (2xx or 3xx) or a failure
// (transport error or any other status). Callers never need to record
// anything themselves.
package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wesleyorama2/swarm/internal/stats"
)

// DefaultTimeout is the request timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

// StatusError is reported for responses outside the 2xx/3xx range.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Response summarizes a completed request. The body is drained and dropped.
type Response struct {
	StatusCode int
	Bytes      int64
	Duration   time.Duration
}

// Session issues requests against a single target host.
type Session struct {
	httpClient *http.Client
	baseURL    *url.URL
	recorder   stats.Recorder
	headers    map[string]string
	timeout    *time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient sets the underlying client. The client is copied and its
// redirect policy replaced on the copy so a 3xx response is observed as
// itself. Its timeout is kept unless WithTimeout is also given. A nil client
// is ignored.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		if c == nil {
			return
		}
		copied := *c
		s.httpClient = &copied
	}
}

// WithTimeout sets the per-request timeout, regardless of option order.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) {
		s.timeout = &timeout
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(s *Session) {
		s.headers[key] = value
	}
}

// New creates a session for baseURL reporting to recorder. A nil recorder
// discards outcomes.
func New(baseURL string, recorder stats.Recorder, options ...Option) (*Session, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}

	if recorder == nil {
		recorder = stats.Discard
	}

	s := &Session{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    u,
		recorder:   recorder,
		headers:    make(map[string]string),
	}

	// Apply options
	for _, option := range options {
		option(s)
	}

	if s.timeout != nil {
		s.httpClient.Timeout = *s.timeout
	}
	s.httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return s, nil
}

// BaseURL returns the target host URL.
func (s *Session) BaseURL() string {
	return s.baseURL.String()
}

// Get issues a GET for path.
func (s *Session) Get(ctx context.Context, path string) (*Response, error) {
	return s.do(ctx, http.MethodGet, path, nil, "")
}

// PostForm issues a POST for path with a urlencoded form body.
func (s *Session) PostForm(ctx context.Context, path string, form url.Values) (*Response, error) {
	return s.do(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// do executes one request and reports it. The request name is the path.
func (s *Session) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*Response, error) {
	startTime := time.Now()

	target, err := s.resolve(path)
	if err != nil {
		s.recorder.RecordFailure(method, path, time.Since(startTime), err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		err = fmt.Errorf("failed to build request: %w", err)
		s.recorder.RecordFailure(method, path, time.Since(startTime), err)
		return nil, err
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.recorder.RecordFailure(method, path, time.Since(startTime), err)
		return nil, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(io.Discard, resp.Body)
	elapsed := time.Since(startTime)
	if err != nil {
		err = fmt.Errorf("failed to read response body: %w", err)
		s.recorder.RecordFailure(method, path, elapsed, err)
		return nil, err
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Bytes:      n,
		Duration:   elapsed,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		statusErr := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode}
		s.recorder.RecordFailure(method, path, elapsed, statusErr)
		return result, statusErr
	}

	s.recorder.RecordSuccess(method, path, elapsed, n)
	return result, nil
}

// resolve joins path onto the base URL, keeping any base path prefix.
func (s *Session) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return "", fmt.Errorf("invalid path %q: must be relative to the host", path)
	}

	u := *s.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	return u.String(), nil
}
