package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/swarm/internal/stats"
)

func TestNew_InvalidBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{"empty", ""},
		{"no scheme", "example.com"},
		{"ftp scheme", "ftp://example.com"},
		{"missing host", "http://"},
		{"unparseable", "http://[::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.baseURL, nil)
			assert.Error(t, err)
		})
	}
}

func TestSession_Get_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/", r.URL.Path)
		assert.Equal(t, "swarm-test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))
	defer server.Close()

	collector := stats.NewCollector()
	s, err := New(server.URL, collector, WithHeader("User-Agent", "swarm-test"))
	require.NoError(t, err)

	resp, err := s.Get(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(5), resp.Bytes)

	e, ok := collector.Snapshot().Find("GET", "/")
	require.True(t, ok)
	assert.Equal(t, int64(1), e.Requests)
	assert.Equal(t, int64(0), e.Failures)
	assert.Equal(t, int64(5), e.Bytes)
}

func TestSession_Get_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	collector := stats.NewCollector()
	s, err := New(server.URL, collector)
	require.NoError(t, err)

	resp, err := s.Get(context.Background(), "/")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "500 Internal Server Error")

	e, ok := collector.Snapshot().Find("GET", "/")
	require.True(t, ok)
	assert.Equal(t, int64(1), e.Failures)
	assert.Equal(t, int64(1), e.Errors[statusErr.Error()])
}

func TestSession_StatusClassification(t *testing.T) {
	tests := []struct {
		status  int
		success bool
	}{
		{http.StatusOK, true},
		{http.StatusNoContent, true},
		{http.StatusMovedPermanently, true},
		{http.StatusFound, true},
		{http.StatusNotModified, true},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
		{http.StatusServiceUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status >= 300 && tt.status < 400 {
					w.Header().Set("Location", "/elsewhere")
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			collector := stats.NewCollector()
			s, err := New(server.URL, collector)
			require.NoError(t, err)

			resp, err := s.Get(context.Background(), "/")
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.success, err == nil)

			e, ok := collector.Snapshot().Find("GET", "/")
			require.True(t, ok)
			assert.Equal(t, tt.success, e.Failures == 0)
		})
	}
}

func TestSession_Get_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	collector := stats.NewCollector()
	s, err := New(addr, collector, WithTimeout(time.Second))
	require.NoError(t, err)

	resp, err := s.Get(context.Background(), "/")
	assert.Error(t, err)
	assert.Nil(t, resp)

	e, ok := collector.Snapshot().Find("GET", "/")
	require.True(t, ok)
	assert.Equal(t, int64(1), e.Failures)
}

func TestSession_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	collector := stats.NewCollector()
	s, err := New(server.URL, collector, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "/")
	assert.Error(t, err)

	e, _ := collector.Snapshot().Find("GET", "/")
	assert.Equal(t, int64(1), e.Failures)
}

func TestSession_PostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	collector := stats.NewCollector()
	s, err := New(server.URL, collector)
	require.NoError(t, err)

	_, err = s.PostForm(context.Background(), "/login", url.Values{
		"username": {"alice"},
		"password": {"secret"},
	})
	require.NoError(t, err)

	e, ok := collector.Snapshot().Find("POST", "/login")
	require.True(t, ok)
	assert.Equal(t, int64(1), e.Requests)
}

func TestSession_Resolve(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"http://example.com", "/", "http://example.com/"},
		{"http://example.com/", "/", "http://example.com/"},
		{"http://example.com/app", "/", "http://example.com/app/"},
		{"http://example.com/app/", "/login", "http://example.com/app/login"},
		{"http://example.com", "status?x=1", "http://example.com/status?x=1"},
	}

	for _, tt := range tests {
		t.Run(tt.base+tt.path, func(t *testing.T) {
			s, err := New(tt.base, nil)
			require.NoError(t, err)

			got, err := s.resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSession_AbsolutePathRejected(t *testing.T) {
	collector := stats.NewCollector()
	s, err := New("http://example.com", collector)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "http://other.example.com/")
	assert.Error(t, err)

	e, ok := collector.Snapshot().Find("GET", "http://other.example.com/")
	require.True(t, ok)
	assert.Equal(t, int64(1), e.Failures)
}

func TestWithHTTPClient_DoesNotMutateCaller(t *testing.T) {
	client := &http.Client{Timeout: 3 * time.Second}

	s, err := New("http://example.com", nil, WithHTTPClient(client))
	require.NoError(t, err)

	assert.Nil(t, client.CheckRedirect)
	assert.NotNil(t, s.httpClient.CheckRedirect)
	assert.Equal(t, 3*time.Second, s.httpClient.Timeout)
	assert.Equal(t, "http://example.com", s.BaseURL())
}

func TestNew_OptionOrder(t *testing.T) {
	client := &http.Client{Timeout: 3 * time.Second}

	tests := []struct {
		name    string
		options []Option
		want    time.Duration
	}{
		{"default", nil, DefaultTimeout},
		{"timeout only", []Option{WithTimeout(5 * time.Second)}, 5 * time.Second},
		{"timeout then client", []Option{WithTimeout(5 * time.Second), WithHTTPClient(client)}, 5 * time.Second},
		{"client then timeout", []Option{WithHTTPClient(client), WithTimeout(5 * time.Second)}, 5 * time.Second},
		{"nil client ignored", []Option{WithHTTPClient(nil), WithTimeout(time.Second)}, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New("http://example.com", nil, tt.options...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.httpClient.Timeout)
			assert.NotNil(t, s.httpClient.CheckRedirect)
		})
	}
	assert.Equal(t, 3*time.Second, client.Timeout)
}
