package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/bizsuite/pkg/httpserver"
)

// syncBuffer guards a strings.Builder shared with the server goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func startServer(t *testing.T, srv *httpserver.Server, ctx context.Context, h http.Handler) (string, <-chan error) {
	t.Helper()

	started := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, h) }()

	require.Eventually(t, func() bool {
		if addr := srv.Addr(); addr != "" {
			started <- addr
			return true
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	return <-started, done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err, "run")
	case <-time.After(2 * time.Second):
		require.Fail(t, "run did not finish")
	}
}

func TestRunAndShutdown(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"), httpserver.WithShutdownTimeout(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, done := startServer(t, srv, ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	resp, err := http.Get("http://" + addr)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	waitDone(t, done)
	require.NoError(t, srv.Shutdown(context.Background()), "shutdown after run is a no-op")
}

func TestManualShutdown(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"), httpserver.WithShutdownTimeout(100*time.Millisecond))
	_, done := startServer(t, srv, context.Background(), http.NewServeMux())

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()), "second shutdown")
	waitDone(t, done)
}

func TestStartError(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr(":invalid"))
	err := srv.Run(context.Background(), http.NewServeMux())
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestAlreadyRunning(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"), httpserver.WithShutdownTimeout(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	_, done := startServer(t, srv, ctx, http.NewServeMux())

	err := srv.Run(context.Background(), http.NewServeMux())
	assert.ErrorIs(t, err, httpserver.ErrStart)
	assert.ErrorIs(t, err, httpserver.ErrAlreadyRunning)

	cancel()
	waitDone(t, done)
}

func TestLogsLifecycle(t *testing.T) {
	t.Parallel()

	buf := &syncBuffer{}
	srv := httpserver.New(
		httpserver.WithAddr("127.0.0.1:0"),
		httpserver.WithLogger(slog.New(slog.NewTextHandler(buf, nil))),
	)

	ctx, cancel := context.WithCancel(context.Background())
	addr, done := startServer(t, srv, ctx, http.NewServeMux())
	cancel()
	waitDone(t, done)

	out := buf.String()
	assert.Contains(t, out, `msg="http server listening" addr=`+addr)
	assert.Contains(t, out, `msg="http server stopped"`)
}

func TestRequestContextCancelledOnStop(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"), httpserver.WithShutdownTimeout(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	entered := make(chan struct{})
	cancelled := make(chan struct{})
	addr, done := startServer(t, srv, ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-r.Context().Done()
		close(cancelled)
	}))

	go func() {
		resp, err := http.Get("http://" + addr)
		if err == nil {
			_ = resp.Body.Close()
		}
	}()

	<-entered
	cancel()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("request context was not cancelled")
	}
	<-done
}

func TestOptionsKeepDefaultsForEmptyValues(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(
		httpserver.WithAddr("127.0.0.1:0"),
		httpserver.WithAddr(""),
		httpserver.WithTimeouts(-time.Second, 0, 0),
		httpserver.WithShutdownTimeout(0),
		httpserver.WithLogger(nil),
	)
	addr, done := startServer(t, srv, context.Background(), http.NewServeMux())

	host, _, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)

	require.NoError(t, srv.Shutdown(context.Background()))
	waitDone(t, done)
}

func TestHealthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		httpserver.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("readiness", func(t *testing.T) {
		t.Parallel()

		ok := httpserver.Check{Name: "registry", Fn: func(context.Context) error { return nil }}
		bad := httpserver.Check{Name: "redis", Fn: func(context.Context) error { return errors.New("dial tcp: refused") }}

		tests := []struct {
			name   string
			checks []httpserver.Check
			code   int
			body   map[string]string
		}{
			{"no checks", nil, http.StatusOK, map[string]string{}},
			{"all ok", []httpserver.Check{ok}, http.StatusOK, map[string]string{"registry": "ok"}},
			{"one failing", []httpserver.Check{ok, bad}, http.StatusServiceUnavailable, map[string]string{"registry": "ok", "redis": "failed"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				rec := httptest.NewRecorder()
				log := slog.New(slog.DiscardHandler)
				httpserver.ReadinessHandler(log, tt.checks...)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

				assert.Equal(t, tt.code, rec.Code)
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.body, body)
				assert.NotContains(t, rec.Body.String(), "refused")
			})
		}
	})
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	srv := httpserver.NewFromConfig(httpserver.Config{Addr: "127.0.0.1:0", ShutdownTimeout: 50 * time.Millisecond})
	addr, done := startServer(t, srv, context.Background(), http.NewServeMux())

	_, _, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	require.NoError(t, srv.Shutdown(context.Background()))
	waitDone(t, done)
}
