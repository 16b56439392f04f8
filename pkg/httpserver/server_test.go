package httpserver_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/grimoire/pkg/httpserver"
	"github.com/dmitrymomot/grimoire/pkg/logger"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err, "unable to get free port")
	return l
}

func TestRunAndShutdown(t *testing.T) {
	t.Parallel()
	ln := listen(t)
	srv := httpserver.New(httpserver.Config{ShutdownTimeout: 100 * time.Millisecond},
		httpserver.WithListener(ln),
		httpserver.WithLogger(logger.Discard()),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
	}()

	var (
		resp *http.Response
		err  error
	)
	for range 50 {
		resp, err = http.Get("http://" + ln.Addr().String())
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		require.Fail(t, "run did not finish")
	}
}

func TestRunTwice(t *testing.T) {
	t.Parallel()
	ln := listen(t)
	srv := httpserver.New(httpserver.Config{}, httpserver.WithListener(ln), httpserver.WithLogger(logger.Discard()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, nil) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, srv.Run(ctx, nil), httpserver.ErrAlreadyRunning)

	cancel()
	require.NoError(t, <-done)
}

func TestRunInvalidAddr(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(httpserver.Config{Addr: "256.0.0.1:bad"}, httpserver.WithLogger(logger.Discard()))
	err := srv.Run(context.Background(), nil)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestShutdownNotRunning(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(httpserver.Config{})
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestLiveness(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	httpserver.Liveness()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name   string
		checks map[string]httpserver.Check
		code   int
		body   string
	}{
		{"no checks", nil, http.StatusOK, "READY"},
		{"all pass", map[string]httpserver.Check{"redis": ok, "postgres": ok}, http.StatusOK, "READY"},
		{"one fails", map[string]httpserver.Check{"redis": fail, "postgres": ok}, http.StatusServiceUnavailable, "NOT_READY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h := httpserver.Readiness(logger.Discard(), time.Second, tt.checks)
			h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			body, err := io.ReadAll(rec.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestReadinessTimeout(t *testing.T) {
	t.Parallel()
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	rec := httptest.NewRecorder()
	httpserver.Readiness(logger.Discard(), 20*time.Millisecond, map[string]httpserver.Check{"slow": slow})(
		rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
