package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubService blocks in Start until stopped, recording its stop order.
type stubService struct {
	name    string
	order   *stopOrder
	startFn func() error
	started atomic.Bool
	stopped atomic.Bool
}

type stopOrder struct {
	mu    sync.Mutex
	names []string
}

func (o *stopOrder) record(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.names = append(o.names, name)
}

func (s *stubService) Start() error {
	s.started.Store(true)
	if s.startFn != nil {
		return s.startFn()
	}
	for !s.stopped.Load() {
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

func (s *stubService) Stop() {
	s.stopped.Store(true)
	if s.order != nil {
		s.order.record(s.name)
	}
}

func TestLifecycleStopsInReverseOrder(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	order := &stopOrder{}

	first := &stubService{name: "first", order: order}
	second := &stubService{name: "second", order: order}
	lc.Add("first", first)
	lc.Add("second", second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	require.Eventually(t, func() bool {
		return first.started.Load() && second.started.Load()
	}, 2*time.Second, 10*time.Millisecond, "services did not start")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}

	assert.Equal(t, []string{"second", "first"}, order.names)
}

func TestLifecycleServiceFailureTriggersShutdown(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	order := &stopOrder{}

	healthy := &stubService{name: "healthy", order: order}
	failing := &stubService{name: "failing", order: order, startFn: func() error {
		return errors.New("bind: address already in use")
	}}
	lc.Add("healthy", healthy)
	lc.Add("failing", failing)

	done := make(chan error, 1)
	go func() { done <- lc.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.NoError(t, err, "shutdown after a service failure is orderly")
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not react to the failing service")
	}
	assert.True(t, healthy.stopped.Load(), "surviving services are stopped too")
}

func TestFuncService(t *testing.T) {
	var started, stopped bool
	svc := &FuncService{
		StartFn: func() error { started = true; return nil },
		StopFn:  func() { stopped = true },
	}

	require.NoError(t, svc.Start())
	assert.True(t, started)

	svc.Stop()
	assert.True(t, stopped)
}

func TestHTTPServiceServesAndShutsDown(t *testing.T) {
	logger := zaptest.NewLogger(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	svc := NewHTTPService(&http.Server{Addr: "127.0.0.1:0", Handler: mux}, time.Second, logger)

	done := make(chan error, 1)
	go func() {
		done <- svc.Start()
	}()

	var addr string
	require.Eventually(t, func() bool {
		addr = svc.Addr()
		return addr != ""
	}, 2*time.Second, 10*time.Millisecond, "listener did not come up in time")

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	svc.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err, "graceful shutdown is not an error")
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}
