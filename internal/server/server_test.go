package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/asgard-driver/internal/connector"
	"github.com/asgard-driver/pkg/config"
	"github.com/asgard-driver/pkg/metrics"
)

type fakeState struct {
	mu sync.Mutex
	s  connector.State
}

func (f *fakeState) State() connector.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s
}

func (f *fakeState) set(s connector.State) {
	f.mu.Lock()
	f.s = s
	f.mu.Unlock()
}

func testConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Enable:       true,
		Addr:         "127.0.0.1:0",
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		IdleTimeout:  time.Second,
	}
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func TestHealthFollowsRegistration(t *testing.T) {
	reg, _ := metrics.InitPromRegistry(false)
	st := &fakeState{s: connector.StateOpen}
	srv := NewHTTPServer(testConfig(), zap.NewNop(), reg, st)

	code, body := get(t, srv.server.Handler, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "open")

	st.set(connector.StatePublishing)
	code, body = get(t, srv.server.Handler, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "publishing")

	st.set(connector.StateClosed)
	code, _ = get(t, srv.server.Handler, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMetricsAndIndex(t *testing.T) {
	reg, factory := metrics.InitPromRegistry(false)
	cm := factory.NewConnectorMetrics()
	cm.Messages.WithLabelValues("DATA").Inc()
	srv := NewHTTPServer(testConfig(), zap.NewNop(), reg, &fakeState{})

	code, body := get(t, srv.server.Handler, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `asgard_driver_messages_total{verb="DATA"} 1`)

	code, body = get(t, srv.server.Handler, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `href="/metrics"`)

	code, _ = get(t, srv.server.Handler, "/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStartAndShutdown(t *testing.T) {
	reg, _ := metrics.InitPromRegistry(false)
	srv := NewHTTPServer(testConfig(), zap.NewNop(), reg, &fakeState{s: connector.StateSensorRegistered})
	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "OK"))

	require.NoError(t, srv.Shutdown())
	_, err = http.Get("http://" + srv.Addr() + "/health")
	assert.Error(t, err)
}

func TestStartAddressInUse(t *testing.T) {
	reg, _ := metrics.InitPromRegistry(false)
	first := NewHTTPServer(testConfig(), zap.NewNop(), reg, &fakeState{})
	require.NoError(t, first.Start())
	defer first.Shutdown()

	cfg := testConfig()
	cfg.Addr = first.Addr()
	second := NewHTTPServer(cfg, zap.NewNop(), reg, &fakeState{})
	assert.Error(t, second.Start())
}
