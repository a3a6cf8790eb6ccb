package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReturnsNilWhenDisabled(t *testing.T) {
	m := New(false)
	assert.Nil(t, m)
	// Every Record* method must be a safe no-op on a nil receiver.
	assert.NotPanics(t, func() {
		m.RecordTokens("model", 1, 2)
		m.RecordToolCall("read_file")
		m.RecordCacheHit("read_file")
		m.RecordCacheMiss("read_file")
		m.RecordModelSwitch(time.Second)
	})
}

func TestMetricsExposedOnHandler(t *testing.T) {
	m := New(true)
	require.NotNil(t, m)
	m.RecordTokens("qwen2.5-coder", 100, 50)
	m.RecordToolCall("read_file")
	m.RecordModelSwitch(2 * time.Second)

	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "agentcore_llm_tokens_input_total")
	assert.Contains(t, body, "agentcore_tool_calls_total")
	assert.Contains(t, body, "agentcore_cycle_model_switches_total")
}

func TestServerServesHealthzOnLoopbackOnly(t *testing.T) {
	m := New(true)
	s := NewServer(m, 0)
	require.NoError(t, s.Start())
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	}()

	addr := s.Addr()
	require.True(t, strings.HasPrefix(addr, "127.0.0.1:"))

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
}
