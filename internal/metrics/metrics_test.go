package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveChat(t *testing.T) {
	c := NewChat()
	c.ObserveChat("OK", 150*time.Millisecond)
	c.ObserveChat("OK", 20*time.Millisecond)
	c.ObserveChat("UPSTREAM_STATUS", time.Second)

	require.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("OK")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("UPSTREAM_STATUS")))
	require.Equal(t, 2, testutil.CollectAndCount(c.duration))
}

func TestHandler_ExposesCounters(t *testing.T) {
	c := NewChat()
	c.ObserveChat("NOT_CONFIGURED", time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `chat_requests_total{outcome="NOT_CONFIGURED"} 1`)
}
