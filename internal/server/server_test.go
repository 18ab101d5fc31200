package server

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront-chat/handler"
	"storefront-chat/internal/domain"
)

type stubChat struct{}

func (stubChat) Complete(context.Context, string) domain.ChatResponse {
	return domain.Succeeded("hi")
}

func newTestRouter(t *testing.T, cfg RouterConfig) (http.Handler, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h, err := handler.NewHandler(stubChat{}, log)
	require.NoError(t, err)
	return NewRouter(h, cfg, log), &buf
}

func TestRouter_Health(t *testing.T) {
	r, _ := newTestRouter(t, RouterConfig{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_SendMessageAndAccessLog(t *testing.T) {
	r, logs := newTestRouter(t, RouterConfig{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, handler.PathSendMessage, strings.NewReader(`{"message":"hello"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"response":"hi"}`, rec.Body.String())
	require.Contains(t, logs.String(), "path=/chat/send-message")
	require.Contains(t, logs.String(), "status=200")
}

func TestRouter_MetricsMountedOnlyWhenSet(t *testing.T) {
	r, _ := newTestRouter(t, RouterConfig{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("chat_requests_total 0")) })
	r, _ = newTestRouter(t, RouterConfig{Metrics: metrics})
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "chat_requests_total")
}

func TestRouter_CORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, RouterConfig{AllowedOrigin: "https://shop.zava.example"})
	req := httptest.NewRequest(http.MethodOptions, handler.PathSendMessage, nil)
	req.Header.Set("Origin", "https://shop.zava.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, "https://shop.zava.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, addr, http.NotFoundHandler(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	}()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
