package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const correlationHeader = "X-Correlation-Id"

type correlationKey struct{}

// CorrelationID propagates the inbound X-Correlation-Id header, or a new id,
// into the request context and the response headers.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := resolveCorrelationID(r.Header.Get(correlationHeader))
		w.Header().Set(correlationHeader, id)
		next.ServeHTTP(w, r.WithContext(withCorrelationID(r.Context(), id)))
	})
}

// CorrelationIDFrom returns the id stored by CorrelationID, if any.
func CorrelationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

func withCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func resolveCorrelationID(candidate string) string {
	if id := strings.TrimSpace(candidate); id != "" {
		return id
	}
	return newUUID()
}

// headerValue looks up a header case-insensitively in an API Gateway header map.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

var newUUID = func() string {
	return uuid.NewString()
}
