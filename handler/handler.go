package handler

import (
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"

	"storefront-chat/internal/domain"
	"storefront-chat/internal/usecase"
)

// DefaultMaxBodyBytes matches the request size limit of the storefront's
// original web host.
const DefaultMaxBodyBytes = 30_000_000

const messageTooLarge = "Request body is too large."

// Route paths. The PascalCase variants keep the storefront's original MVC
// routes working.
const (
	PathIndex             = "/chat"
	PathIndexLegacy       = "/Chat/Index"
	PathSendMessage       = "/chat/send-message"
	PathSendMessageLegacy = "/Chat/SendMessage"
)

//go:embed templates/chat.html
var chatPage []byte

// ChatCompleter is the chat operation consumed by the handler.
type ChatCompleter interface {
	Complete(ctx context.Context, message string) domain.ChatResponse
}

type Handler struct {
	chat         ChatCompleter
	log          *slog.Logger
	maxBodyBytes int64
}

type Option func(*Handler)

// WithMaxBodyBytes caps the send-message request body. Values <= 0 keep the
// default.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

func NewHandler(chat ChatCompleter, log *slog.Logger, opts ...Option) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat completer must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{chat: chat, log: log, maxBodyBytes: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes registers the chat endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get(PathIndex, h.Index)
	r.Get(PathIndexLegacy, h.Index)
	r.Post(PathSendMessage, h.SendMessage)
	r.Post(PathSendMessageLegacy, h.SendMessage)
}

// Index serves the static chat page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.log.InfoContext(r.Context(), "Chat page accessed", "correlation_id", CorrelationIDFrom(r.Context()))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(chatPage)
}

// SendMessage answers 400 for blank input and 200 with the service's
// ChatResponse otherwise, whatever its Success flag.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.WarnContext(r.Context(), "chat request body too large",
				"limit_bytes", tooLarge.Limit, "correlation_id", CorrelationIDFrom(r.Context()))
			writeJSON(w, http.StatusRequestEntityTooLarge, domain.Failed(messageTooLarge))
			return
		}
		h.log.WarnContext(r.Context(), "read request body", "err", err)
		body = nil
	}
	status, resp := h.sendMessage(r.Context(), body)
	writeJSON(w, status, resp)
}

// HandleAPIGateway serves the same routes behind an API Gateway proxy
// integration.
func (h *Handler) HandleAPIGateway(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id := resolveCorrelationID(headerValue(req.Headers, correlationHeader))
	ctx = withCorrelationID(ctx, id)

	switch {
	case req.HTTPMethod == http.MethodGet && matchesPath(req.Path, PathIndex, PathIndexLegacy):
		h.log.InfoContext(ctx, "Chat page accessed", "correlation_id", id)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"Content-Type": "text/html; charset=utf-8", correlationHeader: id},
			Body:       string(chatPage),
		}, nil

	case req.HTTPMethod == http.MethodPost && matchesPath(req.Path, PathSendMessage, PathSendMessageLegacy):
		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				h.log.WarnContext(ctx, "decode base64 body", "err", err, "correlation_id", id)
			}
			body = decoded
		}
		status, resp := h.sendMessage(ctx, body)
		raw, err := json.Marshal(resp)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		return events.APIGatewayProxyResponse{
			StatusCode: status,
			Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8", correlationHeader: id},
			Body:       string(raw),
		}, nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNotFound,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8", correlationHeader: id},
		Body:       http.StatusText(http.StatusNotFound),
	}, nil
}

func (h *Handler) sendMessage(ctx context.Context, body []byte) (int, domain.ChatResponse) {
	id := CorrelationIDFrom(ctx)

	// An unparseable body binds to no request, which reads as an empty message.
	var req *domain.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.log.DebugContext(ctx, "invalid chat request body", "err", err, "correlation_id", id)
		req = nil
	}
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return http.StatusBadRequest, domain.Failed(usecase.MessageEmpty)
	}

	h.log.InfoContext(ctx, "Received chat message", "message_length", utf8.RuneCountInString(req.Message), "correlation_id", id)
	return http.StatusOK, h.chat.Complete(ctx, req.Message)
}

func matchesPath(path string, candidates ...string) bool {
	path = strings.TrimRight(path, "/")
	for _, c := range candidates {
		if strings.EqualFold(path, c) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
