package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"storefront-chat/internal/config"
	"storefront-chat/internal/domain"
	"storefront-chat/internal/integrations/azureopenai"
)

// User-facing messages. Details of failures are only logged.
const (
	MessageEmpty          = "Message cannot be empty."
	MessageNotConfigured  = "Chat service is not configured. Please configure Azure AI settings."
	MessageInternal       = "An error occurred while processing your request."
	MessageNoResponse     = "No response received."
	messageUpstreamStatus = "Failed to get response from AI service. Status: %d"
)

const (
	maxTokens   = 800
	temperature = 0.7
)

type SettingsSource interface {
	AzureAI() config.AzureAI
}

type TokenProvider interface {
	Token(ctx context.Context, scope string) (string, error)
}

type CompletionClient interface {
	Complete(ctx context.Context, in azureopenai.CompletionRequest) (string, error)
}

type ExchangeRecorder interface {
	SaveExchange(ctx context.Context, ex domain.Exchange) error
}

type Observer interface {
	ObserveChat(outcome string, d time.Duration)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// ChatService turns one plain-text message into one chat-completion call and
// normalizes every outcome into a ChatResponse. It keeps no state between
// calls; settings are resolved on every call.
type ChatService struct {
	settings SettingsSource
	tokens   TokenProvider
	llm      CompletionClient
	log      *slog.Logger
	recorder ExchangeRecorder
	observer Observer
}

type ServiceOption func(*ChatService)

// WithRecorder stores an audit record for every call.
func WithRecorder(r ExchangeRecorder) ServiceOption {
	return func(s *ChatService) {
		s.recorder = r
	}
}

// WithObserver reports the outcome and duration of every call.
func WithObserver(o Observer) ServiceOption {
	return func(s *ChatService) {
		s.observer = o
	}
}

func NewChatService(settings SettingsSource, tokens TokenProvider, llm CompletionClient, log *slog.Logger, opts ...ServiceOption) (*ChatService, error) {
	if settings == nil {
		return nil, errors.New("usecase: settings source must not be nil")
	}
	if tokens == nil {
		return nil, errors.New("usecase: token provider must not be nil")
	}
	if llm == nil {
		return nil, errors.New("usecase: completion client must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	s := &ChatService{
		settings: settings,
		tokens:   tokens,
		llm:      llm,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Complete never returns an error: every failure is mapped to a ChatResponse
// with Success=false and a fixed message.
func (s *ChatService) Complete(ctx context.Context, message string) domain.ChatResponse {
	start := time.Now()
	reply, err := s.complete(ctx, message)
	s.finish(ctx, len(message), err, time.Since(start))
	return responseFor(reply, err)
}

func (s *ChatService) complete(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", newError(ErrorInvalidInput, "empty_message", nil)
	}

	az := s.settings.AzureAI()
	if !az.Configured() {
		s.log.Warn("Azure AI endpoint not configured")
		return "", newError(ErrorNotConfigured, "endpoint_missing", nil)
	}
	deployment := strings.TrimSpace(az.DeploymentName)
	if deployment == "" {
		deployment = config.DefaultDeploymentName
	}

	messages := buildPromptMessages(message)

	token, err := s.tokens.Token(ctx, azureopenai.Scope)
	if err != nil {
		return "", newError(ErrorInternal, "token_error", err)
	}

	s.log.Info("Sending request to Azure AI", "endpoint", az.Endpoint, "deployment", deployment)

	content, err := s.llm.Complete(ctx, azureopenai.CompletionRequest{
		Endpoint:    az.Endpoint,
		Deployment:  deployment,
		Token:       token,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok {
			return "", newStatusError(status, err)
		}
		return "", newError(ErrorInternal, "completion_error", err)
	}
	if content == "" {
		content = MessageNoResponse
	}
	return content, nil
}

func (s *ChatService) finish(ctx context.Context, messageLen int, err error, d time.Duration) {
	outcome := outcomeOK
	status := 0
	var ue *Error
	switch {
	case err == nil:
		s.log.Info("Received successful response from Azure AI", "duration_ms", d.Milliseconds())
	case errors.As(err, &ue):
		outcome = string(ue.Code)
		status = ue.Status
		switch ue.Code {
		case ErrorUpstreamStatus:
			s.log.Error("Azure AI request failed", "status", ue.Status, "err", ue.Err)
		case ErrorInternal:
			s.log.Error("Error calling Azure AI service", "reason", ue.Reason, "err", ue.Err)
		}
	default:
		outcome = string(ErrorInternal)
		s.log.Error("Error calling Azure AI service", "err", err)
	}

	if s.observer != nil {
		s.observer.ObserveChat(outcome, d)
	}
	if s.recorder != nil {
		ex := domain.Exchange{
			ID:             newUUID(),
			MessageLength:  messageLen,
			Success:        err == nil,
			Outcome:        outcome,
			UpstreamStatus: status,
			Duration:       d,
			CreatedAt:      time.Now().UTC(),
		}
		if recErr := s.recorder.SaveExchange(context.WithoutCancel(ctx), ex); recErr != nil {
			s.log.Warn("failed to record chat exchange", "exchange_id", ex.ID, "err", recErr)
		}
	}
}

func responseFor(reply string, err error) domain.ChatResponse {
	if err == nil {
		return domain.Succeeded(reply)
	}
	var ue *Error
	if errors.As(err, &ue) {
		switch ue.Code {
		case ErrorInvalidInput:
			return domain.Failed(MessageEmpty)
		case ErrorNotConfigured:
			return domain.Failed(MessageNotConfigured)
		case ErrorUpstreamStatus:
			return domain.Failed(fmt.Sprintf(messageUpstreamStatus, ue.Status))
		}
	}
	return domain.Failed(MessageInternal)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

var newUUID = func() string {
	return uuid.NewString()
}
