package azureopenai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"storefront-chat/internal/domain"
)

const (
	// DefaultAPIVersion is the api-version query parameter sent with every
	// chat-completions call.
	DefaultAPIVersion = "2024-02-15-preview"

	// Scope is the token scope for Azure OpenAI / AI Foundry resources.
	Scope = "https://cognitiveservices.azure.com/.default"

	maxErrorBodyBytes = 4 << 10
)

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("azureopenai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// CompletionRequest describes one chat-completions call against a deployment.
type CompletionRequest struct {
	Endpoint    string
	Deployment  string
	Token       string
	Messages    []domain.ChatMessage
	MaxTokens   int
	Temperature float32
}

// Client issues chat-completions calls against Azure OpenAI deployments using
// Entra ID bearer tokens. It holds no per-call state.
type Client struct {
	httpClient *http.Client
	apiVersion string
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = strings.TrimSpace(version)
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		apiVersion: DefaultAPIVersion,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.apiVersion == "" {
		c.apiVersion = DefaultAPIVersion
	}
	c.httpClient = withStatusCheck(c.httpClient)
	return c
}

// withStatusCheck returns a copy of httpClient whose transport fails every
// final response outside 2xx. go-openai itself only rejects 4xx and 5xx, so
// an unfollowed 3xx would otherwise be decoded as a completion.
func withStatusCheck(httpClient *http.Client) *http.Client {
	hc := *httpClient
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = statusTransport{base: base}
	return &hc
}

type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	// 4xx and 5xx are left to go-openai, which parses the error body.
	if resp.StatusCode >= http.StatusBadRequest || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return resp, nil
	}
	if followsRedirect(resp) {
		return resp, nil
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return nil, &HTTPStatusError{
		StatusCode: resp.StatusCode,
		URL:        req.URL.String(),
		Body:       strings.TrimSpace(string(body)),
	}
}

// followsRedirect reports whether net/http will follow resp to another hop.
func followsRedirect(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return resp.Header.Get("Location") != ""
	}
	return false
}

// ChatURL returns the chat-completions URL for a deployment.
func (c *Client) ChatURL(endpoint, deployment string) string {
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(endpoint, "/"), deployment, c.apiVersion)
}

// Complete sends the request and returns the first choice's message content.
// Content may be empty when the upstream omitted it.
func (c *Client) Complete(ctx context.Context, in CompletionRequest) (string, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(in.Endpoint), "/")
	if endpoint == "" {
		return "", errors.New("azureopenai: endpoint must not be empty")
	}
	if strings.TrimSpace(in.Deployment) == "" {
		return "", errors.New("azureopenai: deployment must not be empty")
	}
	if in.Token == "" {
		return "", errors.New("azureopenai: token must not be empty")
	}

	api := openai.NewClientWithConfig(c.clientConfig(endpoint, in.Deployment, in.Token))

	messages := make([]openai.ChatCompletionMessage, 0, len(in.Messages))
	for _, m := range in.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       in.Deployment,
		Messages:    messages,
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
	})
	if err != nil {
		return "", c.wrapError(endpoint, in.Deployment, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("azureopenai: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) clientConfig(endpoint, deployment, token string) openai.ClientConfig {
	cfg := openai.DefaultAzureConfig(token, endpoint)
	cfg.APIType = openai.APITypeAzureAD
	cfg.APIVersion = c.apiVersion
	cfg.HTTPClient = c.httpClient
	cfg.AzureModelMapperFunc = func(string) string { return deployment }
	return cfg
}

func (c *Client) wrapError(endpoint, deployment string, err error) error {
	url := c.ChatURL(endpoint, deployment)

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return &HTTPStatusError{StatusCode: statusErr.StatusCode, URL: url, Body: statusErr.Body}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &HTTPStatusError{StatusCode: apiErr.HTTPStatusCode, URL: url, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &HTTPStatusError{StatusCode: reqErr.HTTPStatusCode, URL: url, Body: body}
	}
	return fmt.Errorf("azureopenai: request failed: %w", err)
}
