package domain

// ChatMessage is the provider-agnostic chat message shape used by the
// usecase and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is the inbound payload of the send-message endpoint. Message may
// be empty; the handler rejects blank input.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned for every send-message call. Exactly one of
// Response and ErrorMessage is set, selected by Success.
type ChatResponse struct {
	Success      bool   `json:"success"`
	Response     string `json:"response,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Succeeded builds a successful response carrying the assistant reply.
func Succeeded(reply string) ChatResponse {
	return ChatResponse{Success: true, Response: reply}
}

// Failed builds a failed response carrying a user-facing message.
func Failed(message string) ChatResponse {
	return ChatResponse{Success: false, ErrorMessage: message}
}
