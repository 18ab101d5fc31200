package usecase

import (
	"strings"

	"storefront-chat/internal/domain"
)

func buildPromptMessages(message string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: systemPrompt()},
		{Role: domain.RoleUser, Content: message},
	}
}

func systemPrompt() string {
	return strings.Join([]string{
		"You are a helpful assistant for Zava Storefront, an e-commerce platform.",
		"Help customers with questions about products, pricing, and general inquiries.",
		"Keep responses concise and helpful.",
	}, " ")
}
