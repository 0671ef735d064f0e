package llm

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"google.golang.org/genai"
)

// convertMessagesToClaude converts chat messages to Anthropic message
// params. System messages are hoisted out since the Claude API takes the
// system prompt as a separate parameter.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string) {
	var systemParts []string
	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemParts = append(systemParts, msg.Content)
		case "assistant":
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return claudeMessages, strings.Join(systemParts, "\n\n")
}

// convertMessagesToGemini converts chat messages to Gemini contents.
// System messages are hoisted into the system instruction.
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string) {
	var systemParts []string
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			systemParts = append(systemParts, msg.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	return contents, strings.Join(systemParts, "\n\n")
}
