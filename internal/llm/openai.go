package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	oaoption "github.com/openai/openai-go/option"
)

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

// chatMessage is one entry of an OpenAI-compatible messages array.
type chatMessage struct {
	Role    string
	Content string
}

// buildChatMessages puts the system prompt first and translates the stored
// "model" role to "assistant". The prompt is always the last user message.
func buildChatMessages(systemPrompt string, history []Message, prompt string) []chatMessage {
	messages := make([]chatMessage, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: roleSystem, Content: systemPrompt})
	}
	for _, msg := range history {
		role := roleAssistant
		if msg.Role == RoleUser {
			role = roleUser
		}
		messages = append(messages, chatMessage{Role: role, Content: msg.Text})
	}
	return append(messages, chatMessage{Role: roleUser, Content: prompt})
}

func toCompletionParams(messages []chatMessage) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case roleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case roleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}
	return params
}

// compatibleClient builds an openai-go client for any OpenAI-compatible base.
// Retries are disabled: a failed call is reported, never repeated.
func compatibleClient(credential, baseURL string) openai.Client {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	opts := []oaoption.RequestOption{
		oaoption.WithAPIKey(credential),
		oaoption.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, oaoption.WithBaseURL(baseURL))
	}
	return openai.NewClient(opts...)
}

func sendChatCompletion(ctx context.Context, p Provider, baseURL string, temperature float64, req Request) (*openai.ChatCompletion, error) {
	client := compatibleClient(req.Credential, baseURL)

	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    toCompletionParams(buildChatMessages(req.SystemPrompt, req.History, req.Prompt)),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		status, body := openAIStatus(err)
		return nil, &ProviderError{Provider: p, StatusCode: status, Body: body, Err: err}
	}
	return completion, nil
}

func extractCompletionText(completion *openai.ChatCompletion) (string, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return "", ErrEmptyReply
	}
	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyReply
	}
	return content, nil
}

func openAIStatus(err error) (int, string) {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if body == "" {
			body = apiErr.Message
		}
		return apiErr.StatusCode, body
	}
	return 0, ""
}
