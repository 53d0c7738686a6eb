package llm

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// geminiChat is the provider-native shape of one Gemini chat call.
type geminiChat struct {
	Model             string
	SystemInstruction *genai.Content // nil when the coach has no system prompt
	History           []*genai.Content
	Prompt            genai.Text
}

// buildGeminiChat keeps the stored roles as they are (user, model) and passes
// the system prompt as a system instruction rather than a history entry.
func buildGeminiChat(req Request) geminiChat {
	chat := geminiChat{
		Model:   req.Model,
		History: make([]*genai.Content, 0, len(req.History)),
		Prompt:  genai.Text(req.Prompt),
	}
	if req.SystemPrompt != "" {
		chat.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}
	for _, msg := range req.History {
		role := string(RoleModel)
		if msg.Role == RoleUser {
			role = string(RoleUser)
		}
		chat.History = append(chat.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}
	return chat
}

func geminiClient(ctx context.Context, credential, endpoint string) (*genai.Client, error) {
	opts := []option.ClientOption{option.WithAPIKey(credential)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return genai.NewClient(ctx, opts...)
}

func sendGeminiChat(ctx context.Context, endpoint string, req Request, chat geminiChat) (*genai.GenerateContentResponse, error) {
	client, err := geminiClient(ctx, req.Credential, endpoint)
	if err != nil {
		return nil, &ProviderError{Provider: Gemini, Err: err}
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}()

	model := client.GenerativeModel(chat.Model)
	model.SystemInstruction = chat.SystemInstruction

	session := model.StartChat()
	session.History = chat.History

	resp, err := session.SendMessage(ctx, chat.Prompt)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			log.Printf("Gemini blocked the reply: %v", err)
			return nil, ErrEmptyReply
		}
		status, body := googleStatus(err)
		return nil, &ProviderError{Provider: Gemini, StatusCode: status, Body: body, Err: err}
	}
	return resp, nil
}

// extractGeminiText concatenates the text parts of the first candidate.
func extractGeminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyReply
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}
	if strings.TrimSpace(responseText.String()) == "" {
		return "", ErrEmptyReply
	}
	return responseText.String(), nil
}

// googleStatus digs the HTTP status and body out of a Google API error.
func googleStatus(err error) (int, string) {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPCode() > 0 {
		return apiErr.HTTPCode(), apiErr.Error()
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		body := gErr.Body
		if body == "" {
			body = gErr.Message
		}
		return gErr.Code, body
	}
	return 0, ""
}
