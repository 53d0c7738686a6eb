// Package llm translates a stored coaching conversation into provider-specific
// chat requests and normalizes the replies back into plain text.
//
// Supported variants are Gemini (generative-ai-go) and the OpenAI-compatible
// chat completions API used by both OpenAI and DeepSeek (openai-go).
package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

type Provider string

const (
	Gemini   Provider = "gemini"
	OpenAI   Provider = "openai"
	DeepSeek Provider = "deepseek"
)

// Resolve picks the chat variant for a stored provider id. Absent or unknown
// ids fall back to Gemini.
func Resolve(providerID string) Provider {
	switch p := Provider(strings.ToLower(strings.TrimSpace(providerID))); p {
	case OpenAI, DeepSeek:
		return p
	default:
		return Gemini
	}
}

// ParseProvider is the strict counterpart of Resolve used where the caller
// names the provider explicitly.
func ParseProvider(providerID string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(providerID))); p {
	case Gemini, OpenAI, DeepSeek:
		return p, nil
	default:
		return "", ErrUnknownProvider
	}
}

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one normalized conversation entry in the stored vocabulary.
type Message struct {
	Role Role
	Text string
}

// Request carries everything one provider call needs. History holds the
// prior turns; Prompt is sent as the final user turn.
type Request struct {
	Provider     string
	Model        string
	Credential   string
	SystemPrompt string
	History      []Message
	Prompt       string
	// BaseURL overrides the provider endpoint for this call only.
	BaseURL string
}

// Endpoints are the default provider locations and call parameters.
type Endpoints struct {
	OpenAI      string
	DeepSeek    string
	Gemini      string // empty uses the SDK default
	Temperature float64
}

func (e Endpoints) baseURL(p Provider, override string) string {
	if override != "" {
		return override
	}
	switch p {
	case OpenAI:
		return e.OpenAI
	case DeepSeek:
		return e.DeepSeek
	default:
		return e.Gemini
	}
}

// Router dispatches a Request to the variant selected by its provider id.
type Router struct {
	endpoints  Endpoints
	sendGemini func(ctx context.Context, endpoint string, req Request, chat geminiChat) (*genai.GenerateContentResponse, error)
}

func NewRouter(endpoints Endpoints) *Router {
	return &Router{
		endpoints:  endpoints,
		sendGemini: sendGeminiChat,
	}
}

// Generate returns the provider's reply text. A reply without usable text is
// reported as ErrEmptyReply; upstream failures as *ProviderError.
func (r *Router) Generate(ctx context.Context, req Request) (string, error) {
	switch p := Resolve(req.Provider); p {
	case OpenAI, DeepSeek:
		completion, err := sendChatCompletion(ctx, p, r.endpoints.baseURL(p, req.BaseURL), r.endpoints.Temperature, req)
		if err != nil {
			return "", err
		}
		return extractCompletionText(completion)
	default:
		reply, err := r.sendGemini(ctx, r.endpoints.baseURL(Gemini, req.BaseURL), req, buildGeminiChat(req))
		if err != nil {
			return "", err
		}
		return extractGeminiText(reply)
	}
}
