package llm

import (
	"context"
	"slices"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
)

const generateContentMethod = "generateContent"

// Catalog lists the models a credential can use with a provider.
type Catalog struct {
	endpoints    Endpoints
	geminiModels func(ctx context.Context, credential, endpoint string) ([]*genai.ModelInfo, error)
}

func NewCatalog(endpoints Endpoints) *Catalog {
	return &Catalog{
		endpoints:    endpoints,
		geminiModels: listGeminiModels,
	}
}

// ListModels issues one listing call. Gemini results are narrowed to models
// that support generateContent; OpenAI and DeepSeek ids pass through as listed.
// Failures are *CredentialError for a 4xx answer and *UnavailableError otherwise.
func (c *Catalog) ListModels(ctx context.Context, credential, providerID string) ([]string, error) {
	p, err := ParseProvider(providerID)
	if err != nil {
		return nil, err
	}

	switch p {
	case OpenAI, DeepSeek:
		client := compatibleClient(credential, c.endpoints.baseURL(p, ""))
		page, err := client.Models.List(ctx)
		if err != nil {
			status, body := openAIStatus(err)
			return nil, listingError(p, status, body, err)
		}
		models := make([]string, 0, len(page.Data))
		for _, m := range page.Data {
			models = append(models, m.ID)
		}
		return models, nil
	default:
		infos, err := c.geminiModels(ctx, credential, c.endpoints.baseURL(Gemini, ""))
		if err != nil {
			status, body := googleStatus(err)
			return nil, listingError(Gemini, status, body, err)
		}
		return generativeModelNames(infos), nil
	}
}

func listingError(p Provider, status int, body string, err error) error {
	if status >= 400 && status < 500 {
		return &CredentialError{Provider: p, StatusCode: status, Body: body}
	}
	return &UnavailableError{Provider: p, StatusCode: status, Body: body, Err: err}
}

func generativeModelNames(infos []*genai.ModelInfo) []string {
	names := []string{}
	for _, info := range infos {
		if info != nil && slices.Contains(info.SupportedGenerationMethods, generateContentMethod) {
			names = append(names, info.Name)
		}
	}
	return names
}

func listGeminiModels(ctx context.Context, credential, endpoint string) ([]*genai.ModelInfo, error) {
	client, err := geminiClient(ctx, credential, endpoint)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var infos []*genai.ModelInfo
	it := client.ListModels(ctx)
	for {
		info, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
