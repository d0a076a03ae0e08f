package llm

const openRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider routes through OpenRouter's OpenAI-compatible API.
// Model IDs such as "google/gemini-2.5-flash" are sent unchanged, which
// lets the quiz use Gemini without a Google key.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	base := cfg.BaseURL
	if base == "" {
		base = openRouterURL
	}
	p, err := newChatProvider("openrouter", cfg.APIKey, base, cfg.Model)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{OpenAIProvider: p}, nil
}
