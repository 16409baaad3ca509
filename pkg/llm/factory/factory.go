package factory

import (
	"fmt"

	"market-assist-be/pkg/llm"
	"market-assist-be/pkg/llm/ollama"
	"market-assist-be/pkg/llm/openaicompat"
)

// NewLLMProvider selects the generation backend from config.
func NewLLMProvider(provider, model, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch provider {
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, model), nil
	case "openai-compatible":
		if apiKey == "" {
			return nil, fmt.Errorf("openai-compatible provider requires LLM_API_KEY")
		}
		return openaicompat.NewProvider(apiKey, baseURL, model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", provider)
	}
}
