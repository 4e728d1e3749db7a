package factory

import (
	"fmt"

	"ai-bookrec-be/pkg/llm"
	"ai-bookrec-be/pkg/llm/gemini"
	"ai-bookrec-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini provider requires an api key")
		}
		return gemini.NewGeminiProvider(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
