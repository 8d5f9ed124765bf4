package llm

import (
	"fmt"
	"strings"

	"task-helper/api/internal/config"
)

// NewFromConfig собирает Gateway с провайдером, выбранным в ai.provider.
func NewFromConfig(cfg *config.Config) (*Gateway, error) {
	ai := cfg.AI
	opt := Options{
		MaxRetries: ai.MaxRetries,
		RetryBase:  ai.RetryBase,
	}

	var p Provider
	switch strings.ToLower(strings.TrimSpace(ai.Provider)) {
	case "", OpenRouterName:
		or := NewOpenRouter(ai.OpenRouter.APIKey, ai.OpenRouter.BaseURL)
		or.Referer = ai.OpenRouter.Referer
		p = or
		opt.DefaultModel = ai.OpenRouter.Model
		opt.Overrides = map[TaskType]string{
			TypeMath: ai.OpenRouter.ModelMath,
			TypeCode: ai.OpenRouter.ModelCode,
			TypeDeep: ai.OpenRouter.ModelDeep,
		}
	case GeminiName:
		p = NewGemini(ai.Gemini.APIKey)
		opt.DefaultModel = ai.Gemini.Model
	case OpenAIName:
		p = NewOpenAI(ai.OpenAI.APIKey, ai.OpenAI.BaseURL)
		opt.DefaultModel = ai.OpenAI.Model
	default:
		return nil, fmt.Errorf("unknown ai provider %q (openrouter | gemini | openai)", ai.Provider)
	}
	return NewGateway(p, opt), nil
}
