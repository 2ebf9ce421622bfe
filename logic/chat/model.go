package chat

import (
	"context"
	"fmt"

	"contract-risk-rag/vars"

	"github.com/cloudwego/eino/components/model"
	"github.com/google/generative-ai-go/genai"
)

// Per-call generation settings.
var (
	QuestionOptions = []model.Option{model.WithTemperature(0.1), model.WithMaxTokens(200)}
	TermsOptions    = []model.Option{model.WithTemperature(0.1), model.WithMaxTokens(500)}
	AnswerOptions   = []model.Option{model.WithTemperature(0.2), model.WithMaxTokens(1024)}
	AnalysisOptions = []model.Option{model.WithTemperature(0.1), model.WithMaxTokens(4000)}
	PingOptions     = []model.Option{model.WithTemperature(0.1), model.WithMaxTokens(100)}
)

// NewChatModel builds the chat model for the configured provider.
// gc is only used by the gemini provider and may be nil otherwise.
func NewChatModel(ctx context.Context, cfg *vars.Config, gc *genai.Client) (model.BaseChatModel, error) {
	switch cfg.LLMProvider {
	case vars.ProviderOpenAI:
		return CreateOpenAIChatModel(ctx, cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.ChatModel)
	case vars.ProviderGemini:
		if gc == nil {
			return nil, fmt.Errorf("gemini provider requires a genai client")
		}
		return NewGeminiChatModel(gc, cfg.ChatModel), nil
	default:
		return CreateOllamaChatModel(ctx, cfg.OllamaPath, cfg.ChatModel, cfg.LLMTimeout)
	}
}
