package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// NewGeminiClient opens the client shared by the gemini chat model and embedder.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client failed: %w", err)
	}
	return client, nil
}

// GeminiChatModel adapts genai to eino's chat model interface.
type GeminiChatModel struct {
	client *genai.Client
	model  string
}

func NewGeminiChatModel(client *genai.Client, modelName string) *GeminiChatModel {
	return &GeminiChatModel{client: client, model: modelName}
}

func (g *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	gm, parts := g.prepare(input, opts)
	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}
	return schema.AssistantMessage(responseText(resp), nil), nil
}

func (g *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	gm, parts := g.prepare(input, opts)
	iter := gm.GenerateContentStream(ctx, parts...)

	sr, sw := schema.Pipe[*schema.Message](8)
	go func() {
		defer sw.Close()
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				sw.Send(nil, fmt.Errorf("gemini stream failed: %w", err))
				return
			}
			text := responseText(resp)
			if text == "" {
				continue
			}
			if closed := sw.Send(schema.AssistantMessage(text, nil), nil); closed {
				return
			}
		}
	}()
	return sr, nil
}

func (g *GeminiChatModel) prepare(input []*schema.Message, opts []model.Option) (*genai.GenerativeModel, []genai.Part) {
	options := model.GetCommonOptions(&model.Options{}, opts...)

	name := g.model
	if options.Model != nil && *options.Model != "" {
		name = *options.Model
	}
	gm := g.client.GenerativeModel(name)
	if options.Temperature != nil {
		gm.SetTemperature(*options.Temperature)
	}
	if options.MaxTokens != nil {
		gm.SetMaxOutputTokens(int32(*options.MaxTokens))
	}

	var system, parts []genai.Part
	for _, msg := range input {
		if msg.Role == schema.System {
			system = append(system, genai.Text(msg.Content))
			continue
		}
		parts = append(parts, genai.Text(msg.Content))
	}
	if len(system) > 0 {
		gm.SystemInstruction = &genai.Content{Parts: system}
	}
	return gm, parts
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		break
	}
	return sb.String()
}
