package question

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ParseTerms splits a comma-separated LLM reply, trimming entries and
// dropping empty ones. The result is never nil.
func ParseTerms(raw string) []string {
	terms := []string{}
	for _, part := range strings.Split(raw, ",") {
		if term := strings.TrimSpace(part); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

// ExtractTerms asks the model for comma-separated key terms.
func ExtractTerms(ctx context.Context, m model.BaseChatModel, system, user string, opts ...model.Option) ([]string, error) {
	resp, err := m.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}, opts...)
	if err != nil {
		return []string{}, err
	}
	if resp == nil {
		return []string{}, errors.New("empty response")
	}
	return ParseTerms(resp.Content), nil
}
