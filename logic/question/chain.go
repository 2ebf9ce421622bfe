package question

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"contract-risk-rag/logic/chat"
	"contract-risk-rag/types"
	"contract-risk-rag/vars"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// stage is the tagged result of one chain step.
type stage[T any] struct {
	value   T
	outcome types.StageOutcome
	err     error
}

// run executes fn; on error the fallback value is used instead.
func run[T any](name string, fallback T, fn func() (T, error)) stage[T] {
	v, err := fn()
	if err != nil {
		log.Printf(">>> [QuestionChain] %s failed, using fallback: %v", name, err)
		return stage[T]{value: fallback, outcome: types.StageFallback, err: fmt.Errorf("%s: %w", name, err)}
	}
	return stage[T]{value: v, outcome: types.StageSuccess}
}

// Chain rewrites a user question and extracts search terms from it.
type Chain struct {
	model   model.BaseChatModel
	timeout time.Duration
}

func NewChain(m model.BaseChatModel, timeout time.Duration) *Chain {
	return &Chain{model: m, timeout: timeout}
}

// Run never fails: every stage falls back and the error text is recorded.
func (c *Chain) Run(ctx context.Context, userInput string) *types.QuestionChainResult {
	start := time.Now()

	enhanced := run("enhance question", userInput, func() (string, error) {
		return c.enhance(ctx, userInput)
	})
	terms := run("extract key terms", []string{}, func() ([]string, error) {
		return c.keyTerms(ctx, enhanced.value)
	})

	res := &types.QuestionChainResult{
		OriginalQuestion: userInput,
		EnhancedQuestion: enhanced.value,
		KeyTerms:         terms.value,
		SearchQuery:      BuildSearchQuery(enhanced.value, terms.value),
		Timestamp:        time.Now().UTC().Format(time.RFC3339Nano),
		EnhanceOutcome:   enhanced.outcome,
		TermsOutcome:     terms.outcome,
	}
	if err := errors.Join(enhanced.err, terms.err); err != nil {
		res.Error = strings.ReplaceAll(err.Error(), "\n", "; ")
	}
	log.Printf(">>> [QuestionChain] %q -> %q, %d terms, took %v", userInput, res.EnhancedQuestion, len(res.KeyTerms), time.Since(start))
	return res
}

func (c *Chain) enhance(ctx context.Context, userInput string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	resp, err := c.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(vars.QUESTIONENHANCE),
		schema.UserMessage("Original question: " + userInput),
	}, chat.QuestionOptions...)
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", errors.New("empty response")
	}
	return strings.TrimSpace(resp.Content), nil
}

func (c *Chain) keyTerms(ctx context.Context, question string) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	return ExtractTerms(ctx, c.model, vars.QUESTIONTERMS, "Question: "+question, chat.QuestionOptions...)
}

func (c *Chain) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// BuildSearchQuery appends the terms to the question when there are any.
func BuildSearchQuery(question string, terms []string) string {
	if len(terms) == 0 {
		return question
	}
	return question + " " + strings.Join(terms, " ")
}
