package question

import (
	"context"
	"errors"
	"testing"
	"time"

	"contract-risk-rag/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reply struct {
	content string
	err     error
}

// scriptedModel answers Generate calls in order and records the inputs.
type scriptedModel struct {
	replies []reply
	inputs  [][]*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.inputs = append(m.inputs, input)
	if len(m.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return schema.AssistantMessage(r.content, nil), nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestChainRun(t *testing.T) {
	m := &scriptedModel{replies: []reply{
		{content: "  What are the key types of risks in business contracts?\n"},
		{content: "contract risk, liability , breach,"},
	}}

	res := NewChain(m, time.Second).Run(context.Background(), "What is contract risk?")

	assert.Equal(t, "What is contract risk?", res.OriginalQuestion)
	assert.Equal(t, "What are the key types of risks in business contracts?", res.EnhancedQuestion)
	assert.Equal(t, []string{"contract risk", "liability", "breach"}, res.KeyTerms)
	assert.Equal(t, "What are the key types of risks in business contracts? contract risk liability breach", res.SearchQuery)
	assert.NotEmpty(t, res.Timestamp)
	assert.Empty(t, res.Error)
	assert.Equal(t, types.StageSuccess, res.EnhanceOutcome)
	assert.Equal(t, types.StageSuccess, res.TermsOutcome)

	require.Len(t, m.inputs, 2)
	assert.Equal(t, "Original question: What is contract risk?", m.inputs[0][1].Content)
	assert.Equal(t, "Question: What are the key types of risks in business contracts?", m.inputs[1][1].Content)
}

func TestChainRunEnhanceFailureKeepsOriginal(t *testing.T) {
	m := &scriptedModel{replies: []reply{
		{err: errors.New("rate limited")},
		{content: "termination"},
	}}

	res := NewChain(m, 0).Run(context.Background(), "notice period?")

	assert.Equal(t, "notice period?", res.EnhancedQuestion)
	assert.Equal(t, []string{"termination"}, res.KeyTerms)
	assert.Equal(t, "notice period? termination", res.SearchQuery)
	assert.Equal(t, types.StageFallback, res.EnhanceOutcome)
	assert.Contains(t, res.Error, "rate limited")
	assert.Equal(t, "Question: notice period?", m.inputs[1][1].Content)
}

func TestChainRunEmptyRepliesFallBack(t *testing.T) {
	m := &scriptedModel{replies: []reply{{content: "   "}, {content: " , ,"}}}

	res := NewChain(m, 0).Run(context.Background(), "")

	assert.Equal(t, "", res.OriginalQuestion)
	assert.Equal(t, "", res.EnhancedQuestion)
	assert.NotNil(t, res.KeyTerms)
	assert.Empty(t, res.KeyTerms)
	assert.Equal(t, "", res.SearchQuery)
	assert.Equal(t, types.StageFallback, res.EnhanceOutcome)
	assert.Equal(t, types.StageSuccess, res.TermsOutcome)
}

func TestChainRunBothStagesFail(t *testing.T) {
	m := &scriptedModel{}

	res := NewChain(m, 0).Run(context.Background(), "indemnity caps")

	assert.Equal(t, "indemnity caps", res.EnhancedQuestion)
	assert.Equal(t, []string{}, res.KeyTerms)
	assert.Equal(t, "indemnity caps", res.SearchQuery)
	assert.Equal(t, types.StageFallback, res.TermsOutcome)
	assert.Contains(t, res.Error, "enhance question")
	assert.Contains(t, res.Error, "extract key terms")
}

func TestParseTerms(t *testing.T) {
	assert.Equal(t, []string{}, ParseTerms(""))
	assert.Equal(t, []string{"a", "b c"}, ParseTerms(" a ,, b c ,"))
}

func TestBuildSearchQuery(t *testing.T) {
	assert.Equal(t, "q", BuildSearchQuery("q", nil))
	assert.Equal(t, "q x y", BuildSearchQuery("q", []string{"x", "y"}))
}
