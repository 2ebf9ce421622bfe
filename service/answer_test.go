package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"contract-risk-rag/types"
	"contract-risk-rag/vars"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, sr *schema.StreamReader[string]) []string {
	t.Helper()
	defer sr.Close()
	var out []string
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, chunk)
	}
}

func newChatModel() *fakeChatModel {
	return &fakeChatModel{
		enhance:   "What are the key types of risks in business contracts?",
		terms:     "contract risk, liability",
		answer:    "Contract risk is exposure to loss from contract terms.",
		fragments: []string{"Contract risk ", "is exposure ", "", "to loss."},
	}
}

func TestAnswerStream(t *testing.T) {
	m := newChatModel()
	retriever := &fakeRetriever{matches: []types.RetrievedMatch{{Content: "kb", Similarity: 0.8}}}
	svc := NewAnswerService(m, retriever, time.Second)

	chunks := drain(t, svc.AnswerStream(context.Background(), types.AskRequest{Prompt: "What is contract risk?"}))

	require.NotEmpty(t, chunks)
	assert.Equal(t, vars.StreamDone, chunks[len(chunks)-1])
	assert.Equal(t, "Contract risk is exposure to loss.", strings.Join(chunks[:len(chunks)-1], ""))
	assert.Equal(t, []string{"What are the key types of risks in business contracts? contract risk liability"}, retriever.queries)
	assert.Equal(t, []int{vars.DefaultMatchCount}, retriever.ks)
	assert.Equal(t, []string{"enhance", "terms", "stream"}, m.calls)
}

func TestAnswerStreamErrorStillEndsWithDone(t *testing.T) {
	m := newChatModel()
	m.streamErr = errors.New("quota exceeded")
	svc := NewAnswerService(m, nil, 0)

	chunks := drain(t, svc.AnswerStream(context.Background(), types.AskRequest{Prompt: "What is contract risk?"}))

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0], vars.StreamErrorPrefix))
	assert.Contains(t, chunks[0], "quota exceeded")
	assert.Equal(t, vars.StreamDone, chunks[1])
}

func TestAnswerStreamReaderClosedEarly(t *testing.T) {
	m := newChatModel()
	m.fragments = make([]string, 100)
	for i := range m.fragments {
		m.fragments[i] = "x"
	}
	sr := NewAnswerService(m, nil, 0).AnswerStream(context.Background(), types.AskRequest{Prompt: "q"})

	chunk, err := sr.Recv()
	require.NoError(t, err)
	assert.Equal(t, "x", chunk)
	sr.Close()
}

func TestAnswerRetrievalFailureDegrades(t *testing.T) {
	m := newChatModel()
	svc := NewAnswerService(m, &fakeRetriever{err: errBoom}, 0)

	resp, err := svc.Answer(context.Background(), types.AskRequest{
		Prompt:          "  What is contract risk?  ",
		ContractContent: "Either party may terminate with 30 days notice.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Contract risk is exposure to loss from contract terms.", resp.Answer)
	require.NotNil(t, resp.QuestionData)
	assert.Equal(t, "What is contract risk?", resp.QuestionData.OriginalQuestion)
	assert.Equal(t, []string{"contract risk", "liability"}, resp.QuestionData.KeyTerms)
}

func TestAnswerRetrievalTimesOut(t *testing.T) {
	svc := NewAnswerService(newChatModel(), blockingRetriever{}, 50*time.Millisecond)

	start := time.Now()
	resp, err := svc.Answer(context.Background(), types.AskRequest{Prompt: "What is contract risk?"})
	require.NoError(t, err)
	assert.Equal(t, "Contract risk is exposure to loss from contract terms.", resp.Answer)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestAnswerGenerateFailure(t *testing.T) {
	m := newChatModel()
	m.failOn = map[string]error{"answer": errBoom}

	_, err := NewAnswerService(m, nil, 0).Answer(context.Background(), types.AskRequest{Prompt: "q"})
	assert.ErrorIs(t, err, errBoom)
}

func TestAnswerChainFallbackStillAnswers(t *testing.T) {
	m := newChatModel()
	m.failOn = map[string]error{"enhance": errBoom, "terms": errBoom}

	resp, err := NewAnswerService(m, nil, 0).Answer(context.Background(), types.AskRequest{Prompt: "notice?"})
	require.NoError(t, err)
	assert.Equal(t, "notice?", resp.QuestionData.EnhancedQuestion)
	assert.Empty(t, resp.QuestionData.KeyTerms)
	assert.NotEmpty(t, resp.QuestionData.Error)
}

func TestPing(t *testing.T) {
	got, err := NewAnswerService(newChatModel(), nil, time.Second).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Hello from the contract risk assistant!", got)
}
