package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"contract-risk-rag/types"
	"contract-risk-rag/vars"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/indexer"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeChatModel routes each call by its system prompt.
type fakeChatModel struct {
	mu sync.Mutex

	enhance  string
	terms    string
	answer   string
	analysis string

	fragments []string
	streamErr error
	failOn    map[string]error

	calls []string
}

func (m *fakeChatModel) route(input []*schema.Message) string {
	if len(input) == 0 {
		return "ping"
	}
	switch sys := input[0].Content; {
	case sys == vars.QUESTIONENHANCE:
		return "enhance"
	case sys == vars.QUESTIONTERMS:
		return "terms"
	case sys == vars.CONTRACTTERMS:
		return "contract_terms"
	case sys == vars.ANALYSISSYSTEM:
		return "analysis"
	case input[0].Role == schema.System && strings.HasPrefix(sys, "You are a contract analysis assistant"):
		return "answer"
	}
	return "ping"
}

func (m *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stage := m.route(input)
	m.calls = append(m.calls, stage)
	if err := m.failOn[stage]; err != nil {
		return nil, err
	}
	var out string
	switch stage {
	case "enhance":
		out = m.enhance
	case "terms", "contract_terms":
		out = m.terms
	case "answer":
		out = m.answer
	case "analysis":
		out = m.analysis
	default:
		out = "Hello from the contract risk assistant!"
	}
	return schema.AssistantMessage(out, nil), nil
}

func (m *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.mu.Lock()
	m.calls = append(m.calls, "stream")
	m.mu.Unlock()
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	msgs := make([]*schema.Message, 0, len(m.fragments))
	for _, f := range m.fragments {
		msgs = append(msgs, schema.AssistantMessage(f, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

type fakeRetriever struct {
	matches []types.RetrievedMatch
	err     error
	queries []string
	ks      []int
}

func (r *fakeRetriever) FetchRelevantDocs(_ context.Context, query string, k int, _ float64) ([]types.RetrievedMatch, error) {
	r.queries = append(r.queries, query)
	r.ks = append(r.ks, k)
	if r.err != nil {
		return nil, r.err
	}
	return r.matches, nil
}

// blockingRetriever waits for its context to end.
type blockingRetriever struct{}

func (blockingRetriever) FetchRelevantDocs(ctx context.Context, _ string, _ int, _ float64) ([]types.RetrievedMatch, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return []types.RetrievedMatch{}, nil
	}
}

type fakeEmbedder struct {
	err   error
	texts []string
}

func (e *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.texts = append(e.texts, texts...)
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1}
	}
	return out, nil
}

type fakeMatcher struct {
	matches []types.RetrievedMatch
	err     error
	reqs    []types.MatchRequest
}

func (m *fakeMatcher) MatchDocuments(_ context.Context, req types.MatchRequest) ([]types.RetrievedMatch, error) {
	m.reqs = append(m.reqs, req)
	return m.matches, m.err
}

type fakeIndexer struct {
	docs []*schema.Document
	err  error
}

func (f *fakeIndexer) Store(_ context.Context, docs []*schema.Document, _ ...indexer.Option) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, docs...)
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// replacingIndexer also deletes by source and records the order of calls.
type replacingIndexer struct {
	fakeIndexer
	deleteErr error
	ops       []string
}

func (r *replacingIndexer) DeleteBySource(_ context.Context, sourceFile string) error {
	r.ops = append(r.ops, "delete "+sourceFile)
	return r.deleteErr
}

func (r *replacingIndexer) Store(ctx context.Context, docs []*schema.Document, opts ...indexer.Option) ([]string, error) {
	r.ops = append(r.ops, "store "+strconv.Itoa(len(docs)))
	return r.fakeIndexer.Store(ctx, docs, opts...)
}

type blockingIndexer struct{}

func (blockingIndexer) Store(ctx context.Context, _ []*schema.Document, _ ...indexer.Option) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return nil, errors.New("store was not cancelled")
	}
}

// paragraphSplitter splits on blank lines.
type paragraphSplitter struct{}

func (paragraphSplitter) Transform(_ context.Context, src []*schema.Document, _ ...document.TransformerOption) ([]*schema.Document, error) {
	var out []*schema.Document
	for _, doc := range src {
		for _, part := range strings.Split(doc.Content, "\n\n") {
			out = append(out, &schema.Document{Content: part, MetaData: doc.MetaData})
		}
	}
	return out, nil
}

type fakeReportStore struct {
	saved []*types.RiskReport
	err   error
}

func (f *fakeReportStore) SaveReport(_ context.Context, report *types.RiskReport) error {
	f.saved = append(f.saved, report)
	return f.err
}

var errBoom = errors.New("boom")
