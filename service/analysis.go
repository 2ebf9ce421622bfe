package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"contract-risk-rag/logic/analysis"
	"contract-risk-rag/logic/chat"
	"contract-risk-rag/logic/prompt"
	"contract-risk-rag/logic/question"
	"contract-risk-rag/types"
	"contract-risk-rag/vars"

	"github.com/cloudwego/eino/components/model"
)

// ReportStore persists finished analyses.
type ReportStore interface {
	SaveReport(ctx context.Context, report *types.RiskReport) error
}

type ContractAnalysisService struct {
	chatModel model.BaseChatModel
	retriever Retriever
	reports   ReportStore
	timeout   time.Duration
	now       func() time.Time
}

// NewContractAnalysisService wires the analysis pipeline. reports may be nil.
func NewContractAnalysisService(chatModel model.BaseChatModel, retriever Retriever, reports ReportStore, timeout time.Duration) *ContractAnalysisService {
	return &ContractAnalysisService{
		chatModel: chatModel,
		retriever: retriever,
		reports:   reports,
		timeout:   timeout,
		now:       time.Now,
	}
}

// AnalyzeContract always returns a report: any failure yields the degraded
// shape with risk_level "Unknown" and the error message.
func (s *ContractAnalysisService) AnalyzeContract(ctx context.Context, content, contractID string) *types.RiskReport {
	start := time.Now()
	log.Printf(">>> [Analysis] starting contract analysis for %s", contractID)

	report, err := s.analyze(ctx, content, contractID)
	if err != nil {
		log.Printf("❌ [Analysis] %s failed: %v", contractID, err)
		report = types.FailedReport(contractID, err)
	} else {
		log.Printf(">>> [Analysis] %s done: %d risks, score %d, took %v", contractID, len(report.Risks), report.OverallRiskScore, time.Since(start))
	}

	if s.reports != nil {
		if err := s.reports.SaveReport(ctx, report); err != nil {
			log.Printf("⚠️ [Analysis] persist report for %s failed: %v", contractID, err)
		}
	}
	return report
}

func (s *ContractAnalysisService) analyze(ctx context.Context, content, contractID string) (*types.RiskReport, error) {
	terms := s.keyTerms(ctx, content)
	query := prompt.ContractSearchQuery(content, terms)

	retrieveCtx, cancel := s.withTimeout(ctx)
	matches, err := s.retriever.FetchRelevantDocs(retrieveCtx, query, vars.AnalysisMatchCount, vars.DefaultThreshold)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	log.Printf(">>> [Analysis] %d knowledge base references", len(matches))

	generatedAt := s.now().UTC().Format(time.RFC3339)
	msgs, err := prompt.AnalysisMessages(content, contractID, generatedAt, matches)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.chatModel.Generate(callCtx, msgs, chat.AnalysisOptions...)
	if err != nil {
		return nil, fmt.Errorf("generate analysis: %w", err)
	}
	if resp == nil {
		return nil, errors.New("generate analysis: empty response")
	}
	return analysis.ParseReport(resp.Content, contractID, generatedAt)
}

// keyTerms extracts search terms from the head of the contract; failure
// yields no terms.
func (s *ContractAnalysisService) keyTerms(ctx context.Context, content string) []string {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	terms, err := question.ExtractTerms(callCtx, s.chatModel, vars.CONTRACTTERMS,
		"Contract content: "+prompt.Truncate(content, 2000), chat.TermsOptions...)
	if err != nil {
		log.Printf("⚠️ [Analysis] key term extraction failed: %v", err)
		return []string{}
	}
	log.Printf(">>> [Analysis] key terms: %v", terms)
	return terms
}

func (s *ContractAnalysisService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
