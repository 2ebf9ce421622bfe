package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"contract-risk-rag/api/response"
	"contract-risk-rag/logic/analysis"
	"contract-risk-rag/types"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
)

type Answerer interface {
	Answer(ctx context.Context, req types.AskRequest) (*types.AskResponse, error)
	AnswerStream(ctx context.Context, req types.AskRequest) *schema.StreamReader[string]
	Ping(ctx context.Context) (string, error)
}

type Analyzer interface {
	AnalyzeContract(ctx context.Context, content, contractID string) *types.RiskReport
}

type Ingester interface {
	IngestFile(ctx context.Context, path string) (int, error)
	IngestUpload(ctx context.Context, fileHeader *multipart.FileHeader) (int, error)
}

type HistoryLister interface {
	ListByContractID(ctx context.Context, contractID string, limit int) ([]types.RiskReport, error)
}

// Deps are the handler collaborators. History may be nil. When ConfigErr is
// set every model-backed route fails with it before doing any work.
type Deps struct {
	Answer            Answerer
	Analysis          Analyzer
	Ingestion         Ingester
	History           HistoryLister
	ConfigErr         error
	KnowledgeBasePath string
}

type ContractHandler struct {
	deps Deps
}

func NewContractHandler(deps Deps) *ContractHandler {
	return &ContractHandler{deps: deps}
}

// configured fails the request when credentials are missing.
func (h *ContractHandler) configured(c *gin.Context) bool {
	if h.deps.ConfigErr != nil {
		response.Fail(c, http.StatusInternalServerError, h.deps.ConfigErr.Error())
		return false
	}
	return true
}

func (h *ContractHandler) bindAsk(c *gin.Context) (types.AskRequest, bool) {
	var req types.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Fail(c, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		response.Fail(c, http.StatusBadRequest, "Empty prompt")
		return req, false
	}
	return req, h.configured(c)
}

// Ask streams the answer as server-sent events ending with [DONE].
func (h *ContractHandler) Ask(c *gin.Context) {
	req, ok := h.bindAsk(c)
	if !ok {
		return
	}
	log.Printf(">>> [Ask] prompt=%q contract=%t", truncate(req.Prompt, 100), req.ContractContent != "")

	sr := h.deps.Answer.AnswerStream(c.Request.Context(), req)
	defer sr.Close()

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			writeEvent(c.Writer, "Error: "+err.Error())
			c.Writer.Flush()
			return
		}
		writeEvent(c.Writer, chunk)
		c.Writer.Flush()
		if c.Request.Context().Err() != nil {
			return
		}
	}
}

// writeEvent frames one fragment; multi-line fragments get one data line each.
func writeEvent(w io.Writer, chunk string) {
	for _, line := range strings.Split(chunk, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

// AskSimple returns the whole answer with the question chain data.
func (h *ContractHandler) AskSimple(c *gin.Context) {
	req, ok := h.bindAsk(c)
	if !ok {
		return
	}
	resp, err := h.deps.Answer.Answer(c.Request.Context(), req)
	if err != nil {
		log.Printf("❌ [AskSimple] %v", err)
		response.FailWithMessage(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	response.Success(c, resp)
}

// AnalyzeContract runs the risk analysis. Failures come back as a degraded
// report with success still true.
func (h *ContractHandler) AnalyzeContract(c *gin.Context) {
	var req types.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ContractContent) == "" || strings.TrimSpace(req.ContractID) == "" {
		response.Fail(c, http.StatusBadRequest, "Missing required fields: contractContent and contractId")
		return
	}
	if !h.configured(c) {
		return
	}

	report := h.deps.Analysis.AnalyzeContract(c.Request.Context(), req.ContractContent, req.ContractID)
	response.Success(c, types.AnalyzeResponse{
		Success:    true,
		Analysis:   report,
		Summary:    analysis.GenerateRiskSummary(report),
		ContractID: req.ContractID,
	})
}

// ListAnalyses returns stored reports for a contract, newest first.
func (h *ContractHandler) ListAnalyses(c *gin.Context) {
	if h.deps.History == nil {
		response.Fail(c, http.StatusServiceUnavailable, "Analysis history is not configured")
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		response.Fail(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	reports, err := h.deps.History.ListByContractID(c.Request.Context(), c.Param("contractId"), limit)
	if err != nil {
		response.FailWithMessage(c, http.StatusInternalServerError, "Internal server error", err)
		return
	}
	response.Success(c, gin.H{"contractId": c.Param("contractId"), "analyses": reports})
}

// Ingest stores uploaded PDFs ("file" fields) or, without uploads, the
// configured knowledge base file.
func (h *ContractHandler) Ingest(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	ctx := c.Request.Context()

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		files = form.File["file"]
	}
	if len(files) == 0 {
		n, err := h.deps.Ingestion.IngestFile(ctx, h.deps.KnowledgeBasePath)
		if err != nil {
			log.Printf("❌ [Ingest] %s: %v", h.deps.KnowledgeBasePath, err)
			response.FailWithMessage(c, http.StatusInternalServerError, "Ingestion failed", err)
			return
		}
		response.Success(c, gin.H{"inserted": n, "files": []string{h.deps.KnowledgeBasePath}})
		return
	}

	total := 0
	var done, failed []string
	for _, file := range files {
		log.Printf(">>> [Ingest] processing %s (%d bytes)", file.Filename, file.Size)
		n, err := h.deps.Ingestion.IngestUpload(ctx, file)
		if err != nil {
			log.Printf("❌ [Ingest] %s: %v", file.Filename, err)
			failed = append(failed, file.Filename)
			continue
		}
		total += n
		done = append(done, file.Filename)
	}
	if len(done) == 0 {
		response.Fail(c, http.StatusInternalServerError, fmt.Sprintf("All files failed: %v", failed))
		return
	}
	response.Success(c, gin.H{"inserted": total, "files": done, "failed_files": failed})
}

// Ping checks the LLM round trip.
func (h *ContractHandler) Ping(c *gin.Context) {
	if !h.configured(c) {
		return
	}
	text, err := h.deps.Answer.Ping(c.Request.Context())
	if err != nil {
		response.FailWithMessage(c, http.StatusInternalServerError, "LLM request failed", err)
		return
	}
	response.Success(c, gin.H{"success": true, "message": "LLM API is working!", "response": text})
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
