package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"contract-risk-rag/logic/chat"
	"contract-risk-rag/logic/prompt"
	"contract-risk-rag/logic/question"
	"contract-risk-rag/types"
	"contract-risk-rag/vars"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var errStreamClosed = errors.New("stream closed by reader")

type AnswerService struct {
	chain     *question.Chain
	retriever Retriever
	chatModel model.BaseChatModel
	timeout   time.Duration
}

// NewAnswerService wires the answer pipeline. retriever may be nil, in which
// case answers use the contract text only.
func NewAnswerService(chatModel model.BaseChatModel, retriever Retriever, timeout time.Duration) *AnswerService {
	return &AnswerService{
		chain:     question.NewChain(chatModel, timeout),
		retriever: retriever,
		chatModel: chatModel,
		timeout:   timeout,
	}
}

// prepare runs the question chain and gathers knowledge-base context.
// Retrieval failures are logged and the answer goes ahead without context.
func (s *AnswerService) prepare(ctx context.Context, req types.AskRequest) (*types.QuestionChainResult, []*schema.Message, error) {
	qd := s.chain.Run(ctx, strings.TrimSpace(req.Prompt))

	var matches []types.RetrievedMatch
	if s.retriever != nil {
		retrieveCtx, cancel := s.withTimeout(ctx)
		var err error
		matches, err = s.retriever.FetchRelevantDocs(retrieveCtx, qd.SearchQuery, vars.DefaultMatchCount, vars.DefaultThreshold)
		cancel()
		if err != nil {
			log.Printf("⚠️ [Answer] retrieval failed, answering without knowledge base: %v", err)
			matches = nil
		}
	}

	msgs, err := prompt.AnswerMessages(qd, req.ContractContent, matches)
	if err != nil {
		return qd, nil, err
	}
	return qd, msgs, nil
}

// Answer returns the full answer with the question chain data.
func (s *AnswerService) Answer(ctx context.Context, req types.AskRequest) (*types.AskResponse, error) {
	start := time.Now()
	qd, msgs, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.chatModel.Generate(callCtx, msgs, chat.AnswerOptions...)
	if err != nil {
		return nil, fmt.Errorf("generate answer failed: %w", err)
	}
	if resp == nil {
		return nil, errors.New("generate answer failed: empty response")
	}
	log.Printf(">>> [Answer] answered in %v", time.Since(start))
	return &types.AskResponse{Answer: resp.Content, QuestionData: qd}, nil
}

// AnswerStream streams answer fragments. The stream always ends with
// vars.StreamDone; a failure is reported as one "Error: <msg>" fragment
// right before it. Closing the reader early stops the producer.
func (s *AnswerService) AnswerStream(ctx context.Context, req types.AskRequest) *schema.StreamReader[string] {
	sr, sw := schema.Pipe[string](16)
	go func() {
		defer sw.Close()
		err := s.streamInto(ctx, req, sw)
		if errors.Is(err, errStreamClosed) {
			return
		}
		if err != nil {
			log.Printf("❌ [Answer] stream failed: %v", err)
			if sw.Send(vars.StreamErrorPrefix+err.Error(), nil) {
				return
			}
		}
		sw.Send(vars.StreamDone, nil)
	}()
	return sr
}

func (s *AnswerService) streamInto(ctx context.Context, req types.AskRequest, sw *schema.StreamWriter[string]) error {
	start := time.Now()
	_, msgs, err := s.prepare(ctx, req)
	if err != nil {
		return err
	}

	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	stream, err := s.chatModel.Stream(callCtx, msgs, chat.AnswerOptions...)
	if err != nil {
		return fmt.Errorf("start answer stream failed: %w", err)
	}
	defer stream.Close()

	fragments := 0
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			log.Printf(">>> [Answer] streamed %d fragments in %v", fragments, time.Since(start))
			return nil
		}
		if err != nil {
			return err
		}
		if msg == nil || msg.Content == "" {
			continue
		}
		if closed := sw.Send(msg.Content, nil); closed {
			return errStreamClosed
		}
		fragments++
	}
}

// Ping makes one short round trip to the chat model.
func (s *AnswerService) Ping(ctx context.Context) (string, error) {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	resp, err := s.chatModel.Generate(callCtx, []*schema.Message{schema.UserMessage(vars.PING)}, chat.PingOptions...)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New("empty response")
	}
	return strings.TrimSpace(resp.Content), nil
}

func (s *AnswerService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
