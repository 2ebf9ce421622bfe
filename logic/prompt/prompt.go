package prompt

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"contract-risk-rag/types"
	"contract-risk-rag/vars"

	"github.com/cloudwego/eino/schema"
)

var (
	answerSystemTpl = template.Must(template.New("answer").Parse(vars.ANSWERSYSTEM))
	analysisUserTpl = template.Must(template.New("analysis").Parse(vars.ANALYSISUSER))
)

// Truncate keeps at most n characters of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// KBContext numbers matches as [#i | pg:p | sim:0.00] blocks.
func KBContext(matches []types.RetrievedMatch) string {
	blocks := make([]string, 0, len(matches))
	for i, m := range matches {
		page := "?"
		if p, ok := m.Page(); ok {
			page = strconv.Itoa(p)
		}
		blocks = append(blocks, fmt.Sprintf("[#%d | pg:%s | sim:%.2f]\n%s", i+1, page, m.Similarity, m.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// ReferenceContext renders matches as [Reference i | Similarity: 0.00]
// blocks, or the no-context notice when there are none.
func ReferenceContext(matches []types.RetrievedMatch) string {
	if len(matches) == 0 {
		return vars.NOKBCONTEXT
	}
	blocks := make([]string, 0, len(matches))
	for i, m := range matches {
		blocks = append(blocks, fmt.Sprintf("[Reference %d | Similarity: %.2f]\n%s", i+1, m.Similarity, m.Content))
	}
	return strings.Join(blocks, "\n\n")
}

// AnswerMessages builds the system and user messages for a question.
func AnswerMessages(qd *types.QuestionChainResult, contract string, matches []types.RetrievedMatch) ([]*schema.Message, error) {
	var sys strings.Builder
	err := answerSystemTpl.Execute(&sys, map[string]string{
		"Original": qd.OriginalQuestion,
		"Enhanced": qd.EnhancedQuestion,
		"KeyTerms": strings.Join(qd.KeyTerms, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("render answer prompt failed: %w", err)
	}

	if strings.TrimSpace(contract) == "" {
		contract = vars.NOCONTRACT
	}
	user := fmt.Sprintf("Question: %s\n\nContract Content:\n%s", qd.EnhancedQuestion, contract)
	if len(matches) > 0 {
		user += "\n\nKnowledge Base Context:\n" + KBContext(matches)
	}
	return []*schema.Message{
		schema.SystemMessage(sys.String()),
		schema.UserMessage(user),
	}, nil
}

// AnalysisMessages builds the risk analysis request.
func AnalysisMessages(contract, contractID, generatedAt string, matches []types.RetrievedMatch) ([]*schema.Message, error) {
	var user strings.Builder
	err := analysisUserTpl.Execute(&user, map[string]any{
		"Contract":    contract,
		"Context":     ReferenceContext(matches),
		"ContractID":  contractID,
		"GeneratedAt": generatedAt,
		"ContextUsed": len(matches),
	})
	if err != nil {
		return nil, fmt.Errorf("render analysis prompt failed: %w", err)
	}
	return []*schema.Message{
		schema.SystemMessage(vars.ANALYSISSYSTEM),
		schema.UserMessage(user.String()),
	}, nil
}

// ContractSearchQuery builds the retrieval query for a contract: a prefix
// plus the extracted terms, or a longer prefix without them.
func ContractSearchQuery(contract string, terms []string) string {
	if len(terms) == 0 {
		return Truncate(contract, 1000)
	}
	return Truncate(contract, 500) + " " + strings.Join(terms, " ")
}
