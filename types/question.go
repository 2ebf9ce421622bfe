package types

// StageOutcome tags how one pipeline stage finished.
type StageOutcome string

const (
	StageSuccess  StageOutcome = "success"
	StageFallback StageOutcome = "fallback"
)

// QuestionChainResult is built per request and dropped after the response.
type QuestionChainResult struct {
	OriginalQuestion string   `json:"originalQuestion"`
	EnhancedQuestion string   `json:"enhancedQuestion"`
	KeyTerms         []string `json:"keyTerms"`
	SearchQuery      string   `json:"searchQuery"`
	Timestamp        string   `json:"timestamp"`
	Error            string   `json:"error,omitempty"`

	EnhanceOutcome StageOutcome `json:"-"`
	TermsOutcome   StageOutcome `json:"-"`
}

type AskRequest struct {
	Prompt          string `json:"prompt"`
	ContractContent string `json:"contractContent,omitempty"`
}

type AskResponse struct {
	Answer       string               `json:"answer"`
	QuestionData *QuestionChainResult `json:"questionData"`
}
