package types

import "time"

const (
	LevelLow      = "Low"
	LevelMedium   = "Medium"
	LevelHigh     = "High"
	LevelCritical = "Critical"
	LevelUnknown  = "Unknown"

	FailedSummary = "Analysis failed due to an error"
)

// RiskReport is the validated output of a contract analysis.
type RiskReport struct {
	ContractID       string `json:"contract_id" validate:"required"`
	GeneratedAt      string `json:"generated_at" validate:"required"`
	OverallSummary   string `json:"overall_summary"`
	OverallRiskScore int    `json:"overall_risk_score" validate:"min=0,max=100"`
	RiskLevel        string `json:"risk_level" validate:"oneof=Low Medium High Critical"`
	ContextUsed      *int   `json:"context_used,omitempty"`
	Risks            []Risk `json:"risks" validate:"required,dive"`

	// Error is only set on degraded reports.
	Error string `json:"error,omitempty"`
}

type Risk struct {
	RiskID            string     `json:"risk_id"`
	Title             string     `json:"title"`
	Category          string     `json:"category"`
	Severity          string     `json:"severity" validate:"oneof=High Medium Low"`
	Likelihood        string     `json:"likelihood" validate:"oneof=High Medium Low"`
	Score             int        `json:"score" validate:"min=0,max=100"`
	WhyRisky          string     `json:"why_risky"`
	Evidence          []Evidence `json:"evidence" validate:"min=1,dive"`
	Mitigations       []string   `json:"mitigations" validate:"min=1"`
	RedlineSuggestion string     `json:"redline_suggestion"`
	Tags              []string   `json:"tags,omitempty"`
}

type Evidence struct {
	SectionRef       string  `json:"section_ref"`
	Quote            string  `json:"quote"`
	Confidence       float64 `json:"confidence" validate:"min=0,max=1"`
	ContextSupported *bool   `json:"context_supported,omitempty"`
}

// Failed reports whether this is the degraded error shape.
func (r *RiskReport) Failed() bool {
	return r.Error != ""
}

// KBSupported reports whether any evidence item is backed by the knowledge base.
func (r Risk) KBSupported() bool {
	for _, e := range r.Evidence {
		if e.ContextSupported != nil && *e.ContextSupported {
			return true
		}
	}
	return false
}

// FailedReport is the single error contract of the analysis pipeline.
func FailedReport(contractID string, err error) *RiskReport {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &RiskReport{
		ContractID:       contractID,
		GeneratedAt:      time.Now().UTC().Format(time.RFC3339),
		OverallSummary:   FailedSummary,
		OverallRiskScore: 0,
		RiskLevel:        LevelUnknown,
		Risks:            []Risk{},
		Error:            msg,
	}
}

type AnalyzeRequest struct {
	ContractContent string `json:"contractContent" binding:"required"`
	ContractID      string `json:"contractId" binding:"required"`
}

type AnalyzeResponse struct {
	Success    bool        `json:"success"`
	Analysis   *RiskReport `json:"analysis"`
	Summary    string      `json:"summary"`
	ContractID string      `json:"contractId"`
}
