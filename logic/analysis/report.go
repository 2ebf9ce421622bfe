package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"contract-risk-rag/types"
)

// rawReport is the loosely typed LLM output before normalization. Pointer
// fields tell an absent key apart from an empty value.
type rawReport struct {
	ContractID       string    `json:"contract_id"`
	GeneratedAt      string    `json:"generated_at"`
	OverallSummary   *string   `json:"overall_summary"`
	OverallRiskScore *float64  `json:"overall_risk_score"`
	RiskLevel        any       `json:"risk_level"`
	ContextUsed      *float64  `json:"context_used"`
	Risks            []rawRisk `json:"risks"`
}

type rawRisk struct {
	RiskID            *string       `json:"risk_id"`
	Title             *string       `json:"title"`
	Category          *string       `json:"category"`
	Severity          any           `json:"severity"`
	Likelihood        any           `json:"likelihood"`
	Score             *float64      `json:"score"`
	WhyRisky          *string       `json:"why_risky"`
	Evidence          []rawEvidence `json:"evidence"`
	Mitigations       []string      `json:"mitigations"`
	RedlineSuggestion *string       `json:"redline_suggestion"`
	Tags              []string      `json:"tags"`
}

type rawEvidence struct {
	SectionRef       *string  `json:"section_ref"`
	Quote            *string  `json:"quote"`
	Confidence       *float64 `json:"confidence"`
	ContextSupported *bool    `json:"context_supported"`
}

// presence collects schema problems found while decoding the raw reply.
type presence []string

func (p *presence) str(path string, v *string) string {
	if v == nil {
		*p = append(*p, path+" is required")
		return ""
	}
	return *v
}

func (p *presence) num(path string, v *float64) float64 {
	if v == nil {
		*p = append(*p, path+" is required")
		return 0
	}
	return *v
}

// score checks the 0..100 range on the unrounded value.
func (p *presence) score(path string, v *float64) int {
	if v == nil {
		*p = append(*p, path+" is required")
		return 0
	}
	if *v < 0 || *v > 100 {
		*p = append(*p, fmt.Sprintf("%s must be between 0 and 100 (got %v)", path, *v))
	}
	return round(*v)
}

// ParseReport turns a raw model reply into a validated report. Missing
// contract_id and generated_at are stamped from the request, a missing
// overall score is derived from the risks, and enum fields are normalized.
// Every other schema field must be present, though it may be empty.
func ParseReport(raw, contractID, generatedAt string) (*types.RiskReport, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	var parsed rawReport
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return nil, fmt.Errorf("parse analysis JSON failed: %w", err)
	}

	var problems presence
	report := &types.RiskReport{
		ContractID:     parsed.ContractID,
		GeneratedAt:    parsed.GeneratedAt,
		OverallSummary: problems.str("overall_summary", parsed.OverallSummary),
		Risks:          make([]types.Risk, 0, len(parsed.Risks)),
	}
	if report.ContractID == "" {
		report.ContractID = contractID
	}
	if report.GeneratedAt == "" {
		report.GeneratedAt = generatedAt
	}
	if parsed.ContextUsed != nil {
		n := round(*parsed.ContextUsed)
		report.ContextUsed = &n
	}
	for i, r := range parsed.Risks {
		path := fmt.Sprintf("risks[%d]", i)
		risk := types.Risk{
			RiskID:            problems.str(path+".risk_id", r.RiskID),
			Title:             problems.str(path+".title", r.Title),
			Category:          problems.str(path+".category", r.Category),
			Severity:          NormalizeEnum(r.Severity, KindSeverity),
			Likelihood:        NormalizeEnum(r.Likelihood, KindLikelihood),
			Score:             problems.score(path+".score", r.Score),
			WhyRisky:          problems.str(path+".why_risky", r.WhyRisky),
			Evidence:          make([]types.Evidence, 0, len(r.Evidence)),
			Mitigations:       r.Mitigations,
			RedlineSuggestion: problems.str(path+".redline_suggestion", r.RedlineSuggestion),
			Tags:              r.Tags,
		}
		for j, e := range r.Evidence {
			epath := fmt.Sprintf("%s.evidence[%d]", path, j)
			risk.Evidence = append(risk.Evidence, types.Evidence{
				SectionRef:       problems.str(epath+".section_ref", e.SectionRef),
				Quote:            problems.str(epath+".quote", e.Quote),
				Confidence:       problems.num(epath+".confidence", e.Confidence),
				ContextSupported: e.ContextSupported,
			})
		}
		report.Risks = append(report.Risks, risk)
	}

	report.RiskLevel = NormalizeEnum(parsed.RiskLevel, KindRiskLevel)
	if parsed.OverallRiskScore != nil {
		report.OverallRiskScore = problems.score("overall_risk_score", parsed.OverallRiskScore)
	} else {
		score, level := CalculateOverallRisk(report.Risks)
		report.OverallRiskScore = score
		if parsed.RiskLevel == nil {
			report.RiskLevel = level
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("schema validation failed: %s", strings.Join(problems, "; "))
	}
	if err := Validate(report); err != nil {
		return nil, err
	}
	return report, nil
}

func round(f float64) int {
	return int(math.Round(f))
}
