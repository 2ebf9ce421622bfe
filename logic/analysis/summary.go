package analysis

import (
	"fmt"
	"math"
	"strings"

	"contract-risk-rag/types"
)

// CalculateOverallRisk averages the risk scores. The level is Critical from
// 75, High from 50, Medium from 25 and Low otherwise.
func CalculateOverallRisk(risks []types.Risk) (int, string) {
	if len(risks) == 0 {
		return 0, types.LevelLow
	}
	total := 0
	for _, r := range risks {
		total += r.Score
	}
	avg := float64(total) / float64(len(risks))

	level := types.LevelLow
	switch {
	case avg >= 75:
		level = types.LevelCritical
	case avg >= 50:
		level = types.LevelHigh
	case avg >= 25:
		level = types.LevelMedium
	}
	return int(math.Round(avg)), level
}

// GenerateRiskSummary renders a report as a plain-text digest.
func GenerateRiskSummary(report *types.RiskReport) string {
	if report == nil {
		return ""
	}
	if report.Failed() {
		return "Analysis Error: " + report.Error
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall Risk Score: %d/100 (%s Risk Level)\n", report.OverallRiskScore, report.RiskLevel)
	if report.ContextUsed != nil && *report.ContextUsed > 0 {
		fmt.Fprintf(&sb, "Enhanced with %d knowledge base references\n", *report.ContextUsed)
	}
	fmt.Fprintf(&sb, "\nFound %d potential risks:\n\n", len(report.Risks))

	for i, r := range report.Risks {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, r.Title, r.Category)
		fmt.Fprintf(&sb, "   Severity: %s | Likelihood: %s | Score: %d/100\n", r.Severity, r.Likelihood, r.Score)
		fmt.Fprintf(&sb, "   Why Risky: %s\n", r.WhyRisky)
		fmt.Fprintf(&sb, "   Mitigations: %s\n", strings.Join(r.Mitigations, ", "))
		if r.KBSupported() {
			sb.WriteString("   📚 Knowledge base supported\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
