package postgres

import (
	"testing"
	"time"

	"contract-risk-rag/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatVector(t *testing.T) {
	assert.Equal(t, "[]", FormatVector(nil))
	assert.Equal(t, "[0.5,-1,0.25]", FormatVector([]float64{0.5, -1, 0.25}))
}

func TestNewAnalysisRecord(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	report := &types.RiskReport{
		ContractID:       "contract-42",
		GeneratedAt:      now.Format(time.RFC3339),
		OverallSummary:   "one risk",
		OverallRiskScore: 70,
		RiskLevel:        types.LevelHigh,
		Risks:            []types.Risk{{RiskID: "risk_001", Title: "Termination", Category: "Termination and Breach"}},
	}

	rec, err := NewAnalysisRecord(report, now)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "contract-42", rec.ContractID)
	assert.Equal(t, types.LevelHigh, rec.RiskLevel)
	assert.Equal(t, 70, rec.OverallRiskScore)
	assert.Equal(t, 1, rec.RiskCount)
	assert.False(t, rec.Failed)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Contains(t, rec.Report, `"contract_id":"contract-42"`)
}

func TestNewAnalysisRecordFailedReport(t *testing.T) {
	rec, err := NewAnalysisRecord(types.FailedReport("c1", assert.AnError), time.Now())
	require.NoError(t, err)
	assert.True(t, rec.Failed)
	assert.Equal(t, types.LevelUnknown, rec.RiskLevel)
	assert.Equal(t, 0, rec.RiskCount)
}
