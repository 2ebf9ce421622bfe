package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"contract-risk-rag/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportRepo wraps every operation on the contract_analyses table.
type ReportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Create inserts a record.
func (r *ReportRepo) Create(ctx context.Context, rec *AnalysisRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

// SaveReport persists a report, degraded ones included.
func (r *ReportRepo) SaveReport(ctx context.Context, report *types.RiskReport) error {
	rec, err := NewAnalysisRecord(report, time.Now())
	if err != nil {
		return err
	}
	return r.Create(ctx, rec)
}

// ListByContractID returns the newest reports for a contract first.
func (r *ReportRepo) ListByContractID(ctx context.Context, contractID string, limit int) ([]types.RiskReport, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []AnalysisRecord
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	reports := make([]types.RiskReport, 0, len(recs))
	for _, rec := range recs {
		var report types.RiskReport
		if err := json.Unmarshal([]byte(rec.Report), &report); err != nil {
			return nil, fmt.Errorf("decode report %s failed: %w", rec.ID, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// DeleteOlderThan prunes reports created before cutoff.
func (r *ReportRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&AnalysisRecord{})
	return result.RowsAffected, result.Error
}

// NewAnalysisRecord flattens a report into its table row.
func NewAnalysisRecord(report *types.RiskReport, now time.Time) (*AnalysisRecord, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report failed: %w", err)
	}
	return &AnalysisRecord{
		ID:               uuid.NewString(),
		ContractID:       report.ContractID,
		RiskLevel:        report.RiskLevel,
		OverallRiskScore: report.OverallRiskScore,
		RiskCount:        len(report.Risks),
		Failed:           report.Failed(),
		Report:           string(raw),
		CreatedAt:        now,
	}, nil
}
