package postgres

import "time"

// AnalysisRecord is one persisted risk report.
type AnalysisRecord struct {
	ID               string    `gorm:"column:id;primaryKey;type:uuid"`
	ContractID       string    `gorm:"column:contract_id;type:varchar(255);not null;index"`
	RiskLevel        string    `gorm:"column:risk_level;type:varchar(20)"`
	OverallRiskScore int       `gorm:"column:overall_risk_score"`
	RiskCount        int       `gorm:"column:risk_count"`
	Failed           bool      `gorm:"column:failed;index"`
	Report           string    `gorm:"column:report;type:jsonb;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;index"`
}

func (AnalysisRecord) TableName() string {
	return "contract_analyses"
}
