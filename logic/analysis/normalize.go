package analysis

import (
	"fmt"
	"strings"

	"contract-risk-rag/types"
)

// EnumKind selects the normalization table.
type EnumKind int

const (
	KindRiskLevel EnumKind = iota
	KindSeverity
	KindLikelihood
)

var (
	riskLevelOrder = []string{types.LevelLow, types.LevelMedium, types.LevelHigh, types.LevelCritical}
	ratingOrder    = []string{types.LevelHigh, types.LevelMedium, types.LevelLow}
)

// NormalizeEnum maps free text onto the allowed values by case-insensitive
// substring match, first hit wins. Empty or unrecognized input is Medium.
func NormalizeEnum(value any, kind EnumKind) string {
	if value == nil {
		return types.LevelMedium
	}
	v := strings.ToLower(strings.TrimSpace(fmt.Sprint(value)))
	if v == "" {
		return types.LevelMedium
	}
	order := ratingOrder
	if kind == KindRiskLevel {
		order = riskLevelOrder
	}
	for _, level := range order {
		if strings.Contains(v, strings.ToLower(level)) {
			return level
		}
	}
	return types.LevelMedium
}
