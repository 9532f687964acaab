package model

import "strings"

// RiskLevel is the risk band of a product.
type RiskLevel string

// Risk level constants.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ParseRiskLevel normalizes a risk level string. Unknown values are returned
// as-is and fail Valid.
func ParseRiskLevel(s string) RiskLevel {
	return RiskLevel(strings.ToLower(strings.TrimSpace(s)))
}

// Valid reports whether r is one of the known risk levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	default:
		return false
	}
}

// Product is a wealth-management product offered to clients.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Description string    `json:"description"`
}
