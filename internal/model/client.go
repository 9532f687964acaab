// Package model defines the core domain models used throughout the application.
package model

// ClientProfile is a client's financial profile as held by the catalog.
type ClientProfile struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	RiskProfile          string   `json:"risk_profile"`
	TimeHorizon          string   `json:"time_horizon"`
	EmploymentStatus     string   `json:"employment_status"`
	InvestmentExperience string   `json:"investment_experience"`
	InvestmentGoals      []string `json:"investment_goals"`
	AnnualIncome         float64  `json:"annual_income"`
	CurrentSavings       float64  `json:"current_savings"`
	MonthlySurplus       float64  `json:"monthly_surplus"`
	Age                  int      `json:"age"`
	Dependents           int      `json:"dependents"`
}
