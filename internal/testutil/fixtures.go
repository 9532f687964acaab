package testutil

import "github.com/Veraticus/wealth-advisor/internal/model"

// SampleClients returns two clients with contrasting risk profiles.
func SampleClients() []model.ClientProfile {
	return []model.ClientProfile{
		{
			ID:                   "C001",
			Name:                 "Alice Chan",
			Age:                  34,
			AnnualIncome:         120000,
			RiskProfile:          "aggressive",
			InvestmentGoals:      []string{"wealth growth", "early retirement"},
			TimeHorizon:          "long-term",
			CurrentSavings:       85000,
			MonthlySurplus:       3500,
			Dependents:           0,
			EmploymentStatus:     "employed",
			InvestmentExperience: "advanced",
		},
		{
			ID:                   "C002",
			Name:                 "Bernard Okafor",
			Age:                  61,
			AnnualIncome:         64000.5,
			RiskProfile:          "conservative",
			InvestmentGoals:      []string{"capital preservation", "income"},
			TimeHorizon:          "short-term",
			CurrentSavings:       310000,
			MonthlySurplus:       900,
			Dependents:           1,
			EmploymentStatus:     "part-time",
			InvestmentExperience: "beginner",
		},
	}
}

// SampleProducts returns one product per risk level.
func SampleProducts() []model.Product {
	return []model.Product{
		{ID: "1", Name: "Retirement Fund", RiskLevel: model.RiskLow, Description: "Government and investment-grade bonds"},
		{ID: "2", Name: "Balanced Portfolio", RiskLevel: model.RiskMedium, Description: "Mixed equity and fixed income"},
		{ID: "3", Name: "Global Technology Fund", RiskLevel: model.RiskHigh, Description: "Concentrated growth equities"},
	}
}
