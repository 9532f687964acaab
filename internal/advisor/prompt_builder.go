package advisor

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Veraticus/wealth-advisor/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultInstitution is the brand named in prompts when none is configured.
const DefaultInstitution = "HSBC"

// PromptBuilder renders the analysis prompt sent to the model.
type PromptBuilder interface {
	BuildAnalysisPrompt(data PromptData) (string, error)
}

// PromptData contains everything the analysis prompt renders.
type PromptData struct {
	Client      model.ClientProfile
	Institution string
	Products    []model.Product
}

// TemplatePromptBuilder renders prompts from embedded templates.
type TemplatePromptBuilder struct {
	analysis       *template.Template
	responseFormat string
}

// NewTemplatePromptBuilder parses the embedded templates.
func NewTemplatePromptBuilder() (*TemplatePromptBuilder, error) {
	printer := message.NewPrinter(language.English)

	funcMap := template.FuncMap{
		"formatAmount": func(amount float64) string { return formatAmount(printer, amount) },
		"join":         strings.Join,
	}

	tmpl, err := template.New("analysis_prompt.tmpl").Funcs(funcMap).ParseFS(templateFS, "templates/analysis_prompt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse template analysis_prompt: %w", err)
	}

	format, err := json.MarshalIndent(exampleResponse(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode response format: %w", err)
	}

	return &TemplatePromptBuilder{
		analysis:       tmpl,
		responseFormat: string(format),
	}, nil
}

// BuildAnalysisPrompt renders the client profile, the product list, and the
// expected JSON response shape.
func (pb *TemplatePromptBuilder) BuildAnalysisPrompt(data PromptData) (string, error) {
	if data.Institution == "" {
		data.Institution = DefaultInstitution
	}

	full := struct {
		ResponseFormat string
		PromptData
	}{
		PromptData:     data,
		ResponseFormat: pb.responseFormat,
	}

	var buf bytes.Buffer
	if err := pb.analysis.ExecuteTemplate(&buf, "analysis_prompt.tmpl", full); err != nil {
		return "", fmt.Errorf("failed to execute analysis_prompt template: %w", err)
	}

	return buf.String(), nil
}

// formatAmount renders whole amounts without decimals and others with two,
// both with thousands separators.
func formatAmount(p *message.Printer, amount float64) string {
	if amount == math.Trunc(amount) && math.Abs(amount) < 1e15 {
		return p.Sprintf("$%d", int64(amount))
	}
	return p.Sprintf("$%.2f", amount)
}

func exampleResponse() model.Analysis {
	return model.Analysis{
		ClientSummary: model.ClientSummary{
			ProfileOverview: "Brief overview of client's financial situation",
			KeyInsights: []string{
				"Key insight 1 about the client",
				"Key insight 2 about the client",
				"Key insight 3 about the client",
			},
			RiskAssessment: "Assessment of client's risk tolerance and capacity",
		},
		Recommendations: []model.Recommendation{
			{
				ProductID:   "1",
				ProductName: "Retirement Fund",
				Reason:      "Detailed explanation of why this product suits the client based on their specific data points",
				RiskLevel:   "low",
				Confidence:  0.85,
				Priority:    "high",
			},
		},
	}
}
