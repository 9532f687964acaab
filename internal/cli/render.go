package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/wealth-advisor/internal/model"
	"github.com/Veraticus/wealth-advisor/internal/service"
)

// RenderTable lays out rows under a bold header, padding each column to its
// widest cell.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = TableCellStyle.Width(widths[i] + 2).Render(cell)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}

	lines := []string{renderRow(headers, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderClients renders client profiles as a table.
func RenderClients(clients []model.ClientProfile) string {
	if len(clients) == 0 {
		return FormatInfo("No clients in the catalog")
	}

	rows := make([][]string, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, []string{
			c.ID,
			c.Name,
			fmt.Sprintf("%d", c.Age),
			c.RiskProfile,
			c.TimeHorizon,
			strings.Join(c.InvestmentGoals, ", "),
		})
	}
	return RenderTable([]string{"ID", "Name", "Age", "Risk", "Horizon", "Goals"}, rows)
}

// RenderProducts renders products as a table.
func RenderProducts(products []model.Product) string {
	if len(products) == 0 {
		return FormatInfo("No products in the catalog")
	}

	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{p.ID, p.Name, riskStyle(string(p.RiskLevel)).Render(string(p.RiskLevel)), p.Description})
	}
	return RenderTable([]string{"ID", "Name", "Risk", "Description"}, rows)
}

// RenderEnvelope renders an analysis outcome for the terminal.
func RenderEnvelope(env *model.Envelope) string {
	if env == nil {
		return ""
	}

	header := FormatTitle(fmt.Sprintf("Analysis for %s (%s)", env.Client.Name, env.Client.ID))

	if env.Status != model.StatusSuccess {
		msg, _ := env.AIAnalysis["error"].(string)
		details, _ := env.AIAnalysis["details"].(string)
		status, _ := env.AIAnalysis["status"].(string)
		body := FormatError(msg)
		if status != "" {
			body += "\n" + SubtleStyle.Render("status: "+status)
		}
		if details != "" {
			body += "\n" + SubtleStyle.Render(details)
		}
		return lipgloss.JoinVertical(lipgloss.Left, header, body)
	}

	body := RenderAnalysis(env.AIAnalysis)
	if env.RecordID != "" {
		body += "\n" + SubtleStyle.Render("record "+env.RecordID)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// RenderAnalysis renders a model payload. Payloads that do not match the
// expected shape fall back to their keys.
func RenderAnalysis(p model.Payload) string {
	analysis, err := model.DecodeAnalysis(p)
	if err != nil || (analysis.ClientSummary.ProfileOverview == "" && len(analysis.Recommendations) == 0) {
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return FormatInfo("Payload fields: " + strings.Join(keys, ", "))
	}

	var b strings.Builder
	summary := analysis.ClientSummary
	if summary.ProfileOverview != "" {
		b.WriteString(BoldStyle.Render("Overview") + "\n" + summary.ProfileOverview + "\n")
	}
	if summary.RiskAssessment != "" {
		b.WriteString("\n" + BoldStyle.Render("Risk") + "\n" + summary.RiskAssessment + "\n")
	}
	if len(summary.KeyInsights) > 0 {
		b.WriteString("\n" + BoldStyle.Render("Key insights") + "\n")
		for _, insight := range summary.KeyInsights {
			b.WriteString("  • " + insight + "\n")
		}
	}

	if len(analysis.Recommendations) > 0 {
		b.WriteString("\n" + BoldStyle.Render(ChartIcon+" Recommendations") + "\n")
		for i, r := range analysis.Recommendations {
			fmt.Fprintf(&b, "%d. %s %s %s\n",
				i+1,
				BoldStyle.Render(r.ProductName),
				riskStyle(r.RiskLevel).Render("["+r.RiskLevel+" risk]"),
				SubtleStyle.Render(fmt.Sprintf("priority %s, confidence %.0f%%", r.Priority, r.Confidence*100)))
			if r.Reason != "" {
				b.WriteString("   " + r.Reason + "\n")
			}
		}
	}

	return RenderBox(RobotIcon+" Model analysis", strings.TrimRight(b.String(), "\n"))
}

// RenderRecords renders a client's history as a table.
func RenderRecords(records []model.AnalysisRecord) string {
	if len(records) == 0 {
		return FormatInfo("No analyses stored")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = SubtleStyle.Render("(legacy)")
		}
		rows = append(rows, []string{r.Timestamp, id, fmt.Sprintf("%d", len(r.AnalysisData))})
	}
	return RenderTable([]string{"Timestamp", "Record", "Fields"}, rows)
}

// RenderStats renders history totals.
func RenderStats(stats service.HistoryStats) string {
	lines := []string{
		fmt.Sprintf("%s %d", BoldStyle.Render("Total analyses:"), stats.TotalAnalyses),
		fmt.Sprintf("%s %d", BoldStyle.Render("Clients:"), len(stats.ClientIDs)),
	}
	if len(stats.ClientIDs) > 0 {
		lines = append(lines, SubtleStyle.Render(strings.Join(stats.ClientIDs, ", ")))
	}
	return RenderBox(ChartIcon+" History", strings.Join(lines, "\n"))
}

func riskStyle(level string) lipgloss.Style {
	switch model.ParseRiskLevel(level) {
	case model.RiskLow:
		return SuccessStyle
	case model.RiskMedium:
		return WarningStyle
	case model.RiskHigh:
		return ErrorStyle
	default:
		return SubtleStyle
	}
}
