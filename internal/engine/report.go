package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/kimama4423/kubestrap/internal/model"
)

// WriteReport persists one run report as a YAML artifact named by
// component and timestamp. Artifacts are append-only within a run and
// namespaced, so concurrent runs against different components cannot
// corrupt each other's records.
func WriteReport(dir string, report *model.RunReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	stamp := report.StartedAt
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}

	path := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", report.Component, stamp.Format(backupTimestampLayout)))
	data, err := yaml.Marshal(report)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true)

	statusStyles = map[model.FinalStatus]lipgloss.Style{
		model.StatusSuccess:        lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		model.StatusPartialSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		model.StatusSkipped:        lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		model.StatusFailed:         lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		model.StatusRolledBack:     lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
)

// RenderSummary produces the human-readable run summary: one line per
// component plus the operator's next action for anything that went wrong.
func RenderSummary(reports []*model.RunReport) string {
	var b strings.Builder

	b.WriteString(summaryTitleStyle.Render("Provisioning summary"))
	b.WriteString("\n")

	for _, report := range reports {
		style, ok := statusStyles[report.FinalStatus]
		if !ok {
			style = lipgloss.NewStyle()
		}

		b.WriteString(fmt.Sprintf("  %-20s %s", report.Component, style.Render(string(report.FinalStatus))))
		if report.Reason != "" {
			b.WriteString("  " + report.Reason)
		}
		b.WriteString("\n")

		if location := report.BackupLocation(); location != "" &&
			(report.FinalStatus == model.StatusFailed || report.FinalStatus == model.StatusRolledBack) {
			b.WriteString(fmt.Sprintf("  %-20s backup: %s\n", "", location))
		}
		if report.ManualRecovery {
			b.WriteString(fmt.Sprintf("  %-20s manual recovery required\n", ""))
		}
		for _, warning := range report.Warnings {
			b.WriteString(fmt.Sprintf("  %-20s warning: %s\n", "", warning))
		}
	}

	return b.String()
}
