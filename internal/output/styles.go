package output

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/querylens/querylens/internal/report"
)

// Colors
var (
	ColorGood    = lipgloss.Color("#04B575") // green
	ColorWarning = lipgloss.Color("#FFB800") // yellow
	ColorDanger  = lipgloss.Color("#FF4040") // red
	ColorInfo    = lipgloss.Color("#00BFFF") // cyan
	ColorMuted   = lipgloss.Color("#666666") // gray
	ColorLabel   = lipgloss.Color("#AAAAAA") // light gray for labels
)

// Box styles
var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorInfo).
			Padding(0, 1)

	GoodBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGood).
			Padding(0, 1)

	WarningBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorWarning).
			Padding(0, 1)

	DangerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDanger).
			Padding(0, 1)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorInfo)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorLabel).
			Width(18)

	ValueStyle = lipgloss.NewStyle()

	GoodText = lipgloss.NewStyle().
			Foreground(ColorGood).
			Bold(true)

	WarningText = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	DangerText = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)

	MutedText = lipgloss.NewStyle().
			Foreground(ColorMuted)

	CodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E0E0E0"))
)

// gradeStyle maps a letter grade to its display style.
func gradeStyle(grade string) lipgloss.Style {
	switch grade {
	case "A", "B":
		return GoodText
	case "C":
		return WarningText
	default:
		return DangerText
	}
}

// gradeBoxStyle picks the box border color for the verdict.
func gradeBoxStyle(grade string) lipgloss.Style {
	switch grade {
	case "A", "B":
		return GoodBoxStyle
	case "C":
		return WarningBoxStyle
	default:
		return DangerBoxStyle
	}
}

// severityStyle maps a finding severity to its display style.
func severityStyle(s report.Severity) lipgloss.Style {
	switch s {
	case report.SeverityCritical:
		return DangerText
	case report.SeverityWarning:
		return WarningText
	case report.SeverityOptimization:
		return GoodText
	default:
		return MutedText
	}
}
