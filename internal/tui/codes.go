package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/AeroNyxNetwork/nodeboard/pkg/codes"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// codeStatusColor returns a foreground colour for a registration-code
// status.
func codeStatusColor(status models.CodeStatus) lipgloss.Color {
	switch status {
	case models.CodeUnused:
		return lipgloss.Color("2") // green
	case models.CodeUsed:
		return lipgloss.Color("8") // grey
	case models.CodeExpired:
		return lipgloss.Color("3") // yellow
	case models.CodeRevoked:
		return lipgloss.Color("1") // red
	default:
		return lipgloss.Color("8")
	}
}

// renderCodes renders the Codes tab. Countdowns are derived from now so
// the one-second re-render advances them without refetching.
func renderCodes(list []models.RegistrationCode, cursor, width int, now time.Time) string {
	if len(list) == 0 {
		return dimStyle.Render("  No registration codes. Press g to generate one.")
	}

	colCode := colWidth(width, 0.20)
	colStatus := colWidth(width, 0.12)
	colExpires := colWidth(width, 0.14)
	colCreated := colWidth(width, 0.16)
	colNode := colWidth(width, 0.22)

	header := strings.Join([]string{
		headerCellStyle.Width(colCode).Render("CODE"),
		headerCellStyle.Width(colStatus).Render("STATUS"),
		headerCellStyle.Width(colExpires).Render("EXPIRES IN"),
		headerCellStyle.Width(colCreated).Render("CREATED"),
		headerCellStyle.Width(colNode).Render("NODE"),
	}, "")

	rows := []string{header}
	for i, c := range list {
		style := rowStyle
		if i == cursor {
			style = selectedRowStyle
		}
		status := c.EffectiveStatus(now)
		statusCell := lipgloss.NewStyle().
			Width(colStatus).
			Foreground(codeStatusColor(status)).
			Render(truncate(string(status), colStatus-1))

		rows = append(rows, strings.Join([]string{
			style.Width(colCode).Render(truncate(c.Code, colCode-1)),
			statusCell,
			style.Width(colExpires).Render(codeCountdown(c, now)),
			style.Width(colCreated).Render(c.CreatedAt.Format("15:04:05")),
			style.Width(colNode).Render(truncate(codeNode(c), colNode-1)),
		}, ""))
	}

	return strings.Join(rows, "\n")
}

// codeCountdown renders the remaining lifetime of a still-usable code.
// Terminal codes show a dash: there is nothing left to count down.
func codeCountdown(c models.RegistrationCode, now time.Time) string {
	if c.EffectiveStatus(now) != models.CodeUnused {
		return "-"
	}
	return codes.TimeRemaining(c.ExpiresAt, now).Formatted
}

func codeNode(c models.RegistrationCode) string {
	if c.NodeID == nil {
		return "-"
	}
	return *c.NodeID
}
