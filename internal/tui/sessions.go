package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// sessionStateColor returns a foreground colour for a session state.
func sessionStateColor(state models.SessionState) lipgloss.Color {
	switch state {
	case models.SessionActive:
		return lipgloss.Color("2") // green
	case models.SessionCompleted:
		return lipgloss.Color("8") // grey
	case models.SessionError:
		return lipgloss.Color("1") // red
	default:
		return lipgloss.Color("8")
	}
}

// renderSessions renders the Sessions tab: the session list of the node
// selected on the Nodes tab.
func renderSessions(sessions []models.Session, nodeID string, cursor, width int) string {
	var sb strings.Builder
	if nodeID != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  node %s", nodeID)))
		sb.WriteString("\n")
	}
	if len(sessions) == 0 {
		sb.WriteString(dimStyle.Render("  No sessions for this node."))
		return sb.String()
	}

	colID := colWidth(width, 0.20)
	colClient := colWidth(width, 0.22)
	colStatus := colWidth(width, 0.12)
	colStart := colWidth(width, 0.14)
	colDur := colWidth(width, 0.10)
	colBytes := colWidth(width, 0.12)

	header := strings.Join([]string{
		headerCellStyle.Width(colID).Render("SESSION"),
		headerCellStyle.Width(colClient).Render("CLIENT"),
		headerCellStyle.Width(colStatus).Render("STATUS"),
		headerCellStyle.Width(colStart).Render("STARTED"),
		headerCellStyle.Width(colDur).Render("DURATION"),
		headerCellStyle.Width(colBytes).Render("TRANSFERRED"),
	}, "")

	rows := []string{header}
	for i, s := range sessions {
		style := rowStyle
		if i == cursor {
			style = selectedRowStyle
		}
		statusCell := lipgloss.NewStyle().
			Width(colStatus).
			Foreground(sessionStateColor(s.Status)).
			Render(truncate(string(s.Status), colStatus-1))

		rows = append(rows, strings.Join([]string{
			style.Width(colID).Render(truncate(s.SessionID, colID-1)),
			style.Width(colClient).Render(truncate(s.ClientWallet, colClient-1)),
			statusCell,
			style.Width(colStart).Render(s.StartedAt.Format("15:04:05")),
			style.Width(colDur).Render(sessionDuration(s)),
			style.Width(colBytes).Render(fmt.Sprintf("%.1f MB", s.TotalBytesMB)),
		}, ""))
	}

	sb.WriteString(strings.Join(rows, "\n"))
	return sb.String()
}

// sessionDuration prefers the server-reported duration; live sessions
// fall back to wall-clock elapsed time.
func sessionDuration(s models.Session) string {
	secs := s.DurationSeconds
	if secs == 0 && s.EndedAt == nil {
		secs = int64(time.Since(s.StartedAt).Seconds())
	}
	return fmtDuration(secs)
}
