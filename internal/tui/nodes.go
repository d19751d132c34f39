package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// nodeStateColor returns a lipgloss foreground colour for a node state.
func nodeStateColor(state models.NodeState) lipgloss.Color {
	switch state {
	case models.NodeOnline:
		return lipgloss.Color("2") // green
	case models.NodeOffline:
		return lipgloss.Color("1") // red
	case models.NodeSuspended:
		return lipgloss.Color("3") // yellow
	default:
		return lipgloss.Color("8") // grey
	}
}

// renderNodes renders the Nodes tab as a lipgloss-styled table. cursor
// marks the selected row; width constrains the column layout.
func renderNodes(nodes []models.Node, cursor, width int) string {
	if len(nodes) == 0 {
		return dimStyle.Render("  No nodes registered. Generate a code on the Codes tab to add one.")
	}

	colName := colWidth(width, 0.22)
	colStatus := colWidth(width, 0.11)
	colIP := colWidth(width, 0.17)
	colSessions := colWidth(width, 0.10)
	colTraffic := colWidth(width, 0.12)
	colSeen := colWidth(width, 0.14)

	header := strings.Join([]string{
		headerCellStyle.Width(colName).Render("NAME"),
		headerCellStyle.Width(colStatus).Render("STATUS"),
		headerCellStyle.Width(colIP).Render("IP"),
		headerCellStyle.Width(colSessions).Render("SESSIONS"),
		headerCellStyle.Width(colTraffic).Render("TRAFFIC"),
		headerCellStyle.Width(colSeen).Render("LAST SEEN"),
	}, "")

	rows := []string{header}
	for i, n := range nodes {
		style := rowStyle
		if i == cursor {
			style = selectedRowStyle
		}
		statusCell := lipgloss.NewStyle().
			Width(colStatus).
			Foreground(nodeStateColor(n.Status)).
			Render(truncate(string(n.Status), colStatus-1))

		row := strings.Join([]string{
			style.Width(colName).Render(truncate(n.Name, colName-1)),
			statusCell,
			style.Width(colIP).Render(truncate(n.PublicIP, colIP-1)),
			style.Width(colSessions).Render(fmt.Sprintf("%d", n.CurrentSessions)),
			style.Width(colTraffic).Render(truncate(fmtGB(n.TotalTrafficGB), colTraffic-1)),
			style.Width(colSeen).Render(truncate(fmtHeartbeat(n.LastHeartbeat), colSeen-1)),
		}, "")
		rows = append(rows, row)
	}

	return strings.Join(rows, "\n")
}

// renderNodeDetail renders the detail pane opened with enter.
func renderNodeDetail(d *models.NodeDetail, width int) string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Width(16)
	line := func(name, value string) string {
		return label.Render(name) + truncate(value, width-18)
	}

	lines := []string{
		titleStyle.Render(fmt.Sprintf(" %s ", d.Name)),
		"",
		line("ID", d.ID),
		line("Status", string(d.Status)),
		line("Address", fmt.Sprintf("%s:%d", d.PublicIP, d.Port)),
		line("Version", d.Version),
		line("Owner", d.OwnerWallet),
		line("Verified", fmt.Sprintf("%t", d.IsVerified)),
		line("Last seen", fmtHeartbeat(d.LastHeartbeat)),
		line("Sessions", fmt.Sprintf("%d active / %d total", d.CurrentSessions, d.TotalSessions)),
		line("Traffic", fmtGB(d.TotalTrafficGB)),
		line("Uptime", fmtDuration(d.TotalUptimeSeconds)),
		line("Registered", d.CreatedAt.Format("2006-01-02 15:04")),
	}
	if d.Hardware != nil {
		hw := d.Hardware
		lines = append(lines,
			"",
			line("Hardware", fmt.Sprintf("%s/%s, %d cores, %d GB RAM, %d GB disk",
				hw.OS, hw.Arch, hw.CPUCores, hw.MemoryGB, hw.DiskGB)),
			line("Hostname", hw.Hostname),
		)
	}
	lines = append(lines, "", dimStyle.Render("  esc: back"))

	return strings.Join(lines, "\n")
}

// fmtHeartbeat renders a last-heartbeat timestamp as a relative age.
func fmtHeartbeat(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	d := time.Since(*t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// fmtGB renders a traffic volume, stepping up to TB when it gets big.
func fmtGB(gb float64) string {
	if gb >= 1024 {
		return fmt.Sprintf("%.2f TB", gb/1024)
	}
	return fmt.Sprintf("%.2f GB", gb)
}

// fmtDuration renders whole seconds as a compact d/h/m string.
func fmtDuration(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	d := time.Duration(secs) * time.Second
	days := int(d.Hours()) / 24
	h := int(d.Hours()) % 24
	m := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd%dh", days, h)
	case h > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// colWidth converts a fractional width into an integer column width,
// leaving a small gutter between columns.
func colWidth(totalWidth int, fraction float64) int {
	w := int(float64(totalWidth) * fraction)
	if w < 8 {
		w = 8
	}
	return w
}

// truncate shortens s to maxLen runes, appending "…" if truncation occurred.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return fmt.Sprintf("%s…", string(runes[:maxLen-1]))
}
