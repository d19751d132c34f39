// Package tui provides the interactive terminal dashboard. It is built
// on the bubbletea/lipgloss stack and renders three tabs: Nodes,
// Sessions, and Codes. Data flows through the cached datafetcher, so a
// tick that lands inside a TTL window renders instantly without
// touching the API.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	api "github.com/AeroNyxNetwork/nodeboard/pkg/api/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/clients/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/datafetcher"
	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

// ---------------------------------------------------------------------------
// Shared styles
// ---------------------------------------------------------------------------

var (
	// titleStyle renders the application title bar.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	// activeTabStyle renders the currently selected tab label.
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// inactiveTabStyle renders unselected tab labels.
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	// headerCellStyle is used for table column headers.
	headerCellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			PaddingRight(1)

	// rowStyle is used for unselected table rows.
	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			PaddingRight(1)

	// selectedRowStyle highlights the cursor row.
	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237")).
				PaddingRight(1)

	// dimStyle is used for "no data" messages.
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	// statusBarStyle renders the bottom status bar.
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(1)

	// noticeStyle renders action confirmations in the status bar.
	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			PaddingLeft(1)

	// errorStyle renders error messages.
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true).
			PaddingLeft(1)
)

// ---------------------------------------------------------------------------
// Tab type
// ---------------------------------------------------------------------------

// tab identifies the currently active dashboard tab.
type tab int

const (
	tabNodes tab = iota
	tabSessions
	tabCodes
	tabCount // sentinel, keep last
)

// ---------------------------------------------------------------------------
// Tea messages
// ---------------------------------------------------------------------------

// tickMsg is sent every refreshInterval to trigger a data refresh.
type tickMsg time.Time

// countdownMsg re-renders the codes tab so expiry countdowns advance
// every second.
type countdownMsg time.Time

// dataMsg carries a freshly fetched dataset.
type dataMsg struct {
	nodes       []models.Node
	sessions    []models.Session
	sessionsFor string // node the sessions belong to
	codes       []models.RegistrationCode
}

// detailMsg carries a node detail lookup for the detail pane.
type detailMsg struct {
	detail *models.NodeDetail
}

// noticeMsg confirms a completed action (code generated, revoked).
type noticeMsg string

// errMsg carries a fetch or action error to display in the status bar.
type errMsg struct {
	err error
}

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

const (
	refreshInterval = 5 * time.Second
	fetchTimeout    = 10 * time.Second
	sessionPageSize = 50
)

// Model is the top-level bubbletea model for the dashboard.
type Model struct {
	fetcher *datafetcher.Fetcher
	wallet  string

	tabs      []string
	activeTab tab
	cursors   [tabCount]int

	nodes       []models.Node
	sessions    []models.Session
	sessionsFor string
	codes       []models.RegistrationCode
	detail      *models.NodeDetail // non-nil: detail pane open

	width     int
	height    int
	err       error
	notice    string
	loading   bool
	lastFetch time.Time

	countingDown bool
	signedOut    bool
}

// New returns a Model reading through fetcher. wallet is shown in the
// status bar so operators can tell whose nodes they are looking at.
func New(fetcher *datafetcher.Fetcher, wallet string) Model {
	return Model{
		fetcher: fetcher,
		wallet:  wallet,
		tabs:    []string{"Nodes", "Sessions", "Codes"},
		loading: true,
	}
}

// SignedOut reports whether the dashboard quit because the session
// expired. The caller prints the re-login hint after the program exits.
func (m Model) SignedOut() bool { return m.signedOut }

// Init starts the periodic tick and issues the first data fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.fetch(false))
}

// tick schedules a tickMsg after refreshInterval.
func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// countdownTick schedules a countdownMsg one second out.
func countdownTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return countdownMsg(t)
	})
}

// Update processes messages and returns an updated model plus any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.loading = true
		return m, tea.Batch(tick(), m.fetch(false))

	case countdownMsg:
		// Keep re-rendering while the codes tab is visible; stop when
		// the operator moves away so idle tabs stay quiet.
		if m.activeTab == tabCodes {
			return m, countdownTick()
		}
		m.countingDown = false
		return m, nil

	case dataMsg:
		m.loading = false
		m.err = nil
		m.nodes = msg.nodes
		m.sessions = msg.sessions
		m.sessionsFor = msg.sessionsFor
		m.codes = msg.codes
		m.lastFetch = time.Now()
		m.clampCursors()
		return m, nil

	case detailMsg:
		m.detail = msg.detail
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		m.loading = true
		// The mutation already invalidated its cache families, so a
		// plain read picks up the new state.
		return m, m.fetch(false)

	case errMsg:
		m.loading = false
		if errors.Is(msg.err, aeronyx.ErrSessionExpired) {
			m.signedOut = true
			return m, tea.Quit
		}
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The detail pane swallows navigation until closed.
	if m.detail != nil {
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "enter", "backspace":
			m.detail = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab", "right", "l":
		return m.switchTab((m.activeTab + 1) % tabCount)
	case "shift+tab", "left", "h":
		return m.switchTab((m.activeTab - 1 + tabCount) % tabCount)
	case "1":
		return m.switchTab(tabNodes)
	case "2":
		return m.switchTab(tabSessions)
	case "3":
		return m.switchTab(tabCodes)

	case "up", "k":
		if m.cursors[m.activeTab] > 0 {
			m.cursors[m.activeTab]--
		}
		return m, nil
	case "down", "j":
		if m.cursors[m.activeTab] < m.rowCount()-1 {
			m.cursors[m.activeTab]++
		}
		return m, nil

	case "r":
		// Manual refresh bypasses the cache.
		m.loading = true
		m.err = nil
		m.notice = ""
		return m, m.fetch(true)

	case "g":
		if m.activeTab == tabCodes {
			m.notice = ""
			return m, m.generateCode()
		}
		return m, nil

	case "x":
		if m.activeTab == tabCodes {
			if code, ok := m.selectedCode(); ok {
				m.notice = ""
				return m, m.revokeCode(code)
			}
		}
		return m, nil

	case "enter":
		if m.activeTab == tabNodes {
			if id := m.selectedNodeID(); id != "" {
				return m, m.fetchDetail(id)
			}
		}
		return m, nil
	}

	return m, nil
}

// switchTab changes the active tab. Entering Sessions refreshes data so
// the pane tracks the node selected on the Nodes tab; entering Codes
// starts the one-second countdown re-render.
func (m Model) switchTab(t tab) (tea.Model, tea.Cmd) {
	m.activeTab = t
	var cmds []tea.Cmd
	if t == tabSessions {
		m.loading = true
		cmds = append(cmds, m.fetch(false))
	}
	if t == tabCodes && !m.countingDown {
		m.countingDown = true
		cmds = append(cmds, countdownTick())
	}
	if len(cmds) == 0 {
		return m, nil
	}
	return m, tea.Batch(cmds...)
}

func (m Model) rowCount() int {
	switch m.activeTab {
	case tabNodes:
		return len(m.nodes)
	case tabSessions:
		return len(m.sessions)
	case tabCodes:
		return len(m.codes)
	default:
		return 0
	}
}

// clampCursors keeps every cursor inside its freshly replaced dataset.
func (m *Model) clampCursors() {
	clamp := func(cur, n int) int {
		if n == 0 {
			return 0
		}
		if cur >= n {
			return n - 1
		}
		return cur
	}
	m.cursors[tabNodes] = clamp(m.cursors[tabNodes], len(m.nodes))
	m.cursors[tabSessions] = clamp(m.cursors[tabSessions], len(m.sessions))
	m.cursors[tabCodes] = clamp(m.cursors[tabCodes], len(m.codes))
}

func (m Model) selectedNodeID() string {
	if len(m.nodes) == 0 {
		return ""
	}
	i := m.cursors[tabNodes]
	if i >= len(m.nodes) {
		i = len(m.nodes) - 1
	}
	return m.nodes[i].ID
}

func (m Model) selectedCode() (string, bool) {
	if len(m.codes) == 0 {
		return "", false
	}
	i := m.cursors[tabCodes]
	if i >= len(m.codes) {
		i = len(m.codes) - 1
	}
	return m.codes[i].Code, true
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// fetch loads all three datasets through the fetcher. fresh bypasses
// the cache (manual refresh); otherwise reads inside a TTL window are
// served from memory.
func (m Model) fetch(fresh bool) tea.Cmd {
	fetcher := m.fetcher
	nodeID := m.selectedNodeID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		var (
			nodesResp *api.NodesResponse
			err       error
		)
		if fresh {
			nodesResp, err = fetcher.RefreshNodes(ctx, "")
		} else {
			nodesResp, err = fetcher.Nodes(ctx, "")
		}
		if err != nil {
			return errMsg{err}
		}
		out := dataMsg{nodes: nodesResp.Nodes}

		// Sessions belong to the node selected on the Nodes tab. If the
		// selection vanished server-side the next poll re-anchors it.
		if nodeID == "" && len(nodesResp.Nodes) > 0 {
			nodeID = nodesResp.Nodes[0].ID
		}
		if nodeID != "" {
			q := api.SessionsQuery{Limit: sessionPageSize}
			var sessResp *api.SessionsResponse
			if fresh {
				sessResp, err = fetcher.RefreshNodeSessions(ctx, nodeID, q)
			} else {
				sessResp, err = fetcher.NodeSessions(ctx, nodeID, q)
			}
			if err != nil {
				return errMsg{err}
			}
			out.sessions = sessResp.Sessions
			out.sessionsFor = nodeID
		}

		var codesResp *api.CodesResponse
		if fresh {
			codesResp, err = fetcher.RefreshCodes(ctx, true)
		} else {
			codesResp, err = fetcher.Codes(ctx, true)
		}
		if err != nil {
			return errMsg{err}
		}
		out.codes = codesResp.Codes
		return out
	}
}

// fetchDetail loads the detail pane for one node.
func (m Model) fetchDetail(nodeID string) tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		detail, err := fetcher.Node(ctx, nodeID)
		if err != nil {
			return errMsg{err}
		}
		return detailMsg{detail: detail}
	}
}

// generateCode mints a registration code for the operator's wallet.
func (m Model) generateCode() tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		code, err := fetcher.GenerateCode(ctx)
		if err != nil {
			return errMsg{err}
		}
		return noticeMsg(fmt.Sprintf("Generated %s", code.Code))
	}
}

// revokeCode revokes the selected registration code.
func (m Model) revokeCode(code string) tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		if err := fetcher.RevokeCode(ctx, code); err != nil {
			return errMsg{err}
		}
		return noticeMsg(fmt.Sprintf("Revoked %s", code))
	}
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View renders the entire dashboard to a string.
func (m Model) View() string {
	if m.signedOut {
		return "Signed out.\n"
	}
	if m.width == 0 {
		return "Loading…"
	}

	var sb strings.Builder

	// --- Title bar ---
	sb.WriteString(titleStyle.Render("  AeroNyx Node Dashboard  "))
	sb.WriteString("\n")

	// --- Tab bar ---
	var tabParts []string
	for i, name := range m.tabs {
		label := fmt.Sprintf(" %d: %s ", i+1, name)
		if tab(i) == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
	}
	sb.WriteString(strings.Join(tabParts, ""))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")

	// --- Content area ---
	contentHeight := m.height - 5 // title(1) + tabs(1) + divider(1) + status(2)
	if contentHeight < 1 {
		contentHeight = 1
	}
	content := clipLines(m.renderActiveTab(), contentHeight)
	sb.WriteString(content)
	sb.WriteString("\n")

	// --- Status bar ---
	sb.WriteString(strings.Repeat("─", m.width))
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())

	return sb.String()
}

// renderActiveTab renders the content of the currently selected tab.
func (m Model) renderActiveTab() string {
	w := m.width - 2 // leave a small margin
	if m.detail != nil {
		return renderNodeDetail(m.detail, w)
	}
	switch m.activeTab {
	case tabNodes:
		return renderNodes(m.nodes, m.cursors[tabNodes], w)
	case tabSessions:
		return renderSessions(m.sessions, m.sessionsFor, m.cursors[tabSessions], w)
	case tabCodes:
		return renderCodes(m.codes, m.cursors[tabCodes], w, time.Now())
	default:
		return ""
	}
}

// renderStatus renders the bottom status bar line.
func (m Model) renderStatus() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v — press r to retry", m.err))
	}
	if m.notice != "" {
		return noticeStyle.Render(m.notice)
	}

	parts := []string{fmt.Sprintf("wallet: %s", shortWallet(m.wallet))}
	if !m.lastFetch.IsZero() {
		parts = append(parts, fmt.Sprintf("last refresh: %s", m.lastFetch.Format("15:04:05")))
	}
	if m.loading {
		parts = append(parts, "refreshing…")
	}
	hints := "q: quit  tab: next  r: refresh  enter: detail"
	if m.activeTab == tabCodes {
		hints = "q: quit  tab: next  r: refresh  g: new code  x: revoke"
	}
	parts = append(parts, hints)

	return statusBarStyle.Render(strings.Join(parts, "  |  "))
}

// shortWallet elides the middle of a wallet address for the status bar.
func shortWallet(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// clipLines limits the string s to at most maxLines newline-delimited lines.
func clipLines(s string, maxLines int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s
	}
	return strings.Join(lines[:maxLines], "\n")
}
