package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/AeroNyxNetwork/nodeboard/pkg/models"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nodeStateText(s models.NodeState) string {
	switch s {
	case models.NodeOnline:
		return green(string(s))
	case models.NodeOffline:
		return red(string(s))
	case models.NodeSuspended:
		return yellow(string(s))
	default:
		return string(s)
	}
}

func codeStatusText(s models.CodeStatus) string {
	switch s {
	case models.CodeUnused:
		return green(string(s))
	case models.CodeUsed:
		return faint(string(s))
	case models.CodeExpired:
		return yellow(string(s))
	case models.CodeRevoked:
		return red(string(s))
	default:
		return string(s)
	}
}

func sessionStateText(s models.SessionState) string {
	switch s {
	case models.SessionActive:
		return green(string(s))
	case models.SessionError:
		return red(string(s))
	default:
		return string(s)
	}
}

// formatHeartbeat renders a last-heartbeat timestamp as a relative age.
func formatHeartbeat(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	return formatAge(time.Since(*t))
}

func formatAge(d time.Duration) string {
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

// formatSeconds renders a duration in seconds as a compact h/m/s string.
func formatSecondsCompact(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	d := time.Duration(secs) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatGB(gb float64) string {
	if gb >= 1024 {
		return fmt.Sprintf("%.2f TB", gb/1024)
	}
	return fmt.Sprintf("%.2f GB", gb)
}

// promptConfirm asks for confirmation on stderr. skipConfirm (--yes)
// bypasses the prompt.
func promptConfirm(prompt string, skipConfirm bool) bool {
	if skipConfirm {
		return true
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
