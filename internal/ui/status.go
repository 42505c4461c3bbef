package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/noreveal/internal/confine"
	"github.com/bnema/noreveal/internal/display"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller is the part of the engine the status screen drives
type Controller interface {
	IsRunning() bool
	Policy() confine.Policy
	Bounds() display.Bounds
	ConfinementState() confine.State
	FailSafeActive() bool
	ActivateFailSafe() bool
	RefreshScreenBounds()
	EmergencyDisable() error
}

// refreshInterval is how often the status bar re-reads engine state
const refreshInterval = 500 * time.Millisecond

type (
	refreshMsg    time.Time
	actionDoneMsg struct {
		kind string
		text string
	}
)

type snapshot struct {
	running  bool
	failSafe bool
	policy   confine.Policy
	bounds   display.Bounds
	state    confine.State
}

// StatusModel is the inline status screen: one status bar line, the latest
// message and the recent log lines
type StatusModel struct {
	ctrl   Controller
	toggle func() error

	snap    snapshot
	spinner spinner.Model

	message       string
	messageType   string // "info", "warning", "error", "success"
	messageExpiry time.Time

	logBuffer    []LogEntry
	maxLogLines  int
	windowHeight int
	windowWidth  int

	now func() time.Time
}

// NewStatusModel creates the status screen over ctrl. toggle flips the
// persisted enabled flag; it may be nil.
func NewStatusModel(ctrl Controller, toggle func() error) *StatusModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorWarning)

	m := &StatusModel{
		ctrl:         ctrl,
		toggle:       toggle,
		spinner:      s,
		logBuffer:    make([]LogEntry, 0),
		maxLogLines:  50,
		windowHeight: 24,
		windowWidth:  80,
		now:          time.Now,
	}
	m.refresh()
	return m
}

// AddLogEntry adds a new log entry to the buffer
func (m *StatusModel) AddLogEntry(entry LogEntry) {
	m.logBuffer = append(m.logBuffer, entry)
	if len(m.logBuffer) > m.maxLogLines {
		m.logBuffer = m.logBuffer[len(m.logBuffer)-m.maxLogLines:]
	}
}

// SetMessage sets a temporary message
func (m *StatusModel) SetMessage(msgType, message string) {
	m.message = message
	m.messageType = msgType
	m.messageExpiry = m.now().Add(3 * time.Second)
}

func (m *StatusModel) refresh() {
	m.snap = snapshot{
		running:  m.ctrl.IsRunning(),
		failSafe: m.ctrl.FailSafeActive(),
		policy:   m.ctrl.Policy(),
		bounds:   m.ctrl.Bounds(),
		state:    m.ctrl.ConfinementState(),
	}
}

func tickRefresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// Init initializes the status model
func (m *StatusModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickRefresh())
}

// Update handles messages for the status model. Engine calls run as commands
// so anything they log can reach the program without blocking the loop.
func (m *StatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "t":
			cmds = append(cmds, m.toggleCmd())
		case "f":
			cmds = append(cmds, m.failSafeCmd())
		case "r":
			cmds = append(cmds, m.refreshBoundsCmd())
		case "e":
			cmds = append(cmds, m.emergencyCmd())
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case refreshMsg:
		m.refresh()
		cmds = append(cmds, tickRefresh())

	case actionDoneMsg:
		m.refresh()
		if msg.text != "" {
			m.SetMessage(msg.kind, msg.text)
		}

	case StatusMsg:
		m.refresh()
		m.SetMessage(statusKind(msg.Text), msg.Text)

	case LogMsg:
		m.AddLogEntry(msg.Entry)

	case tea.WindowSizeMsg:
		m.windowHeight = msg.Height
		m.windowWidth = msg.Width
	}

	if !m.messageExpiry.IsZero() && m.now().After(m.messageExpiry) {
		m.message = ""
		m.messageType = ""
		m.messageExpiry = time.Time{}
	}

	return m, tea.Batch(cmds...)
}

func statusKind(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "emergency"):
		return "error"
	case strings.Contains(lower, "deactivated"):
		return "success"
	case strings.Contains(lower, "activated"):
		return "warning"
	default:
		return "success"
	}
}

func (m *StatusModel) toggleCmd() tea.Cmd {
	return func() tea.Msg {
		if m.toggle == nil {
			return actionDoneMsg{kind: "error", text: "Toggle is not available"}
		}
		if err := m.toggle(); err != nil {
			return actionDoneMsg{kind: "error", text: fmt.Sprintf("Toggle failed: %v", err)}
		}
		return actionDoneMsg{}
	}
}

func (m *StatusModel) failSafeCmd() tea.Cmd {
	return func() tea.Msg {
		if !m.ctrl.ActivateFailSafe() {
			return actionDoneMsg{kind: "info", text: "Fail-safe already active"}
		}
		return actionDoneMsg{}
	}
}

func (m *StatusModel) refreshBoundsCmd() tea.Cmd {
	return func() tea.Msg {
		m.ctrl.RefreshScreenBounds()
		return actionDoneMsg{kind: "info", text: "Screen bounds refreshed"}
	}
}

func (m *StatusModel) emergencyCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.ctrl.EmergencyDisable(); err != nil {
			return actionDoneMsg{kind: "error", text: fmt.Sprintf("Emergency disable incomplete: %v", err)}
		}
		return actionDoneMsg{}
	}
}

// View renders the status bar, the current message and recent logs
func (m *StatusModel) View() string {
	var output strings.Builder

	output.WriteString(m.renderStatusBar())
	output.WriteString("\n")

	used := 2
	if m.message != "" {
		output.WriteString(FormatMessage(m.messageType, m.message))
		output.WriteString("\n")
		used++
	}

	available := m.windowHeight - used
	if available < 1 {
		available = 10
	}
	output.WriteString(m.renderLogs(available))

	return output.String()
}

func (m *StatusModel) renderStatusBar() string {
	var parts []string

	parts = append(parts, NameStyle.Render("NOREVEAL"))
	parts = append(parts, m.renderState())

	b := m.snap.bounds
	parts = append(parts, DimStyle.Render(fmt.Sprintf("%dx%d %s", b.Width(), b.Height(), b.Origin)))

	switch m.snap.state.Kind {
	case confine.Applied:
		parts = append(parts, SuccessStyle.Render("clip applied"))
	case confine.Failed:
		parts = append(parts, WarningStyle.Render("clip fallback"))
	}

	controls := []string{
		FormatControl("t", "toggle"),
		FormatControl("f", "fail-safe"),
		FormatControl("r", "refresh"),
		FormatControl("e", "emergency"),
		FormatControl("q", "quit"),
	}
	parts = append(parts, strings.Join(controls, " "))

	return strings.Join(parts, Separator())
}

func (m *StatusModel) renderState() string {
	p := m.snap.policy
	switch {
	case !m.snap.running:
		return IndicatorStopped + " " + ErrorStyle.Render("Stopped")
	case m.snap.failSafe && p.Active():
		return m.spinner.View() + " " + WarningStyle.Render("Fail-safe")
	case !p.Active():
		return IndicatorIdle + " " + SubtleStyle.Render("Disabled")
	default:
		return IndicatorBlocking + " " + SuccessStyle.Render(fmt.Sprintf("Blocking %s (%dpx)", p.Edges, p.Margin))
	}
}

func (m *StatusModel) renderLogs(maxLines int) string {
	if len(m.logBuffer) == 0 {
		return SubtleStyle.Render("No logs yet...")
	}

	start := 0
	if len(m.logBuffer) > maxLines {
		start = len(m.logBuffer) - maxLines
	}

	lines := make([]string, 0, len(m.logBuffer)-start)
	for _, entry := range m.logBuffer[start:] {
		lines = append(lines, formatLogEntry(entry))
	}
	return strings.Join(lines, "\n")
}

func formatLogEntry(entry LogEntry) string {
	level := entry.Level
	if level == "" {
		level = "LOG"
	}
	return fmt.Sprintf("%s %s %s",
		TimeStyle.Render(entry.Timestamp.Format("15:04:05")),
		LevelStyle(level).Render(fmt.Sprintf("%-5s", strings.ToUpper(level))),
		lipgloss.NewStyle().Foreground(ColorHighlight).Render(entry.Message))
}
