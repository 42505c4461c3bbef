package ui

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnema/noreveal/internal/confine"
	"github.com/bnema/noreveal/internal/display"
	"github.com/bnema/noreveal/internal/geom"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu           sync.Mutex
	running      bool
	failSafe     bool
	policy       confine.Policy
	bounds       display.Bounds
	state        confine.State
	failSafes    int
	refreshes    int
	emergencies  int
	emergencyErr error
}

func newFakeController() *fakeController {
	return &fakeController{
		running: true,
		policy:  confine.Policy{Enabled: true, Margin: 2, Edges: confine.NewEdgeSet(confine.Bottom)},
		bounds:  display.Bounds{Rect: geom.NewRect(0, 0, 1920, 1080), Origin: display.OriginVirtual},
	}
}

func (f *fakeController) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeController) Policy() confine.Policy {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.policy
}

func (f *fakeController) Bounds() display.Bounds {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bounds
}

func (f *fakeController) ConfinementState() confine.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeController) FailSafeActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failSafe
}

func (f *fakeController) ActivateFailSafe() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSafes++
	if f.failSafe {
		return false
	}
	f.failSafe = true
	return true
}

func (f *fakeController) RefreshScreenBounds() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeController) EmergencyDisable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emergencies++
	f.running = false
	f.policy = f.policy.Disabled()
	return f.emergencyErr
}

// runCmd executes cmd and any batched commands, returning the messages that
// are not timer ticks
func runCmd(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(t, c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func pressKey(t *testing.T, m *StatusModel, key string) *StatusModel {
	t.Helper()
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
	model := updated.(*StatusModel)
	for _, msg := range runCmd(t, cmd) {
		updated, _ = model.Update(msg)
		model = updated.(*StatusModel)
	}
	return model
}

func TestStatusModelView(t *testing.T) {
	ctrl := newFakeController()
	ctrl.state = confine.State{Kind: confine.Applied, Region: geom.NewRect(0, 0, 1920, 1078)}
	m := NewStatusModel(ctrl, nil)

	view := m.View()
	assert.Contains(t, view, "NOREVEAL")
	assert.Contains(t, view, "Blocking Bottom (2px)")
	assert.Contains(t, view, "1920x1080 virtual screen")
	assert.Contains(t, view, "clip applied")
	assert.Contains(t, view, "No logs yet...")
}

func TestStatusModelStates(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeController)
		want  string
	}{
		{name: "stopped", setup: func(c *fakeController) { c.running = false }, want: "Stopped"},
		{name: "disabled", setup: func(c *fakeController) { c.policy.Enabled = false }, want: "Disabled"},
		{name: "no edges", setup: func(c *fakeController) { c.policy.Edges = confine.EdgeSet(0) }, want: "Disabled"},
		{name: "fail-safe", setup: func(c *fakeController) { c.failSafe = true }, want: "Fail-safe"},
		{name: "fallback clip", setup: func(c *fakeController) { c.state.Kind = confine.Failed }, want: "clip fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newFakeController()
			tt.setup(ctrl)
			m := NewStatusModel(ctrl, nil)
			assert.Contains(t, m.View(), tt.want)
		})
	}
}

func TestStatusModelToggle(t *testing.T) {
	ctrl := newFakeController()
	calls := 0
	m := NewStatusModel(ctrl, func() error {
		calls++
		ctrl.mu.Lock()
		ctrl.policy.Enabled = !ctrl.policy.Enabled
		ctrl.mu.Unlock()
		return nil
	})

	m = pressKey(t, m, "t")
	assert.Equal(t, 1, calls)
	assert.Contains(t, m.View(), "Disabled")
}

func TestStatusModelToggleError(t *testing.T) {
	m := NewStatusModel(newFakeController(), func() error { return errors.New("disk full") })
	m = pressKey(t, m, "t")
	assert.Equal(t, "error", m.messageType)
	assert.Contains(t, m.message, "disk full")
}

func TestStatusModelToggleUnavailable(t *testing.T) {
	m := NewStatusModel(newFakeController(), nil)
	m = pressKey(t, m, "t")
	assert.Equal(t, "Toggle is not available", m.message)
}

func TestStatusModelFailSafe(t *testing.T) {
	ctrl := newFakeController()
	m := NewStatusModel(ctrl, nil)

	m = pressKey(t, m, "f")
	assert.Equal(t, 1, ctrl.failSafes)
	assert.Contains(t, m.View(), "Fail-safe")

	m = pressKey(t, m, "f")
	assert.Equal(t, 2, ctrl.failSafes)
	assert.Equal(t, "Fail-safe already active", m.message)
}

func TestStatusModelRefreshAndEmergency(t *testing.T) {
	ctrl := newFakeController()
	m := NewStatusModel(ctrl, nil)

	m = pressKey(t, m, "r")
	assert.Equal(t, 1, ctrl.refreshes)
	assert.Equal(t, "Screen bounds refreshed", m.message)

	m = pressKey(t, m, "e")
	assert.Equal(t, 1, ctrl.emergencies)
	assert.Contains(t, m.View(), "Stopped")
}

func TestStatusModelEmergencyError(t *testing.T) {
	ctrl := newFakeController()
	ctrl.emergencyErr = errors.New("clip stuck")
	m := NewStatusModel(ctrl, nil)

	m = pressKey(t, m, "e")
	assert.Equal(t, "error", m.messageType)
	assert.Contains(t, m.message, "clip stuck")
}

func TestStatusModelQuit(t *testing.T) {
	m := NewStatusModel(newFakeController(), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStatusModelStatusMessages(t *testing.T) {
	tests := []struct {
		text string
		kind string
	}{
		{text: "Fail-safe activated - blocking disabled for 10 seconds", kind: "warning"},
		{text: "Fail-safe deactivated - blocking restored", kind: "success"},
		{text: "Emergency disable - mouse hook stopped", kind: "error"},
		{text: "NoReveal started - Blocking 1 edge(s)", kind: "success"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m := NewStatusModel(newFakeController(), nil)
			updated, _ := m.Update(StatusMsg{Text: tt.text})
			m = updated.(*StatusModel)
			assert.Equal(t, tt.text, m.message)
			assert.Equal(t, tt.kind, m.messageType)
		})
	}
}

func TestStatusModelMessageExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewStatusModel(newFakeController(), nil)
	m.now = func() time.Time { return now }

	m.SetMessage("info", "hello")
	now = now.Add(4 * time.Second)
	updated, _ := m.Update(refreshMsg(now))
	m = updated.(*StatusModel)
	assert.Empty(t, m.message)
}

func TestStatusModelLogBuffer(t *testing.T) {
	m := NewStatusModel(newFakeController(), nil)
	for i := 0; i < 60; i++ {
		m.Update(LogMsg{Entry: LogEntry{Timestamp: time.Now(), Level: "INFO", Message: "line"}})
	}
	assert.Len(t, m.logBuffer, 50)

	m.Update(LogMsg{Entry: LogEntry{Timestamp: time.Now(), Level: "WARN", Message: "last one"}})
	assert.Contains(t, m.View(), "last one")
}

func TestStatusModelRefreshPicksUpState(t *testing.T) {
	ctrl := newFakeController()
	m := NewStatusModel(ctrl, nil)

	ctrl.mu.Lock()
	ctrl.bounds = display.Bounds{Rect: geom.NewRect(0, 0, 2560, 1440), Origin: display.OriginPrimary}
	ctrl.mu.Unlock()

	updated, cmd := m.Update(refreshMsg(time.Now()))
	m = updated.(*StatusModel)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "2560x1440 primary display")
}
