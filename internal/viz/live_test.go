package viz

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/zoomsim/internal/config"
	"github.com/san-kum/zoomsim/internal/logging"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m, err := NewModel(config.GetPreset("instant"), nil, logging.Discard())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func ticks(n int) []tea.Msg {
	msgs := make([]tea.Msg, n)
	for i := range msgs {
		msgs[i] = TickMsg{}
	}
	return msgs
}

func TestModelZoomKey(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, key("2"))
	m, cmd := send(m, ticks(10)...)
	if cmd == nil {
		t.Error("expected tick to schedule the next frame")
	}

	if !m.sample.Bound {
		t.Fatal("expected camera bound after 10 ticks")
	}
	if math.Abs(m.sample.Hfov-1.0) > 1e-9 {
		t.Errorf("expected hfov 1.0 after zoom 2, got %g", m.sample.Hfov)
	}
	if len(m.fovHist) != 10 {
		t.Errorf("expected 10 history points, got %d", len(m.fovHist))
	}
}

func TestModelStepKeysClamp(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, key("0"))
	if m.zoomCmd != m.cfg.Plugin.MaxZoom {
		t.Errorf("expected max zoom, got %g", m.zoomCmd)
	}
	m, _ = send(m, key("+"))
	if m.zoomCmd != m.cfg.Plugin.MaxZoom {
		t.Errorf("expected zoom to stay at max, got %g", m.zoomCmd)
	}

	m, _ = send(m, key("1"), key("-"))
	if m.zoomCmd != 1 {
		t.Errorf("expected zoom to stay at 1, got %g", m.zoomCmd)
	}
}

func TestModelPauseAndReset(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, ticks(3)...)
	m, _ = send(m, key(" "))
	if !m.exp.Simulator().Paused() {
		t.Fatal("expected paused simulator")
	}
	before := m.exp.Simulator().Iteration()
	m, _ = send(m, ticks(5)...)
	if got := m.exp.Simulator().Iteration(); got != before {
		t.Errorf("expected no time to pass while paused, %d -> %d", before, got)
	}

	m, _ = send(m, key("r"))
	if m.exp.Simulator().Iteration() != 0 || m.exp.Simulator().Paused() {
		t.Error("expected a fresh running experiment after reset")
	}
	if len(m.fovHist) != 0 {
		t.Errorf("expected history cleared, got %d points", len(m.fovHist))
	}
}

func TestModelReload(t *testing.T) {
	m := newTestModel(t)

	cfg := config.GetPreset("slow-motor")
	m, cmd := send(m, ReloadMsg{Config: cfg})
	if cmd != nil {
		t.Error("expected no reload wait without a watcher")
	}
	if m.reloads != 1 || m.cfg.Name != "slow-motor" {
		t.Errorf("expected slow-motor after reload, got %s (%d reloads)", m.cfg.Name, m.reloads)
	}

	bad := config.GetPreset("instant")
	bad.Dt = -1
	m, _ = send(m, ReloadMsg{Config: bad})
	if m.lastErr == nil || m.cfg.Name != "slow-motor" {
		t.Error("expected invalid reload to keep the running experiment")
	}
}

func TestModelThemeAndQuit(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, key("t"))
	if m.theme.Name != "phosphor" {
		t.Errorf("expected phosphor theme, got %s", m.theme.Name)
	}

	_, cmd := send(m, key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelView(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, ticks(2)...)
	view := m.View()
	for _, want := range []string{"INSTANT", "WAITING FOR CAMERA", "hfov [deg]", "settle_time"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}

	m, _ = send(m, ticks(5)...)
	if !strings.Contains(m.View(), "RUNNING") {
		t.Error("expected running status once bound")
	}
}
