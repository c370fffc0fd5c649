package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/zoomsim/internal/config"
	"github.com/san-kum/zoomsim/internal/experiment"
	"github.com/san-kum/zoomsim/internal/logging"
	"github.com/san-kum/zoomsim/internal/optics"
	"github.com/san-kum/zoomsim/internal/sim"
)

const (
	width           = 60
	height          = 20
	historyCapacity = 600
	zoomStep        = 0.5
)

type TickMsg time.Time

// ReloadMsg carries a config re-read after its file changed on disk.
type ReloadMsg struct {
	Config *config.Config
	Err    error
}

// Model steps a zoom experiment once per frame and draws the camera frustum.
type Model struct {
	cfg      *config.Config
	log      *logging.Logger
	exp      *experiment.Experiment
	metrics  []sim.Metric
	registry *experiment.Registry
	watcher  *config.Watcher

	canvas *Canvas
	theme  Theme
	styles Styles

	sample   sim.Sample
	lastErr  error
	zoomCmd  float64
	fovHist  []float64
	focHist  []float64
	reloads  int
	showHelp bool
}

// NewModel builds an experiment from cfg. watcher may be nil; when set, the
// experiment is rebuilt every time the watched file changes.
func NewModel(cfg *config.Config, watcher *config.Watcher, log *logging.Logger) (Model, error) {
	m := Model{
		log:      log,
		registry: experiment.NewRegistry(),
		watcher:  watcher,
		canvas:   NewCanvas(width, height),
		theme:    ThemeStudio,
		styles:   NewStyles(ThemeStudio),
	}
	if err := m.load(cfg); err != nil {
		return Model{}, err
	}
	return m, nil
}

// WithTheme returns a copy of m drawn with t.
func (m Model) WithTheme(t Theme) Model {
	m.theme = t
	m.styles = NewStyles(t)
	return m
}

func (m *Model) load(cfg *config.Config) error {
	metrics := m.registry.DefaultMetrics(cfg)
	exp := experiment.New(cfg, m.log)
	if err := exp.Setup(metrics); err != nil {
		return err
	}

	if m.exp != nil {
		m.exp.Close()
	}
	m.cfg = exp.Config()
	m.exp = exp
	m.metrics = metrics
	m.sample = exp.Sample()
	m.lastErr = nil
	m.zoomCmd = 1
	m.fovHist = m.fovHist[:0]
	m.focHist = m.focHist[:0]
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) waitForReload() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	w := m.watcher
	return func() tea.Msg {
		select {
		case path, ok := <-w.Events:
			if !ok {
				return nil
			}
			cfg, err := config.Load(path)
			return ReloadMsg{Config: cfg, Err: err}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return ReloadMsg{Err: err}
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForReload())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		m.step()
		return m, tick()
	case ReloadMsg:
		if msg.Err != nil {
			m.lastErr = fmt.Errorf("reload: %w", msg.Err)
		} else if err := m.load(msg.Config); err != nil {
			m.lastErr = fmt.Errorf("reload: %w", err)
		} else {
			m.reloads++
		}
		return m, m.waitForReload()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		m.exp.Close()
		return m, tea.Quit
	case " ":
		s := m.exp.Simulator()
		s.SetPaused(!s.Paused())
	case "r":
		if err := m.load(m.cfg); err != nil {
			m.lastErr = err
		}
	case "+", "=":
		m.publish(m.zoomCmd + zoomStep)
	case "-", "_":
		m.publish(m.zoomCmd - zoomStep)
	case "0":
		m.publish(m.cfg.Plugin.MaxZoom)
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = NewStyles(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			m.publish(float64(key[0] - '0'))
		}
	}
	return m, nil
}

// publish sends the raw value; clamping is left to the plugin so out of
// range requests are logged the same way as external ones.
func (m *Model) publish(zoom float64) {
	if err := m.exp.Publish(zoom); err != nil {
		m.lastErr = err
		return
	}
	m.zoomCmd = math.Max(1, math.Min(zoom, m.cfg.Plugin.MaxZoom))
}

func (m *Model) step() {
	sample, err := m.exp.Simulator().Step(m.cfg.Dt)
	if err != nil {
		m.lastErr = err
	}
	m.sample = sample

	m.fovHist = appendCapped(m.fovHist, optics.Degrees(sample.Hfov))
	m.focHist = appendCapped(m.focHist, sample.FocalLength*1000)
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m Model) status() string {
	switch {
	case !m.exp.Plugin().Valid():
		return m.styles.Failed.Render("DISABLED")
	case !m.sample.Bound:
		return m.styles.Waiting.Render("WAITING FOR CAMERA")
	case m.exp.Simulator().Paused():
		return m.styles.Paused.Render("PAUSED")
	default:
		return m.styles.Running.Render("RUNNING")
	}
}

// progress is the share of the way from the reference fov to the goal.
func (m Model) progress() float64 {
	ref := m.exp.Plugin().Zoom().Settings().ReferenceFov
	total := ref - m.sample.GoalFov
	if math.Abs(total) < 1e-12 {
		if math.Abs(m.sample.Hfov-m.sample.GoalFov) < 1e-9 {
			return 1
		}
		return 0
	}
	return (ref - m.sample.Hfov) / total
}

func (m Model) View() string {
	st := m.styles
	ref := m.exp.Plugin().Zoom().Settings().ReferenceFov

	m.canvas.Clear()
	Frustum{Hfov: m.sample.Hfov, GoalFov: m.sample.GoalFov, RefFov: ref}.Draw(m.canvas)
	canvasView := st.Canvas.Render(st.Frustum.Render(m.canvas.String()))

	var s strings.Builder
	s.WriteString(st.Header.Render(strings.ToUpper(m.cfg.Name)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.fovHist) > 1 {
		chart := asciigraph.Plot(m.fovHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("hfov [deg]"))
		s.WriteString(st.Graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.Label.Render(label) + st.Value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.sample.Time))
	row("Topic", m.exp.Topic())
	row("Zoom", fmt.Sprintf("%.2fx -> %.2fx", ref/m.sample.Hfov, m.sample.Zoom))
	row("HFOV", fmt.Sprintf("%.2f° -> %.2f°", optics.Degrees(m.sample.Hfov), optics.Degrees(m.sample.GoalFov)))
	row("Focal", fmt.Sprintf("%.2f mm", m.sample.FocalLength*1000))
	row("Focal hist", Sparkline(m.focHist, 24))
	row("Slew", slewLabel(m.cfg.Plugin.SlewRate))
	s.WriteString(st.Label.Render("Travel") + st.ProgressBar(m.progress(), 20) + "\n")

	s.WriteString("\nMETRICS\n")
	for _, metric := range m.metrics {
		s.WriteString(st.Label.Render(metric.Name()) + st.Value.Render(fmt.Sprintf("%.4g", metric.Value())) + "\n")
	}
	if m.reloads > 0 {
		row("Reloads", fmt.Sprintf("%d", m.reloads))
	}
	if m.lastErr != nil {
		s.WriteString("\n" + st.Failed.Render(m.lastErr.Error()) + "\n")
	}

	s.WriteString(st.Help.Render("SP:Pause R:Reset Q:Quit\n1-9:Zoom +/-:Step 0:Max\nT:Theme ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.Stats.Render(s.String()))

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  1-9      - Publish zoom command     ║
║  + / -    - Step zoom by 0.5         ║
║  0        - Publish max zoom         ║
║  Space    - Pause/Resume             ║
║  R        - Rebuild from config      ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func slewLabel(rate float64) string {
	if math.IsInf(rate, 1) {
		return "instant"
	}
	return fmt.Sprintf("%.1f mm/s", rate*1000)
}

// Run starts the live view in the alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
