package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/jointsync/internal/constraint"
	"github.com/san-kum/jointsync/internal/metrics"
	"github.com/san-kum/jointsync/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 20
	historyCapacity = 600
	bodyRadius      = 1
)

type TickMsg time.Time

// LiveConfig configures a LiveModel. Rebuild, when set, runs on the "r"
// key and is expected to re-bind and re-initialize the synchronizer.
type LiveConfig struct {
	Dt      float64
	Theme   string
	Rebuild func() error
}

// LiveModel steps a world and draws its bodies and the joints registered
// by a synchronizer.
type LiveModel struct {
	world   sim.World
	sync    *constraint.Synchronizer
	drift   *metrics.Separation
	bodies  []string
	cfg     LiveConfig
	t       float64
	canvas  *Canvas
	view    Viewport
	theme   Theme
	running bool
	history []float64
	err     error
}

func NewLiveModel(world sim.World, sync *constraint.Synchronizer, bodies []string, cfg LiveConfig) LiveModel {
	if cfg.Dt <= 0 {
		cfg.Dt = 1.0 / 60
	}
	m := LiveModel{
		world:   world,
		sync:    sync,
		drift:   metrics.NewSeparation(sync.Records()),
		bodies:  bodies,
		cfg:     cfg,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		theme:   GetTheme(cfg.Theme),
		running: true,
		history: make([]float64, 0, historyCapacity),
	}
	m.view = FitViewport(m.positions())
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m LiveModel) Init() tea.Cmd {
	return tick()
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "t":
			m.theme = nextTheme(m.theme)
		case "r":
			m.rebuild()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *LiveModel) step() {
	m.drift.Observe(m.world, m.t)
	m.world.Step(m.cfg.Dt)
	m.t += m.cfg.Dt

	if len(m.history) >= historyCapacity {
		m.history = m.history[1:]
	}
	m.history = append(m.history, m.drift.LastDrift())
}

func (m *LiveModel) rebuild() {
	if m.cfg.Rebuild == nil {
		return
	}
	m.err = m.cfg.Rebuild()
	m.drift = metrics.NewSeparation(m.sync.Records())
	m.history = m.history[:0]
}

func (m LiveModel) positions() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, len(m.bodies))
	for _, id := range m.bodies {
		if p, ok := m.world.Position(id); ok {
			out = append(out, p)
		}
	}
	return out
}

func (m *LiveModel) draw() {
	m.canvas.Clear()

	for _, rec := range m.sync.Records() {
		pa, okA := m.world.Position(rec.BodyA)
		pb, okB := m.world.Position(rec.BodyB)
		if !okA || !okB {
			continue
		}
		x0, y0 := m.view.Project(m.canvas, pa)
		x1, y1 := m.view.Project(m.canvas, pb)
		m.canvas.DrawLine(x0, y0, x1, y1)
	}

	for _, p := range m.positions() {
		x, y := m.view.Project(m.canvas, p)
		m.canvas.DrawDisc(x, y, bodyRadius)
	}
}

func (m LiveModel) View() string {
	m.draw()
	canvasView := Panel.BorderForeground(m.theme.Muted).
		Foreground(m.theme.Body).
		Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(Title.Foreground(m.theme.Joint).Render(strings.ToUpper("jointsync")) + "\n")
	if m.running {
		s.WriteString(StatusRunning.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(StatusPaused.Render("PAUSED") + "\n\n")
	}

	s.WriteString(MetricLabel.Render("time") + MetricValue.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	s.WriteString(MetricLabel.Render("state") + MetricValue.Render(m.sync.State().String()) + "\n")
	s.WriteString(MetricLabel.Render("joints") + MetricValue.Render(fmt.Sprint(m.sync.Count())) + "\n")
	s.WriteString(MetricLabel.Render("drift") + MetricValue.Render(fmt.Sprintf("%.4f", m.drift.LastDrift())) + "\n")
	s.WriteString(SparklineChart(m.history, 30) + "\n\n")

	s.WriteString(lipgloss.NewStyle().Foreground(m.theme.Text).Render(RenderRecords(m.sync.Records())))

	if pending := m.sync.PendingBodies(); len(pending) > 0 {
		s.WriteString(WarningText.Foreground(m.theme.Warning).Render("pending: "+strings.Join(pending, ", ")) + "\n")
	}
	for _, w := range m.sync.Warnings() {
		s.WriteString(WarningText.Foreground(m.theme.Warning).Render("! "+w) + "\n")
	}
	if m.err != nil {
		s.WriteString(WarningText.Foreground(m.theme.Warning).Render("rebuild: "+m.err.Error()) + "\n")
	}

	s.WriteString("\n" + KeyHint.Render("SP:Pause R:Rebuild T:Theme Q:Quit"))

	stats := lipgloss.NewStyle().Padding(0, 2).Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, stats)
}

// Time returns the simulated time shown by the model.
func (m LiveModel) Time() float64 { return m.t }

// Run starts the live view on the alternate screen and blocks until quit.
func Run(m LiveModel) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
