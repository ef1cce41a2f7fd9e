// Package termview runs the bramble simulation in a terminal with Bubble
// Tea. The terminal window is the viewport; each character cell covers
// CellW×CellH canvas pixels.
package termview

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/phanxgames/bramble"
)

// Config configures the terminal view.
type Config struct {
	Sim     bramble.Config
	Regions []bramble.Region
	CellW   float64
	CellH   float64
	// NoColor renders plain box-drawing characters.
	NoColor bool
	Logger  *zerolog.Logger
}

type tickMsg time.Time

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
)

// Model is the Bubble Tea model. It owns the driver and steps it on a
// ticker at the configured TPS.
type Model struct {
	Driver   *bramble.Driver
	Viewport *bramble.Viewport
	Frames   *bramble.FrameQueue
	Canvas   *GridCanvas
	Env      *bramble.StaticEnvironment

	interval time.Duration
	paused   bool
	sized    bool
	cols     int
	rows     int
	log      zerolog.Logger
}

// New creates a model. The simulation starts once the first window size
// arrives.
func New(cfg Config) *Model {
	if cfg.Sim.TPS <= 0 {
		cfg.Sim.TPS = 60
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = cfg.Logger.With().Str("component", "termview").Logger()
		cfg.Sim.Logger = cfg.Logger
	}
	canvas := NewGridCanvas(1, 1)
	if cfg.CellW > 0 {
		canvas.CellW = cfg.CellW
	}
	if cfg.CellH > 0 {
		canvas.CellH = cfg.CellH
	}
	canvas.Color = !cfg.NoColor

	env := &bramble.StaticEnvironment{UI: cfg.Regions}
	frames := bramble.NewFrameQueue()
	d := bramble.NewDriver(cfg.Sim, env, canvas, frames)
	return &Model{
		Driver:   d,
		Viewport: bramble.NewViewport(d),
		Frames:   frames,
		Canvas:   canvas,
		Env:      env,
		interval: time.Second / time.Duration(cfg.Sim.TPS),
		log:      log,
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the ticker.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles window sizes, keys and ticks.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height, time.Now())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Driver.ClearMemory()
			return m, tea.Quit
		case "r":
			m.Driver.ClearMemory()
			m.Driver.Init()
		case " ":
			m.paused = !m.paused
			m.log.Debug().Bool("paused", m.paused).Msg("pause toggled")
		}
		return m, nil

	case tickMsg:
		m.step(time.Time(msg))
		return m, m.tick()
	}
	return m, nil
}

// resize converts a terminal size to canvas pixels, keeping the last row
// for the status line. The first size is applied at once, which starts the
// animation on a wide enough terminal.
func (m *Model) resize(cols, rows int, now time.Time) {
	m.cols, m.rows = cols, rows
	w := int(float64(cols) * m.Canvas.CellW)
	h := int(float64(max(rows-1, 1)) * m.Canvas.CellH)
	m.Env.SetSize(w, h)
	if !m.sized {
		m.sized = true
		m.Viewport.Recompute()
		return
	}
	m.Viewport.HandleResize(now)
}

func (m *Model) step(now time.Time) {
	m.Viewport.Poll(now)
	if !m.paused {
		m.Frames.RunFrame()
	}
}

// View renders the grid and a status line.
func (m *Model) View() string {
	if !m.sized {
		return ""
	}
	body := m.Canvas.Render()
	if !m.Canvas.Visible() {
		w, _ := m.Env.ViewportSize()
		body = noticeStyle.Render(fmt.Sprintf("viewport too narrow (%d px), widen the terminal", w))
	}
	return body + "\n" + m.status()
}

func (m *Model) status() string {
	st := m.Driver.Stats()
	state := "stopped"
	if m.Driver.Active() {
		state = "growing"
	}
	line := statusStyle.Render(fmt.Sprintf("bramble  %s  frame %d  trees %d  segments %d  q quit  r restart  space pause",
		state, st.Frame, st.Trees, st.Segments))
	if m.paused {
		line = pausedStyle.Render("PAUSED") + "  " + line
	}
	return line
}

// Run starts the program on the alternate screen and blocks until the user
// quits or ctx ends.
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal view: %w", err)
	}
	return nil
}
