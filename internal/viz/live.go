package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/relsim/internal/dynamo"
	"github.com/san-kum/relsim/internal/metrics"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	trailLength     = 400
	maxListedBodies = 6
)

// Factory builds the simulation shown by the live view; reset calls it
// again.
type Factory func() (*dynamo.Simulation, error)

type Options struct {
	Title string
	// StepsPerFrame is how many simulation steps run per redraw.
	StepsPerFrame int
	// MaxSteps pauses the view once reached; 0 runs until quit.
	MaxSteps  int
	Potential metrics.Potential
	Theme     string
	GIFPath   string
}

// frame is the state kept for replay.
type frame struct {
	snap   dynamo.Snapshot
	energy float64
	clamps int
}

type TickMsg time.Time

// Model steps a simulation on every tick and draws the x-y projection of
// its bodies with trails, alongside an energy plot.
type Model struct {
	factory  Factory
	opts     Options
	sim      *dynamo.Simulation
	canvas   *Canvas
	view     Viewport
	trails   [][]r3.Vec
	history  []frame
	energy0  float64
	playHead int
	running  bool
	showHelp bool
	theme    Theme
	st       styles
	err      error

	recording bool
	frames    []*image.Paletted
}

// NewModel builds the first simulation and records its initial frame.
func NewModel(factory Factory, opts Options) (Model, error) {
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = 1
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "simulation.gif"
	}
	theme := GetTheme(opts.Theme)
	m := Model{
		factory:  factory,
		opts:     opts,
		canvas:   NewCanvas(width, height),
		playHead: -1,
		running:  true,
		theme:    theme,
		st:       newStyles(theme),
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Run shows the model full screen until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
				m.running = false
			}
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "+", "=":
			m.view = m.view.Zoom(1.25)
		case "-", "_":
			m.view = m.view.Zoom(0.8)
		case "f":
			m.fit()
		case ">", ".":
			m.opts.StepsPerFrame *= 2
		case "<", ",":
			m.opts.StepsPerFrame = max(1, m.opts.StepsPerFrame/2)
		case "t":
			m.theme = m.theme.next()
			m.st = newStyles(m.theme)
		case "g":
			if m.recording {
				m.err = m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				m.step()
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) reset() error {
	sim, err := m.factory()
	if err != nil {
		return err
	}
	m.sim = sim
	m.trails = make([][]r3.Vec, sim.Len())
	m.history = m.history[:0]
	m.playHead = -1
	m.err = nil

	snap := sim.Snapshot()
	m.energy0 = metrics.TotalEnergy(snap.Bodies, m.opts.Potential)
	m.push(snap, 0)
	m.fit()
	return nil
}

func (m *Model) fit() {
	positions := make([]r3.Vec, 0, m.sim.Len())
	for _, b := range m.current().snap.Bodies {
		positions = append(positions, b.SpatialPosition())
	}
	m.view = FitViewport(positions, m.canvas, 0.25)
}

func (m *Model) push(snap dynamo.Snapshot, clamps int) {
	m.history = append(m.history, frame{
		snap:   snap,
		energy: metrics.TotalEnergy(snap.Bodies, m.opts.Potential),
		clamps: clamps,
	})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	for i, b := range snap.Bodies {
		m.trails[i] = append(m.trails[i], b.SpatialPosition())
		if len(m.trails[i]) > trailLength {
			m.trails[i] = m.trails[i][1:]
		}
	}
}

// step advances the simulation by StepsPerFrame steps, or fewer when
// MaxSteps is reached.
func (m *Model) step() {
	if m.err != nil {
		m.running = false
		return
	}
	before := m.sim.Clamps()
	for i := 0; i < m.opts.StepsPerFrame; i++ {
		if m.opts.MaxSteps > 0 && m.sim.StepCount() >= m.opts.MaxSteps {
			m.running = false
			break
		}
		if err := m.sim.Step(); err != nil {
			m.err = err
			m.running = false
			break
		}
	}
	m.push(m.sim.Snapshot(), m.sim.Clamps()-before)
}

// scrub moves the replay position through history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

func (m *Model) current() frame {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return m.history[len(m.history)-1]
}

func (m *Model) draw() {
	m.canvas.Clear()
	for _, trail := range m.trails {
		for _, p := range trail {
			x, y := m.view.Project(p, m.canvas)
			m.canvas.Set(x, y)
		}
	}
	for _, b := range m.current().snap.Bodies {
		x, y := m.view.Project(b.SpatialPosition(), m.canvas)
		m.canvas.Disc(x, y, 1)
	}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.st.bad.Render("ERROR")
	case m.playHead != -1:
		dt := m.history[m.playHead].snap.Time - m.history[len(m.history)-1].snap.Time
		if m.running {
			return m.st.warning.Render(fmt.Sprintf("REPLAYING (%.3gs)", dt))
		}
		return m.st.warning.Render(fmt.Sprintf("REPLAY PAUSED (%.3gs)", dt))
	case !m.running:
		return m.st.warning.Render("PAUSED")
	case m.recording:
		return m.st.bad.Render("RECORDING")
	}
	return m.st.good.Render("RUNNING")
}

func (m Model) drift(e float64) float64 {
	if m.energy0 == 0 {
		return e
	}
	return (e - m.energy0) / math.Abs(m.energy0)
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	cur := m.current()

	var s strings.Builder
	title := m.opts.Title
	if title == "" {
		title = "relsim"
	}
	s.WriteString(m.st.header.Render(strings.ToUpper(title)) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.history) > 1 {
		drifts := make([]float64, len(m.history))
		for i, f := range m.history {
			drifts[i] = m.drift(f.energy)
		}
		chart := asciigraph.Plot(drifts, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy drift"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(m.st.label.Render(label) + m.st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.4gs", cur.snap.Time))
	row("Step", fmt.Sprintf("%d", cur.snap.Step))
	row("Energy", fmt.Sprintf("%.6g J", cur.energy))
	row("Drift", fmt.Sprintf("%.3e", m.drift(cur.energy)))
	row("Clamps", fmt.Sprintf("%d", m.sim.Clamps()))
	row("Speed", fmt.Sprintf("%d steps/frame", m.opts.StepsPerFrame))
	if m.opts.MaxSteps > 0 {
		frac := float64(m.sim.StepCount()) / float64(m.opts.MaxSteps)
		row("Progress", ProgressBar(frac, 20))
	}

	clamps := make([]float64, len(m.history))
	for i, f := range m.history {
		clamps[i] = float64(f.clamps)
	}
	row("Guards", Sparkline(clamps, 20))

	s.WriteString("\nBODIES\n")
	for i, b := range cur.snap.Bodies {
		if i == maxListedBodies {
			s.WriteString(m.st.label.Render(fmt.Sprintf("  +%d more", len(cur.snap.Bodies)-i)) + "\n")
			break
		}
		beta := r3.Norm(b.Velocity()) / dynamo.SpeedOfLight
		line := fmt.Sprintf("%-10s β=%.3g", b.Name(), beta)
		if g, err := b.Gamma(); err == nil {
			line += fmt.Sprintf(" γ=%.6g", g)
		}
		s.WriteString("  " + m.st.value.Render(line) + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + m.st.bad.Render(m.err.Error()) + "\n")
	}
	s.WriteString(m.st.help.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\nT:Theme  G:Record ?:Help\n[ ]:Time-Travel +-:Zoom"))

	canvasView := m.st.canvas.Render(m.canvas.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, m.st.stats.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  + / -    - Zoom in / out            ║
║  F        - Fit bodies to view       ║
║  > / <    - Double / halve speed     ║
║  [        - Rewind (time travel)     ║
║  ]        - Forward (time travel)    ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// captureFrame rasterizes the braille canvas, one block per dot.
func (m *Model) captureFrame() {
	charW, charH := 8, 16
	dotW, dotH := charW/2, charH/4
	img := image.NewPaletted(image.Rect(0, 0, m.canvas.Width*charW, m.canvas.Height*charH), color.Palette{color.Black, color.White})
	for y := 0; y < m.canvas.PixelHeight(); y++ {
		for x := 0; x < m.canvas.PixelWidth(); x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() error {
	if len(m.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, f := range m.frames {
		anim.Image = append(anim.Image, f)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(m.opts.GIFPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}
