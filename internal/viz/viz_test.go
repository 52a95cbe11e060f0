package viz

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/relsim/internal/compute"
	"github.com/san-kum/relsim/internal/dynamo"
	"github.com/san-kum/relsim/internal/integrators"
	"github.com/san-kum/relsim/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(4, 2)
	assert.Equal(t, 8, c.PixelWidth())
	assert.Equal(t, 8, c.PixelHeight())

	c.Set(0, 0)
	c.Set(1, 3)
	assert.Equal(t, rune(0x2800|0x1|0x80), c.Grid[0][0])
	assert.True(t, c.IsSet(1, 3))

	c.Unset(0, 0)
	assert.Equal(t, rune(0x2800|0x80), c.Grid[0][0])

	c.Set(-1, 0)
	c.Set(100, 100)
	assert.False(t, c.IsSet(100, 100))

	c.Clear()
	assert.Equal(t, strings.Repeat(string(rune(0x2800)), 4)+"\n", strings.SplitAfter(c.String(), "\n")[0])
}

func TestDrawLineEndpoints(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 19)
	assert.True(t, c.IsSet(0, 0))
	assert.True(t, c.IsSet(19, 19))
	assert.True(t, c.IsSet(10, 10))
}

func TestViewportFit(t *testing.T) {
	c := NewCanvas(40, 20)
	pts := []r3.Vec{{X: -1e8, Y: 0}, {X: 1e8, Y: 0}}
	v := FitViewport(pts, c, 0)

	x0, y0 := v.Project(pts[0], c)
	x1, y1 := v.Project(pts[1], c)
	assert.Equal(t, y0, y1)
	assert.Equal(t, c.PixelHeight(), x1-x0, "span should fill the shorter canvas side")

	cx, cy := v.Project(r3.Vec{}, c)
	assert.Equal(t, c.PixelWidth()/2, cx)
	assert.Equal(t, c.PixelHeight()/2, cy)

	// y grows upward on screen.
	_, up := v.Project(r3.Vec{Y: 1e7}, c)
	assert.Less(t, up, cy)

	assert.Equal(t, 1.0, FitViewport(nil, c, 0).Scale)
}

func TestSparklineAndProgress(t *testing.T) {
	assert.Equal(t, "▁█", Sparkline([]float64{0, 1}, 2))
	assert.Equal(t, "───", Sparkline(nil, 3))
	assert.Equal(t, "██░░", ProgressBar(0.5, 4))
	assert.Equal(t, "████", ProgressBar(3, 4))
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "retro", GetTheme("retro").Name)
	assert.Equal(t, Themes[0].Name, GetTheme("nope").Name)
	assert.Len(t, ThemeNames(), len(Themes))
	assert.Equal(t, Themes[0].Name, Themes[len(Themes)-1].next().Name)
}

func factory(t *testing.T) (Factory, *physics.ForceModel) {
	t.Helper()
	law, err := physics.NewForceModel(physics.DefaultEpsilon)
	require.NoError(t, err)
	specs := []dynamo.BodySpec{
		{Name: "earth", Mass: 5.972e24},
		{Name: "moon", Mass: 7.342e22, Position: dynamo.NewFourVector(0, 3.844e8, 0, 0), Momentum: r3.Vec{Y: 7.342e22 * 1022}},
	}
	return func() (*dynamo.Simulation, error) {
		return dynamo.New(specs, dynamo.Config{Dt: 60}, integrators.NewSemiImplicitEuler(law, compute.NewCPUBackend(1)))
	}, law
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLiveModelSteps(t *testing.T) {
	f, law := factory(t)
	m, err := NewModel(f, Options{Title: "earth_moon", StepsPerFrame: 10, MaxSteps: 25, Potential: law})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		m = update(t, m, TickMsg(time.Now()))
	}
	assert.Equal(t, 25, m.sim.StepCount())
	assert.False(t, m.running, "should pause at MaxSteps")
	assert.InDelta(t, 1500, m.current().snap.Time, 1e-9)

	view := m.View()
	assert.Contains(t, view, "EARTH_MOON")
	assert.Contains(t, view, "PAUSED")
	assert.Contains(t, view, "moon")
}

func TestLiveModelKeys(t *testing.T) {
	f, law := factory(t)
	m, err := NewModel(f, Options{Potential: law})
	require.NoError(t, err)

	m = update(t, m, key(" "))
	assert.False(t, m.running)
	m = update(t, m, TickMsg(time.Now()))
	assert.Equal(t, 0, m.sim.StepCount(), "paused model must not step")

	m = update(t, m, key(" "))
	m = update(t, m, TickMsg(time.Now()))
	m = update(t, m, TickMsg(time.Now()))
	assert.Equal(t, 2, m.sim.StepCount())

	m = update(t, m, key("["))
	assert.Equal(t, 1, m.playHead)
	assert.Equal(t, 1, m.current().snap.Step)
	m = update(t, m, key("]"))
	m = update(t, m, key("]"))
	assert.Equal(t, -1, m.playHead)

	scale := m.view.Scale
	m = update(t, m, key("+"))
	assert.InDelta(t, scale*1.25, m.view.Scale, 1e-12*scale)

	m = update(t, m, key(">"))
	assert.Equal(t, 2, m.opts.StepsPerFrame)

	theme := m.theme.Name
	m = update(t, m, key("t"))
	assert.NotEqual(t, theme, m.theme.Name)

	m = update(t, m, key("r"))
	assert.Equal(t, 0, m.sim.StepCount())
	assert.Len(t, m.history, 1)
}

func TestLiveModelFactoryError(t *testing.T) {
	_, err := NewModel(func() (*dynamo.Simulation, error) { return nil, errors.New("boom") }, Options{})
	assert.Error(t, err)
}
