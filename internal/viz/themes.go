package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the colour scheme of the live view.
type Theme struct {
	Name    string
	Title   lipgloss.Color
	Label   lipgloss.Color
	Value   lipgloss.Color
	Muted   lipgloss.Color
	Graph   lipgloss.Color
	Good    lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var Themes = []Theme{
	{
		Name:    "cyberpunk",
		Title:   lipgloss.Color("#ff00ff"),
		Label:   lipgloss.Color("#888899"),
		Value:   lipgloss.Color("#00ffff"),
		Muted:   lipgloss.Color("#666666"),
		Graph:   lipgloss.Color("#ffff00"),
		Good:    lipgloss.Color("#00ff00"),
		Warning: lipgloss.Color("#ff8800"),
		Error:   lipgloss.Color("#ff0000"),
	},
	{
		Name:    "retro",
		Title:   lipgloss.Color("#00ff00"),
		Label:   lipgloss.Color("#00cc00"),
		Value:   lipgloss.Color("#88ff88"),
		Muted:   lipgloss.Color("#005500"),
		Graph:   lipgloss.Color("#00ff00"),
		Good:    lipgloss.Color("#88ff88"),
		Warning: lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0000"),
	},
	{
		Name:    "ocean",
		Title:   lipgloss.Color("#00a8cc"),
		Label:   lipgloss.Color("#4488aa"),
		Value:   lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#335577"),
		Graph:   lipgloss.Color("#ffd700"),
		Good:    lipgloss.Color("#00ff88"),
		Warning: lipgloss.Color("#ffcc00"),
		Error:   lipgloss.Color("#ff4444"),
	},
}

// GetTheme returns a theme by name, falling back to the first.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// next returns the theme after t in Themes, wrapping around.
func (t Theme) next() Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
