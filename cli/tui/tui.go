package tui

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View types with a TUI.
const (
	ViewInspectTransfer = "inspect_transfer"
	ViewStatsTransfers  = "stats_transfers"
)

// views maps a view type to its renderer. Only read-only inspect and stats
// views are registered.
var views = map[string]func(data any) string{
	ViewInspectTransfer: renderTransfer,
	ViewStatsTransfers:  renderStats,
}

var quitKey = key.NewBinding(
	key.WithKeys("q", "ctrl+c"),
	key.WithHelp("q", "quit"),
)

// model is a static Bubble Tea view that waits for the quit key.
type model struct {
	view     string
	data     any
	quitting bool
}

func newModel(viewType string, data any) model {
	return model{view: viewType, data: data}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, quitKey) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	render, ok := views[m.view]
	if !ok {
		return fmt.Sprintf("Unknown view type: %s", m.view)
	}
	return render(m.data) + "\n" + helpStyle.Render("Press q or Ctrl+C to quit")
}

// Run shows viewType full-screen until the user quits.
func Run(viewType string, data any) error {
	if !IsTUISupported(viewType) {
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	_, err := tea.NewProgram(newModel(viewType, data), tea.WithAltScreen()).Run()
	return err
}

// RenderStatic renders viewType once, without a terminal program.
func RenderStatic(viewType string, data any) string {
	return lipgloss.NewStyle().Padding(1, 2).Render(newModel(viewType, data).View())
}

// IsTUISupported reports whether viewType has a TUI.
func IsTUISupported(viewType string) bool {
	_, ok := views[viewType]
	return ok
}

// SupportedTUIViews returns the view types that support TUI, sorted.
func SupportedTUIViews() []string {
	out := make([]string, 0, len(views))
	for v := range views {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
