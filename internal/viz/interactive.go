package viz

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/phasekit/internal/config"
	"github.com/san-kum/phasekit/internal/expr"
)

// ErrNoPresets is returned when the picker has nothing to offer.
var ErrNoPresets = errors.New("no presets available")

var (
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	descStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
)

// Picker lists the built-in presets and hands the chosen one to an
// Explorer. All explorers it opens share one expression cache.
type Picker struct {
	names     []string
	cursor    int
	particles int
	cache     *expr.Cache
	logger    *slog.Logger

	explorer *Explorer
	err      error
}

func NewPicker(particles int, logger *slog.Logger) *Picker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Picker{
		names:     config.ListPresets(),
		particles: particles,
		cache:     expr.NewCache(0),
		logger:    logger,
	}
}

// Selected returns the preset under the cursor.
func (m *Picker) Selected() string {
	if len(m.names) == 0 {
		return ""
	}
	return m.names[m.cursor]
}

// Explorer returns the running explorer, or nil while in the menu.
func (m *Picker) Explorer() *Explorer { return m.explorer }

func (m *Picker) Init() tea.Cmd { return nil }

func (m *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.explorer != nil {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" && !m.explorer.editing {
			m.explorer = nil
			return m, nil
		}
		_, cmd := m.explorer.Update(msg)
		return m, cmd
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "enter", " ":
		return m, m.open()
	}
	return m, nil
}

func (m *Picker) open() tea.Cmd {
	name := m.Selected()
	cfg := config.GetPreset(name)
	if cfg == nil {
		m.err = ErrNoPresets
		return nil
	}
	e, err := NewExplorer(cfg, m.particles, m.cache)
	if err != nil {
		m.err = fmt.Errorf("preset %s: %w", name, err)
		return nil
	}
	m.logger.Debug("opening preset", "preset", name, "system", e.System())
	m.explorer, m.err = e.WithLogger(m.logger), nil
	return e.Init()
}

func (m *Picker) View() string {
	if m.explorer != nil {
		return m.explorer.View()
	}

	var b strings.Builder
	b.WriteString("\n\n    " + Title.Render("PHASEKIT") + "\n    " + Subtle.Render("one-dimensional and planar flows") + "\n    " + Subtle.Render("─────────────────────────") + "\n\n")
	for i, name := range m.names {
		formula := config.Presets[name].System.Formula
		if len(formula) > 28 {
			formula = formula[:25] + "..."
		}
		if i == m.cursor {
			fmt.Fprintf(&b, "    %s %s  %s\n", cursorStyle.Render("▸"), nameStyle.Render(fmt.Sprintf("%-16s", name)), descStyle.Render(formula))
		} else {
			fmt.Fprintf(&b, "    %s  %s\n", dimStyle.Render(fmt.Sprintf("  %-16s", name)), dimStyle.Render(formula))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + RenderError(m.err) + "\n")
	}
	b.WriteString("\n    " + KeyHints("j/k", "navigate", "enter", "select", "esc", "back", "q", "quit") + "\n")
	return b.String()
}

// RunPicker runs the preset menu full-screen until the user quits.
func RunPicker(particles int, logger *slog.Logger) error {
	p := NewPicker(particles, logger)
	if len(p.names) == 0 {
		return ErrNoPresets
	}
	_, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	return err
}
