// Package tui is an interactive layout explorer: pick a mode or preset,
// resize a virtual output window and see where both panels land.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/ipc"
	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/placement"
)

// Daemon is the part of *ipc.Client the TUI uses.
type Daemon interface {
	Ping() error
	Status() (*ipc.StatusData, error)
	SetMode(name string, place bool) (*ipc.StateData, error)
	ToggleSwap(place bool) (*ipc.StateData, error)
	Place() (*placement.Result, error)
}

const (
	resizeStep    = 20
	minWindowSide = 20
	maxWindowSide = 8192
	statusTimeout = 3 * time.Second
)

// modeItem implements list.Item for the mode picker sidebar.
type modeItem struct {
	name     string
	isPreset bool
	isActive bool
}

func (i modeItem) Title() string {
	prefix := "  "
	if i.isActive {
		prefix = "* "
	}
	if i.isPreset {
		return prefix + i.name + " (preset)"
	}
	return prefix + i.name
}

func (i modeItem) Description() string { return "" }
func (i modeItem) FilterValue() string { return i.name }

type clearStatusMsg struct{}

type model struct {
	cfg    *config.Config
	daemon Daemon
	list   list.Model

	connected bool
	active    string

	// swapped flips the selected entry's own swap state.
	swapped bool
	winW    int
	winH    int

	statusText string
	statusErr  bool

	width  int
	height int
}

func newModel(cfg *config.Config, daemon Daemon) model {
	m := model{
		cfg:    cfg,
		daemon: daemon,
		winW:   layout.TopNativeWidth,
		winH:   layout.TopNativeHeight + layout.BottomNativeHeight,
	}
	if daemon != nil && daemon.Ping() == nil {
		m.connected = true
		if st, err := daemon.Status(); err == nil {
			m.active = string(st.Mode)
			if st.Preset != "" {
				m.active = st.Preset
			}
		}
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(m.items(), delegate, 0, 0)
	l.Title = "Modes"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	m.list = l

	start := m.active
	if start == "" {
		start = string(cfg.DefaultMode)
	}
	for i, it := range l.Items() {
		if it.(modeItem).name == start {
			m.list.Select(i)
			break
		}
	}
	return m
}

func (m model) items() []list.Item {
	var items []list.Item
	for _, k := range layout.Kinds() {
		items = append(items, modeItem{name: string(k), isActive: string(k) == m.active})
	}
	for _, name := range m.cfg.PresetNames() {
		if _, err := layout.ParseKind(name); err == nil {
			continue
		}
		items = append(items, modeItem{name: name, isPreset: true, isActive: name == m.active})
	}
	return items
}

func (m model) selectedName() string {
	item, ok := m.list.SelectedItem().(modeItem)
	if !ok {
		return ""
	}
	return item.name
}

// selection resolves the highlighted entry with the swap toggle applied.
func (m model) selection() (config.Selection, error) {
	name := m.selectedName()
	if name == "" {
		return config.Selection{}, fmt.Errorf("nothing selected")
	}
	sel, err := m.cfg.Resolve(name, false)
	if err != nil {
		return config.Selection{}, err
	}
	sel.Swapped = sel.Swapped != m.swapped
	return sel, nil
}

func (m model) computeLayout() (layout.Layout, error) {
	sel, err := m.selection()
	if err != nil {
		return layout.Layout{}, err
	}
	mode, err := layout.ModeFor(sel.Mode, m.cfg.ModeParams(sel.Scale))
	if err != nil {
		return layout.Layout{}, err
	}
	return layout.Compute(m.winW, m.winH, mode, sel.Swapped), nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.sidebarWidth(), m.contentHeight())
		return m, nil

	case clearStatusMsg:
		m.statusText = ""
		m.statusErr = false
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s":
			m.swapped = !m.swapped
			return m, nil
		case "left":
			m.resize(-resizeStep, 0)
			return m, nil
		case "right":
			m.resize(resizeStep, 0)
			return m, nil
		case "+", "=":
			m.scaleWindow(11, 10)
			return m, nil
		case "-", "_":
			m.scaleWindow(10, 11)
			return m, nil
		case "shift+up", "K":
			m.resize(0, -resizeStep)
			return m, nil
		case "shift+down", "J":
			m.resize(0, resizeStep)
			return m, nil
		case "enter":
			return m.apply()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) resize(dw, dh int) {
	m.winW = clamp(m.winW+dw, minWindowSide, maxWindowSide)
	m.winH = clamp(m.winH+dh, minWindowSide, maxWindowSide)
}

func (m *model) scaleWindow(num, den int) {
	w := m.winW * num / den
	h := m.winH * num / den
	if w == m.winW && num > den {
		w, h = w+1, h+1
	}
	m.winW = clamp(w, minWindowSide, maxWindowSide)
	m.winH = clamp(h, minWindowSide, maxWindowSide)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// apply sends the selection to the daemon and places the panels.
func (m model) apply() (tea.Model, tea.Cmd) {
	name := m.selectedName()
	if name == "" {
		return m, nil
	}
	if !m.connected || m.daemon == nil {
		return m.setStatus("daemon not running; start it with `duoview daemon`", true)
	}
	sel, err := m.selection()
	if err != nil {
		return m.setStatus(err.Error(), true)
	}
	st, err := m.daemon.SetMode(name, false)
	if err != nil {
		return m.setStatus(fmt.Sprintf("error: %v", err), true)
	}
	if st.Swapped != sel.Swapped {
		_, err = m.daemon.ToggleSwap(true)
	} else {
		_, err = m.daemon.Place()
	}
	m.active = name
	m.list.SetItems(m.items())
	if err != nil {
		return m.setStatus(fmt.Sprintf("%s selected, placement failed: %v", name, err), true)
	}
	return m.setStatus("applied: "+name, false)
}

func (m model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusText = text
	m.statusErr = isErr
	return m, tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m model) sidebarWidth() int {
	return clamp(m.width*35/100, 20, 40)
}

// contentHeight leaves room for the status bar and the help line.
func (m model) contentHeight() int {
	return max(m.height-3, 1)
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := m.renderStatusBar()
	contentHeight := m.contentHeight()

	sidebar := lipgloss.NewStyle().
		Width(m.sidebarWidth()).
		Height(contentHeight).
		Render(m.list.View())

	sep := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")).
		Render(strings.TrimSuffix(strings.Repeat("│\n", contentHeight), "\n"))

	previewWidth := max(m.width-m.sidebarWidth()-3, 10)
	preview := m.renderPreview(previewWidth, contentHeight)

	columns := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " "+sep+" ", preview)
	return lipgloss.JoinVertical(lipgloss.Left, statusBar, columns, m.renderHelpBar())
}

func (m model) renderPreview(width, height int) string {
	l, err := m.computeLayout()
	if err != nil {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(err.Error())
	}
	sel, _ := m.selection()

	swap := ""
	if sel.Swapped {
		swap = "  swapped"
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Render(fmt.Sprintf(" %s  [%d×%d]%s", m.selectedName(), m.winW, m.winH, swap))
	summary := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Render(" " + summarizeLayout(l))

	canvasH := max(height-3, 3)
	canvasW := max(width-2, 5)
	// Terminal cells are about twice as tall as wide.
	if fit := l.WindowWidth * canvasH * 2 / l.WindowHeight; fit < canvasW {
		canvasW = max(fit, 5)
	} else if fitH := l.WindowHeight * canvasW / (2 * l.WindowWidth); fitH < canvasH {
		canvasH = max(fitH, 3)
	}
	lines := renderASCIIPreview(l, canvasW, canvasH)
	block := lipgloss.NewStyle().
		Foreground(lipgloss.Color("247")).
		Render(strings.Join(lines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, title, summary, "", block)
}

func (m model) renderStatusBar() string {
	var status string
	if m.connected {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		status = dot + " daemon connected"
		if m.active != "" {
			status += "  active:" + m.active
		}
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " daemon not running"
	}
	if m.statusText != "" {
		color := lipgloss.Color("42")
		if m.statusErr {
			color = lipgloss.Color("196")
		}
		status += "  " + lipgloss.NewStyle().Foreground(color).Render(m.statusText)
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1).
		Render(status)
}

func (m model) renderHelpBar() string {
	help := "↑/↓: mode  s: swap  ←/→: width  J/K: height  +/-: zoom  enter: apply  q: quit"
	return lipgloss.NewStyle().
		Width(m.width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1).
		Render(help)
}

// Run starts the TUI. daemon may be nil; enter then only reports that no
// daemon is running.
func Run(cfg *config.Config, daemon Daemon) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	p := tea.NewProgram(newModel(cfg, daemon), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
