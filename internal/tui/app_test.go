package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/ipc"
	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/placement"
)

type fakeDaemon struct {
	down    bool
	mode    layout.Kind
	swapped bool
	setMode []string
	toggles int
	places  int
	err     error
}

func (f *fakeDaemon) Ping() error {
	if f.down {
		return ipc.ErrDaemonNotRunning
	}
	return nil
}

func (f *fakeDaemon) Status() (*ipc.StatusData, error) {
	return &ipc.StatusData{Status: placement.Status{Mode: f.mode, Swapped: f.swapped}}, nil
}

func (f *fakeDaemon) SetMode(name string, _ bool) (*ipc.StateData, error) {
	f.setMode = append(f.setMode, name)
	cfg := config.DefaultConfig()
	sel, err := cfg.Resolve(name, f.swapped)
	if err != nil {
		return nil, err
	}
	f.mode, f.swapped = sel.Mode, sel.Swapped
	return &ipc.StateData{Mode: f.mode, Swapped: f.swapped}, nil
}

func (f *fakeDaemon) ToggleSwap(bool) (*ipc.StateData, error) {
	f.toggles++
	f.swapped = !f.swapped
	return &ipc.StateData{Mode: f.mode, Swapped: f.swapped}, f.err
}

func (f *fakeDaemon) Place() (*placement.Result, error) {
	f.places++
	return &placement.Result{}, f.err
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m model, msgs ...tea.Msg) (model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(model)
	}
	return m, cmd
}

func sized(t *testing.T, d Daemon) model {
	t.Helper()
	m, _ := send(t, newModel(config.DefaultConfig(), d), tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestNewModel_Items(t *testing.T) {
	m := newModel(config.DefaultConfig(), nil)
	var names []string
	for _, it := range m.list.Items() {
		names = append(names, it.(modeItem).name)
	}
	want := []string{"default", "single", "large", "side-by-side", "custom", "large-bottom", "single-bottom", "stacked-swapped", "wide"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("items = %v, want %v", names, want)
	}
	if m.selectedName() != "default" {
		t.Fatalf("selected = %q", m.selectedName())
	}
	if m.connected {
		t.Fatalf("nil daemon reported as connected")
	}
}

func TestNewModel_SelectsActiveMode(t *testing.T) {
	m := newModel(config.DefaultConfig(), &fakeDaemon{mode: layout.KindSideBySide})
	if !m.connected {
		t.Fatalf("expected connected")
	}
	if m.selectedName() != "side-by-side" {
		t.Fatalf("selected = %q", m.selectedName())
	}
}

func TestUpdate_ResizeAndSwap(t *testing.T) {
	m := sized(t, nil)
	if m.winW != 400 || m.winH != 480 {
		t.Fatalf("initial window %dx%d", m.winW, m.winH)
	}

	m, _ = send(t, m, key("right"), key("right"), key("J"))
	if m.winW != 440 || m.winH != 500 {
		t.Fatalf("after resize %dx%d", m.winW, m.winH)
	}

	m, _ = send(t, m, key("s"))
	l, err := m.computeLayout()
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if l.BottomScreen.Top != 0 {
		t.Fatalf("swapped default should put bottom first, got %v", l.BottomScreen)
	}

	for range 200 {
		m, _ = send(t, m, key("left"))
	}
	if m.winW != minWindowSide {
		t.Fatalf("width not clamped: %d", m.winW)
	}

	m, _ = send(t, m, key("+"))
	if m.winW <= minWindowSide {
		t.Fatalf("zoom did not grow window: %d", m.winW)
	}
}

func TestUpdate_SwapPresetInverts(t *testing.T) {
	m := sized(t, nil)
	for m.selectedName() != "single-bottom" {
		m, _ = send(t, m, key("down"))
	}
	sel, err := m.selection()
	if err != nil || !sel.Swapped {
		t.Fatalf("single-bottom selection = %+v (%v)", sel, err)
	}
	m, _ = send(t, m, key("s"))
	if sel, _ := m.selection(); sel.Swapped {
		t.Fatalf("swap toggle should cancel the preset's swap")
	}
}

func TestApply(t *testing.T) {
	d := &fakeDaemon{mode: layout.KindDefault}
	m := sized(t, d)

	m, cmd := send(t, m, key("enter"))
	if cmd == nil {
		t.Fatalf("expected status clear command")
	}
	if len(d.setMode) != 1 || d.setMode[0] != "default" || d.places != 1 || d.toggles != 0 {
		t.Fatalf("daemon calls: %+v", d)
	}
	if !strings.HasPrefix(m.statusText, "applied") || m.statusErr {
		t.Fatalf("status = %q", m.statusText)
	}

	m, _ = send(t, m, key("s"), key("enter"))
	if d.toggles != 1 || !d.swapped {
		t.Fatalf("swap not applied: %+v", d)
	}

	m, _ = send(t, m, clearStatusMsg{})
	if m.statusText != "" {
		t.Fatalf("status not cleared")
	}
}

func TestApply_Errors(t *testing.T) {
	m := sized(t, &fakeDaemon{down: true})
	m, _ = send(t, m, key("enter"))
	if !m.statusErr || !strings.Contains(m.statusText, "not running") {
		t.Fatalf("status = %q", m.statusText)
	}

	d := &fakeDaemon{err: errors.New("no panel windows")}
	m = sized(t, d)
	m, _ = send(t, m, key("enter"))
	if !m.statusErr || !strings.Contains(m.statusText, "no panel windows") {
		t.Fatalf("status = %q", m.statusText)
	}
}

func TestQuit(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		_, cmd := send(t, sized(t, nil), key(k))
		if cmd == nil {
			t.Fatalf("%s: expected quit command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s: expected tea.QuitMsg", k)
		}
	}
}

func TestView(t *testing.T) {
	if v := newModel(config.DefaultConfig(), nil).View(); v != "" {
		t.Fatalf("view before sizing should be empty")
	}
	v := sized(t, &fakeDaemon{mode: layout.KindDefault}).View()
	for _, want := range []string{"daemon connected", "Modes", "TOP", "BOTTOM", "enter: apply"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
