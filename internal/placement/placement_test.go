package placement

import (
	"errors"
	"testing"

	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/platform"
)

type fakeBackend struct {
	display platform.Display
	windows []platform.Window
	moves   map[platform.WindowID]layout.Rect
	failIDs map[platform.WindowID]bool
}

func newFakeBackend(area layout.Rect, windows ...platform.Window) *fakeBackend {
	return &fakeBackend{
		display: platform.Display{ID: 1, Name: "HDMI-1", Bounds: area, Usable: area},
		windows: windows,
		moves:   make(map[platform.WindowID]layout.Rect),
		failIDs: make(map[platform.WindowID]bool),
	}
}

func (b *fakeBackend) Displays() ([]platform.Display, error) {
	return []platform.Display{b.display}, nil
}

func (b *fakeBackend) ActiveDisplay() (platform.Display, error) { return b.display, nil }

func (b *fakeBackend) Windows() ([]platform.Window, error) { return b.windows, nil }

func (b *fakeBackend) MoveResize(id platform.WindowID, r layout.Rect) error {
	if b.failIDs[id] {
		return errors.New("BadWindow")
	}
	b.moves[id] = r
	return nil
}

func topWindow() platform.Window {
	return platform.Window{ID: 10, Class: "duoview-top", Bounds: layout.NewRect(5, 5, 100, 100)}
}

func bottomWindow() platform.Window {
	return platform.Window{ID: 20, Title: "DuoView-Bottom", Bounds: layout.NewRect(50, 50, 100, 100)}
}

func TestApply_DefaultModeOnOffsetDisplay(t *testing.T) {
	b := newFakeBackend(layout.NewRect(1920, 0, 400, 480), topWindow(), bottomWindow())
	p := New(b, config.DefaultConfig(), nil)

	res, err := p.Apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Moves) != 2 {
		t.Fatalf("expected 2 moves, got %+v", res.Moves)
	}
	if want := (layout.Rect{Left: 1920, Top: 0, Right: 2320, Bottom: 240}); b.moves[10] != want {
		t.Fatalf("top moved to %v, want %v", b.moves[10], want)
	}
	if want := (layout.Rect{Left: 1960, Top: 240, Right: 2280, Bottom: 480}); b.moves[20] != want {
		t.Fatalf("bottom moved to %v, want %v", b.moves[20], want)
	}
	if !p.Status().CanUndo {
		t.Fatalf("expected undo to be available")
	}
}

func TestApply_SwapAndPadding(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ScreenPadding = config.Margins{Top: 20, Left: 10, Right: 10}
	b := newFakeBackend(layout.NewRect(0, 0, 420, 500), topWindow(), bottomWindow())
	p := New(b, cfg, nil)

	if !p.ToggleSwap() {
		t.Fatalf("expected swapped after toggle")
	}
	if _, err := p.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// 400x480 area at (10,20), swapped: bottom panel first.
	if want := (layout.Rect{Left: 50, Top: 20, Right: 370, Bottom: 260}); b.moves[20] != want {
		t.Fatalf("bottom moved to %v, want %v", b.moves[20], want)
	}
	if want := (layout.Rect{Left: 10, Top: 260, Right: 410, Bottom: 500}); b.moves[10] != want {
		t.Fatalf("top moved to %v, want %v", b.moves[10], want)
	}
}

func TestApply_PaddingTooLarge(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ScreenPadding = config.Margins{Left: 300, Right: 300}
	p := New(newFakeBackend(layout.NewRect(0, 0, 400, 480), topWindow()), cfg, nil)
	if _, err := p.Apply(); err == nil {
		t.Fatal("expected padding error")
	}
}

func TestApply_NoWindows(t *testing.T) {
	p := New(newFakeBackend(layout.NewRect(0, 0, 400, 480)), config.DefaultConfig(), nil)
	if _, err := p.Apply(); !errors.Is(err, ErrNoPanelWindows) {
		t.Fatalf("expected ErrNoPanelWindows, got %v", err)
	}
}

func TestApply_MissingPanelAndMoveFailureAreSkipped(t *testing.T) {
	b := newFakeBackend(layout.NewRect(0, 0, 400, 480), topWindow())
	b.failIDs[10] = true
	p := New(b, config.DefaultConfig(), nil)

	res, err := p.Apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Moves) != 0 {
		t.Fatalf("expected no successful moves, got %+v", res.Moves)
	}
}

func TestApply_TargetWindow(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetWindow = "stream output"
	target := platform.Window{ID: 99, Title: "Stream Output", Bounds: layout.NewRect(100, 100, 800, 240)}
	b := newFakeBackend(layout.NewRect(0, 0, 1920, 1080), target, topWindow(), bottomWindow())
	p := New(b, cfg, nil)
	p.SetMode(layout.KindSideBySide)

	res, err := p.Apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Area != target.Bounds {
		t.Fatalf("area = %v, want target bounds %v", res.Area, target.Bounds)
	}
	if want := (layout.Rect{Left: 140, Top: 100, Right: 540, Bottom: 340}); b.moves[10] != want {
		t.Fatalf("top moved to %v, want %v", b.moves[10], want)
	}
	if _, moved := b.moves[99]; moved {
		t.Fatal("target window must not be moved")
	}
}

func TestApply_TargetWindowMissing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.TargetWindow = "nope"
	p := New(newFakeBackend(layout.NewRect(0, 0, 400, 480), topWindow()), cfg, nil)
	if _, err := p.Apply(); err == nil {
		t.Fatal("expected error for missing target window")
	}
}

func TestApply_SameWindowNotUsedTwice(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Panels.Top.Match = "emu"
	cfg.Panels.Bottom.Match = "emu"
	a := platform.Window{ID: 1, Class: "emu"}
	c := platform.Window{ID: 2, Class: "emu"}
	b := newFakeBackend(layout.NewRect(0, 0, 400, 480), a, c)

	if _, err := New(b, cfg, nil).Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if b.moves[1].Top != 0 || b.moves[2].Top != 240 {
		t.Fatalf("expected distinct windows per panel, got %v", b.moves)
	}
}

func TestUndo_RestoresPreviousGeometry(t *testing.T) {
	b := newFakeBackend(layout.NewRect(0, 0, 400, 480), topWindow(), bottomWindow())
	p := New(b, config.DefaultConfig(), nil)
	if _, err := p.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := p.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if b.moves[10] != topWindow().Bounds || b.moves[20] != bottomWindow().Bounds {
		t.Fatalf("expected original geometry restored, got %v", b.moves)
	}
	if p.Status().CanUndo {
		t.Fatal("undo should be consumed")
	}
	if err := p.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("second undo: got %v, want ErrNothingToUndo", err)
	}
}

func TestUndo_BeforeApply(t *testing.T) {
	b := newFakeBackend(layout.NewRect(0, 0, 400, 480), topWindow(), bottomWindow())
	if err := New(b, config.DefaultConfig(), nil).Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("got %v, want ErrNothingToUndo", err)
	}
	if len(b.moves) != 0 {
		t.Fatalf("expected no moves, got %v", b.moves)
	}
}

func TestCycleMode_Wraps(t *testing.T) {
	p := New(newFakeBackend(layout.NewRect(0, 0, 400, 480)), config.DefaultConfig(), nil)
	kinds := layout.Kinds()

	if got := p.CycleMode(-1); got != kinds[len(kinds)-1] {
		t.Fatalf("CycleMode(-1) = %q, want %q", got, kinds[len(kinds)-1])
	}
	if got := p.CycleMode(1); got != kinds[0] {
		t.Fatalf("CycleMode(1) = %q, want %q", got, kinds[0])
	}
}

func TestSelect_ModeThenPreset(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LargeScreenScale = 0.5
	p := New(newFakeBackend(layout.NewRect(0, 0, 400, 480)), cfg, nil)

	if err := p.Select("side_by_side"); err != nil {
		t.Fatalf("select mode: %v", err)
	}
	if st := p.Status(); st.Mode != layout.KindSideBySide || st.Preset != "" {
		t.Fatalf("unexpected status %+v", st)
	}

	if err := p.Select("large-bottom"); err != nil {
		t.Fatalf("select preset: %v", err)
	}
	st := p.Status()
	if st.Mode != layout.KindLarge || !st.Swapped || st.Scale != 1 || st.Preset != "large-bottom" {
		t.Fatalf("unexpected status %+v", st)
	}

	if err := p.Select("diagonal"); err == nil {
		t.Fatal("expected error for unknown name")
	}
}

func TestPreview(t *testing.T) {
	p := New(newFakeBackend(layout.NewRect(0, 0, 400, 480)), config.DefaultConfig(), nil)
	l, err := p.Preview(400, 480)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if want := (layout.Rect{Left: 40, Top: 240, Right: 360, Bottom: 480}); l.BottomScreen != want {
		t.Fatalf("bottom = %v, want %v", l.BottomScreen, want)
	}
	if _, err := p.Preview(0, 480); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestUpdateConfig_KeepsModeRereadsScale(t *testing.T) {
	p := New(newFakeBackend(layout.NewRect(0, 0, 400, 480)), config.DefaultConfig(), nil)
	p.SetMode(layout.KindLarge)

	cfg := config.DefaultConfig()
	cfg.LargeScreenScale = 2
	p.UpdateConfig(cfg)

	st := p.Status()
	if st.Mode != layout.KindLarge || st.Scale != 2 {
		t.Fatalf("unexpected status after reload %+v", st)
	}
}

func TestDrifted(t *testing.T) {
	b := newFakeBackend(layout.NewRect(0, 0, 400, 480), topWindow(), bottomWindow())
	p := New(b, config.DefaultConfig(), nil)

	if drifted, err := p.Drifted(); err != nil || drifted {
		t.Fatalf("before first apply: drifted=%v err=%v", drifted, err)
	}
	if _, err := p.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if drifted, _ := p.Drifted(); drifted {
		t.Fatal("expected no drift right after apply")
	}

	b.display.Usable = layout.NewRect(0, 30, 400, 450)
	if drifted, err := p.Drifted(); err != nil || !drifted {
		t.Fatalf("after work area change: drifted=%v err=%v", drifted, err)
	}
}
