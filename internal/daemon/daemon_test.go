package daemon

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/hotkeys"
	"github.com/1broseidon/duoview/internal/ipc"
	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/platform"
)

type fakeBackend struct {
	mu      sync.Mutex
	display platform.Display
	windows []platform.Window
	moves   map[platform.WindowID]layout.Rect
}

func newFakeBackend(area layout.Rect) *fakeBackend {
	return &fakeBackend{
		display: platform.Display{ID: 3, Name: "DP-1", Bounds: area, Usable: area},
		windows: []platform.Window{
			{ID: 1, Class: "duoview-top", Bounds: layout.NewRect(0, 0, 10, 10)},
			{ID: 2, Class: "duoview-bottom", Bounds: layout.NewRect(0, 0, 10, 10)},
		},
		moves: make(map[platform.WindowID]layout.Rect),
	}
}

func (b *fakeBackend) Displays() ([]platform.Display, error) {
	return []platform.Display{b.display}, nil
}

func (b *fakeBackend) ActiveDisplay() (platform.Display, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.display, nil
}

func (b *fakeBackend) Windows() ([]platform.Window, error) { return b.windows, nil }

func (b *fakeBackend) MoveResize(id platform.WindowID, r layout.Rect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.moves[id] = r
	return nil
}

func (b *fakeBackend) moved(id platform.WindowID) (layout.Rect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.moves[id]
	return r, ok
}

type fakeDialog struct {
	errors []string
}

func (d *fakeDialog) ShowError(message string) error {
	d.errors = append(d.errors, message)
	return nil
}

func (d *fakeDialog) Confirm(title, message string) (bool, error) { return false, nil }

type fakeBinder struct {
	bound   []hotkeys.Binding
	rebinds int
}

func (b *fakeBinder) Bind(bindings []hotkeys.Binding) error {
	b.bound = bindings
	return nil
}

func (b *fakeBinder) Rebind(bindings []hotkeys.Binding) error {
	b.rebinds++
	b.bound = bindings
	return nil
}

func socketPath(t *testing.T) string {
	t.Helper()
	// t.TempDir can exceed the unix socket path limit.
	dir, err := os.MkdirTemp("", "dvd")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "d.sock")
}

func newTestDaemon(t *testing.T, cfgPath string) (*Daemon, *fakeBackend, *fakeDialog, *fakeBinder) {
	t.Helper()
	b := newFakeBackend(layout.NewRect(0, 0, 400, 480))
	dlg := &fakeDialog{}
	keys := &fakeBinder{}
	d, err := New(Options{
		ConfigPath: cfgPath,
		Config:     config.DefaultConfig(),
		Backend:    b,
		Hotkeys:    keys,
		Dialog:     dlg,
		SocketPath: socketPath(t),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, b, dlg, keys
}

func TestNew_RequiresConfigBackendAndSocket(t *testing.T) {
	b := newFakeBackend(layout.NewRect(0, 0, 400, 480))
	cases := []Options{
		{Backend: b, SocketPath: "/tmp/x.sock"},
		{Config: config.DefaultConfig(), SocketPath: "/tmp/x.sock"},
		{Config: config.DefaultConfig(), Backend: b},
	}
	for i, opts := range cases {
		if _, err := New(opts); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestCompute(t *testing.T) {
	d, _, _, _ := newTestDaemon(t, "")

	if _, err := d.Compute(ipc.ComputePayload{Width: 0, Height: 480}); err == nil {
		t.Fatalf("expected error for zero width")
	}

	l, err := d.Compute(ipc.ComputePayload{Width: 400, Height: 480})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if want := layout.NewRect(40, 240, 320, 240); l.BottomScreen != want {
		t.Fatalf("bottom = %v, want %v", l.BottomScreen, want)
	}

	swapped := true
	l, err = d.Compute(ipc.ComputePayload{Width: 400, Height: 480, Swapped: &swapped})
	if err != nil {
		t.Fatalf("compute swapped: %v", err)
	}
	if want := layout.NewRect(0, 240, 400, 240); l.TopScreen != want {
		t.Fatalf("swapped top = %v, want %v", l.TopScreen, want)
	}

	l, err = d.Compute(ipc.ComputePayload{Width: 800, Height: 240, Mode: "side-by-side"})
	if err != nil {
		t.Fatalf("compute side-by-side: %v", err)
	}
	if want := (layout.Rect{Left: 40, Top: 0, Right: 440, Bottom: 240}); l.TopScreen != want {
		t.Fatalf("side-by-side top = %v, want %v", l.TopScreen, want)
	}

	if _, err := d.Compute(ipc.ComputePayload{Width: 400, Height: 480, Mode: "wide"}); err != nil {
		t.Fatalf("compute with preset: %v", err)
	}
	if _, err := d.Compute(ipc.ComputePayload{Width: 400, Height: 480, Mode: "nope"}); err == nil {
		t.Fatalf("expected unknown mode error")
	}
	for _, scale := range []float64{9, math.NaN(), math.Inf(1)} {
		if _, err := d.Compute(ipc.ComputePayload{Width: 640, Height: 480, Mode: "large", Scale: scale}); err == nil {
			t.Fatalf("scale %v: expected scale range error", scale)
		}
	}
}

func TestCycleAndSetMode(t *testing.T) {
	d, b, _, _ := newTestDaemon(t, "")

	st, err := d.CycleMode(1, false)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if st.Mode != layout.KindSingle {
		t.Fatalf("mode = %s, want single", st.Mode)
	}
	if _, ok := b.moved(1); ok {
		t.Fatalf("cycle without place must not move windows")
	}

	st, err = d.SetMode("stacked-swapped", true)
	if err != nil {
		t.Fatalf("set preset: %v", err)
	}
	if st.Mode != layout.KindDefault || !st.Swapped || st.Result == nil {
		t.Fatalf("unexpected state %+v", st)
	}
	if _, ok := b.moved(1); !ok {
		t.Fatalf("expected top window to be placed")
	}

	if _, err := d.SetMode("bogus", false); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestReload_FailureKeepsConfigAndShowsDialog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("default_mode: diagonal\n"), 0644); err != nil {
		t.Fatal(err)
	}
	d, _, dlg, keys := newTestDaemon(t, path)
	before := d.Placer().Config()

	if err := d.Reload(); err == nil {
		t.Fatalf("expected reload error")
	}
	if d.Placer().Config() != before {
		t.Fatalf("config replaced after failed reload")
	}
	if len(dlg.errors) != 1 || !strings.Contains(dlg.errors[0], "default_mode") {
		t.Fatalf("dialog errors = %q", dlg.errors)
	}
	if keys.rebinds != 0 {
		t.Fatalf("hotkeys rebound after failed reload")
	}
}

func TestReload_AppliesConfigAndRebinds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "large_screen_scale: 2\nhotkeys:\n  swap: Mod4-x\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	d, _, dlg, keys := newTestDaemon(t, path)
	var reloaded *config.Config
	d.onReload = func(c *config.Config) { reloaded = c }

	if err := d.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := d.Placer().Config().LargeScreenScale; got != 2 {
		t.Fatalf("scale = %v, want 2", got)
	}
	if reloaded != d.Placer().Config() {
		t.Fatalf("reload hook did not receive the new config")
	}
	if keys.rebinds != 1 {
		t.Fatalf("rebinds = %d, want 1", keys.rebinds)
	}
	var swap string
	for _, b := range keys.bound {
		if b.Name == "swap" {
			swap = b.Keys
		}
	}
	if swap != "Mod4-x" {
		t.Fatalf("swap hotkey = %q", swap)
	}
	if len(dlg.errors) != 0 {
		t.Fatalf("unexpected dialog errors: %q", dlg.errors)
	}
}

func TestHotkeyActionsReportFailures(t *testing.T) {
	d, b, dlg, _ := newTestDaemon(t, "")
	b.windows = nil

	if err := d.PlaceNow(); err == nil {
		t.Fatalf("expected placement error")
	}
	if len(dlg.errors) != 1 || !strings.Contains(dlg.errors[0], "no panel windows") {
		t.Fatalf("dialog errors = %q", dlg.errors)
	}
}

func TestDisplays(t *testing.T) {
	d, _, _, _ := newTestDaemon(t, "")
	got, err := d.Displays()
	if err != nil {
		t.Fatalf("displays: %v", err)
	}
	if len(got.Displays) != 1 || got.Active != 3 {
		t.Fatalf("unexpected displays %+v", got)
	}
}

func TestRun_ServesIPCUntilCancelled(t *testing.T) {
	d, b, _, keys := newTestDaemon(t, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	client := ipc.NewClientWithSocket(d.server.SocketPath())
	deadline := time.Now().Add(2 * time.Second)
	for {
		err := client.Ping()
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("daemon never answered: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, ok := b.moved(1); !ok {
		t.Fatalf("expected initial placement")
	}
	if len(keys.bound) != 4 {
		t.Fatalf("bound %d hotkeys, want 4", len(keys.bound))
	}

	st, err := client.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Mode != layout.KindDefault {
		t.Fatalf("status mode = %s", st.Mode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("daemon did not stop")
	}
	if err := client.Ping(); !errors.Is(err, ipc.ErrDaemonNotRunning) {
		t.Fatalf("ping after stop = %v", err)
	}
}
