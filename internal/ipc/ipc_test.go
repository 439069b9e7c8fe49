package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/placement"
	"github.com/1broseidon/duoview/internal/platform"
)

type fakeController struct {
	mode      layout.Kind
	swapped   bool
	placed    int
	reloadErr error
	undone    bool
}

func (f *fakeController) Status() StatusData {
	return StatusData{Status: placement.Status{Mode: f.mode, Swapped: f.swapped}, ConfigPath: "/cfg.yaml"}
}

func (f *fakeController) Place() (*placement.Result, error) {
	f.placed++
	return &placement.Result{Area: layout.NewRect(0, 0, 400, 480)}, nil
}

func (f *fakeController) state(place bool) (StateData, error) {
	if place {
		f.placed++
	}
	return StateData{Mode: f.mode, Swapped: f.swapped}, nil
}

func (f *fakeController) ToggleSwap(place bool) (StateData, error) {
	f.swapped = !f.swapped
	return f.state(place)
}

func (f *fakeController) SetMode(name string, place bool) (StateData, error) {
	k, err := layout.ParseKind(name)
	if err != nil {
		return StateData{}, err
	}
	f.mode = k
	return f.state(place)
}

func (f *fakeController) CycleMode(step int, place bool) (StateData, error) {
	f.mode = f.mode.Next(step)
	return f.state(place)
}

func (f *fakeController) Compute(req ComputePayload) (layout.Layout, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return layout.Layout{}, fmt.Errorf("invalid window size %dx%d", req.Width, req.Height)
	}
	return layout.Compute(req.Width, req.Height, layout.Default{}, false), nil
}

func (f *fakeController) Reload() error { return f.reloadErr }

func (f *fakeController) Displays() (DisplaysData, error) {
	return DisplaysData{Displays: []platform.Display{{ID: 1, Name: "DP-1"}}, Active: 1}, nil
}

func (f *fakeController) Undo() error {
	if f.undone {
		return placement.ErrNothingToUndo
	}
	f.undone = true
	return nil
}

func startServer(t *testing.T, ctrl Controller) *Client {
	t.Helper()
	dir, err := os.MkdirTemp("", "duoview-ipc")
	if err != nil {
		t.Fatalf("tempdir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	// Unix socket paths are limited to ~108 bytes, so avoid t.TempDir.
	socket := filepath.Join(dir, "d.sock")
	srv := NewServer(socket, ctrl, nil)
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return NewClientWithSocket(socket)
}

func TestClientServer_RoundTrip(t *testing.T) {
	ctrl := &fakeController{mode: layout.KindDefault}
	c := startServer(t, ctrl)

	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	st, err := c.ToggleSwap(true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !st.Swapped || ctrl.placed != 1 {
		t.Fatalf("unexpected toggle result %+v, placed=%d", st, ctrl.placed)
	}

	st, err = c.SetMode("side_by_side", false)
	if err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if st.Mode != layout.KindSideBySide {
		t.Fatalf("mode = %q", st.Mode)
	}

	st, err = c.CycleMode(1, false)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if st.Mode != layout.KindCustom {
		t.Fatalf("cycled mode = %q", st.Mode)
	}

	status, err := c.Status()
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Mode != layout.KindCustom || !status.Swapped || status.ConfigPath != "/cfg.yaml" {
		t.Fatalf("unexpected status %+v", status)
	}

	l, err := c.Compute(ComputePayload{Width: 400, Height: 480})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if l.BottomScreen != (layout.Rect{Left: 40, Top: 240, Right: 360, Bottom: 480}) {
		t.Fatalf("unexpected layout %+v", l)
	}

	d, err := c.Displays()
	if err != nil || len(d.Displays) != 1 || d.Displays[0].Name != "DP-1" {
		t.Fatalf("displays = %+v, %v", d, err)
	}

	if _, err := c.Place(); err != nil {
		t.Fatalf("place: %v", err)
	}
	if err := c.Undo(); err != nil || !ctrl.undone {
		t.Fatalf("undo: %v (undone=%v)", err, ctrl.undone)
	}
	if err := c.Undo(); err == nil || !strings.Contains(err.Error(), "nothing to undo") {
		t.Fatalf("expected second undo to fail, got %v", err)
	}
}

func TestClientServer_Errors(t *testing.T) {
	ctrl := &fakeController{reloadErr: errors.New("config.yaml:3:1: default_mode: bad")}
	c := startServer(t, ctrl)

	if err := c.Reload(); err == nil || !strings.Contains(err.Error(), "default_mode") {
		t.Fatalf("expected reload error, got %v", err)
	}
	if _, err := c.SetMode("diagonal", false); err == nil {
		t.Fatal("expected unknown mode error")
	}
	if _, err := c.Compute(ComputePayload{Width: 0, Height: 10}); err == nil {
		t.Fatal("expected invalid size error")
	}
	if _, err := c.sendRequest("EXPLODE", nil); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestServer_InvalidJSON(t *testing.T) {
	c := startServer(t, &fakeController{})
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("not json\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 512)
	n, _ := conn.Read(buf)
	if !strings.Contains(string(buf[:n]), `"status":"ERROR"`) {
		t.Fatalf("expected error response, got %q", buf[:n])
	}
}

func TestClient_DaemonNotRunning(t *testing.T) {
	c := NewClientWithSocket(filepath.Join(t.TempDir(), "missing.sock"))
	if err := c.Ping(); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}
