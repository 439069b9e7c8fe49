// Package daemon runs the long-lived duoview process: it owns the placer,
// serves IPC requests, grabs the global hotkeys and reacts to signals.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/dialog"
	"github.com/1broseidon/duoview/internal/hotkeys"
	"github.com/1broseidon/duoview/internal/ipc"
	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/logging"
	"github.com/1broseidon/duoview/internal/placement"
	"github.com/1broseidon/duoview/internal/platform"
	"github.com/1broseidon/duoview/internal/x11"
)

// Binder grabs key bindings. *hotkeys.Handler implements it.
type Binder interface {
	Bind(bindings []hotkeys.Binding) error
	Rebind(bindings []hotkeys.Binding) error
}

type Options struct {
	ConfigPath string
	Config     *config.Config
	Backend    platform.Backend
	// Conn is optional. Without it the daemon runs no X event loop and
	// binds no hotkeys unless Hotkeys is set.
	Conn       *x11.Connection
	Hotkeys    Binder
	Dialog     dialog.Dialog
	Logger     *log.Logger
	SocketPath string
	// OnReload, when set, receives each successfully reloaded config.
	OnReload   func(*config.Config)
}

// Daemon implements ipc.Controller and hotkeys.Actions.
type Daemon struct {
	configPath string
	backend    platform.Backend
	conn       *x11.Connection
	keys       Binder
	placer     *placement.Placer
	server     *ipc.Server
	onReload   func(*config.Config)
	logger     *log.Logger
	started    time.Time

	mu             sync.Mutex
	dialog         dialog.Dialog
	runCtx         context.Context
	followInterval time.Duration
	stopFollower   context.CancelFunc
}

var (
	_ ipc.Controller  = (*Daemon)(nil)
	_ hotkeys.Actions = (*Daemon)(nil)
)

func New(opts Options) (*Daemon, error) {
	if opts.Config == nil {
		return nil, errors.New("daemon: config is required")
	}
	if opts.Backend == nil {
		return nil, errors.New("daemon: backend is required")
	}
	if opts.SocketPath == "" {
		return nil, errors.New("daemon: socket path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	dlg := opts.Dialog
	if dlg == nil {
		d, err := dialog.New(opts.Config.DialogBackend, logger)
		if err != nil {
			logger.Warn("dialog backend unavailable, using the log", "backend", opts.Config.DialogBackend, "err", err)
			d = dialog.NewLog(logger, false)
		}
		dlg = d
	}
	keys := opts.Hotkeys
	if keys == nil && opts.Conn != nil {
		keys = hotkeys.NewHandler(opts.Conn, logger)
	}

	d := &Daemon{
		configPath: opts.ConfigPath,
		backend:    opts.Backend,
		conn:       opts.Conn,
		keys:       keys,
		placer:     placement.New(opts.Backend, opts.Config, logger),
		onReload:   opts.OnReload,
		logger:     logger,
		started:    time.Now(),
		dialog:     dlg,
	}
	d.server = ipc.NewServer(opts.SocketPath, d, logger)
	return d, nil
}

// Placer exposes the daemon's placer.
func (d *Daemon) Placer() *placement.Placer {
	return d.placer
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives. SIGHUP
// reloads the config.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg := d.placer.Config()
	if _, err := d.placer.Apply(); err != nil {
		d.logger.Warn("initial placement skipped", "err", err)
	}
	if d.keys != nil {
		if err := d.keys.Bind(hotkeys.Bindings(cfg.Hotkeys, d)); err != nil {
			d.logger.Warn("some hotkeys are unavailable", "err", err)
		}
	}

	if err := d.server.Start(); err != nil {
		return err
	}
	defer d.server.Stop()

	d.mu.Lock()
	d.runCtx = ctx
	d.startFollowerLocked(cfg.FollowInterval)
	d.mu.Unlock()
	defer d.stopFollowerNow()

	if d.conn != nil {
		go func() {
			d.logger.Debug("entering X event loop")
			d.conn.EventLoop()
			cancel()
		}()
		defer d.conn.Quit()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	d.logger.Info("duoview daemon started", "socket", d.server.SocketPath(), "mode", cfg.DefaultMode)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down duoview daemon")
			return nil
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				d.logger.Info("received SIGHUP, reloading config")
				if err := d.Reload(); err != nil {
					d.logger.Error("config reload failed", "err", err)
				}
			default:
				d.logger.Info("received signal", "signal", sig)
				return nil
			}
		}
	}
}

func (d *Daemon) startFollowerLocked(interval time.Duration) {
	if d.stopFollower != nil {
		d.stopFollower()
		d.stopFollower = nil
	}
	d.followInterval = interval
	if interval <= 0 || d.runCtx == nil {
		return
	}
	ctx, cancel := context.WithCancel(d.runCtx)
	d.stopFollower = cancel
	f := NewFollower(interval, d.placer, func() error {
		_, err := d.placer.Apply()
		return err
	}, d.logger)
	go f.Run(ctx)
}

func (d *Daemon) stopFollowerNow() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopFollower != nil {
		d.stopFollower()
		d.stopFollower = nil
	}
	d.runCtx = nil
}

func (d *Daemon) currentDialog() dialog.Dialog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialog
}

func (d *Daemon) Status() ipc.StatusData {
	return ipc.StatusData{
		Status:        d.placer.Status(),
		UptimeSeconds: int64(time.Since(d.started).Seconds()),
		ConfigPath:    d.configPath,
	}
}

func (d *Daemon) Place() (*placement.Result, error) {
	return d.placer.Apply()
}

func (d *Daemon) state(place bool) (ipc.StateData, error) {
	st := d.placer.Status()
	out := ipc.StateData{Mode: st.Mode, Swapped: st.Swapped}
	if !place {
		return out, nil
	}
	res, err := d.placer.Apply()
	if err != nil {
		return out, err
	}
	out.Result = res
	return out, nil
}

func (d *Daemon) ToggleSwap(place bool) (ipc.StateData, error) {
	swapped := d.placer.ToggleSwap()
	d.logger.Info("swap toggled", "swapped", swapped)
	return d.state(place)
}

// SetMode accepts a mode name or a preset name.
func (d *Daemon) SetMode(name string, place bool) (ipc.StateData, error) {
	if err := d.placer.Select(name); err != nil {
		return ipc.StateData{}, err
	}
	d.logger.Info("mode selected", "name", name)
	return d.state(place)
}

func (d *Daemon) CycleMode(step int, place bool) (ipc.StateData, error) {
	if step == 0 {
		step = 1
	}
	kind := d.placer.CycleMode(step)
	d.logger.Info("switched mode", "mode", kind)
	return d.state(place)
}

// Compute returns the layout for a window of the requested size. Empty
// request fields fall back to the daemon's current mode, swap state and
// scale.
func (d *Daemon) Compute(req ipc.ComputePayload) (layout.Layout, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return layout.Layout{}, fmt.Errorf("invalid window size %dx%d", req.Width, req.Height)
	}
	st := d.placer.Status()
	cfg := d.placer.Config()

	kind, swapped, scale := st.Mode, st.Swapped, st.Scale
	if req.Mode != "" {
		sel, err := cfg.Resolve(req.Mode, swapped)
		if err != nil {
			return layout.Layout{}, err
		}
		kind, swapped, scale = sel.Mode, sel.Swapped, sel.Scale
	}
	if req.Swapped != nil {
		swapped = *req.Swapped
	}
	if req.Scale != 0 {
		if err := config.ValidateScale(req.Scale); err != nil {
			return layout.Layout{}, err
		}
		scale = req.Scale
	}

	mode, err := layout.ModeFor(kind, cfg.ModeParams(scale))
	if err != nil {
		return layout.Layout{}, err
	}
	return layout.Compute(req.Width, req.Height, mode, swapped), nil
}

// Reload re-reads the config file. On failure the error is shown through
// the dialog surface and the running config stays in place.
func (d *Daemon) Reload() error {
	res, err := config.LoadFromPath(d.configPath)
	if err != nil {
		msg := fmt.Sprintf("duoview: config reload failed, keeping the previous config.\n%v", err)
		if derr := d.currentDialog().ShowError(msg); derr != nil {
			d.logger.Warn("failed to show dialog", "err", derr)
		}
		return err
	}
	cfg := res.Config
	old := d.placer.Config()
	d.placer.UpdateConfig(cfg)

	d.mu.Lock()
	if cfg.DialogBackend != old.DialogBackend {
		if dlg, err := dialog.New(cfg.DialogBackend, d.logger); err != nil {
			d.logger.Warn("dialog backend unavailable, keeping the previous one", "backend", cfg.DialogBackend, "err", err)
		} else {
			d.dialog = dlg
		}
	}
	if cfg.FollowInterval != d.followInterval {
		d.startFollowerLocked(cfg.FollowInterval)
	}
	d.mu.Unlock()

	if d.keys != nil && cfg.Hotkeys != old.Hotkeys {
		if err := d.keys.Rebind(hotkeys.Bindings(cfg.Hotkeys, d)); err != nil {
			d.logger.Warn("some hotkeys are unavailable", "err", err)
		}
	}
	if d.onReload != nil {
		d.onReload(cfg)
	}
	d.logger.Info("config reloaded", "path", d.configPath, "files", len(res.Files))
	return nil
}

func (d *Daemon) Displays() (ipc.DisplaysData, error) {
	displays, err := d.backend.Displays()
	if err != nil {
		return ipc.DisplaysData{}, err
	}
	out := ipc.DisplaysData{Displays: displays, Active: -1}
	if active, err := d.backend.ActiveDisplay(); err == nil {
		out.Active = active.ID
	} else {
		d.logger.Debug("no active display", "err", err)
	}
	return out, nil
}

func (d *Daemon) Undo() error {
	return d.placer.Undo()
}

// PlaceNow is the place hotkey. Failures are shown through the dialog
// surface since there is no terminal to report them to.
func (d *Daemon) PlaceNow() error {
	_, err := d.placer.Apply()
	return d.report("placement failed", err)
}

func (d *Daemon) SwapNow() error {
	_, err := d.ToggleSwap(true)
	return d.report("swap failed", err)
}

func (d *Daemon) CycleNow(step int) error {
	_, err := d.CycleMode(step, true)
	return d.report("mode switch failed", err)
}

func (d *Daemon) report(what string, err error) error {
	if err == nil {
		return nil
	}
	if derr := d.currentDialog().ShowError(fmt.Sprintf("duoview: %s: %v", what, err)); derr != nil {
		d.logger.Warn("failed to show dialog", "err", derr)
	}
	return err
}
