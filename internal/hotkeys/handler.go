package hotkeys

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/charmbracelet/log"

	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/logging"
	"github.com/1broseidon/duoview/internal/x11"
)

// Actions are the operations bound to global hotkeys.
type Actions interface {
	PlaceNow() error
	SwapNow() error
	CycleNow(step int) error
}

// Binding is one key sequence and what it triggers.
type Binding struct {
	Name string
	Keys string
	Run  func() error
}

// Bindings maps the configured hotkeys onto actions. Empty key sequences
// are skipped.
func Bindings(keys config.Hotkeys, a Actions) []Binding {
	all := []Binding{
		{Name: "place", Keys: keys.Place, Run: a.PlaceNow},
		{Name: "swap", Keys: keys.Swap, Run: a.SwapNow},
		{Name: "cycle_mode", Keys: keys.CycleMode, Run: func() error { return a.CycleNow(1) }},
		{Name: "cycle_mode_reverse", Keys: keys.CycleModeReverse, Run: func() error { return a.CycleNow(-1) }},
	}
	out := all[:0]
	for _, b := range all {
		if b.Keys != "" {
			out = append(out, b)
		}
	}
	return out
}

// Handler manages global keyboard shortcuts on the root window.
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *log.Logger
}

var ignoreModsOnce sync.Once

func NewHandler(conn *x11.Connection, logger *log.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})
	return &Handler{
		xu:     conn.XUtil,
		root:   conn.Root,
		logger: logger,
	}
}

// Bind grabs every binding. Bindings that fail to grab are reported
// together after the rest are registered.
func (h *Handler) Bind(bindings []Binding) error {
	var failed []string
	for _, b := range bindings {
		if err := h.register(b); err != nil {
			h.logger.Warn("failed to register hotkey", "action", b.Name, "keys", b.Keys, "err", err)
			failed = append(failed, fmt.Sprintf("%s (%s)", b.Name, b.Keys))
			continue
		}
		h.logger.Debug("hotkey registered", "action", b.Name, "keys", b.Keys)
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to register hotkeys: %v", failed)
	}
	return nil
}

// Rebind drops all grabs on the root window and binds again.
func (h *Handler) Rebind(bindings []Binding) error {
	keybind.Detach(h.xu, h.root)
	return h.Bind(bindings)
}

func (h *Handler) register(b Binding) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		h.logger.Debug("hotkey triggered", "action", b.Name)
		if err := b.Run(); err != nil {
			h.logger.Error("hotkey action failed", "action", b.Name, "err", err)
		}
	}).Connect(h.xu, h.root, b.Keys, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}
	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns 0 plus the OR of every non-empty subset of base.
func ignoreMasks(base []uint16) []uint16 {
	out := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
