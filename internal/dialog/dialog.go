// Package dialog shows error messages and yes/no questions to the user
// through an external menu program (rofi, fuzzel, wofi or dmenu), or through
// the logger when none is available.
package dialog

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	// ErrCancelled is returned by a menu when the user closes it without a
	// selection.
	ErrCancelled = errors.New("dialog cancelled")
	// ErrNoBackend is returned by Detect when no menu program is installed.
	ErrNoBackend = errors.New("no dialog backend found in PATH (looked for: rofi, fuzzel, wofi, dmenu)")
)

// Dialog is a modal message surface.
type Dialog interface {
	// ShowError presents message with a single acknowledge action.
	// Dismissing it is not an error.
	ShowError(message string) error
	// Confirm asks a yes/no question. Dismissing it answers no.
	Confirm(title, message string) (bool, error)
}

// Backend names accepted by New and the dialog_backend config key.
var backendNames = []string{"rofi", "fuzzel", "wofi", "dmenu"}

type lookPathFunc func(file string) (string, error)

// Detect returns the first menu program found in PATH, in priority order
// rofi, fuzzel, wofi, dmenu.
func Detect() (string, error) {
	return detect(exec.LookPath)
}

func detect(lookPath lookPathFunc) (string, error) {
	for _, name := range backendNames {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", ErrNoBackend
}

// New returns the dialog for a dialog_backend value.
//
// "auto" picks the first installed menu program and falls back to a Log
// dialog when there is none. "log" always logs. Naming a specific program
// that is not installed is an error.
func New(name string, logger *log.Logger) (Dialog, error) {
	return newDialog(name, logger, exec.LookPath, execRunner)
}

func newDialog(name string, logger *log.Logger, lookPath lookPathFunc, run commandRunner) (Dialog, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "", "auto":
		detected, err := detect(lookPath)
		if err != nil {
			if logger != nil {
				logger.Debug("no menu program found, dialogs go to the log")
			}
			return NewLog(logger, false), nil
		}
		return newMenuDialog(detected, run), nil
	case "log":
		return NewLog(logger, false), nil
	case "rofi", "fuzzel", "wofi", "dmenu":
		if _, err := lookPath(name); err != nil {
			return nil, fmt.Errorf("dialog backend %q not found in PATH", name)
		}
		return newMenuDialog(name, run), nil
	}
	return nil, fmt.Errorf("unknown dialog backend: %q (expected: auto, rofi, fuzzel, wofi, dmenu, log)", name)
}
