package dialog

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

// commandRunner runs a menu program with stdin and returns its stdout.
type commandRunner func(command string, args []string, stdin string) (stdout string, stderr string, err error)

func execRunner(command string, args []string, stdin string) (string, string, error) {
	cmd := exec.Command(command, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	return string(out), stderr.String(), err
}

type item struct {
	Label  string
	Action string
}

type menuKind int

const (
	kindRofi menuKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

// menuDialog drives a dmenu-compatible program. rofi and fuzzel select by
// row index, wofi and dmenu by label.
type menuDialog struct {
	command string
	kind    menuKind
	run     commandRunner
}

func newMenuDialog(name string, run commandRunner) *menuDialog {
	d := &menuDialog{command: name, run: run}
	switch name {
	case "rofi":
		d.kind = kindRofi
	case "fuzzel":
		d.kind = kindFuzzel
	case "wofi":
		d.kind = kindWofi
	default:
		d.kind = kindDmenu
	}
	return d
}

const (
	actionOK  = "ok"
	actionYes = "yes"
	actionNo  = "no"
)

func (d *menuDialog) ShowError(message string) error {
	prompt := "duoview error"
	mesg := message
	if !d.hasMessageBar() {
		prompt = "duoview error: " + sanitizeLabel(message)
		mesg = ""
	}
	_, err := d.show(prompt, []item{{Label: "OK", Action: actionOK}}, mesg)
	if errors.Is(err, ErrCancelled) {
		return nil
	}
	return err
}

func (d *menuDialog) Confirm(title, message string) (bool, error) {
	prompt := title
	mesg := message
	if !d.hasMessageBar() && message != "" {
		prompt = title + ": " + sanitizeLabel(message)
		mesg = ""
	}
	selected, err := d.show(prompt, []item{
		{Label: "Yes", Action: actionYes},
		{Label: "No", Action: actionNo},
	}, mesg)
	if errors.Is(err, ErrCancelled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return selected.Action == actionYes, nil
}

func (d *menuDialog) hasMessageBar() bool {
	return d.kind == kindRofi
}

func (d *menuDialog) show(prompt string, items []item, message string) (item, error) {
	input := d.formatInput(items)
	args := d.buildArgs(prompt, message)

	out, stderr, err := d.run(d.command, args, input)
	selection := strings.TrimSpace(out)
	if err != nil {
		// 1 is "no selection", 130 is Ctrl+C.
		if selection == "" && isCancelExit(err) {
			return item{}, ErrCancelled
		}
		if msg := strings.TrimSpace(stderr); msg != "" {
			return item{}, fmt.Errorf("%s failed: %s", d.command, msg)
		}
		return item{}, fmt.Errorf("%s failed: %w", d.command, err)
	}
	if selection == "" {
		return item{}, ErrCancelled
	}
	return d.parseSelection(selection, items)
}

func (d *menuDialog) buildArgs(prompt, message string) []string {
	var args []string
	switch d.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		args = append(args, "-format", "i", "-no-custom", "-markup-rows", "-selected-row", "0")
		if message != "" {
			args = append(args, "-mesg", html.EscapeString(message))
		}
	case kindFuzzel:
		args = []string{"--dmenu"}
		if prompt != "" {
			args = append(args, "--prompt", prompt+" ")
		}
		args = append(args, "--index")
	case kindWofi:
		args = []string{"--dmenu"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

func (d *menuDialog) formatInput(items []item) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		label := sanitizeLabel(it.Label)
		if d.kind == kindRofi {
			// -markup-rows is on.
			label = html.EscapeString(label)
		}
		lines = append(lines, label)
	}
	return strings.Join(lines, "\n")
}

func (d *menuDialog) parseSelection(selection string, items []item) (item, error) {
	if d.kind == kindRofi || d.kind == kindFuzzel {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return item{}, fmt.Errorf("dialog: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, it := range items {
		if sanitizeLabel(it.Label) == selection {
			return it, nil
		}
	}
	return item{}, fmt.Errorf("dialog: unknown selection %q", selection)
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

// exitCoder is implemented by *exec.ExitError.
type exitCoder interface {
	ExitCode() int
}

func isCancelExit(err error) bool {
	var code exitCoder
	if !errors.As(err, &code) {
		return false
	}
	switch code.ExitCode() {
	case 1, 130:
		return true
	}
	return false
}
