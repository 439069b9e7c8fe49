package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/duoview/internal/capture"
	"github.com/1broseidon/duoview/internal/compose"
	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/ipc"
	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/logging"
)

const maxDimension = 8192

// layoutFlags selects a layout on top of the configured defaults.
type layoutFlags struct {
	mode    string
	swapped bool
	scale   float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "mode or preset name")
	cmd.Flags().BoolVarP(&f.swapped, "swapped", "s", false, "make the bottom panel primary")
	cmd.Flags().Float64Var(&f.scale, "scale", 0, "inset scale for the large mode")
}

// payload turns the flags into a compute request. swapped is only sent when
// the flag was given.
func (f *layoutFlags) payload(cmd *cobra.Command, width, height int) ipc.ComputePayload {
	p := ipc.ComputePayload{Width: width, Height: height, Mode: f.mode, Scale: f.scale}
	if cmd.Flags().Changed("swapped") {
		swapped := f.swapped
		p.Swapped = &swapped
	}
	return p
}

// computeLocal resolves req against cfg the way the daemon resolves it
// against its current state.
func computeLocal(cfg *config.Config, req ipc.ComputePayload) (layout.Layout, error) {
	if err := checkSize(req.Width, req.Height); err != nil {
		return layout.Layout{}, err
	}
	sel := config.Selection{Mode: cfg.DefaultMode, Swapped: cfg.Swapped, Scale: cfg.LargeScreenScale}
	if req.Mode != "" {
		var err error
		if sel, err = cfg.Resolve(req.Mode, sel.Swapped); err != nil {
			return layout.Layout{}, err
		}
	}
	if req.Swapped != nil {
		sel.Swapped = *req.Swapped
	}
	if req.Scale != 0 {
		if err := config.ValidateScale(req.Scale); err != nil {
			return layout.Layout{}, err
		}
		sel.Scale = req.Scale
	}
	mode, err := layout.ModeFor(sel.Mode, cfg.ModeParams(sel.Scale))
	if err != nil {
		return layout.Layout{}, err
	}
	return layout.Compute(req.Width, req.Height, mode, sel.Swapped), nil
}

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return fmt.Errorf("width and height must be between 1 and %d, got %dx%d", maxDimension, width, height)
	}
	return nil
}

func parseSize(args []string) (int, int, error) {
	width, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width %q", args[0])
	}
	height, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height %q", args[1])
	}
	return width, height, checkSize(width, height)
}

func (a *app) layoutCmd() *cobra.Command {
	var (
		flags  layoutFlags
		asJSON bool
		local  bool
	)
	cmd := &cobra.Command{
		Use:   "layout <width> <height>",
		Short: "Compute where both panels go in a window",
		Long: `Compute the panel rectangles for a window of the given size. A running
daemon answers with its current mode and swap state; otherwise, or with
--local, the configured defaults are used.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, height, err := parseSize(args)
			if err != nil {
				return err
			}
			req := flags.payload(cmd, width, height)

			var l layout.Layout
			computed := false
			if !local {
				got, err := a.client().Compute(req)
				switch {
				case err == nil:
					l, computed = *got, true
				case errors.Is(err, ipc.ErrDaemonNotRunning):
					logging.FromContext(cmd.Context()).Debug("daemon not running, computing locally")
				default:
					return err
				}
			}
			if !computed {
				res, _, err := a.loadConfig()
				if err != nil {
					return err
				}
				if l, err = computeLocal(res.Config, req); err != nil {
					return err
				}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), l)
			}
			printLayout(cmd.OutOrStdout(), l)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&local, "local", false, "ignore a running daemon")
	return cmd
}

func printLayout(w io.Writer, l layout.Layout) {
	fmt.Fprintf(w, "window %dx%d  scale x%d\n", l.WindowWidth, l.WindowHeight, l.ScalingRatio())
	for _, panel := range []struct {
		name    layout.Panel
		enabled bool
		rect    layout.Rect
	}{
		{layout.PanelTop, l.TopEnabled, l.TopScreen},
		{layout.PanelBottom, l.BottomEnabled, l.BottomScreen},
	} {
		if !panel.enabled || panel.rect.Empty() {
			fmt.Fprintf(w, "  %-6s hidden\n", panel.name)
			continue
		}
		r := panel.rect
		fmt.Fprintf(w, "  %-6s left=%d top=%d right=%d bottom=%d (%s)\n", panel.name, r.Left, r.Top, r.Right, r.Bottom, r)
	}
}

func (a *app) previewCmd() *cobra.Command {
	var (
		flags  layoutFlags
		output string
		top    string
		bottom string
	)
	cmd := &cobra.Command{
		Use:   "preview <width> <height>",
		Short: "Render one composed frame to a PNG file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, height, err := parseSize(args)
			if err != nil {
				return err
			}
			res, _, err := a.loadConfig()
			if err != nil {
				return err
			}
			cfg := res.Config
			logger := a.logger(cmd, cfg)

			l, err := computeLocal(cfg, flags.payload(cmd, width, height))
			if err != nil {
				return err
			}
			sources := compose.ConfigSources(cfg)
			for panel, provider := range map[layout.Panel]string{layout.PanelTop: top, layout.PanelBottom: bottom} {
				if provider != "" {
					src := sources[panel]
					src.Provider = provider
					sources[panel] = src
				}
			}

			progress := logging.NewProgress(logger)
			img, err := compose.Preview(cmd.Context(), capture.DefaultRegistry(logger), l, sources)
			if err != nil {
				return err
			}

			if output == "-" {
				if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
					return fmt.Errorf("refusing to write PNG data to a terminal; use --output <file>")
				}
				return compose.WritePNG(cmd.OutOrStdout(), img)
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := compose.WritePNG(f, img); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			progress.Done("wrote preview", "file", output, "size", fmt.Sprintf("%dx%d", width, height))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "duoview-preview.png", "output file, - for stdout")
	cmd.Flags().StringVar(&top, "top", "", "capture provider for the top panel (default panels.top.capture)")
	cmd.Flags().StringVar(&bottom, "bottom", "", "capture provider for the bottom panel (default panels.bottom.capture)")
	return cmd
}
