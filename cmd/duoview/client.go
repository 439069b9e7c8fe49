package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/1broseidon/duoview/internal/ipc"
	"github.com/1broseidon/duoview/internal/placement"
)

func (a *app) placeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "place",
		Short: "Move the panel windows into the current layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client().Place()
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func (a *app) swapCmd() *cobra.Command {
	var noPlace bool
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap which panel is primary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client().ToggleSwap(!noPlace)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noPlace, "no-place", false, "only change the state, leave windows alone")
	return cmd
}

func (a *app) modeCmd() *cobra.Command {
	var noPlace bool
	cmd := &cobra.Command{
		Use:   "mode <name|next|prev>",
		Short: "Switch to a layout mode or preset",
		Long: `Switch the daemon to a layout mode (default, single, large, side-by-side,
custom) or a preset name. "next" and "prev" cycle through the modes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.client()
			var (
				st  *ipc.StateData
				err error
			)
			switch args[0] {
			case "next":
				st, err = client.CycleMode(1, !noPlace)
			case "prev":
				st, err = client.CycleMode(-1, !noPlace)
			default:
				st, err = client.SetMode(args[0], !noPlace)
			}
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noPlace, "no-place", false, "only change the state, leave windows alone")
	return cmd
}

func (a *app) statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.client().Status()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, st)
			}
			fmt.Fprintf(w, "mode:           %s\n", st.Mode)
			fmt.Fprintf(w, "swapped:        %v\n", st.Swapped)
			fmt.Fprintf(w, "scale:          %s\n", strconv.FormatFloat(st.Scale, 'g', -1, 64))
			if st.Preset != "" {
				fmt.Fprintf(w, "preset:         %s\n", st.Preset)
			}
			last := "never"
			if !st.LastPlaced.IsZero() {
				last = st.LastPlaced.Local().Format(time.DateTime)
			}
			fmt.Fprintf(w, "last_placed:    %s\n", last)
			fmt.Fprintf(w, "can_undo:       %v\n", st.CanUndo)
			fmt.Fprintf(w, "uptime_seconds: %d\n", st.UptimeSeconds)
			fmt.Fprintf(w, "config:         %s\n", st.ConfigPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) displaysCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "displays",
		Short: "List the monitors the daemon sees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.client().Displays()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, d)
			}
			for _, disp := range d.Displays {
				marker := " "
				if disp.ID == d.Active {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %d  %-10s bounds %s  usable %s\n", marker, disp.ID, disp.Name, disp.Bounds, disp.Usable)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Restore the windows moved by the last placement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().Undo(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "restored previous window geometry")
			return nil
		},
	}
}

func (a *app) reloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make the daemon re-read its config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client().Reload(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config reloaded")
			return nil
		},
	}
}

func printState(w io.Writer, st *ipc.StateData) {
	fmt.Fprintf(w, "mode: %s  swapped: %v\n", st.Mode, st.Swapped)
	if st.Result != nil {
		printResult(w, st.Result)
	}
}

func printResult(w io.Writer, res *placement.Result) {
	if res == nil {
		return
	}
	fmt.Fprintf(w, "area %s\n", res.Area)
	for _, m := range res.Moves {
		fmt.Fprintf(w, "  %-6s 0x%08x %s -> %s\n", m.Panel, uint32(m.Window.ID), m.Window.Title, m.Rect)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
