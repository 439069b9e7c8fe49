package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/ipc"
	"github.com/1broseidon/duoview/internal/layout"
	"github.com/1broseidon/duoview/internal/placement"
)

// maxDimension bounds compute_layout window sizes.
const maxDimension = 8192

func (s *Server) handleComputeLayout(_ context.Context, _ *mcpsdk.CallToolRequest, args ComputeLayoutInput) (*mcpsdk.CallToolResult, ComputeLayoutOutput, error) {
	if args.Width <= 0 || args.Height <= 0 || args.Width > maxDimension || args.Height > maxDimension {
		return nil, ComputeLayoutOutput{}, fmt.Errorf("width and height must be between 1 and %d, got %dx%d", maxDimension, args.Width, args.Height)
	}

	sel := config.Selection{Mode: s.config.DefaultMode, Swapped: s.config.Swapped, Scale: s.config.LargeScreenScale}
	if args.Mode != "" {
		var err error
		if sel, err = s.config.Resolve(args.Mode, sel.Swapped); err != nil {
			return nil, ComputeLayoutOutput{}, err
		}
	}
	if args.Swapped != nil {
		sel.Swapped = *args.Swapped
	}
	if args.Scale != 0 {
		if err := config.ValidateScale(args.Scale); err != nil {
			return nil, ComputeLayoutOutput{}, err
		}
		sel.Scale = args.Scale
	}

	mode, err := layout.ModeFor(sel.Mode, s.config.ModeParams(sel.Scale))
	if err != nil {
		return nil, ComputeLayoutOutput{}, err
	}
	l := layout.Compute(args.Width, args.Height, mode, sel.Swapped)
	s.logger.Debug("compute_layout", "width", args.Width, "height", args.Height, "mode", sel.Mode, "swapped", sel.Swapped)
	return nil, ComputeLayoutOutput{
		Mode:         sel.Mode,
		Swapped:      sel.Swapped,
		Scale:        sel.Scale,
		Layout:       l,
		ScalingRatio: l.ScalingRatio(),
	}, nil
}

func (s *Server) handleListModes(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListModesInput) (*mcpsdk.CallToolResult, ListModesOutput, error) {
	out := ListModesOutput{
		Modes:   layout.Kinds(),
		Default: s.config.DefaultMode,
	}
	for _, name := range s.config.PresetNames() {
		p := s.config.Presets[name]
		out.Presets = append(out.Presets, PresetInfo{Name: name, Mode: p.Mode, Swapped: p.Swapped, Scale: p.Scale})
	}
	return nil, out, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	if err := s.requireDaemon(); err != nil {
		return nil, StatusOutput{}, err
	}
	st, err := s.daemon.Status()
	if err != nil {
		return nil, StatusOutput{}, daemonError(err)
	}
	out := StatusOutput{
		Mode:          st.Mode,
		Swapped:       st.Swapped,
		Scale:         st.Scale,
		Preset:        st.Preset,
		CanUndo:       st.CanUndo,
		UptimeSeconds: st.UptimeSeconds,
		ConfigPath:    st.ConfigPath,
	}
	if !st.LastPlaced.IsZero() {
		out.LastPlacedUTC = st.LastPlaced.UTC().Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handlePlacePanels(_ context.Context, _ *mcpsdk.CallToolRequest, _ PlacePanelsInput) (*mcpsdk.CallToolResult, PlacementOutput, error) {
	if err := s.requireDaemon(); err != nil {
		return nil, PlacementOutput{}, err
	}
	res, err := s.daemon.Place()
	if err != nil {
		return nil, PlacementOutput{}, daemonError(err)
	}
	return nil, placementOutput(res), nil
}

func (s *Server) handleToggleSwap(_ context.Context, _ *mcpsdk.CallToolRequest, args ToggleSwapInput) (*mcpsdk.CallToolResult, StateOutput, error) {
	if err := s.requireDaemon(); err != nil {
		return nil, StateOutput{}, err
	}
	st, err := s.daemon.ToggleSwap(args.Place)
	if err != nil {
		return nil, StateOutput{}, daemonError(err)
	}
	return nil, stateOutput(st), nil
}

func (s *Server) handleSetMode(_ context.Context, _ *mcpsdk.CallToolRequest, args SetModeInput) (*mcpsdk.CallToolResult, StateOutput, error) {
	if args.Name == "" {
		return nil, StateOutput{}, errors.New("name is required")
	}
	if err := s.requireDaemon(); err != nil {
		return nil, StateOutput{}, err
	}
	st, err := s.daemon.SetMode(args.Name, args.Place)
	if err != nil {
		return nil, StateOutput{}, daemonError(err)
	}
	return nil, stateOutput(st), nil
}

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListDisplaysInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	if err := s.requireDaemon(); err != nil {
		return nil, ListDisplaysOutput{}, err
	}
	d, err := s.daemon.Displays()
	if err != nil {
		return nil, ListDisplaysOutput{}, daemonError(err)
	}
	return nil, ListDisplaysOutput{Displays: d.Displays, Active: d.Active}, nil
}

func (s *Server) handleUndo(_ context.Context, _ *mcpsdk.CallToolRequest, _ UndoInput) (*mcpsdk.CallToolResult, UndoOutput, error) {
	if err := s.requireDaemon(); err != nil {
		return nil, UndoOutput{}, err
	}
	if err := s.daemon.Undo(); err != nil {
		return nil, UndoOutput{}, daemonError(err)
	}
	return nil, UndoOutput{Restored: true}, nil
}

func (s *Server) requireDaemon() error {
	if s.daemon == nil {
		return daemonError(ipc.ErrDaemonNotRunning)
	}
	return nil
}

func daemonError(err error) error {
	if errors.Is(err, ipc.ErrDaemonNotRunning) {
		return fmt.Errorf("%w; start it with `duoview daemon`", err)
	}
	return err
}

func placementOutput(res *placement.Result) PlacementOutput {
	if res == nil {
		return PlacementOutput{}
	}
	out := PlacementOutput{Area: res.Area}
	for _, m := range res.Moves {
		out.Moves = append(out.Moves, MoveOutput{
			Panel:  m.Panel,
			Window: uint32(m.Window.ID),
			Title:  m.Window.Title,
			Rect:   m.Rect,
		})
	}
	return out
}

func stateOutput(st *ipc.StateData) StateOutput {
	out := StateOutput{Mode: st.Mode, Swapped: st.Swapped}
	if st.Result != nil {
		p := placementOutput(st.Result)
		out.Placement = &p
	}
	return out
}
