// Package mcp exposes duoview's layout engine and daemon controls as Model
// Context Protocol tools over stdio.
package mcp

import (
	"context"

	"github.com/charmbracelet/log"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/ipc"
	"github.com/1broseidon/duoview/internal/logging"
	"github.com/1broseidon/duoview/internal/placement"
)

const (
	ServerName    = "duoview"
	ServerVersion = "0.1.0"
)

// DaemonClient is the part of *ipc.Client the daemon-backed tools use.
type DaemonClient interface {
	Status() (*ipc.StatusData, error)
	Place() (*placement.Result, error)
	ToggleSwap(place bool) (*ipc.StateData, error)
	SetMode(name string, place bool) (*ipc.StateData, error)
	Displays() (*ipc.DisplaysData, error)
	Undo() error
}

var _ DaemonClient = (*ipc.Client)(nil)

// Server is the MCP server. compute_layout and list_modes work without a
// daemon; the other tools go through the daemon's IPC socket.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	daemon    DaemonClient
	logger    *log.Logger
}

func NewServer(cfg *config.Config, daemon DaemonClient, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		config: cfg,
		daemon: daemon,
		logger: logger,
	}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Debug("MCP server starting on stdio")
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "compute_layout",
		Description: "Compute where the top (400x240) and bottom (320x240) panels go inside a window of the given size. Computed locally; no daemon needed. mode accepts a mode name (default, single, large, side-by-side, custom) or a preset name.",
	}, s.handleComputeLayout)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_modes",
		Description: "List layout modes in cycle order and the configured presets.",
	}, s.handleListModes)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the running daemon's mode, swap state, inset scale and last placement.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "place_panels",
		Description: "Move the two panel windows into the layout for the current mode on the active display.",
	}, s.handlePlacePanels)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_swap",
		Description: "Swap which panel is primary. Set place to move the windows immediately.",
	}, s.handleToggleSwap)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_mode",
		Description: "Switch the daemon to a layout mode or preset. Set place to move the windows immediately.",
	}, s.handleSetMode)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the monitors the daemon sees and which one is active.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "undo_placement",
		Description: "Move the panel windows back to where the last placement found them.",
	}, s.handleUndo)
}
