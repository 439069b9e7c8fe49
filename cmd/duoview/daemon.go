package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/duoview/internal/capture"
	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/daemon"
	"github.com/1broseidon/duoview/internal/httpapi"
	"github.com/1broseidon/duoview/internal/mcp"
	"github.com/1broseidon/duoview/internal/platform"
	"github.com/1broseidon/duoview/internal/tui"
	"github.com/1broseidon/duoview/internal/x11"
)

func (a *app) daemonCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the placement daemon in the foreground",
		Long: `Run the placement daemon. It places the panel windows, binds the
configured hotkeys, follows the output area and answers IPC requests.
SIGHUP reloads the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, path, err := a.loadConfig()
			if err != nil {
				return err
			}
			cfg := res.Config
			logger := a.logger(cmd, cfg)
			if cmd.Flags().Changed("http") {
				cfg.HTTP.Listen = listen
			}

			conn, err := x11.NewConnection(cfg.Display)
			if err != nil {
				return err
			}
			defer conn.Close()

			socket, err := a.serverSocket()
			if err != nil {
				return err
			}
			var api *httpapi.Server
			if cfg.HTTP.Listen != "" {
				api = httpapi.New(cfg, capture.DefaultRegistry(logger), logger)
			}
			d, err := daemon.New(daemon.Options{
				ConfigPath: path,
				Config:     cfg,
				Backend:    platform.NewLinuxBackend(conn),
				Conn:       conn,
				Logger:     logger,
				SocketPath: socket,
				OnReload: func(c *config.Config) {
					if api != nil {
						api.UpdateConfig(c)
					}
				},
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			httpDone := make(chan struct{})
			if api != nil {
				go func() {
					defer close(httpDone)
					if err := api.ListenAndServe(ctx, cfg.HTTP.Listen); err != nil {
						logger.Warn("HTTP API stopped", "err", err)
					}
				}()
			} else {
				close(httpDone)
			}

			logger.Info("daemon starting", "config", path, "socket", socket)
			err = d.Run(ctx)
			cancel()
			<-httpDone
			return err
		},
	}
	cmd.Flags().StringVar(&listen, "http", "", "serve the HTTP API on this address (overrides http.listen, empty disables)")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP layout API without the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := a.loadConfig()
			if err != nil {
				return err
			}
			cfg := res.Config
			logger := a.logger(cmd, cfg)

			addr := cfg.HTTP.Listen
			if listen != "" {
				addr = listen
			}
			if addr == "" {
				return fmt.Errorf("no listen address: set http.listen or pass --listen")
			}
			return httpapi.New(cfg, capture.DefaultRegistry(logger), logger).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default http.listen)")
	return cmd
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Long: `Run the Model Context Protocol server on stdin/stdout. Layout tools work
offline; status and placement tools talk to a running daemon.

Example:
  claude mcp add duoview -- duoview mcp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger := a.logger(cmd, res.Config)
			return mcp.NewServer(res.Config, a.client(), logger).Run(cmd.Context())
		},
	}
}

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Explore layouts interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := a.loadConfig()
			if err != nil {
				return err
			}
			return tui.Run(res.Config, a.client())
		},
	}
}
