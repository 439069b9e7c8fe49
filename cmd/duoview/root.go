package main

import (
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/1broseidon/duoview/internal/config"
	"github.com/1broseidon/duoview/internal/ipc"
	"github.com/1broseidon/duoview/internal/logging"
	"github.com/1broseidon/duoview/internal/runtimepath"
)

// app carries the persistent flags shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	socketPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "duoview",
		Short:         "Lay out the two screens of a dual-screen device inside one window",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if a.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logging.New(cmd.ErrOrStderr(), level)))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.config/duoview/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&a.socketPath, "socket", "", "daemon socket (default $XDG_RUNTIME_DIR/duoview/duoview.sock)")

	root.AddCommand(a.daemonCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.mcpCmd())
	root.AddCommand(a.tuiCmd())
	root.AddCommand(a.layoutCmd())
	root.AddCommand(a.previewCmd())
	root.AddCommand(a.placeCmd())
	root.AddCommand(a.swapCmd())
	root.AddCommand(a.modeCmd())
	root.AddCommand(a.statusCmd())
	root.AddCommand(a.displaysCmd())
	root.AddCommand(a.undoCmd())
	root.AddCommand(a.reloadCmd())
	root.AddCommand(a.configCmd())
	root.AddCommand(a.captureCmd())

	return root
}

func (a *app) resolveConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.DefaultConfigPath()
}

func (a *app) loadConfig() (*config.LoadResult, string, error) {
	path, err := a.resolveConfigPath()
	if err != nil {
		return nil, "", err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, path, fmt.Errorf("load config: %w", err)
	}
	return res, path, nil
}

// logger returns the command logger, raised to the config's log_level
// unless --verbose asked for debug output.
func (a *app) logger(cmd *cobra.Command, cfg *config.Config) *charmlog.Logger {
	l := logging.FromContext(cmd.Context())
	if a.verbose || cfg == nil {
		return l
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		l.Warn("ignoring log_level", "err", err)
		return l
	}
	l.SetLevel(level)
	return l
}

func (a *app) client() *ipc.Client {
	if a.socketPath != "" {
		return ipc.NewClientWithSocket(a.socketPath)
	}
	return ipc.NewClient()
}

func (a *app) serverSocket() (string, error) {
	if a.socketPath != "" {
		return a.socketPath, nil
	}
	return runtimepath.SocketPath()
}
