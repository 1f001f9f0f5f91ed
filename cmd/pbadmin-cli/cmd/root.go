package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/vcslav-v/pb-admin/cmd/pbadmin-cli/globals"
	"github.com/vcslav-v/pb-admin/lib/pbadmin"
	"github.com/vcslav-v/pb-admin/lib/telemetry"
)

// active is the session opened for the running command, closed by
// ExecuteContext whether the command failed or not.
var active *globals.Value

var (
	configPath string
	debug      bool
	editMode   bool
)

var rootCmd = &cobra.Command{
	Use:           "pbadmin-cli",
	Short:         "pbadmin-cli reads and edits the Pixelbuddha admin panel.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(debug)
		if !needsSession(cmd) {
			return nil
		}

		ctx := cmd.Context()
		_, err := telemetry.SetupFromEnv(ctx, "pbadmin-cli")
		if err != nil {
			slog.Debug("telemetry disabled", "err", err)
		}

		cfg, err := pbadmin.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if editMode {
			cfg.EditMode = true
		}
		client, err := pbadmin.New(ctx, cfg)
		if err != nil {
			return err
		}
		active = &globals.Value{
			Client: client,
			Config: cfg,
		}
		cmd.SetContext(globals.Set(ctx, active))
		return nil
	},
}

// needsSession is false for the commands cobra adds itself.
func needsSession(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "help" || c.Name() == "completion" {
			return false
		}
	}
	return true
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pbadmin.json5", "path to the panel config")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&editMode, "edit", false, "allow state-changing requests")
}

func cleanup(ctx context.Context) {
	if active != nil {
		active.Client.Close()
		active = nil
	}
	err := telemetry.Shutdown(context.WithoutCancel(ctx))
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}
}

// run executes the command line and releases the session on every
// path out of it.
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	cleanup(ctx)
	return err
}

func ExecuteContext(ctx context.Context) {
	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
