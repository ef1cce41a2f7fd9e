// Command bramble runs the branching-growth animation in a window, in a
// terminal or headless to a PNG file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/phanxgames/bramble/internal/config"
	"github.com/phanxgames/bramble/internal/logging"
)

// app is the state shared by the subcommands once the root pre-run has
// loaded the configuration.
type app struct {
	configFile string
	cfg        config.Config
	log        zerolog.Logger
	closeLog   func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{log: zerolog.Nop(), closeLog: func() {}}
	root := &cobra.Command{
		Use:           "bramble",
		Short:         "Procedural branching-growth animation",
		Long:          `Grow trees of line segments around UI regions, in a window, a terminal or headless.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.closeLog()
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "path to a YAML or JSON config file")
	config.DefineFlags(root)

	root.AddCommand(
		windowCommand(a),
		termCommand(a),
		renderCommand(a),
		defaultConfigCommand(),
		checkConfigCommand(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if cmd.Annotations["skipSetup"] == "true" {
		return nil
	}
	c, err := config.Load(cmd, a.configFile)
	if err != nil {
		return err
	}
	log, closeLog, err := logging.Setup(logging.Options{Level: c.Log.Level, File: c.Log.File})
	if err != nil {
		return err
	}
	a.cfg = c
	a.log = log.With().Str("run_id", uuid.NewString()).Str("cmd", cmd.Name()).Logger()
	a.closeLog = closeLog
	a.log.Debug().Str("config", a.configFile).Str("profile", c.Sim.Profile).Msg("configuration loaded")
	return nil
}
