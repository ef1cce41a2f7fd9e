package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phanxgames/bramble/internal/config"
)

func defaultConfigCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:         "defaultconfig",
		Short:       "Generate a configuration file with defaults",
		Annotations: map[string]string{"skipSetup": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := config.DefaultYAML()
			if err != nil {
				return err
			}
			if file == "" || file == "-" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if _, err := os.Stat(file); err == nil {
				return fmt.Errorf("%s already exists", file)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			return os.WriteFile(file, b, 0o644)
		},
	}
	cmd.Flags().StringVarP(&file, "output", "o", "-", "file to write, - for stdout")
	return cmd
}

func checkConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "checkconfig",
		Short: "Validate the configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Loading in the pre-run already validated it.
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: profile %s, %d regions\n", a.cfg.Sim.Profile, len(a.cfg.Regions))
			return nil
		},
	}
}
