package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/phanxgames/bramble"
	"github.com/phanxgames/bramble/ebitenview"
	"github.com/phanxgames/bramble/internal/config"
)

func windowCommand(a *app) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Open a resizable window",
		Long: `Open a resizable window. F toggles the statistics overlay, P saves a
screenshot, R restarts the growth and Esc quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg
			sim := c.SimConfig()
			sim.Logger = &a.log

			var updates <-chan []bramble.Region
			if watch && a.configFile != "" {
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				revs, err := config.Watch(ctx, cmd, a.configFile, a.log)
				if err != nil {
					return err
				}
				updates = regionUpdates(ctx, revs)
			}

			return ebitenview.Run(ebitenview.RunConfig{
				Title:         c.Window.Title,
				Width:         c.Window.Width,
				Height:        c.Window.Height,
				ShowFPS:       c.Window.ShowFPS,
				ScreenshotDir: c.Window.ScreenshotDir,
				Sim:           sim,
				Regions:       c.BrambleRegions(),
				Updates:       updates,
				Logger:        &a.log,
			})
		},
	}
	cmd.Flags().Int("window.width", 1280, "initial window width")
	cmd.Flags().Int("window.height", 720, "initial window height")
	cmd.Flags().Bool("window.show_fps", false, "start with the statistics overlay visible")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload regions when the config file changes")
	return cmd
}

// regionUpdates maps config revisions to region lists. The returned channel
// closes with revs.
func regionUpdates(ctx context.Context, revs <-chan config.Config) <-chan []bramble.Region {
	out := make(chan []bramble.Region, 1)
	go func() {
		defer close(out)
		for c := range revs {
			select {
			case out <- c.BrambleRegions():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
