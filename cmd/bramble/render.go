package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/phanxgames/bramble"
	"github.com/phanxgames/bramble/internal/config"
	"github.com/phanxgames/bramble/metrics"
)

var errEndlessRender = errors.New("render needs render.frames or a non-zero sim.run_time")

func renderCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Run headless and save the last frame as PNG",
		Long: `Run the simulation without a display on a fixed clock and save the final
frame. Snapshot steps of a scenario script save extra frames next to the
output file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := render(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered %d frames to %s\n", n, a.cfg.Render.Output)
			return nil
		},
	}
	cmd.Flags().Int("render.width", 1280, "canvas width")
	cmd.Flags().Int("render.height", 720, "canvas height")
	cmd.Flags().Int("render.frames", 0, "frames to run, 0 runs until growth stops")
	cmd.Flags().StringP("render.output", "o", "bramble.png", "PNG file to write")
	cmd.Flags().String("render.script", "", "scenario script to replay")
	cmd.Flags().String("metrics.textfile", "", "write Prometheus metrics to this file")
	return cmd
}

// render runs c headless and returns the number of frames stepped.
func render(ctx context.Context, c config.Config, log zerolog.Logger) (int, error) {
	if c.Render.Frames == 0 && c.Sim.RunTime == 0 {
		return 0, errEndlessRender
	}
	sim := c.SimConfig()
	sim.Logger = &log

	var reg *prometheus.Registry
	if c.Metrics.Textfile != "" {
		reg = prometheus.NewRegistry()
		obs, err := metrics.New(metrics.Config{Namespace: c.Metrics.Namespace, Registerer: reg})
		if err != nil {
			return 0, err
		}
		sim.Observer = obs
	}

	env := &bramble.StaticEnvironment{Width: c.Render.Width, Height: c.Render.Height, UI: c.BrambleRegions()}
	h := bramble.NewHeadless(sim, env)

	var runner *bramble.ScriptRunner
	if c.Render.Script != "" {
		data, err := os.ReadFile(c.Render.Script)
		if err != nil {
			return 0, fmt.Errorf("read script: %w", err)
		}
		runner, err = bramble.LoadScript(data)
		if err != nil {
			return 0, err
		}
		runner.OnSnapshot = func(label string) {
			path := snapshotPath(c.Render.Output, label)
			if err := h.Canvas.SavePNG(path); err != nil {
				log.Error().Err(err).Str("path", path).Msg("snapshot failed")
				return
			}
			log.Info().Str("path", path).Int("frame", h.Driver.Frame()).Msg("snapshot saved")
		}
	} else {
		h.Driver.Init()
	}

	n, err := h.Run(ctx, c.Render.Frames, runner)
	if err != nil {
		return n, err
	}
	if err := h.Canvas.SavePNG(c.Render.Output); err != nil {
		return n, fmt.Errorf("save %s: %w", c.Render.Output, err)
	}
	if reg != nil {
		if err := metrics.WriteTextfile(c.Metrics.Textfile, reg); err != nil {
			return n, err
		}
	}
	log.Info().Int("frames", n).Int("trees", len(h.Driver.Trees())).Str("output", c.Render.Output).Msg("render finished")
	return n, nil
}

// snapshotPath puts a labelled frame next to output: out.png becomes
// out-label.png.
func snapshotPath(output, label string) string {
	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	if ext == "" {
		ext = ".png"
	}
	if label == "" {
		label = "snapshot"
	}
	label = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, label)
	return base + "-" + label + ext
}
