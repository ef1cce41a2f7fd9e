package main

import (
	"github.com/spf13/cobra"

	"github.com/phanxgames/bramble/termview"
)

func termCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "term",
		Short: "Grow trees in the terminal",
		Long: `Grow trees in the terminal with box-drawing characters. Each cell stands
for a block of pixels. Space pauses, r restarts and q quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.cfg
			sim := c.SimConfig()
			sim.Logger = &a.log
			return termview.Run(cmd.Context(), termview.Config{
				Sim:     sim,
				Regions: c.BrambleRegions(),
				CellW:   c.Term.CellWidth,
				CellH:   c.Term.CellHeight,
				NoColor: c.Term.NoColor,
				Logger:  &a.log,
			})
		},
	}
	cmd.Flags().Bool("term.no_color", false, "render without colour")
	return cmd
}
