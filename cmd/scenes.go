package cmd

import (
	"github.com/Carmen-Shannon/camsim-go/examples"
	"github.com/urfave/cli"
)

// ListScenes prints the available demo scenes.
func ListScenes(ctx *cli.Context) error {
	setupLogging(ctx)

	table := newTable(ctx.App.Writer, "Scene", "Description")
	for _, p := range examples.Presets() {
		table.Append([]string{p.Name, p.Description})
	}
	table.Render()
	return nil
}
