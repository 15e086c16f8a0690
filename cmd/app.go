// Package cmd implements the camsim command line tool.
package cmd

import (
	"github.com/urfave/cli"
)

// NewApp returns the camsim command tree.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "camsim"
	app.Usage = "simulate range and color cameras on rasterized scenes"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "simulate",
			Usage: "simulate a scene and export its frames",
			Description: `
Simulate every frame of the scene's animation, or a single frame for static scenes,
and export the enabled outputs into the output directory. Demo scenes export their
own file set; --outputs replaces it with one file per output and frame.`,
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Value: "camsim-out",
					Usage: "output directory",
				},
				cli.IntFlag{
					Name:  "frames, n",
					Usage: "stop after this many frames (0 = whole animation)",
				},
				cli.IntFlag{
					Name:  "export-workers",
					Value: 2,
					Usage: "number of concurrent file writers",
				},
				cli.IntFlag{
					Name:  "compression",
					Value: 6,
					Usage: "PNG and TIFF compression level from 0 (none) to 9",
				},
			}, SetupFlags...),
			Action: Simulate,
		},
		{
			Name:   "info",
			Usage:  "print the configuration, timing and content of a scene",
			Flags:  SetupFlags,
			Action: Info,
		},
		{
			Name:  "preview",
			Usage: "show the simulated sRGB image in a window",
			Description: `
Simulate the scene continuously and present the sRGB result. Drag to orbit the camera,
use the middle button or W/A/S/D/Q/E to pan, scroll to zoom. Space pauses the animation,
R reframes the scene and P saves the current frame as PNG.`,
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Value: "camsim-out",
					Usage: "directory for snapshots",
				},
				cli.BoolFlag{
					Name:  "profile",
					Usage: "show the simulation rate in the window title",
				},
				cli.BoolFlag{
					Name:  "once",
					Usage: "stop at the end of the animation instead of looping",
				},
				cli.Float64Flag{
					Name:  "fps",
					Usage: "cap the preview frame rate (0 = uncapped)",
				},
				cli.Float64Flag{
					Name:  "start",
					Usage: "start playback at this animation time in seconds",
				},
			}, SetupFlags...),
			Action: Preview,
		},
		{
			Name:   "scenes",
			Usage:  "list the demo scenes",
			Action: ListScenes,
		},
	}
	return app
}
