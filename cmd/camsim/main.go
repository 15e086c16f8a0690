package main

import (
	"os"

	"github.com/Carmen-Shannon/camsim-go/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	if err := cmd.NewApp().Run(os.Args); err != nil {
		os.Stderr.WriteString("camsim: " + err.Error() + "\n")
		os.Exit(1)
	}
}
