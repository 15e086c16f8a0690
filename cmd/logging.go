package cmd

import (
	"log/slog"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/log"
	"github.com/urfave/cli"
)

var logger = log.New("camsim")

// setupLogging applies the global verbosity flags and routes the library packages' slog
// output through the command logger.
func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	common.SetLogger(slog.New(log.NewSlogHandler(logger)))
}
