package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine"
	"github.com/Carmen-Shannon/camsim-go/engine/camera"
	"github.com/Carmen-Shannon/camsim-go/engine/exporter"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/Carmen-Shannon/camsim-go/engine/window"
	"github.com/urfave/cli"
)

// Preview opens a window that shows the simulated sRGB result while the animation plays. The
// P key saves the current frame as PNG into the output directory.
func Preview(ctx *cli.Context) error {
	setupLogging(ctx)

	s, err := buildSetup(ctx)
	if err != nil {
		return err
	}
	s.Output.RGB = true
	s.Output.SRGB = true

	w, h := s.Projection.Width(), s.Projection.Height()
	win, err := window.NewWindow(
		window.WithTitle(fmt.Sprintf("camsim - %s", s.Scene.Name())),
		window.WithWidth(w),
		window.WithHeight(h),
	)
	if err != nil {
		return err
	}

	r, sim, err := newSimulator(ctx, s, renderer.WithSurface(win.SurfaceDescriptor(), w, h))
	if err != nil {
		win.Close()
		return err
	}
	defer r.Release()
	defer sim.Release()

	exp := exporter.NewExporter()
	defer exp.Close()

	options := []engine.EngineBuilderOption{
		engine.WithWindow(win),
		engine.WithProfiling(ctx.Bool("profile")),
		engine.WithLoop(!ctx.Bool("once")),
		engine.WithRenderFrameLimit(ctx.Float64("fps")),
	}
	if ctx.IsSet("start") {
		options = append(options, engine.WithStartTimestamp(int64(ctx.Float64("start")*1e6)))
	}
	if s.CameraAnimation == nil || s.CameraAnimation.IsEmpty() {
		// start at the setup camera, looking at the scene center
		lo, hi := s.Scene.Bounds()
		eye := s.CameraTransformation.Translation
		options = append(options, engine.WithCameraController(camera.NewCameraController(camera.WithEye(eye, lo.Add(hi).Mul(0.5)))))
	}
	e := engine.NewEngine(r, sim, options...)

	dir := ctx.String("out")
	var snapshot atomic.Bool
	var snapshots int
	e.SetKeyCallback(func(keyCode uint32) {
		if keyCode == common.KeyP {
			snapshot.Store(true)
		}
	})
	e.SetFrameCallback(func(t int64) {
		if !snapshot.Swap(false) {
			return
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warningf("snapshot failed: %v", err)
			return
		}
		name := filepath.Join(dir, fmt.Sprintf("snapshot-%04d.png", snapshots))
		snapshots++
		if err := exp.AsyncExport(name, sim.SRGB(-1)); err != nil {
			logger.Warningf("snapshot failed: %v", err)
			return
		}
		logger.Noticef("saved frame at %.6fs to %s", float64(t)/1e6, name)
	})

	logger.Notice("preview: drag to orbit, space pauses, R reframes, P saves a snapshot, escape quits")
	if err := e.Run(); err != nil {
		return err
	}
	return exp.WaitForAsyncExports()
}
