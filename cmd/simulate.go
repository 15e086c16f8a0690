package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/camsim-go/engine/exporter"
	"github.com/Carmen-Shannon/camsim-go/engine/profiler"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// frameStat is the wall time of one simulated and exported frame.
type frameStat struct {
	frame     int
	timestamp int64
	duration  time.Duration
}

// Simulate runs the selected scene and exports every frame into the output directory.
func Simulate(ctx *cli.Context) error {
	setupLogging(ctx)

	s, err := buildSetup(ctx)
	if err != nil {
		return err
	}
	r, sim, err := newSimulator(ctx, s)
	if err != nil {
		return err
	}
	defer r.Release()
	defer sim.Release()

	exp := exporter.NewExporter(
		exporter.WithWorkers(ctx.Int("export-workers")),
		exporter.WithCompressionLevel(ctx.Int("compression")),
	)
	defer exp.Close()

	dir := ctx.String("out")
	logger.Noticef("simulating into %s (%s backend, %dx%d, %d sub-frames per frame)",
		dir, r.Type(), s.Projection.Width(), s.Projection.Height(), sim.SubFrames())

	prof := profiler.NewProfiler()
	var stats []frameStat
	last := time.Now()
	frames, err := s.Run(sim, exp, dir, ctx.Int("frames"), func(frame int, t int64) {
		now := time.Now()
		d := now.Sub(last)
		last = now
		prof.Record(d)
		stats = append(stats, frameStat{frame: frame, timestamp: t, duration: d})
		logger.Infof("frame %d at %.6fs took %s", frame, float64(t)/1e6, d)
	})
	if err != nil {
		return err
	}

	displayFrameStats(stats, prof.Stats())
	logger.Noticef("simulated %d frames", frames)
	return nil
}

func displayFrameStats(stats []frameStat, total profiler.Stats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frame", "Timestamp", "Wall time"})
	for _, stat := range stats {
		table.Append([]string{
			fmt.Sprintf("%d", stat.frame),
			fmt.Sprintf("%.6f s", float64(stat.timestamp)/1e6),
			stat.duration.String(),
		})
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d frames", total.Frames),
		fmt.Sprintf("%.2f fps", total.FramesPerSecond()),
		total.Total.String(),
	})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
