package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/simulator"
	"github.com/Carmen-Shannon/camsim-go/examples"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Info prints the configuration, timing and scene content of the selected setup.
func Info(ctx *cli.Context) error {
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

	w := ctx.App.Writer
	writeConfigTable(w, s, sim)
	writeSceneTables(w, s)
	writeExportTable(w, s)
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}

func writeConfigTable(w io.Writer, s *examples.Setup, sim simulator.Simulator) {
	p := s.Projection
	cp := p.CenterPixel()
	fl := p.FocalLengths()
	pl := s.Pipeline
	table := newTable(w, "Setting", "Value")
	table.AppendBulk([][]string{
		{"resolution", fmt.Sprintf("%dx%d", p.Width(), p.Height())},
		{"opening angle", fmt.Sprintf("%.2f deg", p.OpeningAngle())},
		{"center pixel", fmt.Sprintf("%.2f %.2f", cp[0], cp[1])},
		{"focal lengths", fmt.Sprintf("%.2f %.2f px", fl[0], fl[1])},
		{"clipping planes", fmt.Sprintf("%g .. %g m", pl.NearClippingPlane, pl.FarClippingPlane)},
		{"exposure / readout / pause", fmt.Sprintf("%g / %g / %g s", s.ChipTiming.ExposureTime, s.ChipTiming.ReadoutTime, s.ChipTiming.PauseTime)},
		{"sub-frames per frame", fmt.Sprintf("%d", sim.SubFrames())},
		{"frame duration", fmt.Sprintf("%d us (%.3f fps)", sim.FrameDuration(), sim.FramesPerSecond())},
		{"animation", fmt.Sprintf("%.6f .. %.6f s", float64(sim.StartTimestamp())/1e6, float64(sim.EndTimestamp())/1e6)},
		{"spatial samples", fmt.Sprintf("%dx%d", pl.SpatialSamples[0], pl.SpatialSamples[1])},
		{"temporal samples", fmt.Sprintf("%d", pl.TemporalSamples)},
		{"pipeline", strings.Join(pipelineFeatures(pl), ", ")},
		{"outputs", strings.Join(s.Output.Names(), ", ")},
	})
	table.Render()
}

// pipelineFeatures lists the enabled pipeline switches.
func pipelineFeatures(p config.Pipeline) []string {
	switches := []struct {
		name string
		on   bool
	}{
		{"mipmapping", p.Mipmapping},
		{"anisotropic filtering", p.AnisotropicFiltering},
		{"transparency", p.Transparency},
		{"normal mapping", p.NormalMapping},
		{"ambient light", p.AmbientLight},
		{"thin lens vignetting", p.ThinLensVignetting},
		{"shot noise", p.ShotNoise},
		{"gaussian white noise", p.GaussianWhiteNoise},
		{"preproc lens distortion", p.PreprocLensDistortion},
		{"postproc lens distortion", p.PostprocLensDistortion},
		{"shadow maps", p.ShadowMaps},
		{"shadow map filtering", p.ShadowMapFiltering},
		{"reflective shadow maps", p.ReflectiveShadowMaps},
		{"light power factor maps", p.LightPowerFactorMaps},
		{"sub-frame temporal sampling", p.SubFrameTemporalSampling},
	}
	var on []string
	for _, s := range switches {
		if s.on {
			on = append(on, s.name)
		}
	}
	if len(on) == 0 {
		return []string{"none"}
	}
	return on
}

func writeSceneTables(w io.Writer, s *examples.Setup) {
	sc := s.Scene
	lo, hi := sc.Bounds()
	fmt.Fprintf(w, "\nscene %q: %d materials, %d objects, %d lights, bounds %v .. %v\n",
		sc.Name(), len(sc.Materials()), len(sc.Objects()), len(sc.Lights()), lo, hi)

	objects := newTable(w, "#", "Object", "Shapes", "Triangles", "Animated")
	anims := sc.ObjectAnimations()
	for i, o := range sc.Objects() {
		animated := i < len(anims) && anims[i] != nil && !anims[i].IsEmpty()
		objects.Append([]string{
			fmt.Sprintf("%d", i),
			o.Name(),
			fmt.Sprintf("%d", len(o.Shapes())),
			fmt.Sprintf("%d", o.TriangleCount()),
			fmt.Sprintf("%t", animated),
		})
	}
	objects.Render()

	lights := newTable(w, "#", "Type", "Position", "Color", "Power", "Shadow map", "RSM")
	for i, l := range sc.Lights() {
		pos, col := l.Position(), l.Color()
		sm, smSize, _ := l.ShadowMap()
		rsm, rsmSize := l.ReflectiveShadowMap()
		lights.Append([]string{
			fmt.Sprintf("%d", i),
			l.Type().String(),
			fmt.Sprintf("%.3f %.3f %.3f", pos[0], pos[1], pos[2]),
			fmt.Sprintf("%.3f %.3f %.3f", col[0], col[1], col[2]),
			fmt.Sprintf("%g W", l.Power()),
			mapSize(sm, smSize),
			mapSize(rsm, rsmSize),
		})
	}
	lights.Render()
}

func mapSize(enabled bool, size int) string {
	if !enabled {
		return "-"
	}
	return fmt.Sprintf("%d", size)
}

func writeExportTable(w io.Writer, s *examples.Setup) {
	table := newTable(w, "File", "Sub-frames", "Channels", "Per frame")
	for _, e := range s.Exports {
		sub := "result"
		if len(e.SubFrames) > 0 {
			sub = strings.Trim(fmt.Sprint(e.SubFrames), "[]")
		}
		ch := "all"
		if len(e.Channels) > 0 {
			ch = strings.Trim(fmt.Sprint(e.Channels), "[]")
		}
		table.Append([]string{e.Name, sub, ch, fmt.Sprintf("%t", e.PerFrame)})
	}
	table.Render()
}
