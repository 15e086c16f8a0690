package cmd

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/config"
	"github.com/Carmen-Shannon/camsim-go/engine/loader"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer"
	"github.com/Carmen-Shannon/camsim-go/engine/simulator"
	"github.com/Carmen-Shannon/camsim-go/examples"
	"github.com/urfave/cli"
)

// SetupFlags are the flags shared by the simulate, info and preview commands. Unset flags keep
// the values of the selected scene.
var SetupFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "scene, s",
		Value: "helloworld",
		Usage: "demo scene to simulate; see the scenes command",
	},
	cli.StringFlag{
		Name:  "gltf",
		Usage: "simulate a glTF 2.0 file (.gltf or .glb) instead of a demo scene",
	},
	cli.StringFlag{
		Name:  "camera-anim",
		Usage: "camera animation file with one keyframe per line",
	},
	cli.IntFlag{
		Name:  "width",
		Usage: "frame width in pixels",
	},
	cli.IntFlag{
		Name:  "height",
		Usage: "frame height in pixels",
	},
	cli.Float64Flag{
		Name:  "fovy",
		Usage: "vertical opening angle in degrees",
	},
	cli.StringFlag{
		Name:  "spatial-samples",
		Usage: "spatial oversampling as WxH with odd W and H, e.g. 3x3",
	},
	cli.IntFlag{
		Name:  "temporal-samples",
		Usage: "temporal samples per sub-frame",
	},
	cli.StringFlag{
		Name:  "outputs",
		Usage: "comma separated outputs: " + outputList(),
	},
	cli.StringFlag{
		Name:  "backend, b",
		Value: "wgpu",
		Usage: "renderer backend: wgpu or software",
	},
	cli.IntFlag{
		Name:  "workers",
		Usage: "software backend worker count (0 = number of CPUs)",
	},
}

func outputList() string {
	all := config.Output{
		RGB: true, SRGB: true, PMD: true, PMDCoordinates: true, EyeSpacePositions: true,
		CustomSpacePositions: true, EyeSpaceNormals: true, CustomSpaceNormals: true,
		DepthAndRange: true, Indices: true, ForwardFlow3D: true, ForwardFlow2D: true,
		BackwardFlow3D: true, BackwardFlow2D: true,
	}
	return strings.Join(all.Names(), ",")
}

// buildSetup resolves the scene flags into a simulation setup.
func buildSetup(ctx *cli.Context) (*examples.Setup, error) {
	var s *examples.Setup
	if path := ctx.String("gltf"); path != "" {
		var err error
		if s, err = gltfSetup(path); err != nil {
			return nil, err
		}
	} else {
		p, ok := examples.Lookup(ctx.String("scene"))
		if !ok {
			return nil, fmt.Errorf("unknown scene %q", ctx.String("scene"))
		}
		s = p.Build()
	}

	if ctx.IsSet("width") || ctx.IsSet("height") || ctx.IsSet("fovy") {
		w, h, fovy := s.Projection.Width(), s.Projection.Height(), s.Projection.OpeningAngle()
		if ctx.IsSet("width") {
			w = ctx.Int("width")
		}
		if ctx.IsSet("height") {
			h = ctx.Int("height")
		}
		if ctx.IsSet("fovy") {
			fovy = float32(ctx.Float64("fovy"))
		}
		if w < 1 || h < 1 || fovy <= 0 || fovy >= 180 {
			return nil, fmt.Errorf("invalid projection %dx%d at %g degrees", w, h, fovy)
		}
		s.Projection = config.ProjectionFromOpeningAngle(w, h, fovy)
	}

	if v := ctx.String("spatial-samples"); v != "" {
		var sx, sy int
		if _, err := fmt.Sscanf(v, "%dx%d", &sx, &sy); err != nil || sx < 1 || sy < 1 || sx%2 == 0 || sy%2 == 0 {
			return nil, fmt.Errorf("invalid spatial samples %q, want WxH with odd W and H", v)
		}
		s.Pipeline.SpatialSamples = [2]int{sx, sy}
		s.Pipeline.SpatialSampleWeights = nil
	}
	if ctx.IsSet("temporal-samples") {
		n := ctx.Int("temporal-samples")
		if n < 1 {
			return nil, fmt.Errorf("invalid temporal samples %d", n)
		}
		s.Pipeline.TemporalSamples = n
	}

	if v := ctx.String("outputs"); v != "" {
		o, err := config.ParseOutputs(v)
		if err != nil {
			return nil, err
		}
		s.Output = o
		s.Exports = examples.DefaultExports(o)
	}

	if path := ctx.String("camera-anim"); path != "" {
		anim := animation.NewAnimation()
		if err := anim.LoadFile(path); err != nil {
			return nil, err
		}
		s.CameraAnimation = anim
	}
	return s, nil
}

// gltfSetup builds a setup around an imported glTF file, using its camera when it has one.
func gltfSetup(path string) (*examples.Setup, error) {
	res, err := loader.NewLoader().Load(path)
	if err != nil {
		return nil, err
	}
	s := examples.NewSetup(res.Name)
	res.AddToScene(s.Scene)
	if cam := res.Camera; cam != nil {
		s.CameraTransformation = cam.Transformation
		if cam.Animation != nil && !cam.Animation.IsEmpty() {
			s.CameraTransformation = animation.Identity()
			s.CameraAnimation = cam.Animation
		}
		if cam.OpeningAngle > 0 {
			s.Projection = config.ProjectionFromOpeningAngle(s.Projection.Width(), s.Projection.Height(), cam.OpeningAngle)
		}
	}
	s.Output = config.Output{RGB: true, SRGB: true}
	s.Exports = examples.DefaultExports(s.Output)
	return s, nil
}

// newRenderer creates the renderer selected by the backend flags.
func newRenderer(ctx *cli.Context, options ...renderer.RendererBuilderOption) (renderer.Renderer, error) {
	backend, ok := renderer.ParseBackendType(ctx.String("backend"))
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", ctx.String("backend"))
	}
	options = append(options, renderer.WithWorkers(ctx.Int("workers")))
	return renderer.NewRenderer(backend, options...)
}

// newSimulator creates a renderer and a simulator configured with the setup.
func newSimulator(ctx *cli.Context, s *examples.Setup, options ...renderer.RendererBuilderOption) (renderer.Renderer, simulator.Simulator, error) {
	r, err := newRenderer(ctx, options...)
	if err != nil {
		return nil, nil, err
	}
	return r, simulator.NewSimulator(r, s.Options()...), nil
}
