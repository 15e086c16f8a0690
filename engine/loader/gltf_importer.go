package loader

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/camsim-go/common"
	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// luminousEfficacy converts lumens to watts for an ideal 555nm source.
const luminousEfficacy = 683

// gltfImportOptions controls how a document is turned into scene data.
type gltfImportOptions struct {
	transform mgl32.Mat4
	clip      int
}

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter turns a glTF document into scene data. Static meshes are baked into a
// single object in world space; every mesh below an animated node becomes its own
// object whose animation carries the node's world transformation.
type gltfImporter interface {
	// Import loads a glTF/GLB file.
	//
	// Parameters:
	//   - path: the file path to the glTF or GLB file
	//   - opts: the import options
	//
	// Returns:
	//   - *Result: the imported scene data
	//   - error: error if import fails
	Import(path string, opts gltfImportOptions) (*Result, error)

	// ImportReader loads a glTF document from a reader. Relative URIs resolve against the
	// working directory.
	//
	// Parameters:
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//   - opts: the import options
	//
	// Returns:
	//   - *Result: the imported scene data
	//   - error: error if import fails
	ImportReader(r io.Reader, isGLB bool, opts gltfImportOptions) (*Result, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) Import(path string, opts gltfImportOptions) (*Result, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return imp.importFromParser(parser, path, opts)
}

func (imp *gltfImporterImpl) ImportReader(r io.Reader, isGLB bool, opts gltfImportOptions) (*Result, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}
	return imp.importFromParser(parser, "", opts)
}

// gltfSceneWalk carries the per-import state while visiting the node hierarchy.
type gltfSceneWalk struct {
	doc        *gltfDocument
	opts       gltfImportOptions
	meshes     gltfMeshExtractor
	anims      gltfAnimationExtractor
	tracks     map[int]*gltfNodeTracks
	timestamps []int64
	parents    []int

	result          *Result
	staticShapes    []model.Shape
	defaultMaterial int
}

// importFromParser performs a full import from a parser that has already loaded a document.
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackPath string, opts gltfImportOptions) (*Result, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}

	materials, err := newGLTFMaterialExtractor(parser).ExtractAllMaterials()
	if err != nil {
		return nil, fmt.Errorf("material extraction failed: %w", err)
	}

	w := &gltfSceneWalk{
		doc:             doc,
		opts:            opts,
		meshes:          newGLTFMeshExtractor(parser),
		anims:           newGLTFAnimationExtractor(parser),
		parents:         make([]int, len(doc.Nodes)),
		defaultMaterial: -1,
		result: &Result{
			Name:      gltfExtractModelName(doc, fallbackPath),
			Materials: materials,
		},
	}
	if opts.clip >= 0 && opts.clip < len(doc.Animations) {
		if w.tracks, err = w.anims.ExtractNodeTracks(opts.clip); err != nil {
			return nil, fmt.Errorf("animation extraction failed: %w", err)
		}
		w.timestamps = w.anims.Timestamps(w.tracks)
	}

	for i := range w.parents {
		w.parents[i] = -1
	}
	for i := range doc.Nodes {
		for _, c := range doc.Nodes[i].Children {
			if c < 0 || c >= len(doc.Nodes) {
				return nil, fmt.Errorf("node %d: child index %d out of range", i, c)
			}
			if w.parents[c] >= 0 {
				return nil, fmt.Errorf("node %d has more than one parent", c)
			}
			w.parents[c] = i
		}
	}

	visited := make([]bool, len(doc.Nodes))
	var visit func(n int, animated bool) error
	visit = func(n int, animated bool) error {
		if visited[n] {
			return fmt.Errorf("node %d: cycle in node hierarchy", n)
		}
		visited[n] = true
		animated = animated || w.tracks[n] != nil
		if err := w.importNode(n, animated); err != nil {
			return err
		}
		for _, c := range doc.Nodes[n].Children {
			if err := visit(c, animated); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range gltfRootNodes(doc, w.parents) {
		if err := visit(root, false); err != nil {
			return nil, err
		}
	}

	if len(w.staticShapes) > 0 {
		static := model.NewObject(model.WithName(w.result.Name), model.WithShapes(w.staticShapes...))
		w.result.Objects = append([]model.Object{static}, w.result.Objects...)
		w.result.ObjectAnimations = append([]*animation.Animation{{}}, w.result.ObjectAnimations...)
	}
	return w.result, nil
}

func (w *gltfSceneWalk) importNode(n int, animated bool) error {
	node := &w.doc.Nodes[n]

	if node.Mesh != nil {
		shapes, err := w.meshes.ExtractMesh(*node.Mesh)
		if err != nil {
			return fmt.Errorf("node %d: %w", n, err)
		}
		var objShapes []model.Shape
		for _, s := range shapes {
			mi := s.Material
			if mi < 0 || mi >= len(w.result.Materials) {
				mi = w.defaultMaterialIndex()
			}
			if !animated {
				s.Mesh.Transform(w.worldAt(n, 0))
				w.staticShapes = append(w.staticShapes, model.Shape{MaterialIndex: mi, Mesh: s.Mesh})
				continue
			}
			objShapes = append(objShapes, model.Shape{MaterialIndex: mi, Mesh: s.Mesh})
		}
		if len(objShapes) > 0 {
			name := common.Coalesce(node.Name, fmt.Sprintf("%s node %d", w.result.Name, n))
			w.result.Objects = append(w.result.Objects, model.NewObject(model.WithName(name), model.WithShapes(objShapes...)))
			w.result.ObjectAnimations = append(w.result.ObjectAnimations, w.worldAnimation(n))
		}
	}

	if node.Camera != nil && w.result.Camera == nil {
		if err := w.importCamera(n, *node.Camera, animated); err != nil {
			return err
		}
	}

	if node.Extensions != nil && node.Extensions.LightsPunctual != nil {
		if err := w.importLight(n, node.Extensions.LightsPunctual.Light, animated); err != nil {
			return err
		}
	}
	return nil
}

func (w *gltfSceneWalk) importCamera(n, cameraIndex int, animated bool) error {
	if cameraIndex < 0 || cameraIndex >= len(w.doc.Cameras) {
		return fmt.Errorf("node %d: camera index %d out of range", n, cameraIndex)
	}
	cam := &w.doc.Cameras[cameraIndex]
	if cam.Perspective == nil {
		common.Logger().Warn("loader: ignoring non-perspective camera", "name", cam.Name, "type", cam.Type)
		return nil
	}
	c := &Camera{
		Name:           cam.Name,
		OpeningAngle:   mgl32.RadToDeg(cam.Perspective.YFov),
		Transformation: gltfRigid(animation.FromMatrix(w.worldAt(n, 0))),
		Animation:      &animation.Animation{},
	}
	if animated {
		for _, kf := range w.worldAnimation(n).Keyframes() {
			c.Animation.AddKeyframe(kf.Timestamp, gltfRigid(kf.Transformation))
		}
	}
	w.result.Camera = c
	return nil
}

func (w *gltfSceneWalk) importLight(n, lightIndex int, animated bool) error {
	ext := w.doc.Extensions
	if ext == nil || ext.LightsPunctual == nil || lightIndex < 0 || lightIndex >= len(ext.LightsPunctual.Lights) {
		return fmt.Errorf("node %d: light index %d out of range", n, lightIndex)
	}
	gl := &ext.LightsPunctual.Lights[lightIndex]

	opts := []light.LightBuilderOption{light.WithRelativeToCamera(false)}
	lightType := light.LightTypePoint
	switch gl.Type {
	case gltfLightTypeDirectional:
		lightType = light.LightTypeDirectional
	case gltfLightTypeSpot:
		lightType = light.LightTypeSpot
	case gltfLightTypePoint:
	default:
		common.Logger().Warn("loader: unknown light type, using point light", "type", gl.Type)
	}

	if gl.Color != nil {
		c := *gl.Color
		opts = append(opts, light.WithColor(c[0], c[1], c[2]))
	}
	inner, outer := float32(0), float32(math.Pi/4)
	if gl.Spot != nil {
		if gl.Spot.InnerConeAngle != nil {
			inner = *gl.Spot.InnerConeAngle
		}
		if gl.Spot.OuterConeAngle != nil {
			outer = *gl.Spot.OuterConeAngle
		}
	}
	if lightType == light.LightTypeSpot {
		// full opening angles in degrees
		opts = append(opts, light.WithConeAngles(2*mgl32.RadToDeg(inner), 2*mgl32.RadToDeg(outer)))
	}
	if gl.Intensity != nil && lightType != light.LightTypeDirectional {
		solidAngle := 4 * math.Pi
		if lightType == light.LightTypeSpot {
			solidAngle = 2 * math.Pi * (1 - math.Cos(float64(outer)))
		}
		opts = append(opts, light.WithPower(float32(float64(*gl.Intensity)*solidAngle/luminousEfficacy)))
	}

	anim := &animation.Animation{}
	if animated {
		anim = w.worldAnimation(n)
	} else {
		world := w.worldAt(n, 0)
		p := mgl32.TransformCoordinate(mgl32.Vec3{}, world)
		d := world.Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
		opts = append(opts, light.WithPosition(p[0], p[1], p[2]), light.WithDirection(d[0], d[1], d[2]))
	}
	w.result.Lights = append(w.result.Lights, light.NewLight(lightType, opts...))
	w.result.LightAnimations = append(w.result.LightAnimations, anim)
	return nil
}

// worldAt composes the node's world matrix at time t, including the import transform.
func (w *gltfSceneWalk) worldAt(n int, t int64) mgl32.Mat4 {
	m := w.anims.LocalPose(n, w.tracks, t)
	for p := w.parents[n]; p >= 0; p = w.parents[p] {
		m = w.anims.LocalPose(p, w.tracks, t).Mul4(m)
	}
	return w.opts.transform.Mul4(m)
}

// worldAnimation samples the node's world transformation at every keyframe time of the clip.
func (w *gltfSceneWalk) worldAnimation(n int) *animation.Animation {
	anim := &animation.Animation{}
	for _, t := range w.timestamps {
		anim.AddKeyframe(t, animation.FromMatrix(w.worldAt(n, t)))
	}
	return anim
}

func (w *gltfSceneWalk) defaultMaterialIndex() int {
	if w.defaultMaterial < 0 {
		w.defaultMaterial = len(w.result.Materials)
		w.result.Materials = append(w.result.Materials, material.NewMaterial(material.WithName("default")))
	}
	return w.defaultMaterial
}

// gltfRigid drops the scale of a camera pose; view matrices must be rigid.
func gltfRigid(t animation.Transformation) animation.Transformation {
	t.Scale = mgl32.Vec3{1, 1, 1}
	return t
}

// gltfRootNodes returns the nodes of the default scene, or every parentless node
// when the document has no scenes.
func gltfRootNodes(doc *gltfDocument, parents []int) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			s = *doc.Scene
		}
		var roots []int
		for _, n := range doc.Scenes[s].Nodes {
			if n >= 0 && n < len(doc.Nodes) {
				roots = append(roots, n)
			}
		}
		return roots
	}
	var roots []int
	for i, p := range parents {
		if p < 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// gltfExtractModelName derives a name from the default scene or the file name.
func gltfExtractModelName(doc *gltfDocument, fallbackPath string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}
	if fallbackPath != "" {
		base := filepath.Base(fallbackPath)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "unnamed_model"
}
