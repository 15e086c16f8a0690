// Package loader imports scene files into materials, objects, lights and a camera pose
// that can be added to a simulated scene.
package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
	"github.com/Carmen-Shannon/camsim-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnsupportedFile is returned for files whose extension no importer handles.
var ErrUnsupportedFile = errors.New("unsupported scene file format")

// Camera is a camera pose found in an imported file.
type Camera struct {
	Name string

	// OpeningAngle is the vertical field of view in degrees.
	OpeningAngle float32

	// Transformation is the camera's world pose at the first keyframe. The camera looks down -Z.
	Transformation animation.Transformation

	// Animation is empty for a static camera.
	Animation *animation.Animation
}

// Result holds the scene data of one imported file. Shape material indices refer to
// Materials; AddToScene rebases them onto the target scene.
type Result struct {
	Name string

	Materials        []material.Material
	Objects          []model.Object
	ObjectAnimations []*animation.Animation
	Lights           []light.Light
	LightAnimations  []*animation.Animation

	// Camera is nil if the file contains no perspective camera.
	Camera *Camera
}

// AddObjectsToScene appends the materials and objects with their animations to a scene.
//
// Parameters:
//   - s: the target scene
func (r *Result) AddObjectsToScene(s scene.Scene) {
	base := len(s.Materials())
	for _, m := range r.Materials {
		s.AddMaterial(m)
	}
	for i, o := range r.Objects {
		shapes := make([]model.Shape, len(o.Shapes()))
		for j, sh := range o.Shapes() {
			shapes[j] = model.Shape{MaterialIndex: sh.MaterialIndex + base, Mesh: sh.Mesh}
		}
		s.AddObject(model.NewObject(model.WithName(o.Name()), model.WithShapes(shapes...)), r.ObjectAnimations[i])
	}
}

// AddLightsToScene appends the lights with their animations to a scene.
//
// Parameters:
//   - s: the target scene
func (r *Result) AddLightsToScene(s scene.Scene) {
	for i, l := range r.Lights {
		s.AddLight(l, r.LightAnimations[i])
	}
}

// AddToScene appends everything except the camera to a scene.
//
// Parameters:
//   - s: the target scene
func (r *Result) AddToScene(s scene.Scene) {
	r.AddObjectsToScene(s)
	r.AddLightsToScene(s)
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	importer gltfImporter
	opts     gltfImportOptions

	cache map[string]*Result
}

// Loader defines the public-facing interface for importing and caching scene files.
type Loader interface {
	// Load imports a scene file and caches the result by path.
	// The importer is selected by file extension (.gltf and .glb).
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - *Result: the imported data, shared with later calls for the same path
	//   - error: ErrUnsupportedFile for unknown extensions, or the import error
	Load(path string) (*Result, error)

	// LoadReader imports a glTF or GLB stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key
	//   - r: the reader providing the file data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *Result: the imported data
	//   - error: error if import fails
	LoadReader(name string, r io.Reader, isGLB bool) (*Result, error)

	// Get retrieves a cached result by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Result: the cached result or nil
	Get(name string) *Result

	// Results returns a copy of the cache.
	//
	// Returns:
	//   - map[string]*Result: all cached results keyed by name
	Results() map[string]*Result
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the given options applied. By default the first
// animation clip is imported and no global transformation is applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		importer: newGLTFImporter(),
		opts:     gltfImportOptions{transform: mgl32.Ident4()},
		cache:    make(map[string]*Result),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*Result, error) {
	if r := l.Get(path); r != nil {
		return r, nil
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gltf", ".glb":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}

	r, err := l.importer.Import(path, l.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return l.store(path, r), nil
}

func (l *loader) LoadReader(name string, rd io.Reader, isGLB bool) (*Result, error) {
	if r := l.Get(name); r != nil {
		return r, nil
	}

	r, err := l.importer.ImportReader(rd, isGLB, l.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}
	return l.store(name, r), nil
}

// store caches r unless another goroutine stored a result first.
func (l *loader) store(name string, r *Result) *Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.cache[name]; ok {
		return cached
	}
	l.cache[name] = r
	return r
}

func (l *loader) Get(name string) *Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Results() map[string]*Result {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Result, len(l.cache))
	for k, v := range l.cache {
		result[k] = v
	}
	return result
}
