package loader

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/Carmen-Shannon/camsim-go/engine/animation"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfTrack is one animated TRS component of a node. Translation and scale values
// use the first three components of each entry; rotations are (x, y, z, w).
type gltfTrack struct {
	times  []float32
	values []mgl32.Vec4
	step   bool
}

// gltfNodeTracks holds the animated components of a single node. Nil tracks keep
// the node's rest value.
type gltfNodeTracks struct {
	translation *gltfTrack
	rotation    *gltfTrack
	scale       *gltfTrack
}

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor reads node TRS channels of a glTF animation and samples
// local node poses at arbitrary times.
type gltfAnimationExtractor interface {
	// ExtractNodeTracks reads all translation, rotation and scale channels of one animation.
	// Channels targeting other paths such as morph weights are ignored.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//
	// Returns:
	//   - map[int]*gltfNodeTracks: tracks keyed by node index
	//   - error: error if extraction fails
	ExtractNodeTracks(animIndex int) (map[int]*gltfNodeTracks, error)

	// Timestamps returns the sorted union of all keyframe times of the tracks in microseconds.
	//
	// Parameters:
	//   - tracks: the tracks returned by ExtractNodeTracks
	//
	// Returns:
	//   - []int64: unique ascending timestamps
	Timestamps(tracks map[int]*gltfNodeTracks) []int64

	// LocalPose returns the local pose of a node at a time, combining its rest pose with
	// any animated components.
	//
	// Parameters:
	//   - nodeIndex: the node
	//   - tracks: the tracks returned by ExtractNodeTracks, may be nil
	//   - t: the time in microseconds
	//
	// Returns:
	//   - mgl32.Mat4: the local transformation matrix
	LocalPose(nodeIndex int, tracks map[int]*gltfNodeTracks, t int64) mgl32.Mat4
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractNodeTracks(animIndex int) (map[int]*gltfNodeTracks, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}
	anim := &doc.Animations[animIndex]

	result := make(map[int]*gltfNodeTracks)
	for i := range anim.Channels {
		ch := &anim.Channels[i]
		if ch.Target.Node == nil || *ch.Target.Node < 0 || *ch.Target.Node >= len(doc.Nodes) {
			continue
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", anim.Name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		var track *gltfTrack
		var err error
		switch ch.Target.Path {
		case gltfAnimPathTranslation, gltfAnimPathScale:
			track, err = e.readTrack(sampler, 3)
		case gltfAnimPathRotation:
			track, err = e.readTrack(sampler, 4)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", anim.Name, i, err)
		}

		nt := result[*ch.Target.Node]
		if nt == nil {
			nt = &gltfNodeTracks{}
			result[*ch.Target.Node] = nt
		}
		switch ch.Target.Path {
		case gltfAnimPathTranslation:
			nt.translation = track
		case gltfAnimPathRotation:
			nt.rotation = track
		case gltfAnimPathScale:
			nt.scale = track
		}
	}
	return result, nil
}

// readTrack reads a sampler's input and output accessors. Cubic spline samplers store
// (in-tangent, value, out-tangent) triples; only the values are kept and interpolated linearly.
func (e *gltfAnimationExtractorImpl) readTrack(s *gltfAnimSampler, components int) (*gltfTrack, error) {
	times, err := e.parser.ReadScalarAccessor(s.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read timestamps: %w", err)
	}

	var values []mgl32.Vec4
	if components == 4 {
		values, err = e.parser.ReadVec4Accessor(s.Output)
	} else {
		var v3 []mgl32.Vec3
		v3, err = e.parser.ReadVec3Accessor(s.Output)
		values = make([]mgl32.Vec4, len(v3))
		for i, v := range v3 {
			values[i] = v.Vec4(0)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}

	if s.Interpolation == gltfInterpolationCubicSpline {
		if len(values) != 3*len(times) {
			return nil, fmt.Errorf("cubic spline sampler has %d values for %d keys", len(values), len(times))
		}
		kept := make([]mgl32.Vec4, len(times))
		for i := range kept {
			kept[i] = values[3*i+1]
		}
		values = kept
	}
	if len(values) != len(times) || len(times) == 0 {
		return nil, fmt.Errorf("sampler has %d values for %d keys", len(values), len(times))
	}
	return &gltfTrack{times: times, values: values, step: s.Interpolation == gltfInterpolationStep}, nil
}

func (e *gltfAnimationExtractorImpl) Timestamps(tracks map[int]*gltfNodeTracks) []int64 {
	var ts []int64
	for _, nt := range tracks {
		for _, tr := range []*gltfTrack{nt.translation, nt.rotation, nt.scale} {
			if tr == nil {
				continue
			}
			for _, t := range tr.times {
				ts = append(ts, gltfMicroseconds(t))
			}
		}
	}
	slices.Sort(ts)
	return slices.Compact(ts)
}

func (e *gltfAnimationExtractorImpl) LocalPose(nodeIndex int, tracks map[int]*gltfNodeTracks, t int64) mgl32.Mat4 {
	node := &e.parser.Document().Nodes[nodeIndex]
	nt := tracks[nodeIndex]
	if nt == nil && node.Matrix != nil {
		return mgl32.Mat4(*node.Matrix)
	}

	rest := gltfRestPose(node)
	if nt == nil {
		return rest.Matrix()
	}
	seconds := float32(float64(t) / 1e6)
	if nt.translation != nil {
		rest.Translation = nt.translation.sample(seconds, false).Vec3()
	}
	if nt.rotation != nil {
		v := nt.rotation.sample(seconds, true)
		rest.Rotation = mgl32.Quat{W: v[3], V: v.Vec3()}.Normalize()
	}
	if nt.scale != nil {
		rest.Scale = nt.scale.sample(seconds, false).Vec3()
	}
	return rest.Matrix()
}

// sample evaluates the track at t seconds, clamping outside the key range.
func (tr *gltfTrack) sample(t float32, rotation bool) mgl32.Vec4 {
	n := len(tr.times)
	if t <= tr.times[0] {
		return tr.values[0]
	}
	if t >= tr.times[n-1] {
		return tr.values[n-1]
	}
	hi := sort.Search(n, func(i int) bool { return tr.times[i] >= t })
	lo := hi - 1
	if tr.step {
		return tr.values[lo]
	}
	alpha := (t - tr.times[lo]) / (tr.times[hi] - tr.times[lo])
	a, b := tr.values[lo], tr.values[hi]
	if rotation {
		qa := mgl32.Quat{W: a[3], V: a.Vec3()}
		qb := mgl32.Quat{W: b[3], V: b.Vec3()}
		q := mgl32.QuatSlerp(qa, qb, alpha)
		return q.V.Vec4(q.W)
	}
	return a.Add(b.Sub(a).Mul(alpha))
}

// gltfRestPose returns the pose stored on a node as a matrix or as separate components.
func gltfRestPose(node *gltfNode) animation.Transformation {
	pose := animation.Identity()
	if node.Matrix != nil {
		return animation.FromMatrix(mgl32.Mat4(*node.Matrix))
	}
	if node.Translation != nil {
		pose.Translation = mgl32.Vec3(*node.Translation)
	}
	if node.Rotation != nil {
		r := *node.Rotation
		pose.Rotation = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
	}
	if node.Scale != nil {
		pose.Scale = mgl32.Vec3(*node.Scale)
	}
	return pose
}

// gltfMicroseconds converts glTF seconds to simulation timestamps.
func gltfMicroseconds(seconds float32) int64 {
	return int64(math.Round(float64(seconds) * 1e6))
}
