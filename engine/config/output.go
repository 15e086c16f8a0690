package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOutput is returned by ParseOutputs for names it does not know.
var ErrUnknownOutput = errors.New("unknown output")

// Output selects which results the simulator produces.
type Output struct {
	RGB                  bool
	SRGB                 bool
	PMD                  bool
	PMDCoordinates       bool
	EyeSpacePositions    bool
	CustomSpacePositions bool
	EyeSpaceNormals      bool
	CustomSpaceNormals   bool
	DepthAndRange        bool
	Indices              bool
	ForwardFlow3D        bool
	ForwardFlow2D        bool
	BackwardFlow3D       bool
	BackwardFlow2D       bool
}

// DefaultOutput enables only the linear RGB result.
func DefaultOutput() Output {
	return Output{RGB: true}
}

// Light reports whether the radiometric light pass is needed.
func (o Output) Light() bool {
	return o.RGB || o.PMD
}

// Geometry reports whether any geometry channel is requested.
func (o Output) Geometry() bool {
	return o.EyeSpacePositions || o.CustomSpacePositions || o.EyeSpaceNormals ||
		o.CustomSpaceNormals || o.DepthAndRange || o.Indices
}

// Flow reports whether any optical flow channel is requested.
func (o Output) Flow() bool {
	return o.ForwardFlow3D || o.ForwardFlow2D || o.BackwardFlow3D || o.BackwardFlow2D
}

// SubFrames returns the number of sub-frames per frame: four phase images for PMD, otherwise one.
func (o Output) SubFrames() int {
	if o.PMD {
		return 4
	}
	return 1
}

// outputNames maps the names accepted by ParseOutputs to their Output fields.
var outputNames = []struct {
	name  string
	field func(o *Output) *bool
}{
	{"rgb", func(o *Output) *bool { return &o.RGB }},
	{"srgb", func(o *Output) *bool { return &o.SRGB }},
	{"pmd", func(o *Output) *bool { return &o.PMD }},
	{"pmd-coordinates", func(o *Output) *bool { return &o.PMDCoordinates }},
	{"positions", func(o *Output) *bool { return &o.EyeSpacePositions }},
	{"custom-positions", func(o *Output) *bool { return &o.CustomSpacePositions }},
	{"normals", func(o *Output) *bool { return &o.EyeSpaceNormals }},
	{"custom-normals", func(o *Output) *bool { return &o.CustomSpaceNormals }},
	{"depthrange", func(o *Output) *bool { return &o.DepthAndRange }},
	{"indices", func(o *Output) *bool { return &o.Indices }},
	{"forwardflow3d", func(o *Output) *bool { return &o.ForwardFlow3D }},
	{"forwardflow2d", func(o *Output) *bool { return &o.ForwardFlow2D }},
	{"backwardflow3d", func(o *Output) *bool { return &o.BackwardFlow3D }},
	{"backwardflow2d", func(o *Output) *bool { return &o.BackwardFlow2D }},
}

// ParseOutputs builds an Output from a comma separated list of output names such as
// "rgb,srgb,depthrange". Enabling srgb also enables rgb, which it is computed from.
//
// Parameters:
//   - list: the output names
//
// Returns:
//   - Output: the selected outputs
//   - error: ErrUnknownOutput naming the first unknown name
func ParseOutputs(list string) (Output, error) {
	var o Output
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		found := false
		for _, n := range outputNames {
			if n.name == name {
				*n.field(&o) = true
				found = true
				break
			}
		}
		if !found {
			return Output{}, fmt.Errorf("%q: %w", name, ErrUnknownOutput)
		}
	}
	if o.SRGB {
		o.RGB = true
	}
	return o, nil
}

// Names returns the names of the enabled outputs in the order ParseOutputs accepts them.
func (o Output) Names() []string {
	var names []string
	for _, n := range outputNames {
		if *n.field(&o) {
			names = append(names, n.name)
		}
	}
	return names
}
