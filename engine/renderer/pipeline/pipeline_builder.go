package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption configures the State of a Pipeline during construction.
type PipelineBuilderOption func(*State)

// AdditiveBlend adds the fragment output to the attachment, for accumulating passes.
var AdditiveBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOne, Operation: wgpu.BlendOperationAdd},
	Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOne, Operation: wgpu.BlendOperationAdd},
}

// WithColorFormats sets the color attachment formats in location order.
//
// Parameters:
//   - formats: one format per color attachment
//
// Returns:
//   - PipelineBuilderOption: option setting the color formats
func WithColorFormats(formats ...wgpu.TextureFormat) PipelineBuilderOption {
	return func(s *State) {
		s.ColorFormats = append([]wgpu.TextureFormat(nil), formats...)
	}
}

// WithVertexLayout reads mesh vertices from buffer slot 0. Without a layout the vertex stage
// derives its vertices from the vertex index, as the fullscreen passes do.
func WithVertexLayout(layout wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(s *State) {
		s.VertexLayout = &layout
	}
}

// WithDepth binds a DepthFormat attachment and tests against it.
//
// Parameters:
//   - compare: the depth comparison function
//   - write: whether passing fragments write their depth
//
// Returns:
//   - PipelineBuilderOption: option enabling the depth test
func WithDepth(compare wgpu.CompareFunction, write bool) PipelineBuilderOption {
	return func(s *State) {
		s.Depth = &DepthState{Compare: compare, Write: write}
	}
}

// WithBlend applies a blend state to every color attachment; nil disables blending.
func WithBlend(state *wgpu.BlendState) PipelineBuilderOption {
	return func(s *State) {
		s.Blend = state
	}
}

// WithCullMode sets which triangle faces are discarded. Front faces are counter-clockwise.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(s *State) {
		s.CullMode = mode
	}
}
