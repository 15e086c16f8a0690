// Package pipeline describes the render pipelines of the WebGPU renderer. A pipeline couples a
// compiled program with fixed-function State; programs cache their pipelines by State key since
// one program is drawn into several target configurations.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/camsim-go/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the format of every depth attachment.
const DepthFormat = wgpu.TextureFormatDepth32Float

// DepthState is the depth test of a pipeline.
type DepthState struct {
	Compare wgpu.CompareFunction
	Write   bool
}

// State is the fixed-function state of a render pipeline. Triangle lists are drawn with
// counter-clockwise front faces and all color channels written.
type State struct {
	ColorFormats []wgpu.TextureFormat
	VertexLayout *wgpu.VertexBufferLayout
	Depth        *DepthState
	Blend        *wgpu.BlendState
	CullMode     wgpu.CullMode
}

// Key identifies the state; pipelines of one program with equal keys are interchangeable.
func (s State) Key() string {
	var b strings.Builder
	for _, f := range s.ColorFormats {
		fmt.Fprintf(&b, "%d,", f)
	}
	b.WriteString("|")
	if s.VertexLayout != nil {
		fmt.Fprintf(&b, "v%d", s.VertexLayout.ArrayStride)
	}
	b.WriteString("|")
	if s.Depth != nil {
		fmt.Fprintf(&b, "d%d,%t", s.Depth.Compare, s.Depth.Write)
	}
	b.WriteString("|")
	if s.Blend != nil {
		fmt.Fprintf(&b, "b%+v", *s.Blend)
	}
	fmt.Fprintf(&b, "|c%d", s.CullMode)
	return b.String()
}

// Pipeline is the render pipeline of one program in one State.
type Pipeline interface {
	// Label returns the debug label.
	Label() string

	// Key returns the key of the pipeline state.
	Key() string

	// State returns the fixed-function state.
	State() State

	// Descriptor builds the render pipeline descriptor. Both stages use the program entry points
	// of the shader module.
	//
	// Parameters:
	//   - module: the shader module of the program
	//   - layout: the pipeline layout of the program
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor
	Descriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) *wgpu.RenderPipelineDescriptor

	// Init creates the render pipeline on the device.
	//
	// Parameters:
	//   - device: the device
	//   - module: the shader module of the program
	//   - layout: the pipeline layout of the program
	//
	// Returns:
	//   - error: error if the device rejects the pipeline
	Init(device *wgpu.Device, module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) error

	// RenderPipeline returns the pipeline created by Init, nil before.
	RenderPipeline() *wgpu.RenderPipeline

	Release()
}

type pipeline struct {
	label string
	key   string
	state State

	renderPipeline *wgpu.RenderPipeline
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a pipeline description. Without options it has no attachments, no depth
// test, no blending and no culling.
//
// Parameters:
//   - label: the debug label
//   - opts: options configuring the state
//
// Returns:
//   - Pipeline: the pipeline, to be created on a device with Init
func NewPipeline(label string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{label: label, state: State{CullMode: wgpu.CullModeNone}}
	for _, opt := range opts {
		opt(&p.state)
	}
	p.key = p.state.Key()
	return p
}

func (p *pipeline) Label() string { return p.label }
func (p *pipeline) Key() string   { return p.key }
func (p *pipeline) State() State  { return p.state }

func (p *pipeline) Descriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) *wgpu.RenderPipelineDescriptor {
	s := p.state
	targets := make([]wgpu.ColorTargetState, len(s.ColorFormats))
	for i, f := range s.ColorFormats {
		targets[i] = wgpu.ColorTargetState{Format: f, Blend: s.Blend, WriteMask: wgpu.ColorWriteMaskAll}
	}
	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.label,
		Layout: layout,
		Vertex: wgpu.VertexState{Module: module, EntryPoint: shader.VertexEntryPoint},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: shader.FragmentEntryPoint,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  s.CullMode,
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	}
	if s.VertexLayout != nil {
		desc.Vertex.Buffers = []wgpu.VertexBufferLayout{*s.VertexLayout}
	}
	if d := s.Depth; d != nil {
		always := wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways}
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: d.Write,
			DepthCompare:      d.Compare,
			StencilFront:      always,
			StencilBack:       always,
		}
	}
	return desc
}

func (p *pipeline) Init(device *wgpu.Device, module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) error {
	rp, err := device.CreateRenderPipeline(p.Descriptor(module, layout))
	if err != nil {
		return fmt.Errorf("pipeline: %s: %w", p.label, err)
	}
	p.renderPipeline = rp
	return nil
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
