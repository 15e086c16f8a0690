package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// Entry point names shared by every generated program.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// program is the implementation of the Program interface.
// It holds all of the persistent program data required for pipeline creation and resource binding.
type program struct {
	key                        string
	variant                    Variant
	source                     string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	declarations               []Annotation
	module                     *wgpu.ShaderModuleDescriptor
	vertexLayout               wgpu.VertexBufferLayout
	hasVertexLayout            bool
}

// Program defines the interface for the generated and validated WGSL of one Variant. It exposes
// the program key, the source, the bind group layout descriptors reflected from the source and
// the declarations needed for pipeline creation and resource wiring.
type Program interface {
	// Key retrieves the variant key of the program, used for caching and lookups.
	//
	// Returns:
	//   - string: the program's unique key
	Key() string

	// Variant retrieves the variant the program was generated for.
	//
	// Returns:
	//   - Variant: the variant
	Variant() Variant

	// Source retrieves the generated WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the program
	Source() string

	// BindGroupLayoutDescriptors retrieves the bind group layout descriptors reflected from the
	// validated module, keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name for a given group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index for a given group and variable name.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable name was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// Module returns the shader module descriptor holding the WGSL code.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the module descriptor
	Module() *wgpu.ShaderModuleDescriptor

	// VertexLayout returns the mesh vertex buffer layout parsed from the VertexInput struct of
	// the generated source.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the layout
	//   - bool: false for fullscreen programs
	VertexLayout() (wgpu.VertexBufferLayout, bool)

	// Declarations returns the group directives found while generating the source.
	//
	// Returns:
	//   - []Annotation: the group declarations in source order
	Declarations() []Annotation
}

var _ Program = &program{}

// Generate produces the WGSL source of a variant without validating it.
//
// Parameters:
//   - v: the program variant
//
// Returns:
//   - string: the WGSL source
//   - error: error if the pass has no template or a directive is malformed
func Generate(v Variant) (string, error) {
	src, err := passSource(v.Pass)
	if err != nil {
		return "", err
	}
	out, err := NewPreProcessor().Process(src, v)
	if err != nil {
		return "", fmt.Errorf("shader: %s: %w", v.Key(), err)
	}
	return out, nil
}

// NewProgram generates the WGSL of a variant, validates it with naga and reflects its bind
// group layouts.
//
// Parameters:
//   - v: the program variant
//
// Returns:
//   - Program: the validated program
//   - error: error if generation, parsing, lowering or validation fails
func NewProgram(v Variant) (Program, error) {
	src, err := passSource(v.Pass)
	if err != nil {
		return nil, err
	}
	pp := NewPreProcessor()
	code, err := pp.Process(src, v)
	if err != nil {
		return nil, fmt.Errorf("shader: %s: %w", v.Key(), err)
	}
	ast, err := naga.Parse(code)
	if err != nil {
		return nil, fmt.Errorf("shader: %s: %w", v.Key(), err)
	}
	module, err := naga.LowerWithSource(ast, code)
	if err != nil {
		return nil, fmt.Errorf("shader: %s: %w", v.Key(), err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("shader: %s: %w", v.Key(), err)
	}
	if len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, e := range verrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("shader: %s: validation failed: %w", v.Key(), errors.Join(errs...))
	}

	p := &program{
		key:          v.Key(),
		variant:      v,
		source:       code,
		declarations: append([]Annotation(nil), pp.Declarations()...),
		module: &wgpu.ShaderModuleDescriptor{
			Label: v.Key(),
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: code,
			},
		},
	}
	p.bindGroupLayoutDescriptors, p.bindingVarNames = reflectBindGroupLayouts(module, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment)
	if v.Pass.IsScenePass() {
		p.vertexLayout, p.hasVertexLayout = parseVertexLayout(code)
		if !p.hasVertexLayout {
			return nil, fmt.Errorf("shader: %s: scene program declares no vertex input", v.Key())
		}
	}
	return p, nil
}

func (p *program) Key() string {
	return p.key
}

func (p *program) Variant() Variant {
	return p.variant
}

func (p *program) Source() string {
	return p.source
}

func (p *program) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return p.bindGroupLayoutDescriptors
}

func (p *program) BindGroupVarName(group, binding int) string {
	if p.bindingVarNames[group] == nil {
		return ""
	}
	return p.bindingVarNames[group][binding]
}

func (p *program) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range p.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (p *program) Module() *wgpu.ShaderModuleDescriptor {
	return p.module
}

func (p *program) VertexLayout() (wgpu.VertexBufferLayout, bool) {
	return p.vertexLayout, p.hasVertexLayout
}

func (p *program) Declarations() []Annotation {
	return p.declarations
}
