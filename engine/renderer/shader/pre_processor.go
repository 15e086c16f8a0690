// pre_processor.go implements the camsim WGSL pre-processor. It scans a pass template for
// @camsim: directives and produces the WGSL of one program variant: shared struct and helper
// sources are injected, binding declarations are generated, feature blocks are kept or
// dropped and variant-dependent code is generated. Binding directives are collected into a
// declarations list that the wgpu backend uses to wire resources by name.
//
// The pre-processor maintains two registries:
//   - structRegistry: maps AnnotationArg keys to embedded WGSL sources and their resolved
//     type names. Used by include (to inject the source) and group (to resolve the type).
//   - addressSpaceRegistry: maps address space argument keys to WGSL var<> syntax strings.
package shader

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/camsim-go/engine/light"
	"github.com/Carmen-Shannon/camsim-go/engine/model"
	"github.com/Carmen-Shannon/camsim-go/engine/renderer/material"
)

// Bind groups and the bindings of the slot textures generated by the shadow_slots generator.
const (
	// GroupPass holds the uniform and storage buffers of every pass.
	GroupPass = 0

	// GroupMaterial holds the material textures of scene passes.
	GroupMaterial = 1

	// GroupInputs holds the input textures of fullscreen passes.
	GroupInputs = 1

	// GroupSlots holds the shadow, reflective shadow, power factor and last depth textures.
	GroupSlots = 2

	// MaxShadowSlots is the number of shadow cubes a light pass can read.
	MaxShadowSlots = 4

	// MaxRSMSlots is the number of reflective shadow maps a light pass can read.
	MaxRSMSlots = 2

	// MaxPowerFactorSlots is the number of power factor maps a pass can read.
	MaxPowerFactorSlots = 4

	ShadowSlotBinding      = 0
	RSMSlotBinding         = ShadowSlotBinding + MaxShadowSlots
	PowerFactorSlotBinding = RSMSlotBinding + MaxRSMSlots
	LastDepthBinding       = PowerFactorSlotBinding + MaxPowerFactorSlots
)

// registryEntry pairs a WGSL source string (embedded from a .wgsl asset file) with the
// resolved WGSL type name used in generated @group/@binding declarations.
type registryEntry struct {
	// Source is the raw WGSL text injected by include.
	Source string

	// Type is the WGSL type name emitted in group declarations (e.g. "PassUniforms", "Light").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry       map[AnnotationArg]registryEntry
	addressSpaceRegistry map[AnnotationArg]string
	generators           map[AnnotationArg]func(Variant) string

	// declarations accumulates group directives during a Process call.
	declarations []Annotation
}

// PreProcessor turns an annotated pass template into the WGSL of one program variant.
type PreProcessor interface {
	// Process pre-processes a template for a variant. include directives are replaced by the
	// registered source (each source at most once, nested directives are expanded), group
	// directives by @group/@binding declarations, if/else/endif blocks are kept or dropped
	// by the variant's features and generate directives by generated code.
	//
	// The declarations list is reset at the start of each call.
	//
	// Parameters:
	//   - source: the annotated WGSL template
	//   - v: the variant being generated
	//
	// Returns:
	//   - string: the WGSL source of the variant
	//   - error: an error if a directive is malformed or a block is unbalanced
	Process(source string, v Variant) (string, error)

	// Declarations returns the group directives collected during the most recent call to
	// Process, in source order.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with all registered sources, address spaces and
// generators.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgVertex:             {Source: model.GPUVertexSource, Type: "VertexInput"},
			AnnotationArgLight:              {Source: light.GPULightSource, Type: "Light"},
			AnnotationArgMaterial:           {Source: material.GPUMaterialSource, Type: "Material"},
			AnnotationArgPassUniforms:       {Source: PassUniformsSource, Type: "PassUniforms"},
			AnnotationArgObjectUniforms:     {Source: ObjectUniformsSource, Type: "ObjectUniforms"},
			AnnotationArgDrawInfo:           {Source: DrawInfoSource, Type: "DrawInfo"},
			AnnotationArgFullscreenUniforms: {Source: FullscreenUniformsSource, Type: "FullscreenUniforms"},
			AnnotationArgWeights:            {Type: "f32"},
			annotationArgCommon:             {Source: commonSource},
			annotationArgSceneVertex:        {Source: sceneVertexSource},
			annotationArgSurface:            {Source: surfaceSource},
			annotationArgFullscreenVertex:   {Source: fullscreenVertexSource},
			annotationArgLightModel:         {Source: lightModelSource},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgStorageTypeUniform: "var<uniform>",
			annotationArgStorageTypeRead:    "var<storage, read>",
		},
		generators: map[AnnotationArg]func(Variant) string{
			annotationArgFragmentOutputs:  generateFragmentOutputs,
			annotationArgShadowSlots:      generateShadowSlots,
			annotationArgFullscreenInputs: generateFullscreenInputs,
			annotationArgConstants:        generateConstants,
		},
	}
}

func (p *preProcessor) Process(source string, v Variant) (string, error) {
	p.declarations = p.declarations[:0]
	var out []string
	if err := p.expand(source, v, map[AnnotationArg]bool{}, &out); err != nil {
		return "", err
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// block is one open if directive.
type block struct {
	line    int
	outer   bool
	taken   bool
	sawElse bool
}

// expand processes one source, appending to out. Nested includes share the included set.
func (p *preProcessor) expand(source string, v Variant, included map[AnnotationArg]bool, out *[]string) error {
	var stack []block
	active := true
	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return err
		}
		if a == nil {
			if active {
				*out = append(*out, line)
			}
			continue
		}

		// block directives are tracked even inside dropped blocks
		switch a.Type {
		case annotationTypeIf:
			taken := evalCondition(a.Args, v)
			stack = append(stack, block{line: a.Line, outer: active, taken: taken})
			active = active && taken
			continue
		case annotationTypeElse:
			if len(stack) == 0 || stack[len(stack)-1].sawElse {
				return fmt.Errorf("line %d: @camsim else without matching if", a.Line)
			}
			b := &stack[len(stack)-1]
			b.sawElse = true
			active = b.outer && !b.taken
			continue
		case annotationTypeEndif:
			if len(stack) == 0 {
				return fmt.Errorf("line %d: @camsim endif without matching if", a.Line)
			}
			active = stack[len(stack)-1].outer
			stack = stack[:len(stack)-1]
			continue
		}
		if !active {
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return fmt.Errorf("line %d: unknown @camsim include argument %q", a.Line, a.Args[0])
			}
			if included[a.Args[0]] || entry.Source == "" {
				continue
			}
			included[a.Args[0]] = true
			if err := p.expand(entry.Source, v, included, out); err != nil {
				return fmt.Errorf("%s: %w", a.Args[0], err)
			}
		case AnnotationTypeBindingGroup:
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			varName := string(a.Args[1])
			var wgslType string
			if inner, ok := strings.CutPrefix(string(a.Args[2]), "array<"); ok {
				inner = strings.TrimSuffix(inner, ">")
				wgslType = fmt.Sprintf("array<%s>", p.structRegistry[AnnotationArg(inner)].Type)
			} else {
				wgslType = p.structRegistry[a.Args[2]].Type
			}
			*out = append(*out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, varName, wgslType))
			p.declarations = append(p.declarations, *a)
		case annotationTypeGenerate:
			if code := p.generators[a.Args[0]](v); code != "" {
				*out = append(*out, code)
			}
		default:
			return fmt.Errorf("line %d: unknown annotation type %q", a.Line, a.Type)
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("line %d: @camsim if without endif", stack[len(stack)-1].line)
	}
	return nil
}

// generateConstants emits the integer parameters of the variant.
func generateConstants(v Variant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "const LIGHT_COUNT: u32 = %du;\n", max(v.Lights, 0))
	fmt.Fprintf(&b, "const WEIGHTS_WIDTH: i32 = %d;\n", max(v.WeightsWidth, 1))
	fmt.Fprintf(&b, "const WEIGHTS_HEIGHT: i32 = %d;\n", max(v.WeightsHeight, 1))
	fmt.Fprintf(&b, "const INPUT_COUNT: u32 = %du;", max(v.InputCount(), 1))
	return b.String()
}

// generateFragmentOutputs emits the FragmentOutput struct with one location per output.
func generateFragmentOutputs(v Variant) string {
	outputs := v.Outputs()
	if len(outputs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("struct FragmentOutput {\n")
	for i, o := range outputs {
		typ := "vec4<f32>"
		if o.Type == OutputUint {
			typ = "vec4<u32>"
		}
		fmt.Fprintf(&b, "    @location(%d) %s: %s,\n", i, o.Name, typ)
	}
	b.WriteString("};")
	return b.String()
}

// writeSlotSwitch emits a function dispatching on a slot index to one texture per case.
func writeSlotSwitch(b *strings.Builder, signature, fallback string, slots int, body func(slot int) string) {
	fmt.Fprintf(b, "fn %s {\n    switch slot {\n", signature)
	for s := 0; s < slots; s++ {
		fmt.Fprintf(b, "        case %d: { return %s; }\n", s, body(s))
	}
	fmt.Fprintf(b, "        default: { return %s; }\n    }\n}\n", fallback)
}

// generateShadowSlots emits the slot textures of the enabled features and their loaders.
func generateShadowSlots(v Variant) string {
	var b strings.Builder
	if v.Has(FeatureShadowMaps) && v.Pass == PassLight {
		for s := 0; s < MaxShadowSlots; s++ {
			fmt.Fprintf(&b, "@group(%d) @binding(%d) var shadow_map_%d: texture_depth_2d_array;\n", GroupSlots, ShadowSlotBinding+s, s)
		}
		writeSlotSwitch(&b, "shadow_depth(slot: i32, side: i32, texel: vec2<i32>) -> f32", "1.0", MaxShadowSlots, func(s int) string {
			return fmt.Sprintf("textureLoad(shadow_map_%d, texel, side, 0)", s)
		})
		writeSlotSwitch(&b, "shadow_map_size(slot: i32) -> i32", "1", MaxShadowSlots, func(s int) string {
			return fmt.Sprintf("i32(textureDimensions(shadow_map_%d).x)", s)
		})
	}
	if v.Has(FeatureReflectiveShadowMaps) && v.Pass == PassLight {
		for s := 0; s < MaxRSMSlots; s++ {
			fmt.Fprintf(&b, "@group(%d) @binding(%d) var rsm_%d: texture_2d_array<f32>;\n", GroupSlots, RSMSlotBinding+s, s)
		}
		writeSlotSwitch(&b, "rsm_texel(slot: i32, layer: i32, texel: vec2<i32>) -> vec4<f32>", "vec4<f32>(0.0)", MaxRSMSlots, func(s int) string {
			return fmt.Sprintf("textureLoad(rsm_%d, texel, layer, 0)", s)
		})
		writeSlotSwitch(&b, "rsm_size(slot: i32) -> i32", "1", MaxRSMSlots, func(s int) string {
			return fmt.Sprintf("i32(textureDimensions(rsm_%d).x)", s)
		})
	}
	if v.Has(FeaturePowerFactorMaps) && (v.Pass == PassLight || v.Pass == PassReflectiveShadowMap) {
		for s := 0; s < MaxPowerFactorSlots; s++ {
			fmt.Fprintf(&b, "@group(%d) @binding(%d) var power_factor_%d: texture_2d<f32>;\n", GroupSlots, PowerFactorSlotBinding+s, s)
		}
		writeSlotSwitch(&b, "power_factor_texel(slot: i32, texel: vec2<i32>) -> f32", "1.0", MaxPowerFactorSlots, func(s int) string {
			return fmt.Sprintf("textureLoad(power_factor_%d, texel, 0).r", s)
		})
		writeSlotSwitch(&b, "power_factor_size(slot: i32) -> vec2<i32>", "vec2<i32>(1, 1)", MaxPowerFactorSlots, func(s int) string {
			return fmt.Sprintf("vec2<i32>(textureDimensions(power_factor_%d))", s)
		})
	}
	if v.Pass == PassFlow && (v.Has(FeatureBackwardFlow3D) || v.Has(FeatureBackwardFlow2D)) {
		fmt.Fprintf(&b, "@group(%d) @binding(%d) var last_depth: texture_depth_2d;\n", GroupSlots, LastDepthBinding)
		b.WriteString("fn last_window_depth(texel: vec2<i32>) -> f32 {\n    return textureLoad(last_depth, texel, 0);\n}\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// generateFullscreenInputs emits the input textures of a fullscreen pass and their loaders.
func generateFullscreenInputs(v Variant) string {
	n := v.InputCount()
	if n == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "@group(%d) @binding(%d) var input_%d: texture_2d<f32>;\n", GroupInputs, i, i)
	}
	b.WriteString("fn load_input(i: u32, p: vec2<i32>) -> vec4<f32> {\n    switch i {\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "        case %du: { return textureLoad(input_%d, p, 0); }\n", i, i)
	}
	b.WriteString("        default: { return vec4<f32>(0.0); }\n    }\n}\n")
	b.WriteString("fn input_size() -> vec2<i32> {\n    return vec2<i32>(textureDimensions(input_0));\n}")
	return b.String()
}
