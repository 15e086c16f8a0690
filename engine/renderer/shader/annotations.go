// annotations.go defines the directive types, argument constants and parser for the camsim
// WGSL pre-processor. Directives are single-line WGSL comments prefixed with @camsim: that
// inject shared struct sources, declare bindings, select feature-dependent code and splice in
// code generated from the program variant.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies a camsim directive within a WGSL comment line.
const annotationPrefix = "@camsim:"

// AnnotationType identifies the kind of directive parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct or helper library.
	//
	// Syntax: //@camsim:include <source>
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a @group/@binding variable declaration for a
	// registered struct type and records it in the declarations list.
	//
	// Syntax: //@camsim:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@camsim:group 0 1 storage_read lights array<light>
	AnnotationTypeBindingGroup AnnotationType = "group"

	// annotationTypeIf opens a block that is kept only if every listed condition holds for the
	// variant being generated. A condition is a feature, or several joined by '|' of which one
	// must be enabled; a leading '!' negates it.
	//
	// Syntax: //@camsim:if <feature>[|<feature>...] [!<feature> ...]
	annotationTypeIf AnnotationType = "if"

	// annotationTypeElse flips the innermost open if block.
	annotationTypeElse AnnotationType = "else"

	// annotationTypeEndif closes the innermost open if block.
	annotationTypeEndif AnnotationType = "endif"

	// annotationTypeGenerate splices in code produced by a registered generator for the
	// variant, e.g. the fragment output struct.
	//
	// Syntax: //@camsim:generate <generator>
	annotationTypeGenerate AnnotationType = "generate"
)

// Annotation is a single parsed @camsim: directive.
type Annotation struct {
	// Type identifies which directive was parsed.
	Type AnnotationType

	// Args holds the directive's arguments. The contents depend on Type:
	//   - include:  [0] = source key
	//   - group:    [0] = address space, [1] = var name, [2] = type key
	//   - if:       feature names, each optionally prefixed by '!'
	//   - generate: [0] = generator key
	Args []AnnotationArg

	// Line is the 1-based source line of the directive.
	Line int

	// Group is the @group index for group directives. Nil otherwise.
	Group *int

	// Binding is the @binding index for group directives. Nil otherwise.
	Binding *int
}

// AnnotationArg is a typed string used as a directive argument.
type AnnotationArg string

// Struct and library sources injectable with include and usable as group types.
const (
	AnnotationArgVertex             AnnotationArg = "vertex"
	AnnotationArgLight              AnnotationArg = "light"
	AnnotationArgMaterial           AnnotationArg = "material"
	AnnotationArgPassUniforms       AnnotationArg = "pass_uniforms"
	AnnotationArgObjectUniforms     AnnotationArg = "object_uniforms"
	AnnotationArgDrawInfo           AnnotationArg = "draw_info"
	AnnotationArgFullscreenUniforms AnnotationArg = "fullscreen_uniforms"
	AnnotationArgWeights            AnnotationArg = "weights"
	annotationArgCommon             AnnotationArg = "common"
	annotationArgSceneVertex        AnnotationArg = "scene_vertex"
	annotationArgSurface            AnnotationArg = "surface"
	annotationArgFullscreenVertex   AnnotationArg = "fullscreen_vertex"
	annotationArgLightModel         AnnotationArg = "light_model"
)

// Address spaces for group directives.
const (
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"
	annotationArgStorageTypeRead    AnnotationArg = "storage_read"
)

// Generators for generate directives.
const (
	annotationArgFragmentOutputs  AnnotationArg = "fragment_outputs"
	annotationArgShadowSlots      AnnotationArg = "shadow_slots"
	annotationArgFullscreenInputs AnnotationArg = "fullscreen_inputs"
	annotationArgConstants        AnnotationArg = "constants"
)

var validStructTypes = []AnnotationArg{
	AnnotationArgVertex,
	AnnotationArgLight,
	AnnotationArgMaterial,
	AnnotationArgPassUniforms,
	AnnotationArgObjectUniforms,
	AnnotationArgDrawInfo,
	AnnotationArgFullscreenUniforms,
	AnnotationArgWeights,
	annotationArgCommon,
	annotationArgSceneVertex,
	annotationArgSurface,
	annotationArgFullscreenVertex,
	annotationArgLightModel,
}

var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
}

var validGenerators = []AnnotationArg{
	annotationArgFragmentOutputs,
	annotationArgShadowSlots,
	annotationArgFullscreenInputs,
	annotationArgConstants,
}

// parseAnnotation parses a single line of WGSL as a @camsim: directive. Lines without the
// prefix return nil and no error.
//
// Parameters:
//   - line: the raw WGSL source line
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed directive, or nil if the line is not one
//   - error: a descriptive error if the directive is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @camsim directive", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @camsim include requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown source %q in @camsim include", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil
	case AnnotationTypeBindingGroup:
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @camsim group requires group, binding, address space, name and type", lineNum)
		}
		group, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q: %v", lineNum, args[1], err)
		}
		binding, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q: %v", lineNum, args[2], err)
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q", lineNum, args[3])
		}
		typeArg := args[5]
		if inner, ok := strings.CutPrefix(typeArg, "array<"); ok {
			typeArg = strings.TrimSuffix(inner, ">")
		}
		if !slices.Contains(validStructTypes, AnnotationArg(typeArg)) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @camsim group", lineNum, typeArg)
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &group,
			Binding: &binding,
		}, nil
	case annotationTypeIf:
		if len(args) < 2 {
			return nil, fmt.Errorf("line %d: @camsim if requires at least one feature", lineNum)
		}
		conds := make([]AnnotationArg, 0, len(args)-1)
		for _, a := range args[1:] {
			for _, name := range strings.Split(strings.TrimPrefix(a, "!"), "|") {
				if _, ok := FeatureByName(name); !ok {
					return nil, fmt.Errorf("line %d: unknown feature %q in @camsim if", lineNum, a)
				}
			}
			conds = append(conds, AnnotationArg(a))
		}
		return &Annotation{Type: annotationTypeIf, Args: conds, Line: lineNum}, nil
	case annotationTypeElse, annotationTypeEndif:
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: @camsim %s takes no arguments", lineNum, args[0])
		}
		return &Annotation{Type: AnnotationType(args[0]), Line: lineNum}, nil
	case annotationTypeGenerate:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @camsim generate requires exactly one argument", lineNum)
		}
		if !slices.Contains(validGenerators, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown generator %q", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeGenerate, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil
	}
	return nil, fmt.Errorf("line %d: unknown @camsim directive %q", lineNum, args[0])
}

// evalCondition reports whether every feature condition of an if directive holds for v.
// A condition of names joined by '|' holds if any of them is enabled.
func evalCondition(conds []AnnotationArg, v Variant) bool {
	for _, c := range conds {
		names, negate := strings.CutPrefix(string(c), "!")
		hit := false
		for _, name := range strings.Split(names, "|") {
			f, _ := FeatureByName(name)
			if v.Has(f) {
				hit = true
				break
			}
		}
		if hit == negate {
			return false
		}
	}
	return true
}
