package shader

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	structDeclRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex   = regexp.MustCompile(`@location\((\d+)\)`)
	builtinRegex    = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex captures the member name and the rest of the member as its type, so
	// parameterized types such as array<T, N> stay intact.
	fieldRegex = regexp.MustCompile(`^(?:@\w+\([^)]*\)\s*)*(\w+)\s*:\s*(.+)$`)
)

// structField is one member of a WGSL struct declaration.
type structField struct {
	name     string
	typ      string
	location int // -1 without @location
	builtin  bool
}

// structDecl is a WGSL struct declaration.
type structDecl struct {
	name   string
	fields []structField
}

// parseVertexLayout extracts the mesh vertex buffer layout from generated WGSL source. The first
// struct that is a pure vertex input (@location fields, no @builtin fields) is converted into a
// tightly packed wgpu.VertexBufferLayout.
//
// Parameters:
//   - source: the generated WGSL source code
//
// Returns:
//   - wgpu.VertexBufferLayout: the vertex buffer layout
//   - bool: false for fullscreen programs, which declare no vertex input
func parseVertexLayout(source string) (wgpu.VertexBufferLayout, bool) {
	for _, d := range parseStructs(source) {
		if !d.isVertexInput() {
			continue
		}
		if layout, ok := d.vertexBufferLayout(); ok {
			return layout, true
		}
	}
	return wgpu.VertexBufferLayout{}, false
}

// StructLayout computes the host-shareable size and alignment of a WGSL struct declared in
// source, following the WGSL alignment rules. Vertex input structs are not host-shareable; for
// them the tightly packed vertex stride is reported with 4-byte alignment. The GPU types that
// mirror uniform blocks and vertices are checked against it.
//
// Parameters:
//   - source: WGSL source declaring the struct and every struct it depends on
//   - name: the struct name
//
// Returns:
//   - size: the struct size in bytes
//   - align: the struct alignment in bytes
//   - ok: false if the struct is missing or a field type cannot be resolved
func StructLayout(source, name string) (size, align uint64, ok bool) {
	decls := parseStructs(source)
	for _, d := range decls {
		if d.name != name || !d.isVertexInput() {
			continue
		}
		if vl, ok := d.vertexBufferLayout(); ok {
			return vl.ArrayStride, 4, true
		}
	}
	l, ok := resolveStructs(decls)[name]
	return l.size, l.align, ok
}

// parseStructs returns the struct declarations of WGSL source, ignoring comments.
func parseStructs(source string) []structDecl {
	matches := structDeclRegex.FindAllStringSubmatch(stripComments(source), -1)
	decls := make([]structDecl, 0, len(matches))
	for _, m := range matches {
		decls = append(decls, structDecl{name: m[1], fields: parseFields(m[2])})
	}
	return decls
}

// parseFields splits a struct body at the commas outside angle brackets and parses each member.
func parseFields(body string) []structField {
	var members []string
	depth, start := 0, 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '<':
			depth++
		case '>':
			depth = max(depth-1, 0)
		case ',':
			if depth == 0 {
				members = append(members, body[start:i])
				start = i + 1
			}
		}
	}
	members = append(members, body[start:])

	fields := make([]structField, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		fm := fieldRegex.FindStringSubmatch(m)
		if fm == nil {
			continue
		}
		f := structField{
			name:     fm[1],
			typ:      strings.TrimSpace(fm[2]),
			location: -1,
			builtin:  builtinRegex.MatchString(m),
		}
		if lm := locationRegex.FindStringSubmatch(m); lm != nil {
			if loc, err := strconv.Atoi(lm[1]); err == nil {
				f.location = loc
			}
		}
		fields = append(fields, f)
	}
	return fields
}

// stripComments removes line comments and nested block comments, keeping line breaks.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		switch {
		case strings.HasPrefix(source[i:], "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(source[i:], "*/"):
			depth--
			i++
		case depth > 0:
			if source[i] == '\n' {
				sb.WriteByte('\n')
			}
		case strings.HasPrefix(source[i:], "//"):
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}

// isVertexInput reports whether every member has a @location and none is a @builtin. Vertex
// outputs mix @location members with @builtin(position).
func (d structDecl) isVertexInput() bool {
	if len(d.fields) == 0 {
		return false
	}
	for _, f := range d.fields {
		if f.builtin || f.location < 0 {
			return false
		}
	}
	return true
}

// vertexBufferLayout packs the members of a vertex input struct in declaration order.
func (d structDecl) vertexBufferLayout() (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(d.fields))
	var offset uint64
	for _, f := range d.fields {
		format, size, ok := vertexFormat(f.typ)
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}
