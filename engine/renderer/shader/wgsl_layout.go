package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// typeLayout is the size and alignment of a host-shareable WGSL type in bytes.
type typeLayout struct {
	size  uint64
	align uint64
}

var scalarSizes = map[string]uint64{
	"f32":  4,
	"i32":  4,
	"u32":  4,
	"bool": 4,
	"f16":  2,
}

// shorthandScalars maps the suffix of vec3f style aliases to the scalar type.
var shorthandScalars = map[byte]string{
	'f': "f32",
	'i': "i32",
	'u': "u32",
	'h': "f16",
}

// vertexFormats is indexed by component count.
var vertexFormats = map[string][5]wgpu.VertexFormat{
	"f32": {1: wgpu.VertexFormatFloat32, wgpu.VertexFormatFloat32x2, wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x4},
	"i32": {1: wgpu.VertexFormatSint32, wgpu.VertexFormatSint32x2, wgpu.VertexFormatSint32x3, wgpu.VertexFormatSint32x4},
	"u32": {1: wgpu.VertexFormatUint32, wgpu.VertexFormatUint32x2, wgpu.VertexFormatUint32x3, wgpu.VertexFormatUint32x4},
}

// alignUp rounds v up to a multiple of the power of two a.
func alignUp(a, v uint64) uint64 {
	if a == 0 {
		return v
	}
	return (v + a - 1) &^ (a - 1)
}

// splitVector parses vecN<T> and the vecNf/vecNi/vecNu/vecNh aliases.
func splitVector(t string) (n int, scalar string, ok bool) {
	if !strings.HasPrefix(t, "vec") || len(t) < 5 {
		return 0, "", false
	}
	n = int(t[3] - '0')
	if n < 2 || n > 4 {
		return 0, "", false
	}
	switch rest := t[4:]; {
	case len(rest) == 1:
		scalar, ok = shorthandScalars[rest[0]]
	case strings.HasPrefix(rest, "<") && strings.HasSuffix(rest, ">"):
		scalar = rest[1 : len(rest)-1]
		_, ok = scalarSizes[scalar]
	}
	return n, scalar, ok
}

// vectorLayout follows the WGSL rule that three-component vectors align like four-component ones.
func vectorLayout(n int, scalarSize uint64) typeLayout {
	size := uint64(n) * scalarSize
	if n == 3 {
		return typeLayout{size, 4 * scalarSize}
	}
	return typeLayout{size, size}
}

// matrixLayout parses matCxR<T> and matCxRf/matCxRh: C columns of vecR, each padded to its alignment.
func matrixLayout(t string) (typeLayout, bool) {
	if !strings.HasPrefix(t, "mat") || len(t) < 7 || t[4] != 'x' {
		return typeLayout{}, false
	}
	cols, rows := int(t[3]-'0'), int(t[5]-'0')
	if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
		return typeLayout{}, false
	}
	_, scalar, ok := splitVector("vec" + t[5:])
	if !ok || (scalar != "f32" && scalar != "f16") {
		return typeLayout{}, false
	}
	col := vectorLayout(rows, scalarSizes[scalar])
	return typeLayout{uint64(cols) * alignUp(col.align, col.size), col.align}, true
}

// vertexFormat returns the vertex attribute format and byte size of a WGSL vertex input type.
func vertexFormat(t string) (wgpu.VertexFormat, uint64, bool) {
	n, scalar := 1, t
	if vn, vs, ok := splitVector(t); ok {
		n, scalar = vn, vs
	}
	formats, ok := vertexFormats[scalar]
	if !ok {
		return 0, 0, false
	}
	return formats[n], uint64(n) * 4, true
}

// layoutResolver holds the layouts of the structs resolved so far.
type layoutResolver map[string]typeLayout

// resolveStructs computes the layouts of all declarations. Structs may reference structs
// declared later, so resolution repeats until no further struct resolves.
func resolveStructs(decls []structDecl) layoutResolver {
	r := make(layoutResolver, len(decls))
	pending := decls
	for len(pending) > 0 {
		var next []structDecl
		for _, d := range pending {
			if l, ok := r.structLayout(d); ok {
				r[d.name] = l
			} else {
				next = append(next, d)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return r
}

// resolve returns the layout of a type. A runtime-sized array resolves to one element stride.
func (r layoutResolver) resolve(t string) (typeLayout, bool) {
	if s, ok := scalarSizes[t]; ok {
		return typeLayout{s, s}, true
	}
	if n, scalar, ok := splitVector(t); ok {
		return vectorLayout(n, scalarSizes[scalar]), true
	}
	if l, ok := matrixLayout(t); ok {
		return l, true
	}
	if l, ok := r[t]; ok {
		return l, true
	}
	if inner, ok := strings.CutPrefix(t, "atomic<"); ok {
		return r.resolve(strings.TrimSuffix(inner, ">"))
	}
	if elem, count, ok := splitArray(t); ok {
		el, ok := r.resolve(elem)
		if !ok {
			return typeLayout{}, false
		}
		stride := alignUp(el.align, el.size)
		if count == 0 {
			return typeLayout{stride, el.align}, true
		}
		return typeLayout{count * stride, el.align}, true
	}
	return typeLayout{}, false
}

// splitArray parses array<T, N> and array<T>; count is 0 for runtime-sized arrays.
func splitArray(t string) (elem string, count uint64, ok bool) {
	inner, found := strings.CutPrefix(t, "array<")
	if !found || !strings.HasSuffix(inner, ">") {
		return "", 0, false
	}
	inner = inner[:len(inner)-1]
	i := strings.LastIndex(inner, ",")
	if i < 0 || strings.Count(inner[i:], ">") > 0 {
		return strings.TrimSpace(inner), 0, true
	}
	count, err := strconv.ParseUint(strings.TrimSpace(inner[i+1:]), 10, 64)
	if err != nil {
		return "", 0, false
	}
	return strings.TrimSpace(inner[:i]), count, true
}

// structLayout places each member at its next aligned offset and rounds the size up to the
// largest member alignment. A trailing runtime-sized array contributes its element stride,
// which is the minimum binding size of the buffer. Builtin members are not host-shareable.
func (r layoutResolver) structLayout(d structDecl) (typeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range d.fields {
		if f.builtin {
			continue
		}
		l, ok := r.resolve(f.typ)
		if !ok {
			return typeLayout{}, false
		}
		offset = alignUp(l.align, offset) + l.size
		align = max(align, l.align)
	}
	return typeLayout{alignUp(align, offset), align}, true
}
